package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/tle"
	"github.com/star/sattracker/internal/tracker"
)

func main() {
	file := flag.String("tle", "", "TLE file (default: latest snapshot in -cache)")
	cacheDir := flag.String("cache", "/tmp/sattracker/tle", "TLE cache directory")
	count := flag.Int("n", 5, "number of catalog entries to sample")
	points := flag.Int("points", 10, "points per pass table")
	lat := flag.String("lat", "39.7392", "observer latitude, degrees")
	lon := flag.String("lon", "-104.9903", "observer longitude, degrees")
	elev := flag.String("elev", "1609", "observer elevation, meters")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	obs, err := propagation.ParseObserver(*lat, *lon, *elev)
	if err != nil {
		fmt.Println("ERROR observer:", err)
		os.Exit(1)
	}

	src := tle.Source{File: *file}
	if src.File == "" {
		src.Fetcher = tle.NewFetcher("", logger)
		src.Cache = tle.NewCache(*cacheDir, 5)
	}
	ds, err := tle.Load(context.Background(), src, logger)
	if err != nil {
		fmt.Println("ERROR loading TLE:", err)
		os.Exit(1)
	}
	entries := ds.Satellites
	fmt.Printf("Loaded %d TLE entries from %s\n", len(entries), ds.Source)
	fmt.Printf("First entry: %s (NORAD %d) epoch %v\n", entries[0].Name, entries[0].NORADID, entries[0].Epoch)

	if *count < len(entries) {
		entries = entries[:*count]
	}

	prop, err := propagation.NewSGP4Propagator(propagation.DefaultConfig(), logger)
	if err != nil {
		fmt.Println("ERROR propagator:", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	fmt.Printf("Observer %s, sampling from %v\n", obs, now.Format(time.RFC3339))

	results := tracker.SampleBatch(context.Background(), prop, tracker.BatchRequest{
		Observer: obs,
		Entries:  entries,
		From:     now,
		Points:   *points,
	}, logger)

	found := 0
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("  NORAD %d: ERROR %s\n", r.NORADID, r.Error)
			continue
		}
		found++
		w := r.Table.Window
		maxEl := r.Table.Elevations[0]
		for _, el := range r.Table.Elevations {
			maxEl = max(maxEl, el)
		}
		fmt.Printf("  NORAD %d %s: rise=%v set=%v dur=%.0fs maxEl=%.1f°\n",
			r.NORADID, r.Name, w.Rise.Format(time.RFC3339), w.Set.Format(time.RFC3339), w.Duration().Seconds(), maxEl)
		for i, t := range r.Table.Epochs {
			fmt.Printf("    %s az=%6.1f° el=%5.1f°\n", t.Format(time.RFC3339), r.Table.Azimuths[i], r.Table.Elevations[i])
		}
	}
	fmt.Printf("\nPasses found: %d/%d\n", found, len(results))
}
