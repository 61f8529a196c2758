package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/sattracker/internal/api"
	"github.com/star/sattracker/internal/auth"
	"github.com/star/sattracker/internal/config"
	"github.com/star/sattracker/internal/doppler"
	"github.com/star/sattracker/internal/logging"
	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/tle"
	"github.com/star/sattracker/internal/tracker"
)

const usage = `usage: sattracker [flags] <command>

commands:
  now     print the current look angles and Doppler shift of the target
  pass    print the sampled table of the target's next pass
  serve   run the HTTP API

flags:
`

func main() {
	fs := flag.NewFlagSet("sattracker", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	points := fs.Int("points", 0, "pass table size (overrides pass.points)")
	at := fs.String("at", "", "RFC3339 epoch for the now command (default current time)")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	cmd := fs.Arg(0)
	switch cmd {
	case "now", "pass", "serve":
	default:
		fs.Usage()
		os.Exit(2)
	}

	// Configuration problems are reported before the configured logger exists.
	boot := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg, err := config.Load(*configPath, boot)
	if err != nil {
		boot.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *points != 0 {
		if cfg, err = cfg.WithPoints(*points); err != nil {
			boot.Error("invalid -points", "points", *points, "error", err)
			os.Exit(2)
		}
	}

	var logOut io.Writer = os.Stderr
	if cmd == "serve" {
		logOut = os.Stdout
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trk, err := buildTracker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up tracker", "error", err)
		os.Exit(1)
	}

	switch cmd {
	case "now":
		err = runNow(trk, *at)
	case "pass":
		err = runPass(trk, cfg.Pass.Points)
	case "serve":
		err = runServe(ctx, cfg, trk, logger)
	}
	if err != nil {
		logger.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

// buildTracker loads the catalog, picks the configured target and wires it
// to an SGP4 propagator.
func buildTracker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*tracker.Tracker, error) {
	obs, err := cfg.ObserverValue()
	if err != nil {
		return nil, err
	}

	src := tle.Source{File: cfg.TLE.File}
	if src.File == "" {
		fetcher := tle.NewFetcher(cfg.TLE.SourceURL, logger, cfg.TLE.ExtraURLs...)
		fetcher.SetRetry(uint(cfg.TLE.FetchTries), cfg.TLE.RetryInterval)
		src.Fetcher = fetcher
		if cfg.TLE.CacheDir != "" {
			src.Cache = tle.NewCache(cfg.TLE.CacheDir, cfg.TLE.MaxFiles)
		}
	}

	ds, err := tle.Load(ctx, src, logger)
	if err != nil {
		return nil, fmt.Errorf("loading TLE catalog: %w", err)
	}
	logger.Info("TLE catalog loaded",
		"source", ds.Source,
		"count", len(ds.Satellites),
		"epoch_min", ds.EpochRange.Min.Format(time.RFC3339),
		"epoch_max", ds.EpochRange.Max.Format(time.RFC3339),
	)

	entry, err := tle.Find(ds.Satellites, cfg.Target.Name)
	if err != nil {
		return nil, err
	}

	prop, err := propagation.NewSGP4Propagator(cfg.PropagatorConfig(), logger)
	if err != nil {
		return nil, err
	}

	logger.Info("tracking",
		"target", entry.Name,
		"norad_id", entry.NORADID,
		"observer", obs.String(),
		"carrier_hz", cfg.Radio.CarrierHz,
	)
	return tracker.NewFromElements(obs, entry.Name, entry.Line1, entry.Line2, prop,
		tracker.Config{CarrierHz: cfg.Radio.CarrierHz}, logger)
}

type nowOutput struct {
	Target     propagation.Target           `json:"target"`
	State      propagation.ObservationState `json:"state"`
	CarrierHz  float64                      `json:"carrier_hz"`
	DopplerHz  float64                      `json:"doppler_hz"`
	ObservedHz float64                      `json:"observed_hz"`
}

func runNow(trk *tracker.Tracker, at string) error {
	var err error
	if at == "" {
		err = trk.SetEpochNow()
	} else {
		t, perr := time.Parse(time.RFC3339, at)
		if perr != nil {
			return fmt.Errorf("-at: %w", perr)
		}
		err = trk.SetEpoch(t)
	}
	if err != nil {
		return err
	}

	state, err := trk.State()
	if err != nil {
		return err
	}
	shift, err := trk.Doppler()
	if err != nil {
		return err
	}
	return printJSON(nowOutput{
		Target:     trk.Target(),
		State:      state,
		CarrierHz:  trk.CarrierHz(),
		DopplerHz:  shift,
		ObservedHz: doppler.ObservedFrequency(state.RangeRateMps, trk.CarrierHz()),
	})
}

func runPass(trk *tracker.Tracker, points int) error {
	table, err := trk.NextPassTable(points)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Target          propagation.Target `json:"target"`
		DurationSeconds float64            `json:"duration_seconds"`
		tracker.PassTable
	}{trk.Target(), table.Window.Duration().Seconds(), table})
}

func runServe(ctx context.Context, cfg config.Config, trk *tracker.Tracker, logger *slog.Logger) error {
	srv := api.NewServer(api.Options{
		Addr:          cfg.Server.Addr,
		Auth:          auth.Config{Enabled: cfg.Server.AuthEnabled, Token: cfg.Server.AuthToken},
		TrustProxy:    cfg.Server.TrustProxy,
		DefaultPoints: cfg.Pass.Points,
	}, trk, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "auth_enabled", cfg.Server.AuthEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
