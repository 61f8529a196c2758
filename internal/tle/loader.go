package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/sattracker/internal/metrics"
)

// Source describes where a catalog comes from. File wins when set; otherwise
// Fetcher is tried and Cache serves as both the write-through store and the
// fallback when the fetch fails.
type Source struct {
	File    string
	Fetcher *Fetcher
	Cache   *Cache
}

// Load reads the catalog described by src.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*TLEDataset, error) {
	if src.File != "" {
		return loadFile(src.File, logger)
	}
	if src.Fetcher == nil {
		return nil, errors.New("tle: no file or fetcher configured")
	}

	data, err := src.Fetcher.Fetch(ctx)
	metrics.RecordFetch(err)
	if err == nil {
		ds, perr := parseDataset(data, src.Fetcher.SourceURL(), time.Now().UTC(), logger)
		if perr == nil {
			if src.Cache != nil {
				if werr := src.Cache.Write(data, ds.FetchedAt); werr != nil {
					logger.Warn("failed to write TLE cache", "error", werr)
				}
			}
			return ds, nil
		}
		err = perr
	}

	if src.Cache == nil {
		return nil, err
	}
	logger.Warn("TLE fetch failed, falling back to cache", "source_url", src.Fetcher.SourceURL(), "error", err)

	cached, ts, cerr := src.Cache.LoadLatest()
	if cerr != nil {
		return nil, fmt.Errorf("fetch: %w; cache: %v", err, cerr)
	}
	ds, perr := parseDataset(cached, "cache", ts, logger)
	if perr != nil {
		return nil, fmt.Errorf("fetch: %w; cache: %v", err, perr)
	}
	logger.Info("loaded TLE data from cache", "count", len(ds.Satellites), "cached_at", ts.Format(time.RFC3339))
	return ds, nil
}

func loadFile(path string, logger *slog.Logger) (*TLEDataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TLE file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat TLE file: %w", err)
	}
	return parseDataset(data, path, info.ModTime().UTC(), logger)
}

func parseDataset(data []byte, source string, ts time.Time, logger *slog.Logger) (*TLEDataset, error) {
	entries, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no TLE entries in %s", source)
	}
	metrics.SetCatalogSize(len(entries))
	return NewDataset(source, ts, entries), nil
}
