package tracker

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/tle"
)

// BatchRequest holds the parameters for sampling many targets at once.
type BatchRequest struct {
	Observer propagation.Observer
	Entries  []tle.TLEEntry
	From     time.Time
	Points   int
	Config   Config
}

// BatchResult is the pass table for one entry, or the reason it has none.
type BatchResult struct {
	NORADID int        `json:"norad_id"`
	Name    string     `json:"name"`
	Table   *PassTable `json:"table,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// SampleBatch samples the next pass of every entry. Each entry gets its own
// Tracker pinned to req.From and runs in its own goroutine, bounded by a
// semaphore. Results are in entry order; failures are reported per entry.
func SampleBatch(ctx context.Context, prop propagation.Propagator, req BatchRequest, logger *slog.Logger) []BatchResult {
	results := make([]BatchResult, len(req.Entries))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	cfg := req.Config
	from := req.From
	cfg.Now = func() time.Time { return from }

	for i, entry := range req.Entries {
		wg.Add(1)
		go func(idx int, e tle.TLEEntry) {
			defer wg.Done()

			res := BatchResult{NORADID: e.NORADID, Name: e.Name}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				res.Error = "cancelled"
				results[idx] = res
				return
			}
			if ctx.Err() != nil {
				res.Error = "cancelled"
				results[idx] = res
				return
			}

			trk, err := NewFromElements(req.Observer, e.Name, e.Line1, e.Line2, prop, cfg, logger)
			if err != nil {
				res.Error = err.Error()
				results[idx] = res
				return
			}
			table, err := trk.NextPassTable(req.Points)
			if err != nil {
				res.Error = err.Error()
				results[idx] = res
				return
			}
			res.Table = &table
			results[idx] = res
		}(i, entry)
	}

	wg.Wait()
	return results
}
