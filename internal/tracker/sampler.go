package tracker

import (
	"fmt"
	"time"

	"github.com/star/sattracker/internal/metrics"
	"github.com/star/sattracker/internal/propagation"
)

// PassTable is a pass sampled at n evenly spaced epochs. Epochs, Azimuths and
// Elevations have the same length and are index-aligned.
type PassTable struct {
	Window     propagation.PassWindow `json:"window"`
	Epochs     []time.Time            `json:"epochs"`
	Azimuths   []float64              `json:"azimuths_deg"`
	Elevations []float64              `json:"elevations_deg"`
}

// Len returns the number of samples.
func (p PassTable) Len() int { return len(p.Epochs) }

// SampleNextPass finds the next pass of tgt over obs after from and samples it
// at n epochs starting at rise, spaced by the window duration divided by n and
// floored to whole seconds. The last sample therefore falls one step short of
// set.
func SampleNextPass(prop propagation.Propagator, obs propagation.Observer, tgt propagation.Target, from time.Time, n int) (PassTable, error) {
	if n < 1 {
		return PassTable{}, ErrInvalidPointCount
	}

	window, err := prop.NextPass(obs, tgt, from)
	if err != nil {
		return PassTable{}, err
	}
	if !window.Valid() {
		return PassTable{}, fmt.Errorf("%w: rise %s, set %s", ErrDegenerateWindow,
			window.Rise.UTC().Format(time.RFC3339), window.Set.UTC().Format(time.RFC3339))
	}

	step := (window.Duration() / time.Duration(n)).Truncate(time.Second)
	if step <= 0 {
		return PassTable{}, fmt.Errorf("%w: %s window cannot hold %d one-second samples", ErrDegenerateWindow, window.Duration(), n)
	}

	table := PassTable{
		Window:     window,
		Epochs:     make([]time.Time, 0, n),
		Azimuths:   make([]float64, 0, n),
		Elevations: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		epoch := window.Rise.Add(time.Duration(i) * step)
		s, err := prop.Compute(obs, tgt, epoch)
		if err != nil {
			return PassTable{}, fmt.Errorf("sample %d/%d: %w", i+1, n, err)
		}
		table.Epochs = append(table.Epochs, epoch)
		table.Azimuths = append(table.Azimuths, s.AzimuthDeg)
		table.Elevations = append(table.Elevations, s.ElevationDeg)
	}

	metrics.RecordPassTable()
	return table, nil
}
