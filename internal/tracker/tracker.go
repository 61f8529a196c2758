// Package tracker follows one target from one ground station. A Tracker holds
// the most recently computed ObservationState and answers look-angle, range,
// Doppler and position queries against it; it also samples the next pass into
// a fixed-size table.
//
// A Tracker is not safe for concurrent use. Callers that share one serialize
// access themselves.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/sattracker/internal/doppler"
	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/transform"
)

var (
	// ErrNotInitialized is returned by accessors called before any epoch was set.
	ErrNotInitialized = errors.New("tracker: no epoch set")

	// ErrDegenerateWindow reports a pass window too short to sample.
	ErrDegenerateWindow = errors.New("tracker: degenerate pass window")

	// ErrInvalidPointCount reports a pass table request for fewer than one point.
	ErrInvalidPointCount = errors.New("tracker: point count must be at least 1")
)

// Config holds the tunables of a Tracker.
type Config struct {
	CarrierHz float64          // carrier used by Doppler; default doppler.DefaultCarrierHz
	Now       func() time.Time // clock for SetEpochNow; default time.Now
}

// Tracker is the stateful facade over a Propagator.
type Tracker struct {
	observer propagation.Observer
	target   propagation.Target
	prop     propagation.Propagator
	config   Config
	logger   *slog.Logger

	state *propagation.ObservationState
}

// New returns a Tracker with no epoch set.
func New(observer propagation.Observer, target propagation.Target, prop propagation.Propagator, config Config, logger *slog.Logger) *Tracker {
	if config.CarrierHz == 0 {
		config.CarrierHz = doppler.DefaultCarrierHz
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Tracker{
		observer: observer,
		target:   target,
		prop:     prop,
		config:   config,
		logger:   logger.With("component", "tracker", "target", target.Name),
	}
}

// NewFromElements builds the Target from a two-line element set and returns a
// Tracker for it.
func NewFromElements(observer propagation.Observer, name, line1, line2 string, prop propagation.Propagator, config Config, logger *slog.Logger) (*Tracker, error) {
	tgt, err := prop.MakeTarget(name, line1, line2)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	return New(observer, tgt, prop, config, logger), nil
}

// Observer returns the ground station.
func (t *Tracker) Observer() propagation.Observer { return t.observer }

// Target returns the tracked target.
func (t *Tracker) Target() propagation.Target { return t.target }

// CarrierHz returns the configured carrier frequency.
func (t *Tracker) CarrierHz() float64 { return t.config.CarrierHz }

// SetEpoch recomputes the state at epoch. On error the previous state is kept.
func (t *Tracker) SetEpoch(epoch time.Time) error {
	s, err := t.prop.Compute(t.observer, t.target, epoch)
	if err != nil {
		return fmt.Errorf("set epoch %s: %w", epoch.UTC().Format(time.RFC3339), err)
	}
	t.state = &s
	return nil
}

// SetEpochNow recomputes the state at the current clock reading.
func (t *Tracker) SetEpochNow() error {
	return t.SetEpoch(t.config.Now())
}

// Epoch returns the epoch of the current state.
func (t *Tracker) Epoch() (time.Time, error) {
	if t.state == nil {
		return time.Time{}, ErrNotInitialized
	}
	return t.state.Epoch, nil
}

// State returns a copy of the current state.
func (t *Tracker) State() (propagation.ObservationState, error) {
	if t.state == nil {
		return propagation.ObservationState{}, ErrNotInitialized
	}
	return *t.state, nil
}

// Azimuth returns the azimuth in degrees, clockwise from north.
func (t *Tracker) Azimuth() (float64, error) {
	return t.field(func(s *propagation.ObservationState) float64 { return s.AzimuthDeg })
}

// Elevation returns the elevation above the horizon in degrees.
func (t *Tracker) Elevation() (float64, error) {
	return t.field(func(s *propagation.ObservationState) float64 { return s.ElevationDeg })
}

// Latitude returns the sub-satellite latitude in degrees.
func (t *Tracker) Latitude() (float64, error) {
	return t.field(func(s *propagation.ObservationState) float64 { return s.SubLatitudeDeg })
}

// Longitude returns the sub-satellite longitude in degrees.
func (t *Tracker) Longitude() (float64, error) {
	return t.field(func(s *propagation.ObservationState) float64 { return s.SubLongitudeDeg })
}

// Range returns the slant range in meters.
func (t *Tracker) Range() (float64, error) {
	return t.field(func(s *propagation.ObservationState) float64 { return s.RangeM })
}

// RangeRate returns the line-of-sight velocity in m/s, positive when receding.
func (t *Tracker) RangeRate() (float64, error) {
	return t.field(func(s *propagation.ObservationState) float64 { return s.RangeRateMps })
}

// Doppler returns the shift in Hz on the configured carrier.
func (t *Tracker) Doppler() (float64, error) {
	return t.DopplerFor(t.config.CarrierHz)
}

// DopplerFor returns the shift in Hz on carrierHz.
func (t *Tracker) DopplerFor(carrierHz float64) (float64, error) {
	rr, err := t.RangeRate()
	if err != nil {
		return 0, err
	}
	return doppler.Shift(rr, carrierHz), nil
}

// ECEF returns the target position reconstructed from the current look angles
// and range on the spherical Earth model.
func (t *Tracker) ECEF() (transform.ECEFPoint, error) {
	if t.state == nil {
		return transform.ECEFPoint{}, ErrNotInitialized
	}
	return transform.AERToECEF(
		t.state.AzimuthDeg, t.state.ElevationDeg, t.state.RangeM,
		t.observer.LatitudeDeg, t.observer.LongitudeDeg, t.observer.ElevationM,
	), nil
}

func (t *Tracker) field(get func(*propagation.ObservationState) float64) (float64, error) {
	if t.state == nil {
		return 0, ErrNotInitialized
	}
	return get(t.state), nil
}

// NextPassTable samples the next pass after now into n points. The tracker is
// left at the current time afterwards regardless of the sampling outcome.
func (t *Tracker) NextPassTable(n int) (PassTable, error) {
	if n < 1 {
		return PassTable{}, ErrInvalidPointCount
	}
	if err := t.SetEpochNow(); err != nil {
		return PassTable{}, err
	}

	from := t.state.Epoch
	table, sampleErr := SampleNextPass(t.prop, t.observer, t.target, from, n)

	if err := t.SetEpochNow(); err != nil {
		return PassTable{}, err
	}
	if sampleErr != nil {
		t.logger.Warn("pass sampling failed", "from", from.UTC().Format(time.RFC3339), "points", n, "error", sampleErr)
		return PassTable{}, sampleErr
	}

	t.logger.Info("pass table sampled",
		"rise", table.Window.Rise.UTC().Format(time.RFC3339),
		"set", table.Window.Set.UTC().Format(time.RFC3339),
		"points", n,
	)
	return table, nil
}
