package propagation

import (
	"errors"
	"time"
)

var (
	// ErrInvalidObserver reports observer coordinates that are malformed or out of range.
	ErrInvalidObserver = errors.New("invalid observer")

	// ErrInvalidElements reports an element set the propagator cannot initialize from.
	ErrInvalidElements = errors.New("invalid orbital elements")

	// ErrPropagation reports a numerical failure while propagating a target.
	ErrPropagation = errors.New("propagation failed")

	// ErrNoPass reports that no pass starts within the search horizon.
	ErrNoPass = errors.New("no pass within search horizon")
)

// Target is an element set as handed to a Propagator. Callers should treat it
// as opaque and obtain it from Propagator.MakeTarget.
type Target struct {
	Name    string `json:"name"`
	NORADID int    `json:"norad_id"`
	Line1   string `json:"-"`
	Line2   string `json:"-"`
}

// ObservationState is the geometry of a target seen from an observer at one epoch.
type ObservationState struct {
	Epoch           time.Time `json:"epoch"`
	AzimuthDeg      float64   `json:"azimuth_deg"`   // [0, 360)
	ElevationDeg    float64   `json:"elevation_deg"` // [-90, 90]
	RangeM          float64   `json:"range_m"`
	SubLatitudeDeg  float64   `json:"sub_latitude_deg"`
	SubLongitudeDeg float64   `json:"sub_longitude_deg"`
	RangeRateMps    float64   `json:"range_rate_mps"` // positive = receding
}

// PassWindow brackets one pass: the target rises at Rise and sets at Set.
type PassWindow struct {
	Rise time.Time `json:"rise"`
	Set  time.Time `json:"set"`
}

// Duration returns Set - Rise.
func (w PassWindow) Duration() time.Duration {
	return w.Set.Sub(w.Rise)
}

// Valid reports whether the window has a positive duration.
func (w PassWindow) Valid() bool {
	return w.Rise.Before(w.Set)
}

// Propagator computes target geometry for an observer. Implementations must
// not retain or mutate the values passed in.
type Propagator interface {
	// MakeTarget builds a Target from a name and a two-line element set.
	MakeTarget(name, line1, line2 string) (Target, error)

	// Compute returns the state of tgt seen from obs at epoch.
	Compute(obs Observer, tgt Target, epoch time.Time) (ObservationState, error)

	// NextPass returns the first pass of tgt over obs that rises after the
	// reference time.
	NextPass(obs Observer, tgt Target, after time.Time) (PassWindow, error)
}
