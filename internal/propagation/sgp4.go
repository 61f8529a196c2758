package propagation

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/sattracker/internal/metrics"
	"github.com/star/sattracker/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, explicit TEME output, and ships GSTimeFromDate/ECIToECEF which the
// transform tests use for cross-validation.
//
// Propagate() takes Satellite by value so SGP4 error codes are not visible to
// the caller. Failures are detected by checking the output for NaN/Inf and
// implausible radii.

// Config tunes the SGP4 propagator and its pass search.
type Config struct {
	Gravity         string        // "wgs72" or "wgs84" (default)
	SearchHorizon   time.Duration // how far ahead NextPass looks (default 48h)
	CoarseStep      time.Duration // pass search scan step (default 30s)
	MinElevationDeg float64       // elevation mask for rise/set (default 0)
}

// DefaultConfig returns the default propagator configuration.
func DefaultConfig() Config {
	return Config{
		Gravity:       "wgs84",
		SearchHorizon: 48 * time.Hour,
		CoarseStep:    30 * time.Second,
	}
}

func (c Config) gravity() (satellite.Gravity, error) {
	switch strings.ToLower(c.Gravity) {
	case "", "wgs84":
		return satellite.GravityWGS84, nil
	case "wgs72":
		return satellite.GravityWGS72, nil
	default:
		return "", fmt.Errorf("unknown gravity model %q", c.Gravity)
	}
}

// SGP4Propagator implements Propagator on top of go-satellite. It keeps the
// initialized SGP4 model of every element set it has seen and is safe for
// concurrent use.
type SGP4Propagator struct {
	config  Config
	gravity satellite.Gravity
	logger  *slog.Logger

	mu   sync.Mutex
	sats map[string]satellite.Satellite // keyed by line1+line2
}

// NewSGP4Propagator returns an SGP4 propagator. Zero-valued config fields fall
// back to DefaultConfig.
func NewSGP4Propagator(config Config, logger *slog.Logger) (*SGP4Propagator, error) {
	def := DefaultConfig()
	if config.SearchHorizon <= 0 {
		config.SearchHorizon = def.SearchHorizon
	}
	if config.CoarseStep <= 0 {
		config.CoarseStep = def.CoarseStep
	}
	if config.CoarseStep%time.Second != 0 {
		return nil, fmt.Errorf("coarse step %s is not a whole number of seconds", config.CoarseStep)
	}
	grav, err := config.gravity()
	if err != nil {
		return nil, err
	}
	return &SGP4Propagator{
		config:  config,
		gravity: grav,
		logger:  logger,
		sats:    make(map[string]satellite.Satellite),
	}, nil
}

// MakeTarget validates the element set, initializes SGP4 for it and returns
// the Target.
func (p *SGP4Propagator) MakeTarget(name, line1, line2 string) (Target, error) {
	tgt := Target{
		Name:  strings.TrimSpace(name),
		Line1: strings.TrimSpace(line1),
		Line2: strings.TrimSpace(line2),
	}
	if err := validateTLELines(tgt.Line1, tgt.Line2); err != nil {
		return Target{}, fmt.Errorf("%w: %s: %v", ErrInvalidElements, tgt.Name, err)
	}
	id, err := strconv.Atoi(strings.TrimSpace(tgt.Line1[2:7]))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s: NORAD id %q", ErrInvalidElements, tgt.Name, tgt.Line1[2:7])
	}
	tgt.NORADID = id

	if _, err := p.satellite(tgt); err != nil {
		return Target{}, err
	}
	return tgt, nil
}

// satellite returns the initialized SGP4 model for tgt.
func (p *SGP4Propagator) satellite(tgt Target) (satellite.Satellite, error) {
	key := tgt.Line1 + tgt.Line2

	p.mu.Lock()
	defer p.mu.Unlock()

	if sat, ok := p.sats[key]; ok {
		return sat, nil
	}

	// go-satellite calls log.Fatal on malformed input, so check the lines first.
	if err := validateTLELines(tgt.Line1, tgt.Line2); err != nil {
		return satellite.Satellite{}, fmt.Errorf("%w: %s: %v", ErrInvalidElements, tgt.Name, err)
	}

	sat := satellite.TLEToSat(tgt.Line1, tgt.Line2, p.gravity)
	if sat.Error != 0 {
		return satellite.Satellite{}, fmt.Errorf("%w: %s: sgp4 init code=%d %s", ErrInvalidElements, tgt.Name, sat.Error, sat.ErrorStr)
	}

	p.sats[key] = sat
	p.logger.Debug("sgp4 model initialized", "name", tgt.Name, "norad_id", tgt.NORADID, "cached", len(p.sats))
	return sat, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// propagate returns the ECEF state of sat at t.
func propagate(sat satellite.Satellite, name string, t time.Time) (transform.PositionECEF, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	teme := transform.PositionTEME{X: pos.X, Y: pos.Y, Z: pos.Z, VX: vel.X, VY: vel.Y, VZ: vel.Z}
	ecef := transform.TEMEToECEF(teme, t)
	if !transform.ValidateECEF(ecef) || math.IsNaN(ecef.VX+ecef.VY+ecef.VZ) {
		return transform.PositionECEF{}, fmt.Errorf("%w: %s at %s: implausible state %.1f km from center",
			ErrPropagation, name, t.Format(time.RFC3339), ecef.Position().Norm()/1000)
	}
	return ecef, nil
}

// Compute returns the look angles, sub-satellite point and range rate of tgt
// seen from obs at epoch. Sub-second precision is dropped.
func (p *SGP4Propagator) Compute(obs Observer, tgt Target, epoch time.Time) (ObservationState, error) {
	start := time.Now()
	state, err := p.compute(obs.Position(), tgt, epoch)
	metrics.RecordCompute(time.Since(start), err)
	return state, err
}

func (p *SGP4Propagator) compute(site transform.ObserverPosition, tgt Target, epoch time.Time) (ObservationState, error) {
	sat, err := p.satellite(tgt)
	if err != nil {
		return ObservationState{}, err
	}
	ecef, err := propagate(sat, tgt.Name, epoch)
	if err != nil {
		return ObservationState{}, err
	}

	la := transform.ECEFToLookAngles(site, ecef.X, ecef.Y, ecef.Z)
	sub := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

	return ObservationState{
		Epoch:           epoch,
		AzimuthDeg:      la.AzimuthDeg,
		ElevationDeg:    la.ElevationDeg,
		RangeM:          la.RangeM,
		SubLatitudeDeg:  sub.LatDeg,
		SubLongitudeDeg: sub.LonDeg,
		RangeRateMps:    transform.RangeRate(site, ecef),
	}, nil
}

// NextPass scans forward from after in CoarseStep increments for the first
// time the target climbs through the elevation mask, then bisects rise and set
// to whole seconds. A pass already in progress at after is skipped.
func (p *SGP4Propagator) NextPass(obs Observer, tgt Target, after time.Time) (PassWindow, error) {
	start := time.Now()
	w, err := p.nextPass(obs.Position(), tgt, after)
	metrics.RecordPassSearch(time.Since(start), passOutcome(err))
	if err == nil {
		p.logger.Debug("next pass found",
			"name", tgt.Name,
			"rise", w.Rise.UTC().Format(time.RFC3339),
			"set", w.Set.UTC().Format(time.RFC3339),
			"duration_s", w.Duration().Seconds(),
		)
	}
	return w, err
}

func passOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNoPass):
		return metrics.OutcomeNoPass
	default:
		return metrics.OutcomeError
	}
}

func (p *SGP4Propagator) nextPass(site transform.ObserverPosition, tgt Target, after time.Time) (PassWindow, error) {
	above := func(t time.Time) (bool, error) {
		s, err := p.compute(site, tgt, t)
		if err != nil {
			return false, err
		}
		return s.ElevationDeg >= p.config.MinElevationDeg, nil
	}

	step := p.config.CoarseStep
	end := after.Add(p.config.SearchHorizon)

	t := after.Truncate(time.Second)
	wasAbove, err := above(t)
	if err != nil {
		return PassWindow{}, err
	}

	// Find the rising edge.
	var rise time.Time
	for t.Before(end) {
		next := t.Add(step)
		up, err := above(next)
		if err != nil {
			return PassWindow{}, err
		}
		if up && !wasAbove {
			rise, err = bisect(t, next, above)
			if err != nil {
				return PassWindow{}, err
			}
			t = next
			break
		}
		wasAbove = up
		t = next
	}
	if rise.IsZero() {
		return PassWindow{}, fmt.Errorf("%w: %s within %s of %s", ErrNoPass, tgt.Name, p.config.SearchHorizon, after.UTC().Format(time.RFC3339))
	}

	// Find the setting edge. A target that never sets within the horizon
	// (geostationary, circumpolar HEO apogee) has no bounded pass.
	for limit := rise.Add(p.config.SearchHorizon); t.Before(limit); {
		next := t.Add(step)
		up, err := above(next)
		if err != nil {
			return PassWindow{}, err
		}
		if !up {
			set, err := bisect(t, next, above)
			if err != nil {
				return PassWindow{}, err
			}
			return PassWindow{Rise: rise, Set: set}, nil
		}
		t = next
	}
	return PassWindow{}, fmt.Errorf("%w: %s does not set within %s of rising", ErrNoPass, tgt.Name, p.config.SearchHorizon)
}

// bisect narrows [lo, hi], where pred(lo) != pred(hi), to whole seconds and
// returns the first second on the hi side of the transition.
func bisect(lo, hi time.Time, pred func(time.Time) (bool, error)) (time.Time, error) {
	loVal, err := pred(lo)
	if err != nil {
		return time.Time{}, err
	}
	for {
		mid := lo.Add(hi.Sub(lo) / 2).Truncate(time.Second)
		if !mid.After(lo) {
			mid = lo.Truncate(time.Second).Add(time.Second)
		}
		// No whole second left strictly inside the bracket.
		if !mid.Before(hi) {
			break
		}
		v, err := pred(mid)
		if err != nil {
			return time.Time{}, err
		}
		if v == loVal {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}
