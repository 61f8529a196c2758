package propagation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/star/sattracker/internal/transform"
)

// Default ground station.
const (
	DefaultLatitude   = "59.4000"
	DefaultLongitude  = "24.8170"
	DefaultElevationM = 0.0
)

var validate = validator.New()

// Observer is a ground station location. Build it with NewObserver or
// ParseObserver so the coordinates are checked.
type Observer struct {
	LatitudeDeg  float64 `json:"latitude_deg" validate:"gte=-90,lte=90"`
	LongitudeDeg float64 `json:"longitude_deg" validate:"gte=-180,lte=180"`
	ElevationM   float64 `json:"elevation_m" validate:"gte=-1000,lte=100000"`
}

// NewObserver validates and returns an Observer. Latitude and longitude are in
// degrees, elevation in meters above sea level. Non-finite values are rejected.
func NewObserver(latDeg, lonDeg, elevationM float64) (Observer, error) {
	obs := Observer{LatitudeDeg: latDeg, LongitudeDeg: lonDeg, ElevationM: elevationM}
	if err := validate.Struct(obs); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s=%v (%s %s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
			}
			return Observer{}, fmt.Errorf("%w: %s", ErrInvalidObserver, strings.Join(fields, ", "))
		}
		return Observer{}, fmt.Errorf("%w: %v", ErrInvalidObserver, err)
	}
	return obs, nil
}

// ParseObserver parses decimal-degree strings such as "59.4000" and an
// elevation in meters.
func ParseObserver(lat, lon, elevation string) (Observer, error) {
	parse := func(name, s string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidObserver, name, s)
		}
		return v, nil
	}

	latDeg, err := parse("latitude", lat)
	if err != nil {
		return Observer{}, err
	}
	lonDeg, err := parse("longitude", lon)
	if err != nil {
		return Observer{}, err
	}
	elev, err := parse("elevation", elevation)
	if err != nil {
		return Observer{}, err
	}
	return NewObserver(latDeg, lonDeg, elev)
}

// DefaultObserver returns the default ground station.
func DefaultObserver() Observer {
	obs, err := ParseObserver(DefaultLatitude, DefaultLongitude, strconv.FormatFloat(DefaultElevationM, 'f', -1, 64))
	if err != nil {
		panic(err)
	}
	return obs
}

// Position returns the observer on the WGS-84 ellipsoid.
func (o Observer) Position() transform.ObserverPosition {
	return transform.NewObserverPosition(o.LatitudeDeg, o.LongitudeDeg, o.ElevationM)
}

func (o Observer) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.0fm)", o.LatitudeDeg, o.LongitudeDeg, o.ElevationM)
}
