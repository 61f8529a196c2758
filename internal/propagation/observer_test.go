package propagation

import (
	"errors"
	"math"
	"testing"
)

func TestNewObserver(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		elev    float64
		wantErr bool
	}{
		{"default site", 59.4, 24.817, 0, false},
		{"north pole", 90, 0, 0, false},
		{"south pole", -90, 0, 0, false},
		{"antimeridian west", 0, -180, 0, false},
		{"antimeridian east", 0, 180, 0, false},
		{"dead sea", 31.5, 35.5, -430, false},
		{"balloon", 10, 10, 35000, false},
		{"lat too high", 90.0001, 0, 0, true},
		{"lat too low", -91, 0, 0, true},
		{"lon too high", 0, 181, 0, true},
		{"lon too low", 0, -180.5, 0, true},
		{"below floor", 0, 0, -1001, true},
		{"in orbit", 0, 0, 400e3, true},
		{"nan lat", math.NaN(), 0, 0, true},
		{"inf lon", 0, math.Inf(1), 0, true},
		{"nan elevation", 0, 0, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := NewObserver(tt.lat, tt.lon, tt.elev)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidObserver) {
					t.Errorf("err = %v, want ErrInvalidObserver", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if obs.LatitudeDeg != tt.lat || obs.LongitudeDeg != tt.lon || obs.ElevationM != tt.elev {
				t.Errorf("observer = %+v", obs)
			}
		})
	}
}

func TestParseObserver(t *testing.T) {
	obs, err := ParseObserver(" 59.4000", "24.8170 ", "12.5")
	if err != nil {
		t.Fatalf("ParseObserver: %v", err)
	}
	if obs.LatitudeDeg != 59.4 || obs.LongitudeDeg != 24.817 || obs.ElevationM != 12.5 {
		t.Errorf("observer = %+v", obs)
	}

	for _, in := range [][3]string{
		{"59:24:00", "24.8", "0"},
		{"", "24.8", "0"},
		{"59.4", "east", "0"},
		{"59.4", "24.8", "high"},
		{"95", "24.8", "0"},
	} {
		if _, err := ParseObserver(in[0], in[1], in[2]); !errors.Is(err, ErrInvalidObserver) {
			t.Errorf("ParseObserver(%q) err = %v, want ErrInvalidObserver", in, err)
		}
	}
}

func TestDefaultObserver(t *testing.T) {
	obs := DefaultObserver()
	if obs.LatitudeDeg != 59.4 || obs.LongitudeDeg != 24.817 || obs.ElevationM != 0 {
		t.Errorf("DefaultObserver() = %+v", obs)
	}
	if got := obs.String(); got != "(59.4000, 24.8170, 0m)" {
		t.Errorf("String() = %q", got)
	}
}

func TestObserverPosition(t *testing.T) {
	obs := DefaultObserver()
	pos := obs.Position()
	if math.Abs(pos.LatRad-59.4*math.Pi/180) > 1e-12 {
		t.Errorf("LatRad = %v", pos.LatRad)
	}
	r := math.Sqrt(pos.ECEFx*pos.ECEFx + pos.ECEFy*pos.ECEFy + pos.ECEFz*pos.ECEFz)
	if r < 6356e3 || r > 6379e3 {
		t.Errorf("observer radius %.0f m not on the ellipsoid", r)
	}
}
