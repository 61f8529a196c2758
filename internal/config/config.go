// Package config loads the tracker configuration from a YAML file and
// SATTRACK_* environment overrides, then validates it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/star/sattracker/internal/doppler"
	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/tle"
)

// Config is the full application configuration.
type Config struct {
	Observer    ObserverConfig    `yaml:"observer"`
	Target      TargetConfig      `yaml:"target"`
	Radio       RadioConfig       `yaml:"radio"`
	Pass        PassConfig        `yaml:"pass"`
	Propagation PropagationConfig `yaml:"propagation"`
	TLE         TLEConfig         `yaml:"tle"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// ObserverConfig is the ground station, in decimal degrees and meters.
type ObserverConfig struct {
	Latitude   string  `yaml:"latitude" validate:"required,numeric"`
	Longitude  string  `yaml:"longitude" validate:"required,numeric"`
	ElevationM float64 `yaml:"elevation_m"`
}

// TargetConfig selects the tracked element set by NORAD id or name.
type TargetConfig struct {
	Name string `yaml:"name" validate:"required"`
}

type RadioConfig struct {
	CarrierHz float64 `yaml:"carrier_hz" validate:"gt=0"`
}

type PassConfig struct {
	Points int `yaml:"points" validate:"gte=1,lte=1000"`
}

type PropagationConfig struct {
	Gravity         string        `yaml:"gravity" validate:"oneof=wgs72 wgs84"`
	SearchHorizon   time.Duration `yaml:"search_horizon" validate:"gt=0"`
	CoarseStep      time.Duration `yaml:"coarse_step" validate:"gte=1s"`
	MinElevationDeg float64       `yaml:"min_elevation_deg" validate:"gte=-10,lte=90"`
}

type TLEConfig struct {
	File          string        `yaml:"file"`
	SourceURL     string        `yaml:"source_url" validate:"omitempty,url"`
	ExtraURLs     []string      `yaml:"extra_urls" validate:"dive,url"`
	CacheDir      string        `yaml:"cache_dir"`
	MaxFiles      int           `yaml:"max_files" validate:"gte=1"`
	FetchTries    int           `yaml:"fetch_tries" validate:"gte=1,lte=10"`
	RetryInterval time.Duration `yaml:"retry_interval" validate:"gte=0"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	TrustProxy  bool   `yaml:"trust_proxy"`
	AuthEnabled bool   `yaml:"auth_enabled"`
	AuthToken   string `yaml:"auth_token" validate:"required_if=AuthEnabled true"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	def := propagation.DefaultConfig()
	return Config{
		Observer: ObserverConfig{
			Latitude:   propagation.DefaultLatitude,
			Longitude:  propagation.DefaultLongitude,
			ElevationM: propagation.DefaultElevationM,
		},
		Target: TargetConfig{Name: "ISS (ZARYA)"},
		Radio:  RadioConfig{CarrierHz: doppler.DefaultCarrierHz},
		Pass:   PassConfig{Points: 10},
		Propagation: PropagationConfig{
			Gravity:         def.Gravity,
			SearchHorizon:   def.SearchHorizon,
			CoarseStep:      def.CoarseStep,
			MinElevationDeg: def.MinElevationDeg,
		},
		TLE: TLEConfig{
			SourceURL:     tle.DefaultSourceURL,
			CacheDir:      "/tmp/sattracker/tle",
			MaxFiles:      5,
			FetchTries:    tle.DefaultMaxTries,
			RetryInterval: tle.DefaultInitialInterval,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

var validate = validator.New()

// Load reads path (skipped when empty) over Defaults, applies environment
// overrides and validates the result.
func Load(path string, logger *slog.Logger) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, logger)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section and the observer coordinates.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: %s %s", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Propagation.CoarseStep%time.Second != 0 {
		return fmt.Errorf("invalid config: Config.Propagation.CoarseStep: %s is not a whole number of seconds", c.Propagation.CoarseStep)
	}
	if _, err := c.ObserverValue(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WithPoints returns a copy of c with the pass table size replaced, validated
// against the same bounds as the file and environment.
func (c Config) WithPoints(n int) (Config, error) {
	c.Pass.Points = n
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ObserverValue returns the configured ground station.
func (c Config) ObserverValue() (propagation.Observer, error) {
	return propagation.ParseObserver(c.Observer.Latitude, c.Observer.Longitude,
		strconv.FormatFloat(c.Observer.ElevationM, 'f', -1, 64))
}

// PropagatorConfig returns the SGP4 propagator settings.
func (c Config) PropagatorConfig() propagation.Config {
	return propagation.Config{
		Gravity:         c.Propagation.Gravity,
		SearchHorizon:   c.Propagation.SearchHorizon,
		CoarseStep:      c.Propagation.CoarseStep,
		MinElevationDeg: c.Propagation.MinElevationDeg,
	}
}

// applyEnv overrides cfg from SATTRACK_* variables. Malformed values are
// logged and ignored.
func applyEnv(cfg *Config, logger *slog.Logger) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	float := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				logger.Warn("invalid environment value, keeping previous", "key", key, "value", v, "previous", *dst)
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				logger.Warn("invalid environment value, keeping previous", "key", key, "value", v, "previous", *dst)
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				logger.Warn("invalid environment value, keeping previous", "key", key, "value", v, "previous", *dst)
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				logger.Warn("invalid environment value, keeping previous", "key", key, "value", v, "previous", dst.String())
				return
			}
			*dst = d
		}
	}

	str("SATTRACK_OBSERVER_LAT", &cfg.Observer.Latitude)
	str("SATTRACK_OBSERVER_LON", &cfg.Observer.Longitude)
	float("SATTRACK_OBSERVER_ELEVATION_M", &cfg.Observer.ElevationM)
	str("SATTRACK_TARGET", &cfg.Target.Name)
	float("SATTRACK_CARRIER_HZ", &cfg.Radio.CarrierHz)
	integer("SATTRACK_PASS_POINTS", &cfg.Pass.Points)
	str("SATTRACK_GRAVITY", &cfg.Propagation.Gravity)
	duration("SATTRACK_SEARCH_HORIZON", &cfg.Propagation.SearchHorizon)
	duration("SATTRACK_COARSE_STEP", &cfg.Propagation.CoarseStep)
	float("SATTRACK_MIN_ELEVATION_DEG", &cfg.Propagation.MinElevationDeg)
	str("SATTRACK_TLE_FILE", &cfg.TLE.File)
	str("SATTRACK_TLE_SOURCE_URL", &cfg.TLE.SourceURL)
	str("SATTRACK_TLE_CACHE_DIR", &cfg.TLE.CacheDir)
	integer("SATTRACK_TLE_MAX_FILES", &cfg.TLE.MaxFiles)
	integer("SATTRACK_TLE_FETCH_TRIES", &cfg.TLE.FetchTries)
	duration("SATTRACK_TLE_RETRY_INTERVAL", &cfg.TLE.RetryInterval)
	str("SATTRACK_HTTP_ADDR", &cfg.Server.Addr)
	boolean("SATTRACK_TRUST_PROXY", &cfg.Server.TrustProxy)
	boolean("SATTRACK_AUTH_ENABLED", &cfg.Server.AuthEnabled)
	str("SATTRACK_AUTH_TOKEN", &cfg.Server.AuthToken)
	str("SATTRACK_LOG_LEVEL", &cfg.Log.Level)
	str("SATTRACK_LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("SATTRACK_TLE_EXTRA_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		cfg.TLE.ExtraURLs = urls
	}
}
