// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (NDU_* prefix, runtime override)
//  2. Config file (~/.ndu/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: model selection, agentic loop bounds, per-turn timeout
//   - Conference: venue identity, dates, support contact
//   - Data: flat-file dataset paths and the scrape cache directory
//   - Maps: Google Maps API credentials
//   - API: listen address, CORS origins, rate limiting
//
// Validation uses sentinel errors so callers can branch with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingMapsAPIKey indicates the Google Maps API key is not set.
	ErrMissingMapsAPIKey = errors.New("missing maps API key")

	// ErrInvalidCoordinates indicates the venue coordinates are not "lat,lng".
	ErrInvalidCoordinates = errors.New("invalid venue coordinates")

	// ErrMissingSupportContact indicates no support phone or email is configured.
	ErrMissingSupportContact = errors.New("missing support contact")

	// ErrInvalidPort indicates the API port is out of range.
	ErrInvalidPort = errors.New("invalid API port")

	// ErrInvalidMaxTurns indicates the agentic loop bound is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")
)

// Defaults applied when neither environment nor config file sets a value.
const (
	DefaultModelName   = "googleai/gemini-2.5-flash"
	DefaultMaxTurns    = 5
	DefaultTurnTimeout = 2 * time.Minute

	DefaultSessionsCSV   = "data/sessions.csv"
	DefaultOrganizersCSV = "data/organizers.csv"
	DefaultSpeakersJSON  = "data/speakers.json"
	DefaultScheduleJSON  = "data/schedule.json"
	DefaultCacheDir      = "cache"

	DefaultSiteBaseURL = "https://apiconf.net"
	DefaultUserAgent   = "Mozilla/5.0 (compatible; APIConfBot/1.0)"
	DefaultCacheTTL    = time.Hour

	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 8000
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName   string        `mapstructure:"model_name"`
	MaxTurns    int           `mapstructure:"max_turns"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`

	// Conference identity
	VenueName        string `mapstructure:"venue_name"`
	VenueAddress     string `mapstructure:"venue_address"`
	VenueCoordinates string `mapstructure:"venue_coordinates"` // "lat,lng"
	ConferenceDates  string `mapstructure:"conference_dates"`
	SupportPhone     string `mapstructure:"support_phone"`
	SupportEmail     string `mapstructure:"support_email"`

	// Flat-file dataset paths
	SessionsCSV   string `mapstructure:"sessions_csv"`
	OrganizersCSV string `mapstructure:"organizers_csv"`
	SpeakersJSON  string `mapstructure:"speakers_json"`
	ScheduleJSON  string `mapstructure:"schedule_json"`
	CacheDir      string `mapstructure:"cache_dir"`

	// External providers
	MapsAPIKey  string        `mapstructure:"maps_api_key"`
	SiteBaseURL string        `mapstructure:"site_base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`

	// API surface
	APIHost     string   `mapstructure:"api_host"`
	APIPort     int      `mapstructure:"api_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateBurst   int      `mapstructure:"rate_burst"`

	// Runtime
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogJSON     bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, config file and environment.
// A missing config file is not an error; environment variables alone are a
// valid deployment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("NDU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".ndu"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// CORS origins may arrive as a single comma-joined env value.
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		parts := strings.Split(cfg.CORSOrigins[0], ",")
		cfg.CORSOrigins = cfg.CORSOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, p)
			}
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("max_turns", DefaultMaxTurns)
	v.SetDefault("turn_timeout", DefaultTurnTimeout)

	v.SetDefault("venue_name", "The Zone")
	v.SetDefault("venue_address", "The Zone, Plot 9, Gbagada Industrial Scheme, Lagos, Nigeria")
	v.SetDefault("venue_coordinates", "6.5568,3.3884")
	v.SetDefault("conference_dates", "July 18-19, 2025")

	v.SetDefault("sessions_csv", DefaultSessionsCSV)
	v.SetDefault("organizers_csv", DefaultOrganizersCSV)
	v.SetDefault("speakers_json", DefaultSpeakersJSON)
	v.SetDefault("schedule_json", DefaultScheduleJSON)
	v.SetDefault("cache_dir", DefaultCacheDir)

	v.SetDefault("site_base_url", DefaultSiteBaseURL)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("cache_ttl", DefaultCacheTTL)

	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("api_port", DefaultAPIPort)
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
}

// Validate checks invariants that every run needs. Maps credentials are
// checked separately by ValidateServe since data-only commands work without
// them.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if c.SupportPhone == "" && c.SupportEmail == "" {
		return fmt.Errorf("%w: set support_phone or support_email", ErrMissingSupportContact)
	}
	if c.MaxTurns < 1 || c.MaxTurns > 50 {
		return fmt.Errorf("%w: %d (must be 1-50)", ErrInvalidMaxTurns, c.MaxTurns)
	}
	if _, _, err := c.VenueLatLng(); err != nil {
		return err
	}
	return nil
}

// ValidateServe checks the additional invariants the HTTP server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.APIPort)
	}
	if c.MapsAPIKey == "" {
		return fmt.Errorf("%w: set NDU_MAPS_API_KEY", ErrMissingMapsAPIKey)
	}
	return nil
}

// VenueLatLng parses the configured "lat,lng" coordinate pair.
func (c *Config) VenueLatLng() (lat, lng float64, err error) {
	parts := strings.Split(c.VenueCoordinates, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, c.VenueCoordinates)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, c.VenueCoordinates)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, c.VenueCoordinates)
	}
	return lat, lng, nil
}

// SupportContact returns the user-facing support string attached to every
// tool result and failure envelope.
func (c *Config) SupportContact() string {
	switch {
	case c.SupportPhone != "" && c.SupportEmail != "":
		return c.SupportPhone + " / " + c.SupportEmail
	case c.SupportPhone != "":
		return c.SupportPhone
	default:
		return c.SupportEmail
	}
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
