// Package config loads console settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile        = ".env"
	defaultHTTPAddr       = ":8080"
	defaultAPIURL         = "http://localhost:5000/api"
	defaultAPITimeout     = 30 * time.Second
	defaultRequestTimeout = 60 * time.Second
	defaultDBPath         = "data/listing.db"
	defaultLogLevel       = "info"
	defaultAutoSaveDelay  = 2 * time.Second
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Storage  StorageConfig
	Logging  LoggingConfig
	AutoSave AutoSaveConfig
}

// ServerConfig configures the console HTTP server.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	Dev            bool
}

// BackendConfig points at the listing backend API.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// StorageConfig locates the key/value database.
type StorageConfig struct {
	DBPath string
}

// LoggingConfig sets the initial log level. The saved settings may override it.
type LoggingConfig struct {
	Level string
}

// AutoSaveConfig controls the edit form auto-save.
type AutoSaveConfig struct {
	Delay time.Duration
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path
// disables the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map that takes precedence over the system
// environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the process environment
// and the explicit map, later sources winning.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	var invalid []string
	duration := func(key string, fallback time.Duration) time.Duration {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return fallback
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return fallback
		}
		return d
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:           stringWithDefault(lookup, "LISTING_HTTP_ADDR", defaultHTTPAddr),
			RequestTimeout: duration("LISTING_REQUEST_TIMEOUT", defaultRequestTimeout),
			Dev:            boolWithDefault(lookup, "LISTING_DEV", false),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(stringWithDefault(lookup, "LISTING_API_URL", defaultAPIURL), "/"),
			Timeout: duration("LISTING_API_TIMEOUT", defaultAPITimeout),
		},
		Storage: StorageConfig{
			DBPath: stringWithDefault(lookup, "LISTING_DB_PATH", defaultDBPath),
		},
		Logging: LoggingConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		},
		AutoSave: AutoSaveConfig{
			Delay: duration("LISTING_AUTOSAVE_DELAY", defaultAutoSaveDelay),
		},
	}

	if err := validate(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config, invalid []string) error {
	fields := append([]string(nil), invalid...)
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		fields = append(fields, "LISTING_HTTP_ADDR")
	}
	if u, err := url.Parse(cfg.Backend.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		fields = append(fields, "LISTING_API_URL")
	}
	if strings.TrimSpace(cfg.Storage.DBPath) == "" {
		fields = append(fields, "LISTING_DB_PATH")
	}
	if cfg.Server.RequestTimeout <= cfg.Backend.Timeout {
		fields = append(fields, "LISTING_REQUEST_TIMEOUT")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
