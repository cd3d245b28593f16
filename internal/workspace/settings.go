package workspace

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/storage"
)

// SettingsRepo loads and saves listing.Settings.
type SettingsRepo struct {
	store    storage.Store
	defaults listing.Settings
	logger   *zap.Logger
}

// NewSettingsRepo constructs a SettingsRepo falling back to defaults.
func NewSettingsRepo(store storage.Store, defaults listing.Settings, logger *zap.Logger) *SettingsRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsRepo{store: store, defaults: defaults, logger: logger}
}

// Defaults returns the settings used when nothing has been saved.
func (r *SettingsRepo) Defaults() listing.Settings { return r.defaults }

// Load returns the saved settings, or the defaults when absent or unreadable. Missing fields
// are filled from the defaults.
func (r *SettingsRepo) Load(ctx context.Context) listing.Settings {
	saved := r.defaults
	ok, err := storage.GetJSON(ctx, r.store, storage.KeySettings, &saved)
	if err != nil {
		r.logger.Warn("settings: load failed, using defaults", zap.Error(err))
		return r.defaults
	}
	if !ok {
		return r.defaults
	}
	if strings.TrimSpace(saved.APIURL) == "" {
		saved.APIURL = r.defaults.APIURL
	}
	saved.LogLevel = listing.NormalizeLogLevel(saved.LogLevel)
	return saved
}

// Save persists s.
func (r *SettingsRepo) Save(ctx context.Context, s listing.Settings) error {
	s.LogLevel = listing.NormalizeLogLevel(s.LogLevel)
	return storage.SetJSON(ctx, r.store, storage.KeySettings, s)
}

// Reset removes the saved settings and returns the defaults.
func (r *SettingsRepo) Reset(ctx context.Context) (listing.Settings, error) {
	if err := r.store.Delete(ctx, storage.KeySettings); err != nil {
		return r.defaults, err
	}
	return r.defaults, nil
}
