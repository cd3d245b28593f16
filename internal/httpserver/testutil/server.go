package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"finitefield.org/listing-console/internal/app"
	"finitefield.org/listing-console/internal/backend"
	"finitefield.org/listing-console/internal/httpserver"
	"finitefield.org/listing-console/internal/i18n"
	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/schedule/scheduletest"
	"finitefield.org/listing-console/internal/storage"
	"finitefield.org/listing-console/internal/templates"
	"finitefield.org/listing-console/internal/workspace"
)

type serverConfig struct {
	backendURL string
	store      storage.Store
}

// ServerOption customises the console stack built for tests.
type ServerOption func(*serverConfig)

// WithBackendURL points the console at a custom backend API.
func WithBackendURL(url string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.backendURL = url
	}
}

// WithStore replaces the in-memory key/value store.
func WithStore(store storage.Store) ServerOption {
	return func(cfg *serverConfig) {
		cfg.store = store
	}
}

// NewServer constructs an httptest server running the console HTTP stack. Unless overridden
// it talks to a BackendStub and keeps state in memory.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := serverConfig{store: storage.NewMemoryStore()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.backendURL == "" {
		cfg.backendURL = NewBackendStub(t).URL + "/api"
	}

	clock := scheduletest.NewClock(time.Unix(1_700_000_000, 0))
	client := backend.New(backend.Options{BaseURL: cfg.backendURL})
	ctrl := app.New(app.Dependencies{
		Backend:  client,
		History:  workspace.NewHistory(cfg.store, clock, nil),
		Settings: workspace.NewSettingsRepo(cfg.store, listing.DefaultSettings(cfg.backendURL), nil),
		AutoSave: workspace.NewAutoSaver(cfg.store, clock, workspace.DefaultAutoSaveDelay, nil),
	})
	ctrl.Init(context.Background())

	bundle, err := i18n.Default()
	if err != nil {
		t.Fatalf("load i18n: %v", err)
	}
	renderer, err := templates.New(bundle)
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	srv := httpserver.New(httpserver.Config{
		Address:    ":0",
		Controller: ctrl,
		Renderer:   renderer,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
