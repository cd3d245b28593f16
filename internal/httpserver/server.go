package httpserver

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/app"
	custommw "finitefield.org/listing-console/internal/httpserver/middleware"
	"finitefield.org/listing-console/internal/observability"
	"finitefield.org/listing-console/internal/templates"
	"finitefield.org/listing-console/public"
)

const defaultRequestTimeout = 60 * time.Second

// Config holds runtime options for the console HTTP server.
type Config struct {
	Address    string
	Controller *app.Controller
	Renderer   *templates.Renderer
	Logger     *zap.Logger
	// RequestTimeout bounds each handler. It should exceed the backend client timeout.
	RequestTimeout time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(timeout))

	staticContent, err := public.StaticFS()
	if err != nil {
		log.Fatalf("embed static: %v", err)
	}
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	h := &handlers{
		ctrl:   cfg.Controller,
		render: cfg.Renderer,
		bundle: cfg.Renderer.Bundle(),
	}
	mountConsoleRoutes(router, h)

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func mountConsoleRoutes(router chi.Router, h *handlers) {
	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.CSRF())
		r.Use(custommw.Locale(h.bundle))

		r.Get("/", h.index)
		r.Get("/product/preview", h.preview)

		RegisterFragment(r, "/frag/health", h.health)
		RegisterFragment(r, "/frag/history", h.historyFragment)
		RegisterFragment(r, "/product/images/{index}", h.image)
		RegisterFragment(r, "/product/edit", h.edit)
		RegisterFragment(r, "/modal/help", h.helpModal)
		RegisterFragment(r, "/modal/settings", h.settingsModal)

		r.Post("/product/fetch", h.fetch)
		r.Post("/product/edit/input", h.editInput)
		r.Post("/product/edit/restore", h.restore)
		r.Post("/product/register", h.register)
		r.Post("/product/update", h.update)
		r.Post("/product/reset", h.reset)
		r.Post("/batch", h.batch)
		r.Post("/settings", h.saveSettings)
		r.Post("/settings/reset", h.resetSettings)
		r.Post("/history/clear", h.clearHistory)
	})
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
