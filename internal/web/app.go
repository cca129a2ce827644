package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tablechat/internal/ai"
	"github.com/KaramelBytes/tablechat/internal/cache"
	"github.com/KaramelBytes/tablechat/internal/config"
	"github.com/KaramelBytes/tablechat/internal/engine"
	"github.com/KaramelBytes/tablechat/internal/ingest"
)

// App owns the process-wide state behind the JSON API: the loader, the
// content-hash dataset cache, the dispatcher, and the model client. The
// degraded flag and the cache are the only shared mutable state; both are
// mutex-guarded.
type App struct {
	cfg        *config.Global
	log        *zap.Logger
	client     ai.Client
	loader     *ingest.Loader
	cache      *cache.LRU
	dispatcher *engine.Dispatcher

	mu       sync.Mutex
	degraded bool

	handler http.Handler
}

// New wires the application together. degraded carries the startup health
// check result; /api/ask refuses work while it is set, and only an explicit
// /api/health?probe=1 clears it.
func New(cfg *config.Global, log *zap.Logger, client ai.Client, loader *ingest.Loader, lru *cache.LRU, dispatcher *engine.Dispatcher, degraded bool) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		cfg:        cfg,
		log:        log,
		client:     client,
		loader:     loader,
		cache:      lru,
		dispatcher: dispatcher,
		degraded:   degraded,
	}

	r := NewRouter(log, a.errorCodec, UUIDGenerator{})
	r.POST("/api/upload", a.handleUpload)
	r.POST("/api/ask", a.handleAsk)
	r.GET("/api/health", a.handleHealth)
	r.Handle(http.MethodGet, "/", uiHandler())

	var h http.Handler = r
	if len(cfg.AllowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", HeaderRequestID, HeaderCorrelationID},
		}).Handler(h)
	}
	a.handler = h
	return a
}

// Handler exposes the routed application; tests drive it through httptest.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) errorCodec(w http.ResponseWriter, err error) {
	status, code, message := mapError(err, a.cfg.OllamaModel)
	writeError(w, status, code, message)
}

// Degraded reports whether the model endpoint was unreachable at the last
// check.
func (a *App) Degraded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.degraded
}

func (a *App) setDegraded(v bool) {
	a.mu.Lock()
	a.degraded = v
	a.mu.Unlock()
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("http server stopped")
	return nil
}
