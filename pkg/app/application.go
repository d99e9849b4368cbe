package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"freightline/pkg/config"
	"freightline/pkg/contracts"
	"freightline/pkg/middleware"
)

// Worker is a background loop with Start/Stop lifecycle, run alongside the
// HTTP server and stopped before it during shutdown.
type Worker interface {
	Start()
	Stop()
}

// Closer releases an external client (mongo, redis, kafka) during shutdown.
type Closer func(ctx context.Context) error

type Application struct {
	cfg            *config.Config
	server         *http.Server
	workers        []Worker
	closers        []Closer
	healthHandler  http.Handler
	appHTTPHandler http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp wires the handlers into the middleware stacks and builds the
// server. Health endpoints skip the request timeout so probes stay cheap.
func (a *Application) SetApp(healthHandler contracts.Handler, appHandlers ...contracts.Handler) {
	a.setHealthHandler(healthHandler)
	a.setAppHandler(appHandlers)
	a.setAppServer()
}

func (a *Application) AddWorker(w Worker) {
	a.workers = append(a.workers, w)
}

func (a *Application) AddCloser(c Closer) {
	a.closers = append(a.closers, c)
}

func (a *Application) setHealthHandler(h contracts.Handler) {
	healthRouter := httprouter.New()
	h.RegisterRoutes(healthRouter)

	var handler http.Handler = healthRouter
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.healthHandler = handler
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	var handler http.Handler = appRouter
	handler = middleware.RequestTimeout(a.cfg.RequestTimeout)(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.appHTTPHandler = handler
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHTTPHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	for _, w := range a.workers {
		w.Start()
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	for _, w := range a.workers {
		w.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.cfg.Log.Error("Failed to close external client", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
