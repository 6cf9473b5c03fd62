package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/viper"

	"library-lending/config"
	"library-lending/library"
	"library-lending/logger"
	"library-lending/server"
)

// managerHandle wraps the lending manager so the container closes its
// journal on shutdown.
type managerHandle struct {
	*library.Manager
}

// Shutdown implements do.ShutdownerWithError.
func (h *managerHandle) Shutdown() error { return h.Manager.Close() }

// httpServerHandle wraps http.Server with a bounded graceful shutdown.
type httpServerHandle struct {
	*http.Server
	shutdownTimeout time.Duration
}

// Shutdown implements do.ShutdownerWithError.
func (h *httpServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// newContainer registers every provider. Services are built lazily on
// first invoke, so the shell never constructs the HTTP server.
func newContainer(v *viper.Viper) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, v)
	do.Provide(injector, provideConfig)
	do.Provide(injector, provideLogger)
	do.Provide(injector, provideManager)
	do.Provide(injector, provideMetrics)
	do.Provide(injector, provideHTTPServer)

	return injector
}

func provideConfig(i do.Injector) (*config.Config, error) {
	return config.Load(do.MustInvoke[*viper.Viper](i))
}

func provideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Format: cfg.Log.Format,
		Level:  logger.ParseLevel(cfg.Log.Level),
	}), nil
}

func provideManager(i do.Injector) (*managerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	mgr, err := library.NewManager(library.WithLogger(log))
	if err != nil {
		return nil, err
	}

	if cfg.Catalog.Seed {
		if err := library.SeedDemo(mgr); err != nil {
			log.Warn("demo seed incomplete", "error", err)
		}
	}
	if cfg.Catalog.ImportPath != "" {
		n, err := mgr.ImportFile(cfg.Catalog.ImportPath)
		if err != nil {
			log.Warn("import incomplete", "path", cfg.Catalog.ImportPath, "error", err)
		}
		log.Info("items imported", "path", cfg.Catalog.ImportPath, "count", n)
	}

	log.Info("catalog ready",
		"items", len(mgr.ListItems()),
		"patrons", len(mgr.Patrons()),
	)
	return &managerHandle{Manager: mgr}, nil
}

func provideMetrics(i do.Injector) (*server.Metrics, error) {
	mgr := do.MustInvoke[*managerHandle](i)
	return server.NewMetrics(mgr.Manager), nil
}

func provideHTTPServer(i do.Injector) (*httpServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	mgr := do.MustInvoke[*managerHandle](i)
	metrics := do.MustInvoke[*server.Metrics](i)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(mgr.Manager, log, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
	}
	return &httpServerHandle{Server: srv, shutdownTimeout: cfg.Server.ShutdownTimeout}, nil
}

// shutdown tears the container down in reverse dependency order.
func shutdown(injector *do.RootScope, log *slog.Logger) {
	report := injector.Shutdown()
	if report != nil && len(report.Errors) > 0 {
		log.Error("shutdown error", "error", report)
	}
}
