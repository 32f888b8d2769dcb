package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studydesk/internal/adapters/backend"
	web "studydesk/internal/adapters/http"
	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/adapters/http/perf"
	"studydesk/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err.Error())
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(cfg config.Config) error {
	store, err := middleware.NewFilesystemStore(middleware.SessionOptions{
		Dir:      cfg.SessionDir,
		HashKey:  cfg.SessionHashKey,
		BlockKey: cfg.SessionBlockKey,
		Secure:   cfg.Production(),
	})
	if err != nil {
		return err
	}

	// Performance instrumentation shared by request timing, the backend client and the admin panel
	collector := perf.NewCollector(perf.DefaultRingSize)
	client := backend.NewClient(cfg.BackendURL,
		backend.WithTimeout(backend.DefaultTimeout),
		backend.WithCollector(collector),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Second)
		defer limiter.Stop()
	}

	handler, err := web.NewMux(web.Deps{
		Backend:   client,
		Sessions:  middleware.NewSessionManager(store),
		Collector: collector,
		CSRF: middleware.CSRFOptions{
			Key:            cfg.CSRFKey,
			Secure:         cfg.Production(),
			TrustedOrigins: trustedOrigins(cfg.Addr),
		},
		Limiter:       limiter,
		SlowRequestMs: cfg.SlowRequestMs,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Each page waits on its backend calls concurrently, so one backend timeout
		// bounds the slowest handler.
		WriteTimeout: backend.DefaultTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go middleware.RunSessionSweeper(ctx, cfg.SessionDir, middleware.DefaultSessionMaxAge*time.Second, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping", "drain", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// trustedOrigins lists the local host:port forms a browser may send as Origin.
func trustedOrigins(addr string) []string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return nil
	}
	return []string{"localhost:" + port, "127.0.0.1:" + port}
}
