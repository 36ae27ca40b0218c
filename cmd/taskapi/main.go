package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"time"

	"taskapi/internal/config"
	"taskapi/internal/db"
	httpServer "taskapi/internal/http"
	"taskapi/internal/http/middleware"
	"taskapi/internal/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to open task store", "error", err)
	}

	limiter := middleware.NewRedisRateLimiter(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	r := httpServer.NewRouter()
	httpServer.RegisterRoutes(r, store, cfg, limiter, requestShutdown)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started",
			"port", cfg.AppPort,
			"version", cfg.Version,
			"database", store.Driver(),
			"max_in_flight", cfg.MaxInFlight,
			"rate_limit", limiter.Enabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	// The store closes only after in-flight requests have drained.
	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"taskapi": func(ctx context.Context) error {
			logger.Info("shutting down server")
			err := srv.Shutdown(ctx)
			store.Close()
			if cerr := limiter.Close(); cerr != nil {
				logger.Warn("failed to close redis client", "error", cerr)
			}
			return err
		},
	})

	code := <-wait
	logger.Info("server exited", "code", code)
	os.Exit(code)
}

// requestShutdown delivers SIGTERM to this process so the remote shutdown
// endpoint takes the same path as a signal from the supervisor.
func requestShutdown() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		logger.Error("cannot find own process", "error", err)
		return
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		logger.Error("failed to signal shutdown", "error", err)
	}
}
