package http

import (
	"net/http"
	"strings"

	"taskapi/internal/config"
	"taskapi/internal/db"
	"taskapi/internal/http/handlers"
	"taskapi/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const tasksPath = "/api/tasks"

// NewRouter builds the engine with the middleware chain every request
// passes through.
func NewRouter() *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestLog(),
		middleware.Metrics(),
		middleware.Errors(),
		middleware.Recovery(),
	)
	return r
}

// RegisterRoutes mounts the task API, health probes, metrics and, when a
// secret is configured, the shutdown endpoint.
func RegisterRoutes(r *gin.Engine, store *db.Store, cfg *config.Config, limiter *middleware.RedisRateLimiter, shutdown func()) {
	h := handlers.NewHandler(store.Tasks)
	healthHandler := handlers.NewHealthHandler(store, cfg.Version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.ShutdownSecret != "" {
		sh := handlers.NewShutdownHandler(cfg.ShutdownSecret, shutdown)
		r.POST("/shutdown", sh.Shutdown)
	}

	api := r.Group(tasksPath,
		middleware.MaxInFlight(cfg.MaxInFlight),
		limiter.Limit(cfg.APIRateLimit, cfg.APIRateWindow),
	)
	{
		api.POST("", h.CreateTask)
		api.GET("", h.ListTasks)
		api.GET("/:id", h.GetTask)
		api.PUT("/:id", h.UpdateTask)
		api.DELETE("/:id", h.DeleteTask)

		// a write without a resource id
		api.PUT("", badRequest)
		api.DELETE("", badRequest)
	}

	r.NoRoute(func(c *gin.Context) {
		if underTasks(c.Request.URL.Path) {
			badRequest(c)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
			if underTasks(c.Request.URL.Path) {
				badRequest(c)
				return
			}
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
}

func underTasks(path string) bool {
	return path == tasksPath || strings.HasPrefix(path, tasksPath+"/")
}

func badRequest(c *gin.Context) {
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.AbortWithStatus(http.StatusBadRequest)
}
