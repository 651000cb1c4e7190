package http

import (
	"net/http"

	"muxlive/internal/infrastructure/middleware"
	"muxlive/pkg/config"
	"muxlive/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterDeps struct {
	LiveStreams *LiveStreamHandler
	Health      *HealthHandler
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter wires middleware and routes in the order they must run:
// recovery first, then request id, tracing, logging and error rendering.
func NewRouter(cfg *config.Config, deps RouterDeps, log *zap.Logger) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	cl := logger.NewContextLogger(log)
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(cl),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.RequestLoggingMiddleware(cl),
		middleware.CORSMiddleware(cfg),
		middleware.NewHTTPRateLimitMiddleware(cfg),
		middleware.ErrorHandlerMiddleware(cl),
	)
	router.NoRoute(middleware.NotFoundHandler)

	deps.LiveStreams.SetupRoutes(router)
	deps.Health.SetupRoutes(router)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	return router
}

// MetricsHandler returns the default Prometheus handler when enabled.
func MetricsHandler(cfg *config.Config) http.Handler {
	if !cfg.Monitoring.PrometheusEnabled {
		return nil
	}
	return promhttp.Handler()
}
