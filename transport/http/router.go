package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Fried333/verus-connect/service"
)

// RouterConfig configures the HTTP router
type RouterConfig struct {
	// PathPrefix is where the login routes are mounted (default "/auth/verus")
	PathPrefix string

	// Metrics enables the prometheus middleware and /metrics endpoint
	Metrics bool

	Logger zerolog.Logger
}

// SetupRouter sets up the gin router with the login correlation routes
func SetupRouter(loginService *service.LoginService, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(cfg.Logger), gin.Recovery())

	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/auth/verus"
	}
	if cfg.Metrics {
		router.Use(MetricsMiddleware(loginService))
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	handlers := NewLoginHandlers(loginService)

	auth := router.Group(cfg.PathPrefix)
	{
		auth.POST("/login", handlers.Login)
		auth.POST("/verusidlogin", handlers.VerusIDLogin)
		auth.GET("/result/:id", handlers.Result)
		auth.GET("/health", handlers.Health)
	}

	return router
}
