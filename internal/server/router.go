package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.GET("/", handler.Index)
	router.GET("/config", handler.Config)
	router.POST("/analyze", handler.Analyze)
	router.GET("/favicon.ico", handler.Favicon)
	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
