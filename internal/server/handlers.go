// Package server exposes the HTTP surface: the demo page, the analyze
// endpoint, and the config/health/metrics routes.
package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/codexvision/focusd/internal/analysis"
	"github.com/codexvision/focusd/internal/domain"
)

// AnalyzeRequest is the body of POST /analyze. The image is a data URL
// or raw base64 JPEG.
type AnalyzeRequest struct {
	Image string `json:"image" binding:"required"`
}

// Handler serves the focus detection endpoints.
type Handler struct {
	service *analysis.Service
	backend string
	model   string
	mode    string
}

// NewHandler creates a Handler for the given analysis service.
func NewHandler(service *analysis.Service, backend, model, mode string) *Handler {
	return &Handler{
		service: service,
		backend: backend,
		model:   model,
		mode:    mode,
	}
}

// Index serves the demo page.
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

// Config reports the active backend and model. Static per process
// lifetime.
func (h *Handler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"backend": h.backend,
		"model":   h.model,
		"mode":    h.mode,
	})
}

// Analyze classifies one webcam frame. The response is always a
// Verdict shape with HTTP 200; backend failures arrive as ERROR
// verdicts, never as 5xx.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Warn("rejecting malformed analyze request")
		c.JSON(http.StatusBadRequest, domain.ErrorVerdict("image field is required"))
		return
	}

	verdict := h.service.Analyze(c.Request.Context(), req.Image)
	c.JSON(http.StatusOK, verdict)
}

// Favicon answers the browser's automatic favicon probe.
func (h *Handler) Favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Health reports liveness plus whether a verdict has completed yet.
func (h *Handler) Health(c *gin.Context) {
	_, hasResult := h.service.Last()
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"backend":    h.backend,
		"model":      h.model,
		"has_result": hasResult,
	})
}
