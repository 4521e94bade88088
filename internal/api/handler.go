package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"farmtrack-backend/internal/auth"
	"farmtrack-backend/internal/notification"
	"farmtrack-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	tokens  *auth.TokenManager
	webpush *webpush.Options
	alerts  *notification.WorkerPool
}

// NewHandler creates a new API handler. The alert pool may be nil when
// push is not configured.
func NewHandler(s store.Store, tokens *auth.TokenManager, webpushOptions *webpush.Options, alerts *notification.WorkerPool) *Handler {
	return &Handler{
		store:   s,
		tokens:  tokens,
		webpush: webpushOptions,
		alerts:  alerts,
	}
}

// Health answers the liveness probes on / and /api/.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps the store error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, store.ErrInsufficientStock):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// uintParam parses a positive integer path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(value), true
}
