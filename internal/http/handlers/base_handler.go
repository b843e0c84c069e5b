// README: Base handler utilities (JSON helpers, caller lookup, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scumfare/internal/http/middleware"
	"scumfare/internal/modules/pricing"
	"scumfare/internal/modules/quote"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code})
}

// actorFrom returns the caller as a service-layer actor; Auth guarantees it is present on
// every routed request.
func actorFrom(c *gin.Context) (pricing.Actor, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "unauthenticated")
		return pricing.Actor{}, false
	}
	return pricing.Actor{UID: caller.UID, Role: caller.Role}, true
}

// writeServiceError maps pricing and quote errors onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidRequest):
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, pricing.ErrInvalidConfig):
		writeError(c, http.StatusBadRequest, "invalid_config", err.Error())
	case errors.Is(err, quote.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, pricing.ErrConfigNotFound):
		writeError(c, http.StatusNotFound, "config_not_found", err.Error())
	case errors.Is(err, pricing.ErrUnknownType):
		writeError(c, http.StatusNotFound, "unknown_type", err.Error())
	case errors.Is(err, pricing.ErrUnknownZone):
		writeError(c, http.StatusNotFound, "unknown_zone", err.Error())
	case errors.Is(err, pricing.ErrNotFound), errors.Is(err, quote.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
