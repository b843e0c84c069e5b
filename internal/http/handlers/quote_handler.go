// README: Quote handlers for create/list/get.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scumfare/internal/modules/pricing"
	"scumfare/internal/modules/quote"
)

type QuoteHandler struct {
	quotes *quote.Service
}

func NewQuoteHandler(svc *quote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: svc}
}

func (h *QuoteHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var trip pricing.TripRequest
	if err := c.ShouldBindJSON(&trip); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	q, err := h.quotes.Create(c.Request.Context(), actor, c.Param("guild_id"), trip)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, q)
}

func (h *QuoteHandler) List(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	quotes, err := h.quotes.List(c.Request.Context(), c.Param("guild_id"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if quotes == nil {
		quotes = []quote.Quote{}
	}
	writeJSON(c, http.StatusOK, gin.H{"quotes": quotes})
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", "invalid quote id")
		return
	}
	q, err := h.quotes.Get(c.Request.Context(), c.Param("guild_id"), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
