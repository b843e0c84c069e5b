// README: Fare calculation and guild pricing configuration handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"scumfare/internal/modules/pricing"
)

type PricingHandler struct {
	pricing *pricing.Service
	admin   *pricing.Admin
}

func NewPricingHandler(svc *pricing.Service, admin *pricing.Admin) *PricingHandler {
	return &PricingHandler{pricing: svc, admin: admin}
}

type calculateResp struct {
	Request   pricing.PriceRequest   `json:"request"`
	Breakdown pricing.PriceBreakdown `json:"breakdown"`
}

// Calculate prices a trip without recording it.
func (h *PricingHandler) Calculate(c *gin.Context) {
	var trip pricing.TripRequest
	if err := c.ShouldBindJSON(&trip); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	req, b, err := h.pricing.Quote(c.Request.Context(), c.Param("guild_id"), trip)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, calculateResp{Request: req, Breakdown: b})
}

func (h *PricingHandler) Config(c *gin.Context) {
	snap, err := h.pricing.Config(c.Request.Context(), c.Param("guild_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}

type rateTableReq struct {
	BaseFare            decimal.Decimal `json:"base_fare"`
	PerDistanceUnitRate decimal.Decimal `json:"per_distance_unit_rate"`
	MinimumFare         decimal.Decimal `json:"minimum_fare"`
	CommissionPercent   decimal.Decimal `json:"commission_percent"`
	MaxDistance         decimal.Decimal `json:"max_distance"`
	DistanceUnitScale   decimal.Decimal `json:"distance_unit_scale"`
}

func (h *PricingHandler) PutRateTable(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req rateTableReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	rates, err := h.admin.PutRateTable(c.Request.Context(), actor, c.Param("guild_id"), pricing.RateTable{
		BaseFare:            req.BaseFare,
		PerDistanceUnitRate: req.PerDistanceUnitRate,
		MinimumFare:         req.MinimumFare,
		CommissionPercent:   req.CommissionPercent,
		MaxDistance:         req.MaxDistance,
		DistanceUnitScale:   req.DistanceUnitScale,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, rates)
}

type typeReq struct {
	DisplayName string          `json:"display_name"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Active      *bool           `json:"active"`
}

func (h *PricingHandler) PutType(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req typeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	t := pricing.TypeMultiplier{
		TypeID:      c.Param("type_id"),
		DisplayName: req.DisplayName,
		Multiplier:  req.Multiplier,
		Active:      activeOrDefault(req.Active),
	}
	if err := h.admin.PutType(c.Request.Context(), actor, c.Param("guild_id"), t); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *PricingHandler) DeleteType(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteType(c.Request.Context(), actor, c.Param("guild_id"), c.Param("type_id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type zoneReq struct {
	DisplayName          string          `json:"display_name"`
	DangerMultiplier     decimal.Decimal `json:"danger_multiplier"`
	MinimumOperatorLevel int             `json:"minimum_operator_level"`
	Active               *bool           `json:"active"`
}

func (h *PricingHandler) PutZone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req zoneReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	z := pricing.ZoneModifier{
		ZoneID:               c.Param("zone_id"),
		DisplayName:          req.DisplayName,
		DangerMultiplier:     req.DangerMultiplier,
		MinimumOperatorLevel: req.MinimumOperatorLevel,
		Active:               activeOrDefault(req.Active),
	}
	if err := h.admin.PutZone(c.Request.Context(), actor, c.Param("guild_id"), z); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, z)
}

func (h *PricingHandler) DeleteZone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteZone(c.Request.Context(), actor, c.Param("guild_id"), c.Param("zone_id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type timeModifierReq struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
}

func (h *PricingHandler) PutTimeModifier(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req timeModifierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	m := pricing.TimeModifier{
		AppliesWhen: pricing.TimeCondition(c.Param("kind")),
		Multiplier:  req.Multiplier,
		Start:       req.Start,
		End:         req.End,
	}
	if err := h.admin.PutTimeModifier(c.Request.Context(), actor, c.Param("guild_id"), m); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

type operatorLevelReq struct {
	Name               string          `json:"name"`
	EarningsMultiplier decimal.Decimal `json:"earnings_multiplier"`
	RequiredTrips      int             `json:"required_trips"`
	RequiredDistance   decimal.Decimal `json:"required_distance"`
	Active             *bool           `json:"active"`
}

func (h *PricingHandler) PutOperatorLevel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}
	var req operatorLevelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	l := pricing.OperatorLevel{
		Level:              level,
		Name:               req.Name,
		EarningsMultiplier: req.EarningsMultiplier,
		RequiredTrips:      req.RequiredTrips,
		RequiredDistance:   req.RequiredDistance,
		Active:             activeOrDefault(req.Active),
	}
	if err := h.admin.PutOperatorLevel(c.Request.Context(), actor, c.Param("guild_id"), l); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, l)
}

func (h *PricingHandler) DeleteOperatorLevel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteOperatorLevel(c.Request.Context(), actor, c.Param("guild_id"), level); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func levelParam(c *gin.Context) (int, bool) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "level must be an integer")
		return 0, false
	}
	return level, true
}

// activeOrDefault treats an omitted active flag as true.
func activeOrDefault(v *bool) bool {
	return v == nil || *v
}
