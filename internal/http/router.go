// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"scumfare/internal/http/handlers"
	"scumfare/internal/http/middleware"
	"scumfare/internal/infra"
	"scumfare/internal/modules/pricing"
	"scumfare/internal/modules/quote"
)

type RouterDeps struct {
	Pricing     *pricing.Service
	Admin       *pricing.Admin
	Quotes      *quote.Service
	Verifier    infra.TokenVerifier
	Logger      *slog.Logger
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	guild := r.Group("/api/guilds/:guild_id", middleware.Auth(deps.Verifier), middleware.GuildMember())

	pricingHandler := handlers.NewPricingHandler(deps.Pricing, deps.Admin)
	guild.POST("/fares/calculate", pricingHandler.Calculate)
	guild.GET("/pricing/config", pricingHandler.Config)

	admin := guild.Group("/pricing", middleware.GuildAdmin())
	admin.PUT("/rate-table", pricingHandler.PutRateTable)
	admin.PUT("/types/:type_id", pricingHandler.PutType)
	admin.DELETE("/types/:type_id", pricingHandler.DeleteType)
	admin.PUT("/zones/:zone_id", pricingHandler.PutZone)
	admin.DELETE("/zones/:zone_id", pricingHandler.DeleteZone)
	admin.PUT("/time-modifiers/:kind", pricingHandler.PutTimeModifier)
	admin.PUT("/operator-levels/:level", pricingHandler.PutOperatorLevel)
	admin.DELETE("/operator-levels/:level", pricingHandler.DeleteOperatorLevel)

	quoteHandler := handlers.NewQuoteHandler(deps.Quotes)
	guild.POST("/quotes", quoteHandler.Create)
	guild.GET("/quotes", quoteHandler.List)
	guild.GET("/quotes/:id", quoteHandler.Get)

	if len(deps.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
