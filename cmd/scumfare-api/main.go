// README: Entry point; loads config, wires the pricing and quote services, and serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"scumfare/internal/config"
	httptransport "scumfare/internal/http"
	"scumfare/internal/infra"
	"scumfare/internal/modules/pricing"
	"scumfare/internal/modules/quote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger("scumfare-api", cfg.Log.Level)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("scumfare-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	pricingStore := pricing.NewStore(dbPool)
	var (
		source      pricing.Source = pricingStore
		invalidator pricing.Invalidator
	)
	if cfg.Redis.CacheTTL > 0 {
		redisClient := infra.NewRedis(cfg.Redis.Addr)
		defer redisClient.Close()
		cached := pricing.NewCachedSource(redisClient, pricingStore, cfg.Redis.CacheTTL, logger)
		source, invalidator = cached, cached
		logger.Info("pricing snapshot cache enabled", "redis", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL.String())
	}
	pricingSvc := pricing.NewService(source)
	adminSvc := pricing.NewAdmin(pricingStore, invalidator, logger)

	var events quote.Publisher
	if cfg.AMQP.URL != "" {
		publisher, err := infra.NewAMQPPublisher(cfg.AMQP.URL, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = publisher
	}
	quoteSvc := quote.NewService(quote.NewStore(dbPool), pricingSvc, events, logger)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Pricing:     pricingSvc,
		Admin:       adminSvc,
		Quotes:      quoteSvc,
		Verifier:    verifier,
		Logger:      logger,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	return httptransport.Serve(ctx, httptransport.NewServer(cfg.HTTP.Addr, handler), logger)
}

func newVerifier(ctx context.Context, cfg config.Config) (infra.TokenVerifier, error) {
	if cfg.Auth.Mode == config.AuthModeFirebase {
		return infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	}
	return infra.NewJWTVerifier(cfg.Auth.JWTSecret)
}
