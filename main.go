package main

import (
	"fmt"

	"api_crowdsale/api"
	"api_crowdsale/internal/config"
	"api_crowdsale/internal/deploy"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("error creating logger: %v", err))
	}
	defer logger.Sync()

	cfg, err := config.Load(config.EnvOrDefault("SALE_CONFIG", "sale.toml"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	d, err := deploy.Deploy(cfg, logger)
	if err != nil {
		logger.Fatal("failed to deploy crowdsale", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.Burst)
	}

	r := gin.Default()
	api.InitRoutes(r, d, logger, api.Options{Limiter: limiter})

	if err := r.Run(cfg.Server.Address); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
