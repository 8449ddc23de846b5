package api

import (
	"net/http"
	"time"

	"api_crowdsale/internal/deploy"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options tune the HTTP surface. Zero values are usable.
type Options struct {
	// Clock supplies the purchase time; defaults to time.Now.
	Clock func() time.Time
	// Limiter throttles the purchase endpoints; nil disables throttling.
	Limiter *rate.Limiter
}

// InitRoutes registers the crowdsale endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, d *deploy.Deployment, logger *zap.Logger, opts Options) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	salesHandler := NewSalesHandler(d.Sale, d.Bank, logger, clock)

	purchases := e.Group("/", rateLimit(opts.Limiter))
	purchases.POST("/purchases", salesHandler.handlePurchase)
	purchases.POST("/payments", salesHandler.handleDirectPayment)

	e.GET("/sale", salesHandler.handleGetSale)
	e.GET("/balances/:address", salesHandler.handleGetBalance)
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
