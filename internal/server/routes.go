package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication; health and metrics stay open
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return p == "/v1/health" || p == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/trades/recent", h.RecentTrades)

	// Quote and price hit the RPC node, so they are rate limited
	quotes := v1.Group("")
	if cfg.QuoteRate > 0 {
		quotes.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.QuoteRate),
			Burst:     burstFor(cfg.QuoteRate),
			ExpiresIn: 2 * time.Minute,
		})))
	}
	quotes.GET("/price/:token", h.Price)
	quotes.GET("/quote", h.Quote)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

func burstFor(r float64) int {
	b := int(r)
	if b < 1 {
		return 1
	}
	return b
}
