package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// QuoteService is the read-only part of the swap engine.
type QuoteService interface {
	Quote(ctx context.Context, req swapengine.TradeRequest) (*swapengine.Preview, error)
	Price(ctx context.Context, token swapengine.Token) (*swapengine.PriceQuote, error)
	RecentTrades(ctx context.Context, limit int) ([]*models.TradeEvent, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Service QuoteService
	Cluster string
	Pool    string
	DevMode bool
	Logger  *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// fail logs err and responds with the status it maps to.
func (h *Handlers) fail(c echo.Context, msg string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.Path()).Warn(msg)
	}
	if code == http.StatusBadRequest || code == http.StatusUnprocessableEntity {
		return c.JSON(code, ErrorResponse{Error: err.Error(), Code: code})
	}
	return h.err(c, code, msg, map[string]any{"err": err.Error()})
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Cluster: h.Cluster, Pool: h.Pool})
}

// RecentTrades returns journaled trades, newest first.
// Accepts limit query parameter (default: 20, range: 1-100)
func (h *Handlers) RecentTrades(c echo.Context) error {
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Service.RecentTrades(ctx, limit)
	if err != nil {
		return h.fail(c, "failed to get trades", err)
	}
	if items == nil {
		items = []*models.TradeEvent{}
	}
	return c.JSON(http.StatusOK, TradesResponse{Items: items})
}

// Price returns the pool spot price of sol or usdc (case-insensitive).
func (h *Handlers) Price(c echo.Context) error {
	token, err := swapengine.ParseToken(c.Param("token"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid token", map[string]any{"token": "sol or usdc"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Service.Price(ctx, token)
	if err != nil {
		return h.fail(c, "failed to get price", err)
	}
	return c.JSON(http.StatusOK, PriceResponse{
		Token:   strings.ToUpper(string(p.Token)),
		Other:   strings.ToUpper(string(p.Other)),
		Price:   p.OtherPerToken,
		Inverse: p.TokenPerOther,
		Slot:    p.Slot,
	})
}
