package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/labstack/echo/v4"
)

// Quote previews a trade: /v1/quote?side=sell&token=sol&amount=1&slippage=0.5
// Nothing is signed or sent.
func (h *Handlers) Quote(c echo.Context) error {
	side, err := swapengine.ParseSide(c.QueryParam("side"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "buy or sell"})
	}
	token, err := swapengine.ParseToken(c.QueryParam("token"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid token", map[string]any{"token": "sol or usdc"})
	}

	amountStr := strings.TrimSpace(c.QueryParam("amount"))
	if amountStr == "" {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "required"})
	}

	slippage := amm.DefaultSlippage
	if v := strings.TrimSpace(c.QueryParam("slippage")); v != "" {
		p, err := amm.ParseSlippage(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid slippage", map[string]any{"slippage": "percent between 0 and 100"})
		}
		slippage = p
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	out, err := h.Service.Quote(ctx, swapengine.TradeRequest{
		Side:     side,
		Token:    token,
		Amount:   amountStr,
		Slippage: slippage,
	})
	if err != nil {
		return h.fail(c, "quote failed", err)
	}
	return c.JSON(http.StatusOK, out)
}
