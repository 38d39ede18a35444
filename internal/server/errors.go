package server

import (
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps trade errors to HTTP status codes. Anything unrecognised
// is treated as an upstream RPC failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, swapengine.ErrInvalidSide),
		errors.Is(err, swapengine.ErrInvalidToken),
		errors.Is(err, amount.ErrInvalidAmount),
		errors.Is(err, amount.ErrAmountOverflow),
		errors.Is(err, amm.ErrSlippageOutOfRange),
		errors.Is(err, amm.ErrZeroAmount):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrExceedsReserve),
		errors.Is(err, amm.ErrEmptyReserves),
		errors.Is(err, amm.ErrOverflow),
		errors.Is(err, swapengine.ErrPoolMismatch),
		errors.Is(err, swapengine.ErrMintNotInPool):
		return http.StatusUnprocessableEntity
	case errors.Is(err, swapengine.ErrJournalDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
