package server

import "github.com/aman-zulfiqar/wmgr/internal/models"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Cluster string `json:"cluster,omitempty"`
	Pool    string `json:"pool,omitempty"`
}

// PriceResponse is the pool spot price of Token in Other, with the
// inverse.
type PriceResponse struct {
	Token   string  `json:"token"`
	Other   string  `json:"other"`
	Price   float64 `json:"price"`
	Inverse float64 `json:"inverse"`
	Slot    uint64  `json:"slot,omitempty"`
}

type TradesResponse struct {
	Items []*models.TradeEvent `json:"items"`
}
