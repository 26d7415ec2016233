// Package data provides market data acquisition for the trading engine.
package data

import (
	"context"
	"time"

	"stocksalgo/internal/models"
)

// Provider fetches historical OHLCV bars.
//
// Bars are returned oldest first. An empty result means "no data, retry
// later" and is never an error; errors are reserved for upstream failures
// with no usable fallback.
type Provider interface {
	GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]models.Bar, error)
}
