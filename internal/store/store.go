// Package store provides data persistence interfaces and implementations.
package store

import (
	"time"

	"stocksalgo/internal/models"
)

// TradeStore mirrors executed fills into queryable storage. It is an
// optional collaborator: the JSON ledger state remains authoritative, and
// a nil TradeStore means the mirror is not configured.
type TradeStore interface {
	AppendTrade(trade models.Trade) error
	GetTrades(filter TradeFilter) ([]models.Trade, error)
	Close() error
}

// CandleStore caches historical bars for backtests.
type CandleStore interface {
	SaveBars(symbol, timeframe string, bars []models.Bar) error
	GetBars(symbol, timeframe string, from, to time.Time) ([]models.Bar, error)
}

// TradeFilter represents filters for querying mirrored trades.
type TradeFilter struct {
	Symbol    string
	Side      models.Side
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
