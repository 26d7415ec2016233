package models

import (
	"encoding/json"
	"time"
)

// Position represents a symbol's currently held quantity and weighted-average
// entry cost. AvgPrice is undefined when Quantity is zero; the ledger removes
// fully closed positions rather than keeping zero entries around.
type Position struct {
	Symbol   string  `json:"symbol,omitempty"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// UnmarshalJSON accepts both the canonical object shape and the legacy
// persisted shape where a position is a bare number holding the quantity.
// Legacy values migrate on read with an unknown (zero) average price.
func (p *Position) UnmarshalJSON(data []byte) error {
	var qty float64
	if err := json.Unmarshal(data, &qty); err == nil {
		p.Quantity = qty
		p.AvgPrice = 0
		return nil
	}

	type position Position
	var v position
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Position(v)
	return nil
}

// Trade represents an executed fill. Trades are append-only and immutable
// once recorded. PnL is set only on SELL fills (realized against the
// weighted-average entry price) and is nil on BUY fills.
type Trade struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Symbol       string    `json:"symbol"`
	Side         Side      `json:"side"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`
	Total        float64   `json:"total"`
	PnL          *float64  `json:"pnl"`
	BalanceAfter float64   `json:"balance_after"`
}
