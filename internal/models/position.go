package models

import "time"

// PositionType represents the direction of a backtest position.
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
)

// OpenPosition is the single in-memory position tracked by the backtest
// replay loop. It is distinct from the ledger Position: the replay loop
// allows one concurrent position only, long or short, with no pyramiding.
type OpenPosition struct {
	Symbol     string
	Type       PositionType
	EntryPrice float64
	Quantity   float64
	EntryTime  time.Time
	StopLoss   float64
	TakeProfit float64
}

// PnL returns the unrealized profit or loss of the position at the given
// price, negated for shorts.
func (p OpenPosition) PnL(price float64) float64 {
	diff := price - p.EntryPrice
	if p.Type == PositionShort {
		diff = -diff
	}
	return diff * p.Quantity
}

// ClosedTrade is a round-trip trade realized by the backtest replay loop.
type ClosedTrade struct {
	Symbol     string
	Type       PositionType
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
}
