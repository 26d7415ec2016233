// Package execution validates trade signals against the ledger and turns
// them into executed fills.
package execution

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stocksalgo/internal/errors"
	"stocksalgo/internal/ledger"
	"stocksalgo/internal/logging"
	"stocksalgo/internal/models"
	"stocksalgo/pkg/id"
)

// Status represents the outcome of an execution attempt.
type Status string

const (
	StatusFilled Status = "filled"
	StatusFailed Status = "failed"
)

// Result is the outcome of Execute. Business rejections (insufficient
// funds or shares) come back as a failed Result, not an error; errors are
// reserved for infrastructure failures such as persistence.
type Result struct {
	Status Status
	Trade  *models.Trade
	Reason string
}

// Executor executes orders against a ledger. A successful fill appends
// exactly one trade record and persists the ledger synchronously before
// returning; a failed execution performs no mutation and no persistence.
type Executor struct {
	ledger *ledger.Ledger
	logger zerolog.Logger
	now    func() time.Time
}

// NewExecutor creates an Executor bound to the given ledger.
func NewExecutor(l *ledger.Ledger, logger zerolog.Logger) *Executor {
	return &Executor{
		ledger: l,
		logger: logger,
		now:    time.Now,
	}
}

// Execute validates and applies one order. quantity and price must be
// positive; BUY requires quantity*price in available balance, SELL requires
// the full quantity to be held.
func (e *Executor) Execute(_ context.Context, symbol string, side models.Side, quantity, price float64) (Result, error) {
	if quantity <= 0 || price <= 0 {
		return Result{Status: StatusFailed, Reason: errors.ErrInvalidOrder.Error()}, nil
	}

	total := quantity * price

	switch side {
	case models.SideBuy:
		if e.ledger.Balance() < total {
			return Result{Status: StatusFailed, Reason: errors.ErrInsufficientFunds.Error()}, nil
		}

		trade := models.Trade{
			ID:           id.New(),
			Timestamp:    e.now(),
			Symbol:       symbol,
			Side:         models.SideBuy,
			Quantity:     quantity,
			Price:        price,
			Total:        total,
			BalanceAfter: e.ledger.Balance() - total,
		}
		if err := e.ledger.RecordBuy(trade); err != nil {
			return Result{}, errors.Wrap(err, "recording buy")
		}

		logging.LogFill(e.logger, symbol, string(side), quantity, price, nil)
		return Result{Status: StatusFilled, Trade: &trade}, nil

	case models.SideSell:
		pos, ok := e.ledger.Position(symbol)
		if !ok || pos.Quantity < quantity {
			return Result{Status: StatusFailed, Reason: errors.ErrInsufficientShares.Error()}, nil
		}

		pnl := (price - pos.AvgPrice) * quantity
		trade := models.Trade{
			ID:           id.New(),
			Timestamp:    e.now(),
			Symbol:       symbol,
			Side:         models.SideSell,
			Quantity:     quantity,
			Price:        price,
			Total:        total,
			PnL:          &pnl,
			BalanceAfter: e.ledger.Balance() + total,
		}
		if err := e.ledger.RecordSell(trade); err != nil {
			return Result{}, errors.Wrap(err, "recording sell")
		}

		logging.LogFill(e.logger, symbol, string(side), quantity, price, &pnl)
		return Result{Status: StatusFilled, Trade: &trade}, nil

	default:
		return Result{Status: StatusFailed, Reason: errors.ErrInvalidOrder.Error()}, nil
	}
}
