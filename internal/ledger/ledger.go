// Package ledger provides the durable portfolio: cash balance, per-symbol
// positions with weighted-average cost, and the append-only trade history.
// The ledger owns its persistence; it is mutated exclusively through order
// execution and re-persisted synchronously after every mutation.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"stocksalgo/internal/errors"
	"stocksalgo/internal/models"
	"stocksalgo/internal/store"
)

// State is the persisted ledger shape. Position values tolerate the legacy
// bare-number encoding through models.Position's custom unmarshaling.
type State struct {
	Balance   float64                    `json:"balance"`
	Positions map[string]models.Position `json:"positions"`
	Trades    []models.Trade             `json:"trades"`
}

// Ledger holds the portfolio state and its storage handle. It is not safe
// for concurrent use: at most one decision loop may own a ledger path, and
// execution is single-threaded by design.
type Ledger struct {
	path   string
	logger zerolog.Logger
	mirror store.TradeStore

	initialBalance float64
	state          State
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMirror attaches an optional trade store that receives a copy of every
// fill. Mirror failures are logged, never fatal; the JSON state file remains
// the authoritative record.
func WithMirror(mirror store.TradeStore) Option {
	return func(l *Ledger) {
		l.mirror = mirror
	}
}

// Open loads the ledger from path, or initializes a fresh state with the
// given starting balance when the file is absent or unreadable.
func Open(path string, initialBalance float64, logger zerolog.Logger, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		path:           path,
		logger:         logger,
		initialBalance: initialBalance,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.load()
	return l, nil
}

// load reads the persisted state, migrating legacy shapes and falling back
// to a fresh state on any read or parse failure.
func (l *Ledger) load() {
	l.state = State{
		Balance:   l.initialBalance,
		Positions: make(map[string]models.Position),
		Trades:    []models.Trade{},
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn().Err(err).Str("path", l.path).Msg("Ledger state unreadable, starting fresh")
		}
		return
	}

	// Balance is a pointer so an absent field keeps the configured
	// starting balance rather than zeroing the account.
	var raw struct {
		Balance   *float64                   `json:"balance"`
		Positions map[string]models.Position `json:"positions"`
		Trades    []models.Trade             `json:"trades"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("Ledger state corrupt, starting fresh")
		return
	}

	if raw.Balance != nil {
		l.state.Balance = *raw.Balance
	}
	for symbol, pos := range raw.Positions {
		pos.Symbol = symbol
		l.state.Positions[symbol] = pos
	}
	if raw.Trades != nil {
		l.state.Trades = raw.Trades
	}
}

// persist overwrites the whole state atomically: the new state is written
// to a temporary file in the same directory and renamed into place, so an
// interrupted write never corrupts the previous state.
func (l *Ledger) persist() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrPersistenceFailed, err.Error())
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailed, err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailed, err)
	}
	return nil
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	return l.state.Balance
}

// Position returns the open position for a symbol. The second return value
// is false when no position is held.
func (l *Ledger) Position(symbol string) (models.Position, bool) {
	pos, ok := l.state.Positions[symbol]
	return pos, ok
}

// HeldQuantity returns the held quantity for a symbol, zero when flat.
func (l *Ledger) HeldQuantity(symbol string) float64 {
	return l.state.Positions[symbol].Quantity
}

// Trades returns a copy of the trade history, oldest first.
func (l *Ledger) Trades() []models.Trade {
	trades := make([]models.Trade, len(l.state.Trades))
	copy(trades, l.state.Trades)
	return trades
}

// RecordBuy debits the balance, folds the fill into the symbol's
// weighted-average cost, appends the trade, and persists. The caller has
// already validated funds; this method assumes the fill is payable.
func (l *Ledger) RecordBuy(trade models.Trade) error {
	pos := l.state.Positions[trade.Symbol]
	pos.Symbol = trade.Symbol

	newQty := pos.Quantity + trade.Quantity
	if newQty > 0 {
		pos.AvgPrice = (pos.Quantity*pos.AvgPrice + trade.Quantity*trade.Price) / newQty
	}
	pos.Quantity = newQty

	return l.commit(trade, func() {
		l.state.Balance -= trade.Total
		l.state.Positions[trade.Symbol] = pos
	})
}

// RecordSell credits the balance and reduces the held quantity, removing
// the position entirely when it reaches zero so a later buy starts a fresh
// cost basis. The caller has already validated share availability.
func (l *Ledger) RecordSell(trade models.Trade) error {
	pos := l.state.Positions[trade.Symbol]
	pos.Quantity -= trade.Quantity

	return l.commit(trade, func() {
		l.state.Balance += trade.Total
		if pos.Quantity <= 0 {
			delete(l.state.Positions, trade.Symbol)
		} else {
			l.state.Positions[trade.Symbol] = pos
		}
	})
}

// commit applies the mutation, appends the trade, and persists. A persist
// failure is surfaced loudly: the in-memory mutation stands, and callers
// should treat the error as fatal rather than continue with un-persisted
// state.
func (l *Ledger) commit(trade models.Trade, apply func()) error {
	apply()
	l.state.Trades = append(l.state.Trades, trade)

	if err := l.persist(); err != nil {
		return err
	}

	if l.mirror != nil {
		if err := l.mirror.AppendTrade(trade); err != nil {
			l.logger.Warn().Err(err).Str("trade_id", trade.ID).Msg("Trade mirror write failed")
		}
	}
	return nil
}

// Snapshot returns a read-only view of the ledger for reporting surfaces.
func (l *Ledger) Snapshot() Snapshot {
	positions := make(map[string]models.Position, len(l.state.Positions))
	for symbol, pos := range l.state.Positions {
		positions[symbol] = pos
	}

	roi := 0.0
	if l.initialBalance > 0 {
		invested := 0.0
		for _, pos := range positions {
			invested += pos.Quantity * pos.AvgPrice
		}
		roi = (l.state.Balance + invested - l.initialBalance) / l.initialBalance * 100
	}

	return Snapshot{
		Balance:   l.state.Balance,
		Positions: positions,
		Trades:    l.Trades(),
		ROI:       roi,
	}
}

// Snapshot is a point-in-time, read-only view of the portfolio.
type Snapshot struct {
	Balance   float64                    `json:"balance"`
	Positions map[string]models.Position `json:"positions"`
	Trades    []models.Trade             `json:"trades"`
	ROI       float64                    `json:"roi"`
}
