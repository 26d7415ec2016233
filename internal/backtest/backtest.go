// Package backtest replays historical bars through a strategy to produce a
// trade ledger and performance summary. It tracks a single in-memory
// position (long or short) with all-realized accounting, independent of the
// durable ledger used by live trading.
package backtest

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"stocksalgo/internal/models"
	"stocksalgo/internal/strategy"
)

// Config holds backtest parameters.
type Config struct {
	Symbol         string
	InitialCapital float64
	// SizingFraction is the fraction of current capital committed per
	// entry; shares are floored to whole units. 1.0 is all-in.
	SizingFraction float64
}

// Result holds the outcome of a backtest run.
type Result struct {
	Trades       []models.ClosedTrade
	FinalCapital float64
	TotalTrades  int

	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64

	// OpenPosition is any position still open when the bar sequence
	// ended. It stays unrealized: FinalCapital reflects closed trades
	// only.
	OpenPosition *models.OpenPosition
}

// Engine drives one strategy over a bar sequence.
type Engine struct {
	strategy strategy.Strategy
	logger   zerolog.Logger
	config   Config

	capital  float64
	position *models.OpenPosition
	trades   []models.ClosedTrade
}

// NewEngine creates a backtest engine for the given strategy.
func NewEngine(strat strategy.Strategy, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.SizingFraction <= 0 || cfg.SizingFraction > 1 {
		cfg.SizingFraction = 1.0
	}
	return &Engine{
		strategy: strat,
		logger:   logger,
		config:   cfg,
	}
}

// Run replays bars, oldest first, and returns the realized trades and
// final capital. A position still open at the last bar is reported but not
// force-closed.
func (e *Engine) Run(ctx context.Context, bars []models.Bar) (*Result, error) {
	e.capital = e.config.InitialCapital
	e.position = nil
	e.trades = nil

	for i, bar := range bars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		signal, err := e.strategy.OnBar(ctx, bar, e.currentPosition(), bars[:i])
		if err != nil {
			return nil, err
		}

		switch signal {
		case models.SignalBuy:
			if e.position != nil && e.position.Type == models.PositionShort {
				e.closePosition(bar)
			}
			if e.position == nil {
				e.openPosition(bar, models.PositionLong)
			}
		case models.SignalSell:
			if e.position != nil && e.position.Type == models.PositionLong {
				e.closePosition(bar)
			}
			if e.position == nil {
				e.openPosition(bar, models.PositionShort)
			}
		}
	}

	return e.buildResult(), nil
}

// currentPosition maps the backtest position into the shape strategies
// consume; shorts carry a negative quantity.
func (e *Engine) currentPosition() *models.Position {
	if e.position == nil {
		return nil
	}
	qty := e.position.Quantity
	if e.position.Type == models.PositionShort {
		qty = -qty
	}
	return &models.Position{
		Symbol:   e.position.Symbol,
		Quantity: qty,
		AvgPrice: e.position.EntryPrice,
	}
}

func (e *Engine) openPosition(bar models.Bar, posType models.PositionType) {
	quantity := math.Floor(e.capital * e.config.SizingFraction / bar.Close)
	if quantity <= 0 {
		return
	}

	e.position = &models.OpenPosition{
		Symbol:     e.config.Symbol,
		Type:       posType,
		EntryPrice: bar.Close,
		Quantity:   quantity,
		EntryTime:  bar.Timestamp,
	}

	e.logger.Debug().
		Str("symbol", e.config.Symbol).
		Str("type", string(posType)).
		Float64("price", bar.Close).
		Float64("quantity", quantity).
		Msg("Backtest position opened")
}

func (e *Engine) closePosition(bar models.Bar) {
	pnl := e.position.PnL(bar.Close)
	e.capital += pnl

	e.trades = append(e.trades, models.ClosedTrade{
		Symbol:     e.position.Symbol,
		Type:       e.position.Type,
		EntryPrice: e.position.EntryPrice,
		ExitPrice:  bar.Close,
		Quantity:   e.position.Quantity,
		EntryTime:  e.position.EntryTime,
		ExitTime:   bar.Timestamp,
		PnL:        pnl,
	})

	e.logger.Debug().
		Str("symbol", e.position.Symbol).
		Str("type", string(e.position.Type)).
		Float64("pnl", pnl).
		Msg("Backtest position closed")

	e.position = nil
}

func (e *Engine) buildResult() *Result {
	result := &Result{
		Trades:       e.trades,
		FinalCapital: e.capital,
		TotalTrades:  len(e.trades),
		OpenPosition: e.position,
	}

	for _, t := range e.trades {
		result.TotalPnL += t.PnL
		if t.PnL > 0 {
			result.WinningTrades++
		} else {
			result.LosingTrades++
		}
	}
	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades) * 100
	}

	return result
}
