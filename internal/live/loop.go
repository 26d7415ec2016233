// Package live drives the live decision loop: poll market data, detect new
// bars, ask the strategy for a signal, and execute against the durable
// ledger. Execution is single-threaded and cooperative; one cycle runs to
// completion before the next poll.
package live

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"stocksalgo/internal/data"
	"stocksalgo/internal/errors"
	"stocksalgo/internal/execution"
	"stocksalgo/internal/ledger"
	"stocksalgo/internal/logging"
	"stocksalgo/internal/models"
	"stocksalgo/internal/strategy"
)

// Config holds live loop parameters.
type Config struct {
	Symbol       string
	Timeframe    string
	PollInterval time.Duration
	Lookback     time.Duration
	// SizingFraction is the fraction of available balance committed on a
	// BUY entry; shares are floored to whole units.
	SizingFraction float64
}

// Loop polls for new bars and trades them. At most one Loop may own a
// ledger path; concurrent loops against the same ledger corrupt the
// weighted-average invariant.
type Loop struct {
	provider data.Provider
	strategy strategy.Strategy
	executor *execution.Executor
	ledger   *ledger.Ledger
	logger   zerolog.Logger
	config   Config

	lastProcessed time.Time
	now           func() time.Time
}

// NewLoop creates a live decision loop.
func NewLoop(provider data.Provider, strat strategy.Strategy, exec *execution.Executor, l *ledger.Ledger, cfg Config, logger zerolog.Logger) *Loop {
	if cfg.SizingFraction <= 0 || cfg.SizingFraction > 1 {
		cfg.SizingFraction = 0.95
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 2 * time.Hour
	}
	return &Loop{
		provider: provider,
		strategy: strat,
		executor: exec,
		ledger:   l,
		logger:   logger,
		config:   cfg,
		now:      time.Now,
	}
}

// Run cycles until the context is cancelled. Transient cycle failures
// (data, delegate) are logged and followed by the normal inter-cycle wait;
// a persistence failure terminates the loop rather than continuing with
// un-persisted state.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Str("symbol", l.config.Symbol).
		Str("timeframe", l.config.Timeframe).
		Str("strategy", l.strategy.Name()).
		Msg("Live loop started")

	for {
		if err := l.Cycle(ctx); err != nil {
			if errors.Is(err, errors.ErrPersistenceFailed) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("Cycle failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.config.PollInterval):
		}
	}
}

// Cycle runs one fetch-decide-execute pass. A cycle with no new bar is a
// no-op.
func (l *Loop) Cycle(ctx context.Context) error {
	now := l.now()
	bars, err := l.provider.GetBars(ctx, l.config.Symbol, l.config.Timeframe, now.Add(-l.config.Lookback), now)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		l.logger.Debug().Str("symbol", l.config.Symbol).Msg("No data received")
		return nil
	}

	last := bars[len(bars)-1]
	if !last.Timestamp.After(l.lastProcessed) {
		l.logger.Debug().Time("bar", last.Timestamp).Msg("No new bar yet")
		return nil
	}

	var position *models.Position
	if pos, ok := l.ledger.Position(l.config.Symbol); ok {
		position = &pos
	}

	signal, err := l.strategy.OnBar(ctx, last, position, bars[:len(bars)-1])
	if err != nil {
		return err
	}

	// The bar counts as processed even when the decision goes nowhere;
	// a failed execution below is not retried on the same bar.
	l.lastProcessed = last.Timestamp

	if signal == models.SignalNone {
		return nil
	}
	logging.LogSignal(l.logger, l.strategy.Name(), l.config.Symbol, string(signal), last.Close)

	return l.apply(ctx, signal, last)
}

// apply enforces the live position policy: enter only from flat, exit only
// the full held quantity. Anything else is a logged no-op.
func (l *Loop) apply(ctx context.Context, signal models.Signal, bar models.Bar) error {
	held := l.ledger.HeldQuantity(l.config.Symbol)

	switch signal {
	case models.SignalBuy:
		if held != 0 {
			l.logger.Info().Float64("held", held).Msg("BUY signal ignored: position already open")
			return nil
		}
		quantity := math.Floor(l.ledger.Balance() * l.config.SizingFraction / bar.Close)
		if quantity <= 0 {
			l.logger.Info().Float64("balance", l.ledger.Balance()).Msg("BUY signal ignored: balance too small")
			return nil
		}
		return l.execute(ctx, models.SideBuy, quantity, bar.Close)

	case models.SignalSell:
		if held <= 0 {
			l.logger.Info().Msg("SELL signal ignored: no position to sell")
			return nil
		}
		// Full exit, never partial.
		return l.execute(ctx, models.SideSell, held, bar.Close)
	}

	return nil
}

func (l *Loop) execute(ctx context.Context, side models.Side, quantity, price float64) error {
	result, err := l.executor.Execute(ctx, l.config.Symbol, side, quantity, price)
	if err != nil {
		return err
	}
	if result.Status == execution.StatusFailed {
		l.logger.Warn().
			Str("side", string(side)).
			Float64("quantity", quantity).
			Str("reason", result.Reason).
			Msg("Order rejected")
	}
	return nil
}

// LastProcessed returns the timestamp of the most recently processed bar.
func (l *Loop) LastProcessed() time.Time {
	return l.lastProcessed
}
