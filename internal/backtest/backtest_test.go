package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksalgo/internal/models"
)

// scriptedStrategy emits a fixed signal per bar index.
type scriptedStrategy struct {
	signals map[int]models.Signal
	calls   int
	err     error
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) OnBar(_ context.Context, _ models.Bar, _ *models.Position, history []models.Bar) (models.Signal, error) {
	s.calls++
	if s.err != nil {
		return models.SignalNone, s.err
	}
	if sig, ok := s.signals[len(history)]; ok {
		return sig, nil
	}
	return models.SignalNone, nil
}

func flatBars(n int, closes ...float64) []models.Bar {
	bars := make([]models.Bar, n)
	ts := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	for i := range bars {
		close := 100.0
		if i < len(closes) {
			close = closes[i]
		}
		bars[i] = models.Bar{
			Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
			Open:      close,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    1000,
		}
	}
	return bars
}

func TestRun_LongRoundTrip(t *testing.T) {
	strat := &scriptedStrategy{signals: map[int]models.Signal{
		1: models.SignalBuy,
		3: models.SignalSell,
	}}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 10000, SizingFraction: 1.0}, zerolog.Nop())

	// Buy at 100 (100 shares, all-in), sell at 110.
	bars := flatBars(5, 100, 100, 105, 110, 110)
	result, err := engine.Run(context.Background(), bars)
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalTrades)
	trade := result.Trades[0]
	assert.Equal(t, models.PositionLong, trade.Type)
	assert.Equal(t, 100.0, trade.Quantity)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 110.0, trade.ExitPrice)
	assert.Equal(t, 1000.0, trade.PnL)

	assert.Equal(t, 11000.0, result.FinalCapital)
	assert.Equal(t, 1, result.WinningTrades)
	assert.Equal(t, 100.0, result.WinRate)
	assert.Equal(t, 5, strat.calls, "strategy sees every bar")

	// The SELL that closed the long also opened a short, still open at end.
	require.NotNil(t, result.OpenPosition)
	assert.Equal(t, models.PositionShort, result.OpenPosition.Type)
	assert.Equal(t, 110.0, result.OpenPosition.EntryPrice)
}

func TestRun_ShortRoundTrip(t *testing.T) {
	strat := &scriptedStrategy{signals: map[int]models.Signal{
		1: models.SignalSell,
		3: models.SignalBuy,
	}}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 10000}, zerolog.Nop())

	// Short at 100, cover at 90: profit for a short.
	bars := flatBars(5, 100, 100, 95, 90, 90)
	result, err := engine.Run(context.Background(), bars)
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalTrades)
	trade := result.Trades[0]
	assert.Equal(t, models.PositionShort, trade.Type)
	assert.Equal(t, 1000.0, trade.PnL)
	assert.Equal(t, 11000.0, result.FinalCapital)
}

func TestRun_BuyFlipsShortThenOpensLong(t *testing.T) {
	strat := &scriptedStrategy{signals: map[int]models.Signal{
		1: models.SignalSell,
		3: models.SignalBuy,
		4: models.SignalSell,
	}}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 10000}, zerolog.Nop())

	bars := flatBars(6, 100, 100, 100, 95, 105, 105)
	result, err := engine.Run(context.Background(), bars)
	require.NoError(t, err)

	// Short closed at 95 (+500), long opened at 95 and closed at 105.
	require.Equal(t, 2, result.TotalTrades)
	assert.Equal(t, models.PositionShort, result.Trades[0].Type)
	assert.Equal(t, 500.0, result.Trades[0].PnL)
	assert.Equal(t, models.PositionLong, result.Trades[1].Type)

	// After the flip a short stays open from bar 4's SELL close.
	require.NotNil(t, result.OpenPosition)
	assert.Equal(t, models.PositionShort, result.OpenPosition.Type)
}

func TestRun_OpenPositionStaysUnrealized(t *testing.T) {
	strat := &scriptedStrategy{signals: map[int]models.Signal{1: models.SignalBuy}}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 10000}, zerolog.Nop())

	bars := flatBars(3, 100, 100, 200)
	result, err := engine.Run(context.Background(), bars)
	require.NoError(t, err)

	assert.Zero(t, result.TotalTrades)
	assert.Equal(t, 10000.0, result.FinalCapital, "unrealized gains do not move capital")
	require.NotNil(t, result.OpenPosition)
	assert.Equal(t, 100.0, result.OpenPosition.EntryPrice)
}

func TestRun_SizingFractionFloorsShares(t *testing.T) {
	strat := &scriptedStrategy{signals: map[int]models.Signal{1: models.SignalBuy}}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 1000, SizingFraction: 0.5}, zerolog.Nop())

	bars := flatBars(3, 100, 170, 170)
	result, err := engine.Run(context.Background(), bars)
	require.NoError(t, err)

	// 1000 * 0.5 / 170 = 2.94 -> 2 shares.
	require.NotNil(t, result.OpenPosition)
	assert.Equal(t, 2.0, result.OpenPosition.Quantity)
}

func TestRun_UnaffordableEntryIsSkipped(t *testing.T) {
	strat := &scriptedStrategy{signals: map[int]models.Signal{1: models.SignalBuy}}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 50}, zerolog.Nop())

	bars := flatBars(3, 100, 100, 100)
	result, err := engine.Run(context.Background(), bars)
	require.NoError(t, err)

	assert.Nil(t, result.OpenPosition)
	assert.Zero(t, result.TotalTrades)
}

func TestRun_StrategyErrorAborts(t *testing.T) {
	wantErr := errors.New("indicator blew up")
	strat := &scriptedStrategy{err: wantErr}
	engine := NewEngine(strat, Config{Symbol: "AAPL", InitialCapital: 10000}, zerolog.Nop())

	_, err := engine.Run(context.Background(), flatBars(3))
	assert.ErrorIs(t, err, wantErr)
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(&scriptedStrategy{}, Config{Symbol: "AAPL", InitialCapital: 10000}, zerolog.Nop())
	_, err := engine.Run(ctx, flatBars(3))
	assert.ErrorIs(t, err, context.Canceled)
}
