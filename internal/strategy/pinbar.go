package strategy

import (
	"context"
	"math"

	"stocksalgo/internal/models"
)

// Compile-time interface check.
var _ Strategy = (*PinBar)(nil)

// Body sizes below this are floored to avoid degenerate wick ratios on
// doji bars.
const bodyEpsilon = 1e-4

const (
	volumeFilterWindow     = 20
	volumeFilterMultiplier = 1.5
)

// PinBar detects reversal wick candles. A long lower wick with a small
// upper wick (hammer) signals BUY; a long upper wick with a small lower
// wick (shooting star) signals SELL.
type PinBar struct {
	wickRatio    float64
	volumeFilter bool
}

// NewPinBar creates a PinBar strategy. wickRatio is the minimum ratio of
// wick length to body size required for a signal (typically 2.0). When
// volumeFilter is set, signals are suppressed unless the bar's volume
// exceeds 1.5x the trailing 20-bar mean; with fewer than 20 bars of
// history the filter is skipped.
func NewPinBar(wickRatio float64, volumeFilter bool) *PinBar {
	if wickRatio <= 0 {
		wickRatio = 2.0
	}
	return &PinBar{
		wickRatio:    wickRatio,
		volumeFilter: volumeFilter,
	}
}

// Name returns "pinbar".
func (s *PinBar) Name() string {
	return "pinbar"
}

// OnBar inspects the bar's wick geometry and returns a reversal signal.
func (s *PinBar) OnBar(_ context.Context, bar models.Bar, _ *models.Position, history []models.Bar) (models.Signal, error) {
	if s.volumeFilter && len(history) >= volumeFilterWindow {
		avgVol := meanVolume(history, volumeFilterWindow)
		if bar.Volume < avgVol*volumeFilterMultiplier {
			return models.SignalNone, nil
		}
	}

	bodySize := math.Abs(bar.Close - bar.Open)
	if bodySize == 0 {
		bodySize = bodyEpsilon
	}

	upperWick := bar.High - math.Max(bar.Open, bar.Close)
	lowerWick := math.Min(bar.Open, bar.Close) - bar.Low

	// Hammer: long tail below, little above.
	if lowerWick > bodySize*s.wickRatio && upperWick < lowerWick*0.5 {
		return models.SignalBuy, nil
	}

	// Shooting star: long wick above, little below.
	if upperWick > bodySize*s.wickRatio && lowerWick < upperWick*0.5 {
		return models.SignalSell, nil
	}

	return models.SignalNone, nil
}
