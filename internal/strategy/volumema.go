package strategy

import (
	"context"

	"stocksalgo/internal/models"
)

// Compile-time interface check.
var _ Strategy = (*VolumeMA)(nil)

// VolumeMA signals on high-volume bars that cross the trailing simple
// moving average: a bearish bar breaking below the SMA is a SELL, a
// bullish bar breaking above it is a BUY. Bars without at least
// volumeMultiplier times the trailing mean volume are ignored.
type VolumeMA struct {
	period           int
	volumeMultiplier float64
}

// NewVolumeMA creates a VolumeMA strategy with the given SMA period
// (typically 20) and volume multiplier (typically 2.0).
func NewVolumeMA(period int, volumeMultiplier float64) *VolumeMA {
	if period <= 0 {
		period = 20
	}
	if volumeMultiplier <= 0 {
		volumeMultiplier = 2.0
	}
	return &VolumeMA{
		period:           period,
		volumeMultiplier: volumeMultiplier,
	}
}

// Name returns "volumema".
func (s *VolumeMA) Name() string {
	return "volumema"
}

// OnBar checks for a high-volume SMA break on the current bar.
func (s *VolumeMA) OnBar(_ context.Context, bar models.Bar, _ *models.Position, history []models.Bar) (models.Signal, error) {
	if len(history) < s.period {
		return models.SignalNone, nil
	}

	sumVol := 0.0
	sumClose := 0.0
	for _, b := range history[len(history)-s.period:] {
		sumVol += b.Volume
		sumClose += b.Close
	}
	avgVol := sumVol / float64(s.period)
	sma := sumClose / float64(s.period)

	if bar.Volume < avgVol*s.volumeMultiplier {
		return models.SignalNone, nil
	}

	// A break requires the bar to open on one side of the SMA and close on
	// the other; sitting entirely below or above is not a cross.
	if bar.Bearish() && bar.Open > sma && bar.Close < sma {
		return models.SignalSell, nil
	}
	if bar.Bullish() && bar.Open < sma && bar.Close > sma {
		return models.SignalBuy, nil
	}

	return models.SignalNone, nil
}
