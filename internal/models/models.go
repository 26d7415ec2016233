// Package models provides domain models for the trading engine.
package models

import (
	"time"
)

// Side represents the side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal represents a strategy's recommended action for the current bar.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalNone Signal = "NONE"
)

// Bar represents OHLCV data for one time interval. Bars are treated as
// immutable values; upstream providers do not guarantee high >= max(open,
// close) or low <= min(open, close), so consumers must tolerate violations.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool {
	return b.Close > b.Open
}

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool {
	return b.Close < b.Open
}

// ModelPrediction holds the structured result returned by the external
// predictive model, kept as a diagnostic snapshot. It has no bearing on
// subsequent strategy decisions.
type ModelPrediction struct {
	Signal         string  `json:"signal"`
	Confidence     float64 `json:"confidence"`
	PredictedPrice float64 `json:"predicted_price"`
	CurrentPrice   float64 `json:"current_price"`
	RSI            float64 `json:"rsi"`
	MACD           float64 `json:"macd"`

	// RawOutput is the unparsed process output, surfaced for diagnostics
	// when the model misbehaves.
	RawOutput string `json:"-"`
}
