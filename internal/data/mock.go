package data

import (
	"context"
	"math/rand"
	"time"

	"stocksalgo/internal/models"
)

// Compile-time interface check.
var _ Provider = (*MockProvider)(nil)

// MockProvider generates a deterministic synthetic random walk of 100
// five-minute bars, with a hammer injected at index 80 and a shooting star
// at index 90 so reversal strategies have something to find.
type MockProvider struct {
	seed int64
}

// NewMockProvider creates a mock provider. The same seed always produces
// the same bar sequence.
func NewMockProvider(seed int64) *MockProvider {
	return &MockProvider{seed: seed}
}

// GetBars returns the synthetic bar sequence ending at end.
func (p *MockProvider) GetBars(_ context.Context, _ string, _ string, _, end time.Time) ([]models.Bar, error) {
	rng := rand.New(rand.NewSource(p.seed))

	bars := make([]models.Bar, 0, 100)
	price := 100.0
	timestamp := end.Add(-500 * time.Minute)

	for i := 0; i < 100; i++ {
		open := price
		close := open + float64(rng.Intn(101)-50)/100
		high := maxFloat(open, close) + float64(rng.Intn(51))/100
		low := minFloat(open, close) - float64(rng.Intn(51))/100
		volume := float64(1000 + rng.Intn(4001))

		// Hammer at index 80, shooting star at index 90.
		if i == 80 {
			close = open + 0.1
			low = open - 2.0
			high = close + 0.1
		}
		if i == 90 {
			close = open - 0.1
			high = open + 2.0
			low = close - 0.1
		}

		bars = append(bars, models.Bar{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})

		price = close
		timestamp = timestamp.Add(5 * time.Minute)
	}

	return bars, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
