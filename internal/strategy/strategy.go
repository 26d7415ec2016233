// Package strategy defines the Strategy interface for trading strategies and
// provides the built-in rule-based and model-delegated implementations.
package strategy

import (
	"context"
	"sort"

	"stocksalgo/internal/models"
)

// Strategy turns the current bar, the caller's open position, and historical
// context into a trading signal.
//
// The contract all implementations follow:
//   - history contains all bars strictly before bar, oldest first, and must
//     not be mutated.
//   - A strategy needing N bars of warm-up returns SignalNone whenever
//     len(history) < N. Insufficient history is never an error.
//   - Implementations hold no mutable decision state between calls, so the
//     backtest and live paths behave identically when fed the same history.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// OnBar processes a new bar and returns a trading signal.
	OnBar(ctx context.Context, bar models.Bar, position *models.Position, history []models.Bar) (models.Signal, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates
// whether the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// meanVolume returns the mean volume of the trailing n bars of history.
// It assumes len(history) >= n.
func meanVolume(history []models.Bar, n int) float64 {
	sum := 0.0
	for _, b := range history[len(history)-n:] {
		sum += b.Volume
	}
	return sum / float64(n)
}
