package strategy

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksalgo/internal/models"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPinBar(2.0, false))
	r.Register(NewVolumeMA(20, 2.0))

	s, ok := r.Get("pinbar")
	require.True(t, ok)
	assert.Equal(t, "pinbar", s.Name())

	_, ok = r.Get("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"pinbar", "volumema"}, r.List())
}

// randomBarGen generates a bar with consistent OHLC geometry.
func randomBarGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Bar{}), map[string]gopter.Gen{
		"Timestamp": gen.TimeRange(time.Now().Add(-30*24*time.Hour), time.Hour),
		"Open":      gen.Float64Range(50, 150),
		"High":      gen.Float64Range(50, 150),
		"Low":       gen.Float64Range(50, 150),
		"Close":     gen.Float64Range(50, 150),
		"Volume":    gen.Float64Range(100, 100000),
	}).Map(func(b models.Bar) models.Bar {
		if b.High < b.Open {
			b.High = b.Open
		}
		if b.High < b.Close {
			b.High = b.Close
		}
		if b.Low > b.Open {
			b.Low = b.Open
		}
		if b.Low > b.Close {
			b.Low = b.Close
		}
		return b
	})
}

// Property: strategies with a warm-up window return NONE for any bar when
// history is shorter than the window, never an error.
func TestProperty_WarmUpAlwaysReturnsNone(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("VolumeMA is silent during warm-up", prop.ForAll(
		func(bar models.Bar, historyLen int) bool {
			s := NewVolumeMA(20, 2.0)
			history := make([]models.Bar, historyLen)
			for i := range history {
				history[i] = bar
			}
			signal, err := s.OnBar(context.Background(), bar, nil, history)
			return err == nil && signal == models.SignalNone
		},
		randomBarGen(),
		gen.IntRange(0, 19),
	))

	properties.Property("ModelDelegate is silent during warm-up", prop.ForAll(
		func(bar models.Bar, historyLen int) bool {
			s := NewModelDelegate(ModelDelegateConfig{ScriptPath: "/nonexistent/predict.py"})
			history := make([]models.Bar, historyLen)
			for i := range history {
				history[i] = bar
			}
			signal, err := s.OnBar(context.Background(), bar, nil, history)
			return err == nil && signal == models.SignalNone && s.LastPrediction() == nil
		},
		randomBarGen(),
		gen.IntRange(0, 99),
	))

	properties.TestingRun(t)
}

// Property: PinBar emits at most one directional reading per bar, and never
// errors on well-formed bars.
func TestProperty_PinBarSingleReading(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Signal is one of BUY, SELL, NONE", prop.ForAll(
		func(bar models.Bar) bool {
			s := NewPinBar(2.0, false)
			signal, err := s.OnBar(context.Background(), bar, nil, nil)
			if err != nil {
				return false
			}
			switch signal {
			case models.SignalBuy, models.SignalSell, models.SignalNone:
				return true
			}
			return false
		},
		randomBarGen(),
	))

	properties.TestingRun(t)
}
