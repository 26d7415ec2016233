package strategy

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stocksalgo/internal/errors"
	"stocksalgo/internal/models"
)

// Compile-time interface check.
var _ Strategy = (*ModelDelegate)(nil)

const (
	// modelWarmup is the minimum history required before delegating;
	// the model's indicator pipeline needs roughly this much context.
	modelWarmup = 100
	// modelWindow caps the number of bars handed to the model process.
	modelWindow = 200
)

// ModelDelegate delegates signal computation to an external predictive
// model process. The bar window is handed off through a temporary file
// rather than an interpolated argument, which sidesteps shell quoting and
// argument size limits. Any process failure or unparseable output degrades
// to SignalNone; the raw output is kept on the prediction snapshot for
// diagnostics. The snapshot never feeds back into decisions, so the
// strategy remains stateless from the caller's point of view.
type ModelDelegate struct {
	scriptPath string
	pythonBin  string
	timeout    time.Duration
	logger     zerolog.Logger

	mu             sync.RWMutex
	lastPrediction *models.ModelPrediction
}

// ModelDelegateConfig holds configuration for the model delegate.
type ModelDelegateConfig struct {
	ScriptPath string
	PythonBin  string
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// NewModelDelegate creates a strategy backed by an external model process.
func NewModelDelegate(cfg ModelDelegateConfig) *ModelDelegate {
	pythonBin := cfg.PythonBin
	if pythonBin == "" {
		pythonBin = "python3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ModelDelegate{
		scriptPath: cfg.ScriptPath,
		pythonBin:  pythonBin,
		timeout:    timeout,
		logger:     cfg.Logger,
	}
}

// Name returns "model".
func (s *ModelDelegate) Name() string {
	return "model"
}

// barPayload is the wire shape the model process expects, oldest first.
type barPayload struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// OnBar hands the trailing bar window to the model process and maps its
// verdict to a signal. A missing or misbehaving model is a missed signal,
// never an error.
func (s *ModelDelegate) OnBar(ctx context.Context, _ models.Bar, _ *models.Position, history []models.Bar) (models.Signal, error) {
	if len(history) < modelWarmup {
		return models.SignalNone, nil
	}

	window := history
	if len(window) > modelWindow {
		window = window[len(window)-modelWindow:]
	}

	payload := make([]barPayload, 0, len(window))
	for _, b := range window {
		payload = append(payload, barPayload{
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	prediction, err := s.predict(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return models.SignalNone, ctx.Err()
		}
		s.logger.Warn().Err(err).Msg("Model delegate failed, treating as no signal")
		return models.SignalNone, nil
	}

	s.mu.Lock()
	s.lastPrediction = prediction
	s.mu.Unlock()

	switch strings.ToUpper(prediction.Signal) {
	case "BUY":
		return models.SignalBuy, nil
	case "SELL":
		return models.SignalSell, nil
	default:
		return models.SignalNone, nil
	}
}

// predict runs the model process against the given window and parses its
// output.
func (s *ModelDelegate) predict(ctx context.Context, payload []barPayload) (*models.ModelPrediction, error) {
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewDelegateError("encode", "", err)
	}

	tmp, err := os.CreateTemp("", "stocksalgo-model-*.json")
	if err != nil {
		return nil, errors.NewDelegateError("handoff", "", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(input); err != nil {
		tmp.Close()
		return nil, errors.NewDelegateError("handoff", "", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.NewDelegateError("handoff", "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.pythonBin, s.scriptPath, tmp.Name())
	out, err := cmd.Output()
	raw := strings.TrimSpace(string(out))
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, errors.NewDelegateError("timeout", raw, runCtx.Err())
		}
		return nil, errors.NewDelegateError("exec", raw, err)
	}

	var prediction models.ModelPrediction
	if err := json.Unmarshal([]byte(raw), &prediction); err != nil {
		s.recordMalformed(raw)
		return nil, errors.NewDelegateError("parse", raw, err)
	}
	prediction.RawOutput = raw

	return &prediction, nil
}

// recordMalformed keeps the unparseable output visible on the snapshot.
func (s *ModelDelegate) recordMalformed(raw string) {
	s.mu.Lock()
	s.lastPrediction = &models.ModelPrediction{Signal: "HOLD", RawOutput: raw}
	s.mu.Unlock()
}

// LastPrediction returns a copy of the most recent model result, or nil
// when the model has not produced one yet. Exposed for observability only.
func (s *ModelDelegate) LastPrediction() *models.ModelPrediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastPrediction == nil {
		return nil
	}
	p := *s.lastPrediction
	return &p
}
