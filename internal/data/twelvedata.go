package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stocksalgo/internal/errors"
	"stocksalgo/internal/models"
	"stocksalgo/pkg/utils"
)

// Compile-time interface check.
var _ Provider = (*TwelveDataProvider)(nil)

const defaultOutputSize = 100

// TwelveDataProvider fetches bars from the Twelve Data time_series REST
// endpoint. Responses are cached on disk per symbol/timeframe with a short
// TTL to stay under the free-tier rate limit; on upstream failure the most
// recent cached response is served stale rather than failing the cycle.
type TwelveDataProvider struct {
	client   *http.Client
	logger   zerolog.Logger
	apiKey   string
	baseURL  string
	cacheDir string
	cacheTTL time.Duration
	retry    utils.RetryConfig
}

// TwelveDataConfig holds configuration for the Twelve Data provider.
type TwelveDataConfig struct {
	APIKey   string
	BaseURL  string
	CacheDir string
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// NewTwelveDataProvider creates a provider with an on-disk response cache.
func NewTwelveDataProvider(cfg TwelveDataConfig) (*TwelveDataProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 55 * time.Second
	}

	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	return &TwelveDataProvider{
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   cfg.Logger,
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		cacheDir: cfg.CacheDir,
		cacheTTL: cacheTTL,
		retry:    utils.DefaultRetryConfig(),
	}, nil
}

// timeSeriesResponse is the Twelve Data time_series payload. Numeric
// fields arrive as strings.
type timeSeriesResponse struct {
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GetBars fetches bars for the symbol and timeframe, oldest first. The
// start/end window is advisory; the upstream endpoint returns the most
// recent bars up to its output size.
func (p *TwelveDataProvider) GetBars(ctx context.Context, symbol, timeframe string, _, _ time.Time) ([]models.Bar, error) {
	cachePath := p.cachePath(symbol, timeframe)

	if body, ok := p.readCache(cachePath, p.cacheTTL); ok {
		if bars, err := parseTimeSeries(body); err == nil {
			return bars, nil
		}
	}

	body, err := utils.RetryWithResult(ctx, p.retry, func() ([]byte, error) {
		return p.fetch(ctx, symbol, timeframe)
	})
	if err != nil {
		// Stale cache beats a failed cycle.
		if stale, ok := p.readCache(cachePath, 0); ok {
			if bars, parseErr := parseTimeSeries(stale); parseErr == nil {
				p.logger.Warn().Err(err).
					Str("symbol", symbol).
					Str("timeframe", timeframe).
					Msg("Upstream fetch failed, serving stale cache")
				return bars, nil
			}
		}
		return nil, errors.NewDataError(symbol, timeframe, "fetch failed", fmt.Errorf("%w: %v", errors.ErrDataUnavailable, err))
	}

	bars, err := parseTimeSeries(body)
	if err != nil {
		return nil, errors.NewDataError(symbol, timeframe, "parse failed", err)
	}

	p.writeCache(cachePath, body)
	return bars, nil
}

func (p *TwelveDataProvider) fetch(ctx context.Context, symbol, timeframe string) ([]byte, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	q.Set("apikey", p.apiKey)
	q.Set("outputsize", strconv.Itoa(defaultOutputSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/time_series?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// The API reports errors in-band with a 200 status.
	var probe timeSeriesResponse
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if probe.Code >= 400 {
		return nil, fmt.Errorf("api error %d: %s", probe.Code, probe.Message)
	}

	return body, nil
}

// parseTimeSeries converts a raw response into bars, oldest first. A
// response without values yields an empty slice: no data is not an error.
func parseTimeSeries(body []byte) ([]models.Bar, error) {
	var ts timeSeriesResponse
	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, fmt.Errorf("decoding time series: %w", err)
	}

	bars := make([]models.Bar, 0, len(ts.Values))
	// Values arrive newest first; reverse into chronological order.
	for i := len(ts.Values) - 1; i >= 0; i-- {
		v := ts.Values[i]

		timestamp, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("parsing datetime %q: %w", v.Datetime, err)
		}

		bar := models.Bar{
			Timestamp: timestamp,
			Open:      parseFloat(v.Open),
			High:      parseFloat(v.High),
			Low:       parseFloat(v.Low),
			Close:     parseFloat(v.Close),
			Volume:    parseFloat(v.Volume), // missing volume defaults to 0
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime format")
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (p *TwelveDataProvider) cachePath(symbol, timeframe string) string {
	if p.cacheDir == "" {
		return ""
	}
	safe := strings.NewReplacer("/", "_", ":", "_").Replace(symbol)
	return filepath.Join(p.cacheDir, safe+"_"+timeframe+".json")
}

// readCache returns the cached response when present and, if maxAge > 0,
// younger than maxAge. maxAge 0 accepts any age (stale fallback).
func (p *TwelveDataProvider) readCache(path string, maxAge time.Duration) ([]byte, bool) {
	if path == "" {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if maxAge > 0 && time.Since(info.ModTime()) >= maxAge {
		return nil, false
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (p *TwelveDataProvider) writeCache(path string, body []byte) {
	if path == "" {
		return
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("Failed to write response cache")
	}
}
