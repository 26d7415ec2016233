package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksalgo/internal/errors"
)

const timeSeriesFixture = `{
	"values": [
		{"datetime": "2024-06-03 09:40:00", "open": "101.0", "high": "102.0", "low": "100.5", "close": "101.5", "volume": "1200"},
		{"datetime": "2024-06-03 09:35:00", "open": "100.0", "high": "101.2", "low": "99.8", "close": "101.0", "volume": "1500"},
		{"datetime": "2024-06-03 09:30:00", "open": "99.5", "high": "100.1", "low": "99.0", "close": "100.0", "volume": "1000"}
	],
	"status": "ok"
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc, ttl time.Duration) (*TwelveDataProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewTwelveDataProvider(TwelveDataConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		CacheDir: t.TempDir(),
		CacheTTL: ttl,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return provider, server
}

func TestGetBars_ReversesNewestFirst(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5min", r.URL.Query().Get("interval"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(timeSeriesFixture))
	}, time.Minute)

	bars, err := provider.GetBars(context.Background(), "AAPL", "5min", time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, bars, 3)

	// Chronological order, oldest first.
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
	assert.True(t, bars[1].Timestamp.Before(bars[2].Timestamp))
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 101.5, bars[2].Close)
	assert.Equal(t, 1000.0, bars[0].Volume)
}

func TestGetBars_ServesFreshCacheWithoutFetching(t *testing.T) {
	var hits atomic.Int32
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(timeSeriesFixture))
	}, time.Minute)

	ctx := context.Background()
	_, err := provider.GetBars(ctx, "AAPL", "5min", time.Time{}, time.Now())
	require.NoError(t, err)

	bars, err := provider.GetBars(ctx, "AAPL", "5min", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Equal(t, int32(1), hits.Load(), "second call must hit the cache")
}

func TestGetBars_StaleCacheFallbackOnUpstreamFailure(t *testing.T) {
	var fail atomic.Bool
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.Write([]byte(`{"code": 429, "message": "rate limited", "status": "error"}`))
			return
		}
		w.Write([]byte(timeSeriesFixture))
	}, time.Nanosecond) // TTL so short every call refetches

	ctx := context.Background()
	_, err := provider.GetBars(ctx, "AAPL", "5min", time.Time{}, time.Now())
	require.NoError(t, err)

	fail.Store(true)
	bars, err := provider.GetBars(ctx, "AAPL", "5min", time.Time{}, time.Now())
	require.NoError(t, err, "stale cache beats a failed cycle")
	assert.Len(t, bars, 3)
}

func TestGetBars_InBandAPIError(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 401, "message": "invalid api key", "status": "error"}`))
	}, time.Minute)

	_, err := provider.GetBars(context.Background(), "AAPL", "5min", time.Time{}, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDataUnavailable)

	var dataErr *errors.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "AAPL", dataErr.Symbol)
}

func TestGetBars_EmptyValuesIsNotAnError(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values": [], "status": "ok"}`))
	}, time.Minute)

	bars, err := provider.GetBars(context.Background(), "AAPL", "5min", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestParseTimeSeries_DateOnlyAndMissingVolume(t *testing.T) {
	body := `{"values": [{"datetime": "2024-06-03", "open": "100", "high": "101", "low": "99", "close": "100.5", "volume": ""}]}`

	bars, err := parseTimeSeries([]byte(body))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 0.0, bars[0].Volume)
}

func TestParseTimeSeries_BadDatetime(t *testing.T) {
	body := `{"values": [{"datetime": "03/06/2024", "open": "100", "high": "101", "low": "99", "close": "100.5", "volume": "1"}]}`

	_, err := parseTimeSeries([]byte(body))
	assert.Error(t, err)
}
