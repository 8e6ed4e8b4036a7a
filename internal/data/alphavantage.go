package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// ObservationCache stores fetched observations so repeated runs over
// the same range do not refetch from the remote API.
type ObservationCache interface {
	Get(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error)
	Put(ctx context.Context, symbol string, observations []models.Observation) error
}

// AlphaVantageProvider fetches daily observations from the Alpha
// Vantage TIME_SERIES_DAILY endpoint.
type AlphaVantageProvider struct {
	client        *http.Client
	apiKey        string
	spreadPercent decimal.Decimal
	cache         ObservationCache
	retryCfg      utils.RetryConfig
	logger        zerolog.Logger
}

// AlphaVantageOption configures an AlphaVantageProvider.
type AlphaVantageOption func(*AlphaVantageProvider)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) AlphaVantageOption {
	return func(p *AlphaVantageProvider) { p.client = client }
}

// WithCache attaches an observation cache consulted before the API.
func WithCache(cache ObservationCache) AlphaVantageOption {
	return func(p *AlphaVantageProvider) { p.cache = cache }
}

// WithSpreadPercent overrides the synthetic spread percentage.
func WithSpreadPercent(spread decimal.Decimal) AlphaVantageOption {
	return func(p *AlphaVantageProvider) { p.spreadPercent = spread }
}

// NewAlphaVantageProvider creates an Alpha Vantage-backed provider.
// The API key is required.
func NewAlphaVantageProvider(apiKey string, logger zerolog.Logger, opts ...AlphaVantageOption) (*AlphaVantageProvider, error) {
	if apiKey == "" {
		return nil, errors.NewValidationError("apiKey", apiKey,
			"Alpha Vantage API key is required; set ALPHA_VANTAGE_API_KEY or configure data.alpha_vantage_api_key")
	}
	p := &AlphaVantageProvider{
		client:        &http.Client{Timeout: 30 * time.Second},
		apiKey:        apiKey,
		spreadPercent: DefaultSpreadPercent,
		retryCfg:      utils.DefaultRetryConfig(),
		logger:        logger.With().Str("provider", "alphavantage").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Observations implements Provider. Cached ranges that already cover
// every trading day in the range are served without hitting the API.
func (p *AlphaVantageProvider) Observations(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error) {
	cal := ForYears(start.Year(), end.Year())

	if p.cache != nil {
		cached, err := p.cache.Get(ctx, symbol, start, end)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Cache lookup failed, fetching from API")
		} else if complete(cached, cal, start, end) {
			p.logger.Debug().Str("symbol", symbol).Int("observations", len(cached)).Msg("Serving observations from cache")
			return cached, nil
		}
	}

	observations, err := p.fetch(ctx, symbol, start, end, cal)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, symbol, observations); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to cache observations")
		}
	}

	return observations, nil
}

func (p *AlphaVantageProvider) fetch(ctx context.Context, symbol string, start, end time.Time, cal *Calendar) ([]models.Observation, error) {
	p.logger.Info().
		Str("symbol", symbol).
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Msg("Fetching daily series")

	body, err := utils.RetryWithResult(ctx, p.retryCfg, func() ([]byte, error) {
		return p.request(ctx, symbol)
	})
	if err != nil {
		return nil, errors.NewDataError("alphavantage", symbol, "request failed", err)
	}

	return p.parse(body, symbol, start, end, cal)
}

func (p *AlphaVantageProvider) request(ctx context.Context, symbol string) ([]byte, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)
	q.Set("outputsize", "full")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, alphaVantageBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// dailySeries mirrors the TIME_SERIES_DAILY response shape.
type dailySeries struct {
	ErrorMessage string                    `json:"Error Message"`
	Note         string                    `json:"Note"`
	TimeSeries   map[string]dailySeriesBar `json:"Time Series (Daily)"`
}

type dailySeriesBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

func (p *AlphaVantageProvider) parse(body []byte, symbol string, start, end time.Time, cal *Calendar) ([]models.Observation, error) {
	var series dailySeries
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, errors.NewDataError("alphavantage", symbol, "decoding response", err)
	}
	if series.ErrorMessage != "" {
		return nil, errors.NewDataError("alphavantage", symbol, "API error: "+series.ErrorMessage, errors.ErrDataNotFound)
	}
	if series.Note != "" {
		return nil, errors.NewDataError("alphavantage", symbol, "API note: "+series.Note, errors.ErrRateLimited)
	}
	if len(series.TimeSeries) == 0 {
		return nil, errors.NewDataError("alphavantage", symbol, "no time series in response", errors.ErrDataNotFound)
	}

	byDate := make(map[time.Time]models.Observation)
	for dateStr, bar := range series.TimeSeries {
		day, err := time.ParseInLocation(csvDateLayout, dateStr, time.UTC)
		if err != nil {
			p.logger.Warn().Str("date", dateStr).Err(err).Msg("Skipping unparseable series entry")
			continue
		}
		if day.Before(civilDate(start)) || day.After(civilDate(end)) {
			continue
		}

		closePrice, err := decimal.NewFromString(bar.Close)
		if err != nil {
			p.logger.Warn().Str("date", dateStr).Err(err).Msg("Skipping entry with bad close price")
			continue
		}
		volume, _ := strconv.ParseInt(bar.Volume, 10, 64)

		bid, ask := synthesizeQuote(closePrice, p.spreadPercent)
		byDate[day] = models.Observation{
			Symbol:    symbol,
			Timestamp: day,
			Price:     closePrice,
			Bid:       bid,
			Ask:       ask,
			Volume:    volume,
		}
	}

	have := make(map[time.Time]struct{}, len(byDate))
	for d := range byDate {
		have[d] = struct{}{}
	}
	if missing := missingTradingDays(have, cal, start, end); len(missing) > 0 {
		return nil, errors.NewDataError("alphavantage", symbol,
			"missing data for trading days: "+formatDates(missing), errors.ErrMissingTradingDays)
	}

	observations := make([]models.Observation, 0, len(byDate))
	for _, obs := range byDate {
		observations = append(observations, obs)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})
	return observations, nil
}

// complete reports whether the cached sequence covers every trading day
// in the range.
func complete(observations []models.Observation, cal *Calendar, start, end time.Time) bool {
	if len(observations) == 0 {
		return false
	}
	have := make(map[time.Time]struct{}, len(observations))
	for _, obs := range observations {
		have[civilDate(obs.Timestamp)] = struct{}{}
	}
	return len(missingTradingDays(have, cal, start, end)) == 0
}
