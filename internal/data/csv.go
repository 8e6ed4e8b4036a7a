package data

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

const csvDateLayout = "2006-01-02"

// csvRow is one daily bar in a <symbol>.csv file.
type csvRow struct {
	Date   string          `csv:"Date"`
	Open   decimal.Decimal `csv:"Open"`
	High   decimal.Decimal `csv:"High"`
	Low    decimal.Decimal `csv:"Low"`
	Close  decimal.Decimal `csv:"Close"`
	Volume int64           `csv:"Volume"`
}

// CSVProvider loads observations from <dir>/<symbol>.csv files with
// Date,Open,High,Low,Close,Volume columns. Bid and ask are synthesized
// from the close price; the sequence is validated against the trading
// calendar and any missing trading day fails the load.
type CSVProvider struct {
	dir           string
	spreadPercent decimal.Decimal
	logger        zerolog.Logger
}

// NewCSVProvider creates a CSV-backed provider reading from dir.
func NewCSVProvider(dir string, spreadPercent decimal.Decimal, logger zerolog.Logger) *CSVProvider {
	if spreadPercent.IsZero() {
		spreadPercent = DefaultSpreadPercent
	}
	return &CSVProvider{
		dir:           dir,
		spreadPercent: spreadPercent,
		logger:        logger.With().Str("provider", "csv").Logger(),
	}
}

// Observations implements Provider.
func (p *CSVProvider) Observations(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDataError("csv", symbol, "file not found: "+path, errors.ErrDataNotFound)
		}
		return nil, errors.NewDataError("csv", symbol, "opening "+path, err)
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.NewDataError("csv", symbol, "parsing "+path, err)
	}

	byDate := make(map[time.Time]models.Observation, len(rows))
	for _, row := range rows {
		day, err := time.ParseInLocation(csvDateLayout, row.Date, time.UTC)
		if err != nil {
			p.logger.Warn().Str("date", row.Date).Err(err).Msg("Skipping unparseable row")
			continue
		}
		if day.Before(civilDate(start)) || day.After(civilDate(end)) {
			continue
		}
		bid, ask := synthesizeQuote(row.Close, p.spreadPercent)
		byDate[day] = models.Observation{
			Symbol:    symbol,
			Timestamp: day,
			Price:     row.Close,
			Bid:       bid,
			Ask:       ask,
			Volume:    row.Volume,
		}
	}

	cal := ForYears(start.Year(), end.Year())
	have := make(map[time.Time]struct{}, len(byDate))
	for d := range byDate {
		have[d] = struct{}{}
	}
	if missing := missingTradingDays(have, cal, start, end); len(missing) > 0 {
		return nil, errors.NewDataError("csv", symbol,
			"missing data for trading days: "+formatDates(missing), errors.ErrMissingTradingDays)
	}

	observations := make([]models.Observation, 0, len(byDate))
	for _, obs := range byDate {
		observations = append(observations, obs)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})

	p.logger.Debug().
		Str("symbol", symbol).
		Int("observations", len(observations)).
		Msg("Loaded observations from CSV")

	return observations, nil
}

// HasSymbol reports whether a CSV file exists for the symbol.
func (p *CSVProvider) HasSymbol(symbol string) bool {
	_, err := os.Stat(filepath.Join(p.dir, symbol+".csv"))
	return err == nil
}
