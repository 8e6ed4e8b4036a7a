// Package data acquires the daily observation sequences consumed by the
// backtest engine, validating them against the trading calendar.
package data

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// DefaultSpreadPercent is the synthetic bid-ask spread applied to close
// prices when no real quote is available: 0.05%.
var DefaultSpreadPercent = decimal.RequireFromString("0.0005")

var two = decimal.NewFromInt(2)

// Provider supplies an ordered, gap-free observation sequence for a
// symbol and date range.
type Provider interface {
	Observations(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error)
}

// synthesizeQuote derives bid and ask from a close price, splitting the
// spread evenly and rounding the half-spread to four decimal places.
func synthesizeQuote(close, spreadPercent decimal.Decimal) (bid, ask decimal.Decimal) {
	halfSpread := close.Mul(spreadPercent).DivRound(two, 4)
	return close.Sub(halfSpread), close.Add(halfSpread)
}

// missingTradingDays returns the trading days in [start, end] that have
// no observation in the map.
func missingTradingDays(have map[time.Time]struct{}, cal *Calendar, start, end time.Time) []time.Time {
	var missing []time.Time
	for d := civilDate(start); !d.After(civilDate(end)); d = d.AddDate(0, 0, 1) {
		if !cal.IsTradingDay(d) {
			continue
		}
		if _, ok := have[d]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

// civilDate truncates a timestamp to its UTC calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDates(dates []time.Time) string {
	out := ""
	for i, d := range dates {
		if i > 0 {
			out += ", "
		}
		out += d.Format("2006-01-02")
	}
	return out
}
