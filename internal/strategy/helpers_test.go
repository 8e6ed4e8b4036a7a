package strategy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

var nop = zerolog.Nop()

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func obs(symbol, date, price string) models.Observation {
	p := decimal.RequireFromString(price)
	return models.Observation{
		Symbol:    symbol,
		Timestamp: day(date),
		Price:     p,
		Bid:       p,
		Ask:       p,
		Volume:    1000000,
	}
}
