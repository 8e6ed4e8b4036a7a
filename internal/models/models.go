// Package models provides domain models for the options backtester.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Observation represents one daily market data point for a symbol.
// Bid and ask are synthesized by the data provider from the close price
// when no real quote is available.
type Observation struct {
	Symbol    string
	Timestamp time.Time
	Price     decimal.Decimal
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Volume    int64
}

// Spread returns the bid-ask spread.
func (o Observation) Spread() decimal.Decimal {
	return o.Ask.Sub(o.Bid)
}

// Mid returns the bid-ask midpoint.
func (o Observation) Mid() decimal.Decimal {
	return o.Bid.Add(o.Ask).Div(decimal.NewFromInt(2))
}

// Date returns the observation timestamp truncated to its calendar date.
func (o Observation) Date() time.Time {
	y, m, d := o.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, o.Timestamp.Location())
}
