package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a request to buy or sell a quantity of a symbol at a price.
// Orders are immutable once created.
type Order struct {
	Symbol    string
	Side      OrderSide
	Quantity  int
	Price     decimal.Decimal
	Timestamp time.Time
}

// NewOrder creates a new order.
func NewOrder(symbol string, side OrderSide, quantity int, price decimal.Decimal, timestamp time.Time) Order {
	return Order{
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Timestamp: timestamp,
	}
}

// TotalValue returns quantity x price.
func (o Order) TotalValue() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// Trade is an order that was successfully executed against the ledger.
type Trade struct {
	Order
}
