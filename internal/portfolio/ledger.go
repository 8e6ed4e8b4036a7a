// Package portfolio provides the cash and position accounting ledger
// backing a backtest run.
package portfolio

import (
	"strings"

	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// sharesPerContract is the number of underlying shares covering one
// written option contract.
const sharesPerContract = 100

// Ledger owns cash and per-symbol positions for one backtest run.
// Stock positions never go negative. Option positions may go negative
// only for covered call writes backed by underlying shares.
//
// Not safe for concurrent use; an engine owns exactly one ledger.
type Ledger struct {
	initialCapital decimal.Decimal
	cash           decimal.Decimal
	positions      map[string]int
	totalValue     decimal.Decimal
}

// NewLedger creates a ledger funded with the given initial capital.
func NewLedger(initialCapital decimal.Decimal) (*Ledger, error) {
	if initialCapital.IsNegative() {
		return nil, errors.NewValidationError("initialCapital", initialCapital, "must be non-negative")
	}
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]int),
		totalValue:     initialCapital,
	}, nil
}

// CanExecute reports whether the order passes the ledger pre-check.
// Returns nil if executable, otherwise an OrderError wrapping
// ErrInsufficientFunds, ErrInsufficientPosition, or ErrInvalidInput.
func (l *Ledger) CanExecute(order models.Order) error {
	if err := validateOrder(order); err != nil {
		return err
	}

	if order.Side == models.OrderSideBuy {
		if l.cash.LessThan(order.TotalValue()) {
			return errors.NewOrderError(order.Symbol, string(order.Side),
				"cost exceeds available cash", errors.ErrInsufficientFunds)
		}
		return nil
	}

	if models.IsOptionSymbol(order.Symbol) {
		return l.canSellOption(order)
	}

	if l.positions[order.Symbol] < order.Quantity {
		return errors.NewOrderError(order.Symbol, string(order.Side),
			"held quantity below sell quantity", errors.ErrInsufficientPosition)
	}
	return nil
}

// canSellOption allows closing a long option position or writing calls
// covered by underlying shares. Naked writes are rejected: no margin model.
func (l *Ledger) canSellOption(order models.Order) error {
	if l.positions[order.Symbol] >= order.Quantity {
		return nil
	}

	if isCallSymbol(order.Symbol) {
		underlying := models.UnderlyingOf(order.Symbol)
		sharesNeeded := order.Quantity * sharesPerContract
		if l.positions[underlying] >= sharesNeeded {
			return nil
		}
		return errors.NewOrderError(order.Symbol, string(order.Side),
			"not enough underlying shares to cover written calls", errors.ErrInsufficientPosition)
	}

	return errors.NewOrderError(order.Symbol, string(order.Side),
		"cannot write uncovered option", errors.ErrInsufficientPosition)
}

// Execute applies the order to cash and positions and returns the
// resulting trade. Calling Execute on an order that fails CanExecute is
// an internal contract violation, not a recoverable rejection.
func (l *Ledger) Execute(order models.Order) (models.Trade, error) {
	if err := l.CanExecute(order); err != nil {
		return models.Trade{}, errors.Wrapf(errors.ErrInvariantViolation,
			"execute called on unexecutable order %s %s %d (%v)",
			order.Side, order.Symbol, order.Quantity, err)
	}

	if order.Side == models.OrderSideBuy {
		l.cash = l.cash.Sub(order.TotalValue())
		l.adjustPosition(order.Symbol, order.Quantity)
	} else {
		l.cash = l.cash.Add(order.TotalValue())
		l.adjustPosition(order.Symbol, -order.Quantity)
	}

	return models.Trade{Order: order}, nil
}

func (l *Ledger) adjustPosition(symbol string, delta int) {
	next := l.positions[symbol] + delta
	if next == 0 {
		delete(l.positions, symbol)
	} else {
		l.positions[symbol] = next
	}
}

// Valuate reprices the observed symbol and returns the new total value.
// Positions in other symbols keep their last contribution until their
// own observation arrives.
func (l *Ledger) Valuate(obs models.Observation) decimal.Decimal {
	positionValue := decimal.Zero
	if qty, ok := l.positions[obs.Symbol]; ok {
		positionValue = obs.Price.Mul(decimal.NewFromInt(int64(qty)))
	}
	l.totalValue = l.cash.Add(positionValue)
	return l.totalValue
}

// Reset restores the ledger to its freshly funded state.
func (l *Ledger) Reset() {
	l.cash = l.initialCapital
	l.positions = make(map[string]int)
	l.totalValue = l.initialCapital
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Position returns the held quantity for a symbol, zero if absent.
func (l *Ledger) Position(symbol string) int {
	return l.positions[symbol]
}

// Positions returns a copy of all non-zero positions.
func (l *Ledger) Positions() map[string]int {
	out := make(map[string]int, len(l.positions))
	for sym, qty := range l.positions {
		out[sym] = qty
	}
	return out
}

// TotalValue returns the last computed mark-to-market value.
func (l *Ledger) TotalValue() decimal.Decimal {
	return l.totalValue
}

// InitialCapital returns the capital the ledger was funded with.
func (l *Ledger) InitialCapital() decimal.Decimal {
	return l.initialCapital
}

// PnL returns totalValue - initialCapital.
func (l *Ledger) PnL() decimal.Decimal {
	return l.totalValue.Sub(l.initialCapital)
}

// ReturnPct returns the percentage return, rounded to four decimal
// places half-up before the x100. Zero when initial capital is zero.
func (l *Ledger) ReturnPct() decimal.Decimal {
	if l.initialCapital.IsZero() {
		return decimal.Zero
	}
	return l.PnL().DivRound(l.initialCapital, 4).Mul(decimal.NewFromInt(100))
}

func validateOrder(order models.Order) error {
	if order.Quantity <= 0 {
		return errors.NewValidationError("quantity", order.Quantity, "must be positive")
	}
	if order.Price.IsNegative() {
		return errors.NewValidationError("price", order.Price, "must be non-negative")
	}
	if order.Symbol == "" {
		return errors.NewValidationError("symbol", order.Symbol, "must not be empty")
	}
	if order.Side != models.OrderSideBuy && order.Side != models.OrderSideSell {
		return errors.NewValidationError("side", order.Side, "must be BUY or SELL")
	}
	return nil
}

func isCallSymbol(symbol string) bool {
	return strings.Contains(symbol, "_C_")
}
