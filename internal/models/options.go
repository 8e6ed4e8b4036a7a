package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OptionKind represents the kind of an option contract.
type OptionKind string

const (
	OptionCall OptionKind = "C"
	OptionPut  OptionKind = "P"
)

// Option represents a single option contract.
type Option struct {
	Symbol     string
	Kind       OptionKind
	Strike     decimal.Decimal
	Expiration time.Time
	Underlying string
}

// NewOption creates an option with its symbol derived from the contract terms.
func NewOption(underlying string, kind OptionKind, strike decimal.Decimal, expiration time.Time) Option {
	return Option{
		Symbol:     OptionSymbol(underlying, kind, strike, expiration),
		Kind:       kind,
		Strike:     strike,
		Expiration: expiration,
		Underlying: underlying,
	}
}

// Expired reports whether the option has expired as of the given date.
func (o Option) Expired(date time.Time) bool {
	return date.After(o.Expiration)
}

// OptionSymbol encodes an option contract as UNDER_YYYYMMDD_C|P_STRIKE,
// with the decimal point stripped from the strike.
func OptionSymbol(underlying string, kind OptionKind, strike decimal.Decimal, expiration time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		underlying,
		expiration.Format("20060102"),
		kind,
		strings.ReplaceAll(strike.String(), ".", ""))
}

// IsOptionSymbol reports whether a symbol encodes an option contract.
func IsOptionSymbol(symbol string) bool {
	return strings.Contains(symbol, "_C_") || strings.Contains(symbol, "_P_")
}

// UnderlyingOf extracts the underlying symbol from an option symbol
// like "SPY_20240201_C_480".
func UnderlyingOf(optionSymbol string) string {
	if i := strings.Index(optionSymbol, "_"); i > 0 {
		return optionSymbol[:i]
	}
	return optionSymbol
}
