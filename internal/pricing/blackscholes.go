// Package pricing provides closed-form Black-Scholes option valuation
// and sensitivities.
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// significantDigits is the precision applied to currency outputs at the
// package boundary. Internal math runs in float64.
const significantDigits = 10

// OptionPrice returns the Black-Scholes price of a European option.
// timeToExpiration is in years; at or past expiration the intrinsic value
// is returned. Volatility must be positive whenever time remains.
func OptionPrice(spot, strike decimal.Decimal, timeToExpiration, riskFreeRate, volatility float64, kind models.OptionKind) (decimal.Decimal, error) {
	if err := validateInputs(spot, strike, timeToExpiration, volatility); err != nil {
		return decimal.Zero, err
	}

	if timeToExpiration <= 0 {
		return IntrinsicValue(spot, strike, kind), nil
	}

	S := spot.InexactFloat64()
	K := strike.InexactFloat64()
	T := timeToExpiration
	r := riskFreeRate
	sigma := volatility

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	var price float64
	if kind == models.OptionCall {
		// C = S*N(d1) - K*e^(-rT)*N(d2)
		price = S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	} else {
		// P = K*e^(-rT)*N(-d2) - S*N(-d1)
		price = K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
	}

	return roundSignificant(math.Max(0, price), significantDigits), nil
}

// IntrinsicValue returns the immediate exercise value of an option.
func IntrinsicValue(spot, strike decimal.Decimal, kind models.OptionKind) decimal.Decimal {
	var intrinsic decimal.Decimal
	if kind == models.OptionCall {
		intrinsic = spot.Sub(strike)
	} else {
		intrinsic = strike.Sub(spot)
	}
	if intrinsic.IsNegative() {
		return decimal.Zero
	}
	return intrinsic
}

// Delta returns the option price sensitivity to the underlying price.
// Zero at or past expiration.
func Delta(spot, strike decimal.Decimal, timeToExpiration, riskFreeRate, volatility float64, kind models.OptionKind) (float64, error) {
	if err := validateInputs(spot, strike, timeToExpiration, volatility); err != nil {
		return 0, err
	}
	if timeToExpiration <= 0 {
		return 0, nil
	}

	S := spot.InexactFloat64()
	K := strike.InexactFloat64()
	d1 := (math.Log(S/K) + (riskFreeRate+0.5*volatility*volatility)*timeToExpiration) /
		(volatility * math.Sqrt(timeToExpiration))

	if kind == models.OptionCall {
		return normCDF(d1), nil
	}
	return normCDF(d1) - 1, nil
}

// Theta returns the option time decay per calendar day.
// Zero at or past expiration.
func Theta(spot, strike decimal.Decimal, timeToExpiration, riskFreeRate, volatility float64, kind models.OptionKind) (float64, error) {
	if err := validateInputs(spot, strike, timeToExpiration, volatility); err != nil {
		return 0, err
	}
	if timeToExpiration <= 0 {
		return 0, nil
	}

	S := spot.InexactFloat64()
	K := strike.InexactFloat64()
	T := timeToExpiration
	r := riskFreeRate
	sigma := volatility

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	term1 := -S * normPDF(d1) * sigma / (2 * math.Sqrt(T))

	if kind == models.OptionCall {
		term2 := -r * K * math.Exp(-r*T) * normCDF(d2)
		return (term1 + term2) / 365, nil
	}
	term2 := r * K * math.Exp(-r*T) * normCDF(-d2)
	return (term1 + term2) / 365, nil
}

// TimeToExpiration converts a calendar-day span into years (ACT/365).
// Returns 0 when current is past expiration.
func TimeToExpiration(current, expiration time.Time) float64 {
	if current.After(expiration) {
		return 0
	}
	days := expiration.Sub(current).Hours() / 24
	return math.Floor(days) / 365
}

func validateInputs(spot, strike decimal.Decimal, timeToExpiration, volatility float64) error {
	if !spot.IsPositive() {
		return errors.NewValidationError("spot", spot, "must be positive")
	}
	if !strike.IsPositive() {
		return errors.NewValidationError("strike", strike, "must be positive")
	}
	if volatility < 0 {
		return errors.NewValidationError("volatility", volatility, "must be non-negative")
	}
	// Sigma of zero with time remaining makes d1 undefined.
	if timeToExpiration > 0 && volatility == 0 {
		return errors.NewValidationError("volatility", volatility, "must be positive when time to expiration is positive")
	}
	return nil
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal probability density function.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// roundSignificant rounds a non-negative value to the given number of
// significant digits, half-up.
func roundSignificant(v float64, digits int32) decimal.Decimal {
	d := decimal.NewFromFloat(v)
	if d.IsZero() {
		return decimal.Zero
	}
	exp := int32(math.Floor(math.Log10(math.Abs(v))))
	return d.Round(digits - 1 - exp)
}
