package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOptionPriceKnownValues(t *testing.T) {
	// S=100, K=105, T=0.25, r=5%, sigma=20%
	spot := d("100")
	strike := d("105")

	call, err := OptionPrice(spot, strike, 0.25, 0.05, 0.20, models.OptionCall)
	require.NoError(t, err)
	assert.InDelta(t, 2.48, call.InexactFloat64(), 0.05)

	put, err := OptionPrice(spot, strike, 0.25, 0.05, 0.20, models.OptionPut)
	require.NoError(t, err)
	assert.InDelta(t, 6.18, put.InexactFloat64(), 0.05)
}

func TestOptionPriceAtExpiration(t *testing.T) {
	tests := []struct {
		name   string
		spot   string
		strike string
		kind   models.OptionKind
		want   string
	}{
		{"ITM call settles at intrinsic", "110", "105", models.OptionCall, "5"},
		{"OTM call settles at zero", "100", "105", models.OptionCall, "0"},
		{"ITM put settles at intrinsic", "95", "105", models.OptionPut, "10"},
		{"OTM put settles at zero", "110", "105", models.OptionPut, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionPrice(d(tt.spot), d(tt.strike), 0, 0.05, 0.20, tt.kind)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestOptionPriceZeroVolatilityAtExpirationAllowed(t *testing.T) {
	got, err := OptionPrice(d("110"), d("105"), 0, 0.05, 0, models.OptionCall)
	require.NoError(t, err)
	assert.True(t, got.Equal(d("5")))
}

func TestOptionPriceInvalidInputs(t *testing.T) {
	tests := []struct {
		name       string
		spot       string
		strike     string
		timeToExp  float64
		volatility float64
	}{
		{"zero spot", "0", "105", 0.25, 0.20},
		{"negative spot", "-1", "105", 0.25, 0.20},
		{"zero strike", "100", "0", 0.25, 0.20},
		{"negative volatility", "100", "105", 0.25, -0.1},
		{"zero volatility with time remaining", "100", "105", 0.25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OptionPrice(d(tt.spot), d(tt.strike), tt.timeToExp, 0.05, tt.volatility, models.OptionCall)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}

func TestIntrinsicValue(t *testing.T) {
	assert.True(t, IntrinsicValue(d("110"), d("105"), models.OptionCall).Equal(d("5")))
	assert.True(t, IntrinsicValue(d("100"), d("105"), models.OptionCall).Equal(decimal.Zero))
	assert.True(t, IntrinsicValue(d("100"), d("105"), models.OptionPut).Equal(d("5")))
	assert.True(t, IntrinsicValue(d("110"), d("105"), models.OptionPut).Equal(decimal.Zero))
}

func TestDeltaBounds(t *testing.T) {
	callDelta, err := Delta(d("100"), d("105"), 0.25, 0.05, 0.20, models.OptionCall)
	require.NoError(t, err)
	assert.Greater(t, callDelta, 0.0)
	assert.Less(t, callDelta, 1.0)

	putDelta, err := Delta(d("100"), d("105"), 0.25, 0.05, 0.20, models.OptionPut)
	require.NoError(t, err)
	assert.Greater(t, putDelta, -1.0)
	assert.Less(t, putDelta, 0.0)

	// Call and put deltas on the same contract differ by exactly one.
	assert.InDelta(t, 1.0, callDelta-putDelta, 1e-12)
}

func TestDeltaAtExpiration(t *testing.T) {
	delta, err := Delta(d("110"), d("105"), 0, 0.05, 0.20, models.OptionCall)
	require.NoError(t, err)
	assert.Zero(t, delta)
}

func TestThetaCallIsNegative(t *testing.T) {
	theta, err := Theta(d("100"), d("100"), 0.25, 0.05, 0.20, models.OptionCall)
	require.NoError(t, err)
	assert.Less(t, theta, 0.0)
}

func TestThetaAtExpiration(t *testing.T) {
	theta, err := Theta(d("100"), d("100"), 0, 0.05, 0.20, models.OptionPut)
	require.NoError(t, err)
	assert.Zero(t, theta)
}

func TestTimeToExpiration(t *testing.T) {
	day := func(s string) time.Time {
		ts, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		require.NoError(t, err)
		return ts
	}

	assert.InDelta(t, 1.0, TimeToExpiration(day("2024-01-01"), day("2024-12-31")), 1e-9)
	assert.InDelta(t, 30.0/365, TimeToExpiration(day("2024-01-01"), day("2024-01-31")), 1e-9)
	assert.Zero(t, TimeToExpiration(day("2024-02-01"), day("2024-01-31")))
	assert.Zero(t, TimeToExpiration(day("2024-01-31"), day("2024-01-31")))
}
