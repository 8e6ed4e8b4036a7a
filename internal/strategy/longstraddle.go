package strategy

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// straddlePosition holds the open-position fields of a LongStraddle run.
type straddlePosition struct {
	entryDate time.Time
	strike    decimal.Decimal
	entryCost decimal.Decimal
	quantity  int
}

// LongStraddle buys an at-the-money call and put in equal quantities,
// betting on a large move in either direction. The position is closed
// at the earlier of the profit target or expiration, with both legs
// settled at intrinsic value.
type LongStraddle struct {
	symbol           string
	daysToExpiration int
	maxContracts     int
	profitThreshold  decimal.Decimal
	capital          decimal.Decimal
	logger           zerolog.Logger

	state State
	pos   straddlePosition
}

// NewLongStraddle creates a long straddle strategy. Contract count is
// sized per run from available capital, capped at maxContracts.
func NewLongStraddle(symbol string, daysToExpiration, maxContracts int, profitThreshold decimal.Decimal, logger zerolog.Logger) *LongStraddle {
	return &LongStraddle{
		symbol:           symbol,
		daysToExpiration: daysToExpiration,
		maxContracts:     maxContracts,
		profitThreshold:  profitThreshold,
		logger:           logger.With().Str("strategy", "long_straddle").Logger(),
		state:            StateFlat,
	}
}

// Name returns the strategy name.
func (s *LongStraddle) Name() string {
	return "Long Straddle Strategy"
}

// GenerateOrders implements Strategy.
func (s *LongStraddle) GenerateOrders(obs models.Observation) []models.Order {
	if obs.Symbol != s.symbol {
		return nil
	}

	if s.state == StateFlat {
		return s.enter(obs)
	}
	return s.manage(obs)
}

func (s *LongStraddle) enter(obs models.Observation) []models.Order {
	strike := obs.Price
	expiration := obs.Date().AddDate(0, 0, s.daysToExpiration)

	callPremium := s.straddlePremium(obs.Price, strike, models.OptionCall)
	putPremium := s.straddlePremium(obs.Price, strike, models.OptionPut)
	costPerStraddle := callPremium.Add(putPremium)

	quantity := s.sizeContracts(costPerStraddle)
	if quantity < 1 {
		s.logger.Warn().
			Str("symbol", s.symbol).
			Str("cost", costPerStraddle.String()).
			Str("capital", s.capital.String()).
			Msg("Cannot afford a single straddle, skipping entry")
		return nil
	}

	callSymbol := models.OptionSymbol(s.symbol, models.OptionCall, strike, expiration)
	putSymbol := models.OptionSymbol(s.symbol, models.OptionPut, strike, expiration)

	s.state = StateOpen
	s.pos = straddlePosition{
		entryDate: obs.Date(),
		strike:    strike,
		entryCost: costPerStraddle,
		quantity:  quantity,
	}

	s.logger.Info().
		Str("symbol", s.symbol).
		Str("strike", strike.String()).
		Str("cost", costPerStraddle.String()).
		Int("contracts", quantity).
		Msg("Entering long straddle position")

	return []models.Order{
		models.NewOrder(callSymbol, models.OrderSideBuy, quantity, callPremium, obs.Timestamp),
		models.NewOrder(putSymbol, models.OrderSideBuy, quantity, putPremium, obs.Timestamp),
	}
}

func (s *LongStraddle) manage(obs models.Observation) []models.Order {
	currentValue := s.intrinsicStraddleValue(obs.Price)
	profit := currentValue.Sub(s.pos.entryCost)

	switch {
	case profit.GreaterThanOrEqual(s.profitThreshold):
		s.logger.Info().Str("profit", profit.String()).Msg("Profit target reached, closing straddle")
	case !obs.Date().Before(s.expirationDate()):
		s.logger.Info().Msg("Closing straddle at expiration")
	default:
		return nil
	}

	return s.exit(obs)
}

func (s *LongStraddle) exit(obs models.Observation) []models.Order {
	expiration := s.expirationDate()
	callSymbol := models.OptionSymbol(s.symbol, models.OptionCall, s.pos.strike, expiration)
	putSymbol := models.OptionSymbol(s.symbol, models.OptionPut, s.pos.strike, expiration)

	callValue := settlementValue(obs.Price, s.pos.strike, models.OptionCall)
	putValue := settlementValue(obs.Price, s.pos.strike, models.OptionPut)
	quantity := s.pos.quantity

	pnl := callValue.Add(putValue).Sub(s.pos.entryCost).Mul(decimal.NewFromInt(int64(quantity)))
	s.logger.Info().
		Str("symbol", s.symbol).
		Str("pnl", pnl.String()).
		Msg("Closed long straddle position")

	s.state = StateFlat
	s.pos = straddlePosition{}

	return []models.Order{
		models.NewOrder(callSymbol, models.OrderSideSell, quantity, callValue, obs.Timestamp),
		models.NewOrder(putSymbol, models.OrderSideSell, quantity, putValue, obs.Timestamp),
	}
}

// sizeContracts sizes the straddle against available capital: the
// affordable count within the capital buffer, capped at the configured
// maximum and at one contract per $10 of capital.
func (s *LongStraddle) sizeContracts(costPerStraddle decimal.Decimal) int {
	if !costPerStraddle.IsPositive() {
		return 0
	}

	affordable := int(investableCapital(s.capital).Div(costPerStraddle).IntPart())
	if affordable < 1 {
		return 0
	}

	safetyCap := int(s.capital.Div(decimal.NewFromInt(10)).IntPart())
	quantity := s.maxContracts
	if affordable < quantity {
		quantity = affordable
	}
	if safetyCap < quantity {
		quantity = safetyCap
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// straddlePremium estimates a leg premium as intrinsic value plus a
// volatility-scaled time value floored at 0.10.
func (s *LongStraddle) straddlePremium(spot, strike decimal.Decimal, kind models.OptionKind) decimal.Decimal {
	intrinsic := decimal.Zero
	switch {
	case kind == models.OptionCall && spot.GreaterThan(strike):
		intrinsic = spot.Sub(strike)
	case kind == models.OptionPut && strike.GreaterThan(spot):
		intrinsic = strike.Sub(spot)
	}

	years := float64(s.daysToExpiration) / 365
	timeValue := math.Sqrt(years) * 0.25 * spot.InexactFloat64() * 0.4
	if timeValue < 0.10 {
		timeValue = 0.10
	}

	return intrinsic.Add(decimal.NewFromFloat(timeValue).Round(2))
}

func (s *LongStraddle) intrinsicStraddleValue(price decimal.Decimal) decimal.Decimal {
	return settlementValue(price, s.pos.strike, models.OptionCall).
		Add(settlementValue(price, s.pos.strike, models.OptionPut))
}

func (s *LongStraddle) expirationDate() time.Time {
	return s.pos.entryDate.AddDate(0, 0, s.daysToExpiration)
}

// Reset implements Strategy.
func (s *LongStraddle) Reset() {
	s.state = StateFlat
	s.pos = straddlePosition{}
}

// MinimumCapitalRequired implements Strategy: one straddle at the
// observed price, grossed up for the capital buffer.
func (s *LongStraddle) MinimumCapitalRequired(obs models.Observation) (decimal.Decimal, bool) {
	call := s.straddlePremium(obs.Price, obs.Price, models.OptionCall)
	put := s.straddlePremium(obs.Price, obs.Price, models.OptionPut)
	return call.Add(put).Div(capitalBuffer).RoundUp(2), true
}

// SetAvailableCapital implements Strategy.
func (s *LongStraddle) SetAvailableCapital(capital decimal.Decimal) {
	s.capital = capital
}
