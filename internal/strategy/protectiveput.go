package strategy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// protectivePutPosition holds the open-position fields of a
// ProtectivePut run.
type protectivePutPosition struct {
	entryDate     time.Time
	putStrike     decimal.Decimal
	shareQuantity int
}

// ProtectivePut buys shares sized from the capital buffer, floored to a
// 100-share lot, plus one protective put per 100 shares at spot minus
// the strike offset. At expiration the shares are sold and the puts are
// sold at settlement value.
type ProtectivePut struct {
	symbol           string
	daysToExpiration int
	strikeOffset     decimal.Decimal
	budget           decimal.Decimal
	logger           zerolog.Logger

	state State
	pos   protectivePutPosition
}

// NewProtectivePut creates a protective put strategy.
func NewProtectivePut(symbol string, daysToExpiration int, strikeOffset decimal.Decimal, logger zerolog.Logger) *ProtectivePut {
	return &ProtectivePut{
		symbol:           symbol,
		daysToExpiration: daysToExpiration,
		strikeOffset:     strikeOffset,
		logger:           logger.With().Str("strategy", "protective_put").Logger(),
		state:            StateFlat,
	}
}

// Name returns the strategy name.
func (s *ProtectivePut) Name() string {
	return "Protective Put Strategy"
}

// GenerateOrders implements Strategy.
func (s *ProtectivePut) GenerateOrders(obs models.Observation) []models.Order {
	if obs.Symbol != s.symbol {
		return nil
	}

	if s.state == StateFlat {
		return s.enter(obs)
	}
	if !obs.Date().Before(s.expirationDate()) {
		return s.exit(obs)
	}
	return nil
}

func (s *ProtectivePut) enter(obs models.Observation) []models.Order {
	affordable := int(s.budget.Div(obs.Price).IntPart())
	if affordable < 100 {
		s.logger.Warn().
			Str("symbol", s.symbol).
			Str("price", obs.Price.String()).
			Int("affordable", affordable).
			Msg("Cannot afford a 100-share lot, skipping entry")
		return nil
	}

	// Option contracts cover 100 shares each.
	quantity := (affordable / 100) * 100
	strike := obs.Price.Sub(s.strikeOffset)
	expiration := obs.Date().AddDate(0, 0, s.daysToExpiration)
	putSymbol := models.OptionSymbol(s.symbol, models.OptionPut, strike, expiration)
	premium := syntheticPremium(obs.Price, strike, s.daysToExpiration, models.OptionPut)

	s.state = StateOpen
	s.pos = protectivePutPosition{
		entryDate:     obs.Date(),
		putStrike:     strike,
		shareQuantity: quantity,
	}

	s.logger.Info().
		Str("symbol", s.symbol).
		Int("shares", quantity).
		Str("price", obs.Price.String()).
		Str("strike", strike.String()).
		Str("premium", premium.String()).
		Msg("Entering protective put position")

	return []models.Order{
		models.NewOrder(s.symbol, models.OrderSideBuy, quantity, obs.Price, obs.Timestamp),
		models.NewOrder(putSymbol, models.OrderSideBuy, quantity/100, premium, obs.Timestamp),
	}
}

func (s *ProtectivePut) exit(obs models.Observation) []models.Order {
	expiration := s.expirationDate()
	putSymbol := models.OptionSymbol(s.symbol, models.OptionPut, s.pos.putStrike, expiration)
	settlement := settlementValue(obs.Price, s.pos.putStrike, models.OptionPut)
	quantity := s.pos.shareQuantity

	s.logger.Info().
		Str("symbol", s.symbol).
		Str("price", obs.Price.String()).
		Str("settlement", settlement.String()).
		Msg("Closing protective put position")

	s.state = StateFlat
	s.pos = protectivePutPosition{}

	return []models.Order{
		models.NewOrder(s.symbol, models.OrderSideSell, quantity, obs.Price, obs.Timestamp),
		models.NewOrder(putSymbol, models.OrderSideSell, quantity/100, settlement, obs.Timestamp),
	}
}

func (s *ProtectivePut) expirationDate() time.Time {
	return s.pos.entryDate.AddDate(0, 0, s.daysToExpiration)
}

// Reset implements Strategy.
func (s *ProtectivePut) Reset() {
	s.state = StateFlat
	s.pos = protectivePutPosition{}
}

// MinimumCapitalRequired implements Strategy: 100 shares plus one put
// premium, grossed up for the capital buffer.
func (s *ProtectivePut) MinimumCapitalRequired(obs models.Observation) (decimal.Decimal, bool) {
	stockCost := obs.Price.Mul(sharesPerContract)
	putCost := syntheticPremium(obs.Price, obs.Price.Sub(s.strikeOffset), s.daysToExpiration, models.OptionPut)
	return stockCost.Add(putCost).Div(capitalBuffer).RoundUp(2), true
}

// SetAvailableCapital implements Strategy.
func (s *ProtectivePut) SetAvailableCapital(capital decimal.Decimal) {
	s.budget = investableCapital(capital)
}
