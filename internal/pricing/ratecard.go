package pricing

// Allocations maps a role id to allocated days. Keys need not cover every role and may
// reference roles that no longer exist.
type Allocations map[string]float64

// Rate holds the inputs the engine needs from a role.
type Rate struct {
	RoleID      string
	BaseCostDay float64
	MarkupPct   float64
}

// RoleLookup resolves a role id to its rate.
type RoleLookup interface {
	Rate(roleID string) (Rate, bool)
}

// RateCard is an in-memory RoleLookup keyed by role id.
type RateCard map[string]Rate

// NewRateCard indexes rates by role id. Later entries win on duplicate ids.
func NewRateCard(rates []Rate) RateCard {
	card := make(RateCard, len(rates))
	for _, r := range rates {
		card[r.RoleID] = r
	}
	return card
}

// Rate implements RoleLookup.
func (c RateCard) Rate(roleID string) (Rate, bool) {
	r, ok := c[roleID]
	return r, ok
}

// DayRates are the derived per-day and per-hour figures for one role.
type DayRates struct {
	TotalCostPerDay float64 `json:"total_cost_per_day"`
	MarkupAmount    float64 `json:"markup_amount"`
	ClientDayRate   float64 `json:"client_day_rate"`
	ClientHourRate  float64 `json:"client_hour_rate"`
}

// RatesFor derives the rate-card display figures for a role.
func RatesFor(r Rate, overheadPerDay float64) DayRates {
	totalCost := TotalCostPerDay(r.BaseCostDay, overheadPerDay)
	dayRate := ClientDayRate(r.BaseCostDay, overheadPerDay, r.MarkupPct)
	return DayRates{
		TotalCostPerDay: totalCost,
		MarkupAmount:    MarkupAmount(totalCost, r.MarkupPct),
		ClientDayRate:   dayRate,
		ClientHourRate:  ClientHourlyRate(dayRate),
	}
}
