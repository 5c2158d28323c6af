package pricing

const (
	// DefaultAnnualBillableDays applies when no setting has been stored.
	DefaultAnnualBillableDays = 220
	minAnnualBillableDays     = 1
	maxAnnualBillableDays     = 365
)

// ClampBillableDays keeps the billable-days setting inside [1, 365].
func ClampBillableDays(days int) int {
	if days < minAnnualBillableDays {
		return minAnnualBillableDays
	}
	if days > maxAnnualBillableDays {
		return maxAnnualBillableDays
	}
	return days
}

// Totals is the roll-up used at deliverable, phase and project level.
type Totals struct {
	Days         float64 `json:"days"`
	Hours        float64 `json:"hours"`
	Investment   float64 `json:"investment"`
	InternalCost float64 `json:"internal_cost"`
}

// LineTotals prices one set of allocations.
func LineTotals(alloc Allocations, roles RoleLookup, overheadPerDay float64) Totals {
	return Totals{
		Days:         LineDays(alloc),
		Hours:        LineHours(alloc),
		Investment:   LineInvestment(alloc, roles, overheadPerDay),
		InternalCost: LineInternalCost(alloc, roles, overheadPerDay),
	}
}

// Add returns the sum of two totals.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Days:         t.Days + o.Days,
		Hours:        t.Hours + o.Hours,
		Investment:   t.Investment + o.Investment,
		InternalCost: t.InternalCost + o.InternalCost,
	}
}

// GrossProfit of the totals.
func (t Totals) GrossProfit() float64 {
	return GrossProfit(t.Investment, t.InternalCost)
}

// Margin of the totals as a percentage.
func (t Totals) Margin() float64 {
	return ProfitMargin(t.GrossProfit(), t.Investment)
}

// MarginBand classifies a margin for presentation.
type MarginBand string

const (
	BandHealthy MarginBand = "healthy"
	BandCaution MarginBand = "caution"
	BandLow     MarginBand = "low"
)

// BandFor classifies a margin percentage: above 30 is healthy, 15 to 30 is caution, below 15 is low.
func BandFor(margin float64) MarginBand {
	switch {
	case margin > 30:
		return BandHealthy
	case margin >= 15:
		return BandCaution
	default:
		return BandLow
	}
}
