package pricing

import (
	"errors"
	"maps"
	"math"
	"slices"
)

// HoursPerDay is the fixed working-day length used to convert day rates and allocations to hours.
const HoursPerDay = 8.0

// ErrInvalidConfiguration is returned when overhead cannot be spread across billable days.
var ErrInvalidConfiguration = errors.New("invalid configuration: annual billable days must be greater than 0")

// OverheadPerDay spreads the monthly overhead over a year of billable days.
func OverheadPerDay(totalMonthlyOverhead, annualBillableDays float64) (float64, error) {
	if annualBillableDays <= 0 || math.IsNaN(annualBillableDays) {
		return 0, ErrInvalidConfiguration
	}
	return (totalMonthlyOverhead * 12) / annualBillableDays, nil
}

// TotalCostPerDay is a role's burdened daily cost.
func TotalCostPerDay(baseCostDay, overheadPerDay float64) float64 {
	return baseCostDay + overheadPerDay
}

// MarkupAmount is the premium added on top of the burdened daily cost.
func MarkupAmount(totalCostPerDay, markupPct float64) float64 {
	return totalCostPerDay * markupPct
}

// ClientDayRate is the rate billed to the client per role-day.
func ClientDayRate(baseCostDay, overheadPerDay, markupPct float64) float64 {
	totalCost := TotalCostPerDay(baseCostDay, overheadPerDay)
	return totalCost + MarkupAmount(totalCost, markupPct)
}

// ClientHourlyRate converts a client day rate to an hourly rate.
func ClientHourlyRate(clientDayRate float64) float64 {
	return clientDayRate / HoursPerDay
}

// LineInvestment is the client-facing price of a set of role allocations.
// Allocations for unknown roles and zero day counts contribute nothing.
func LineInvestment(alloc Allocations, roles RoleLookup, overheadPerDay float64) float64 {
	total := 0.0
	for _, roleID := range alloc.roleIDs() {
		days := alloc[roleID]
		if !counts(days) {
			continue
		}
		rate, ok := lookup(roles, roleID)
		if !ok {
			continue
		}
		total += days * ClientDayRate(rate.BaseCostDay, overheadPerDay, rate.MarkupPct)
	}
	return total
}

// LineInternalCost is the burdened cost of a set of role allocations, markup excluded.
func LineInternalCost(alloc Allocations, roles RoleLookup, overheadPerDay float64) float64 {
	total := 0.0
	for _, roleID := range alloc.roleIDs() {
		days := alloc[roleID]
		if !counts(days) {
			continue
		}
		rate, ok := lookup(roles, roleID)
		if !ok {
			continue
		}
		total += days * TotalCostPerDay(rate.BaseCostDay, overheadPerDay)
	}
	return total
}

// LineHours converts allocated days to hours. Hours do not depend on the rate card.
func LineHours(alloc Allocations) float64 {
	return LineDays(alloc) * HoursPerDay
}

// LineDays sums allocated days across every role, known or not.
func LineDays(alloc Allocations) float64 {
	total := 0.0
	for _, roleID := range alloc.roleIDs() {
		days := alloc[roleID]
		if !counts(days) {
			continue
		}
		total += days
	}
	return total
}

// GrossProfit is investment minus internal cost.
func GrossProfit(totalInvestment, totalInternalCost float64) float64 {
	return totalInvestment - totalInternalCost
}

// ProfitMargin returns the margin as a percentage of investment, or 0 when there is no investment.
func ProfitMargin(grossProfit, totalInvestment float64) float64 {
	if totalInvestment == 0 {
		return 0
	}
	return (grossProfit / totalInvestment) * 100
}

// roleIDs returns the allocation keys in a fixed order so repeated sums are bit-identical.
func (a Allocations) roleIDs() []string {
	return slices.Sorted(maps.Keys(a))
}

func counts(days float64) bool {
	return days != 0 && !math.IsNaN(days)
}

func lookup(roles RoleLookup, roleID string) (Rate, bool) {
	if roles == nil {
		return Rate{}, false
	}
	return roles.Rate(roleID)
}
