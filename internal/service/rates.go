package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/repository"
)

// RateContext is everything needed to price a snapshot at current rates.
type RateContext struct {
	Roles                []domain.Role    `json:"-"`
	Card                 pricing.RateCard `json:"-"`
	TotalMonthlyOverhead float64          `json:"total_monthly_overhead"`
	AnnualBillableDays   int              `json:"annual_billable_days"`
	OverheadPerDay       float64          `json:"overhead_per_day"`
}

// RoleRates is a role with its derived day and hour rates.
type RoleRates struct {
	domain.Role
	Rates pricing.DayRates `json:"rates"`
}

// RoleRates derives rates for every role in the context.
func (rc RateContext) RoleRates() []RoleRates {
	return deriveRates(rc.Roles, rc.OverheadPerDay)
}

func deriveRates(roles []domain.Role, overheadPerDay float64) []RoleRates {
	out := make([]RoleRates, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleRates{Role: r, Rates: pricing.RatesFor(r.Rate(), overheadPerDay)})
	}
	return out
}

// loadRateContext reads active roles, overhead and billable days through conn.
func loadRateContext(ctx context.Context, conn db.DBTX) (RateContext, error) {
	roles, err := repository.NewSQLiteRoleRepo(conn).List(ctx, true)
	if err != nil {
		return RateContext{}, err
	}
	items, err := repository.NewSQLiteOverheadRepo(conn).List(ctx)
	if err != nil {
		return RateContext{}, err
	}
	days, err := billableDays(ctx, repository.NewSQLiteSettingsRepo(conn))
	if err != nil {
		return RateContext{}, err
	}

	total := domain.TotalMonthly(items)
	perDay, err := pricing.OverheadPerDay(total, float64(days))
	if err != nil {
		return RateContext{}, err
	}
	return RateContext{
		Roles:                roles,
		Card:                 domain.RateCard(roles),
		TotalMonthlyOverhead: total,
		AnnualBillableDays:   days,
		OverheadPerDay:       perDay,
	}, nil
}

// billableDays reads the stored setting, falling back to the default and clamping.
func billableDays(ctx context.Context, settings repository.SettingsRepo) (int, error) {
	raw, err := settings.Get(ctx, repository.SettingAnnualBillableDays)
	if errors.Is(err, domain.ErrNotFound) {
		return pricing.DefaultAnnualBillableDays, nil
	}
	if err != nil {
		return 0, err
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: stored annual_billable_days %q", pricing.ErrInvalidConfiguration, raw)
	}
	return pricing.ClampBillableDays(days), nil
}
