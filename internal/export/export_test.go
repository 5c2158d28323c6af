package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/service"
)

func sampleBudget() *service.Budget {
	roles := []domain.Role{{ID: "a", Title: "Senior Developer", BaseCostDay: 300, MarkupPct: 0.25, IsActive: true}}
	overhead := 2000.0 * 12 / 220
	snap := scope.Snapshot{Phases: []scope.Phase{
		{ID: "p1", Name: "Discovery", Deliverables: []scope.Deliverable{
			{ID: "d1", Name: "Build", RoleAllocations: pricing.Allocations{"a": 2}, InternalNotes: "watch\nscope"},
		}},
		{ID: "p2", Name: "Ongoing", Deliverables: []scope.Deliverable{}},
	}}
	priced := scope.Price(snap, domain.RateCard(roles), overhead)
	rc := service.RateContext{Roles: roles, Card: domain.RateCard(roles), TotalMonthlyOverhead: 2000, AnnualBillableDays: 220, OverheadPerDay: overhead}
	margin := priced.Totals.Margin()
	return &service.Budget{
		Project:       domain.Project{ClientName: "Acme Corp", ProjectName: "Website Redesign"},
		VersionNumber: 2,
		VersionName:   "Sent to client",
		VersionDate:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Budget:        priced,
		Roles:         rc.RoleRates(),
		RateContext:   rc,
		GrossProfit:   priced.Totals.GrossProfit(),
		Margin:        margin,
		Band:          pricing.BandFor(margin),
	}
}

func TestClientProposal_HidesInternalFigures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ClientProposal(&buf, sampleBudget()))
	out := buf.String()

	assert.Contains(t, out, "Website Redesign")
	assert.Contains(t, out, "2 March 2026  ·  Sent to client")
	assert.Contains(t, out, "£1,022.73")
	assert.Contains(t, out, "Discovery subtotal")
	assert.Contains(t, out, "Total days: 2")
	assert.NotContains(t, out, "Ongoing")
	assert.NotContains(t, out, "818.18")
	assert.NotContains(t, out, "watch")
}

func TestInternalBudget_ShowsCostProfitAndNotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InternalBudget(&buf, sampleBudget()))
	out := buf.String()

	assert.Contains(t, out, "£818.18")
	assert.Contains(t, out, "£204.55")
	assert.Contains(t, out, "20.0% (caution)")
	assert.Contains(t, out, "Sr Dev hrs")
	assert.Contains(t, out, "watch scope")
	assert.Contains(t, out, "£511.36")
	assert.Contains(t, out, "220 billable days")
	assert.Contains(t, out, "Discovery total")
}

func TestInternalBudgetXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InternalBudgetXLSX(&buf, sampleBudget()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{budgetSheet, ratesSheet}, f.GetSheetList())

	v, err := f.GetCellValue(budgetSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Website Redesign", v)

	v, err = f.GetCellValue(budgetSheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "1022.73", v)

	rows, err := f.GetRows(budgetSheet)
	require.NoError(t, err)
	var found bool
	for _, r := range rows {
		if len(r) > 1 && r[1] == "Build" {
			found = true
			assert.Equal(t, "Discovery", r[0])
			assert.Equal(t, "16", r[2])
		}
	}
	assert.True(t, found, "deliverable row missing")

	v, err = f.GetCellValue(ratesSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Senior Developer", v)
}

func TestWriteAndNaming(t *testing.T) {
	p := domain.Project{ClientName: "Acme Corp", ProjectName: "Website Redesign"}
	assert.Equal(t, "acme-corp-website-redesign-proposal.txt", FileName(p, KindClient, FormatText))
	assert.Equal(t, "acme-corp-website-redesign-internal-budget.xlsx", FileName(p, KindInternal, FormatXLSX))
	assert.True(t, strings.HasPrefix(ContentType(FormatText), "text/plain"))

	kind, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindClient, kind)
	_, err = ParseKind("pdf")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupported)

	err = Write(&bytes.Buffer{}, sampleBudget(), KindClient, FormatXLSX)
	assert.True(t, errors.Is(err, ErrUnsupported))
	require.NoError(t, Write(&bytes.Buffer{}, sampleBudget(), KindInternal, FormatText))
}

func TestNewProposal_DropsEmptyPhasesAndInternalData(t *testing.T) {
	p := NewProposal(sampleBudget())

	require.Len(t, p.Phases, 1)
	assert.Equal(t, "Discovery", p.Phases[0].Name)
	require.Len(t, p.Phases[0].Deliverables, 1)
	assert.Equal(t, ProposalLine{Name: "Build", Days: 2, Investment: p.TotalInvestment}, p.Phases[0].Deliverables[0])
	assert.InDelta(t, 1022.73, p.TotalInvestment, 0.005)
	assert.Equal(t, "Sent to client", p.VersionName)
}
