package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/repository"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/testutil"
	"github.com/Simplici0/scopeworks/internal/versiondiff"
)

type fixture struct {
	catalog  *CatalogService
	projects *ProjectService
}

// newFixture seeds role "a" (300/day, 25%) and 2000/month overhead at 220 billable days.
func newFixture(t *testing.T) fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	f := fixture{catalog: NewCatalogService(uow), projects: NewProjectService(uow)}

	ctx := context.Background()
	_, err := f.catalog.CreateRole(ctx, domain.Role{ID: "a", Title: "Senior Developer", BaseCostDay: 300, MarkupPct: 0.25, IsActive: true})
	require.NoError(t, err)
	_, err = f.catalog.CreateOverhead(ctx, domain.OverheadItem{Name: "Rent", Category: "workspace", MonthlyCost: 2000})
	require.NoError(t, err)
	_, err = f.catalog.SetBillableDays(ctx, 220)
	require.NoError(t, err)
	return f
}

func snapshotWith(ds ...scope.Deliverable) scope.Snapshot {
	return scope.Snapshot{Phases: []scope.Phase{{ID: "ph1", Name: "Development", Deliverables: ds}}}
}

func TestCatalog_RateContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rc, err := f.catalog.RateContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 220, rc.AnnualBillableDays)
	assert.InDelta(t, 109.0909, rc.OverheadPerDay, 1e-4)

	roles, err := f.catalog.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.InDelta(t, 511.3636, roles[0].Rates.ClientDayRate, 1e-4)
	assert.InDelta(t, 511.3636/8, roles[0].Rates.ClientHourRate, 1e-4)
}

func TestCatalog_BillableDaysDefaultAndClamp(t *testing.T) {
	database := testutil.NewTestDB(t)
	catalog := NewCatalogService(testutil.NewTestUoW(database))
	ctx := context.Background()

	rc, err := catalog.RateContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultAnnualBillableDays, rc.AnnualBillableDays)
	assert.Zero(t, rc.OverheadPerDay)

	stored, err := catalog.SetBillableDays(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	stored, err = catalog.SetBillableDays(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, 365, stored)

	rc, err = catalog.RateContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 365, rc.AnnualBillableDays)
}

func TestCatalog_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateRole(ctx, domain.Role{Title: "Bad", BaseCostDay: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.catalog.CreateOverhead(ctx, domain.OverheadItem{Category: "yachts"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.catalog.UpdateRole(ctx, domain.Role{ID: "ghost", Title: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.catalog.DeleteOverhead(ctx, "ghost"), domain.ErrNotFound)
}

func TestProject_CreateStartsWithWorkingDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, v, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme Corp", ProjectName: "Website Redesign"})
	require.NoError(t, err)
	assert.Equal(t, "acme-corp-website-redesign", p.Slug)
	assert.Equal(t, domain.StatusDraft, p.Status)
	assert.Equal(t, v.ID, p.CurrentVersionID)
	assert.Equal(t, 1, v.VersionNumber)
	assert.Equal(t, InitialVersionName, v.Name)

	names := make([]string, 0, len(v.Snapshot.Phases))
	for _, ph := range v.Snapshot.Phases {
		names = append(names, ph.Name)
	}
	assert.Equal(t, []string{"Discovery", "Development", "Launch", "Ongoing"}, names)

	current, err := f.projects.Version(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, v.ID, current.ID)

	_, _, err = f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme Corp", ProjectName: "Website Redesign"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	custom, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "App", Slug: "Acme App 2"})
	require.NoError(t, err)
	assert.Equal(t, "acme-app-2", custom.Slug)

	bySlug, err := f.projects.GetBySlug(ctx, "acme-app-2")
	require.NoError(t, err)
	assert.Equal(t, custom.ID, bySlug.ID)
}

func TestProject_UpdateDraftPricesAtCurrentRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)

	v, err := f.projects.UpdateDraft(ctx, p.ID, snapshotWith(scope.Deliverable{ID: "d1", Name: "Build", RoleAllocations: pricing.Allocations{"a": 2}}))
	require.NoError(t, err)
	assert.Equal(t, 1, v.VersionNumber)
	assert.InDelta(t, 1022.73, v.TotalInvestment, 0.005)
	assert.InDelta(t, 818.18, v.TotalInternalCost, 0.005)

	summaries, err := f.projects.Versions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Deliverables)

	bad := snapshotWith(scope.Deliverable{ID: "d1", RoleAllocations: pricing.Allocations{"a": -1}})
	_, err = f.projects.UpdateDraft(ctx, p.ID, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.projects.UpdateDraft(ctx, "missing", snapshotWith())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProject_SaveVersionFreezesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)
	_, err = f.projects.UpdateDraft(ctx, p.ID, snapshotWith(scope.Deliverable{ID: "d1", Name: "Build", RoleAllocations: pricing.Allocations{"a": 2}}))
	require.NoError(t, err)

	_, err = f.projects.SaveVersion(ctx, p.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	v2, err := f.projects.SaveVersion(ctx, p.ID, "Sent to client")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.InDelta(t, 1022.73, v2.TotalInvestment, 0.005)

	project, err := f.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, project.CurrentVersionID)

	_, err = f.catalog.UpdateRole(ctx, domain.Role{ID: "a", Title: "Senior Developer", BaseCostDay: 600, MarkupPct: 0.25, IsActive: true})
	require.NoError(t, err)

	frozen, err := f.projects.Version(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1022.73, frozen.TotalInvestment, 0.005)

	v3, err := f.projects.SaveVersion(ctx, p.ID, "Repriced")
	require.NoError(t, err)
	assert.Equal(t, 3, v3.VersionNumber)
	assert.Greater(t, v3.TotalInvestment, frozen.TotalInvestment)
}

func TestProject_RevertCopiesSnapshotAndFrozenTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)

	for i, days := range []float64{1, 2, 3} {
		_, err := f.projects.UpdateDraft(ctx, p.ID, snapshotWith(scope.Deliverable{ID: "d1", Name: "Build", RoleAllocations: pricing.Allocations{"a": days}}))
		require.NoError(t, err)
		v, err := f.projects.SaveVersion(ctx, p.ID, "Round")
		require.NoError(t, err)
		require.Equal(t, i+2, v.VersionNumber)
	}

	v2, err := f.projects.Version(ctx, p.ID, 2)
	require.NoError(t, err)

	// Rates move after v2 was frozen; the revert must not reprice.
	_, err = f.catalog.UpdateRole(ctx, domain.Role{ID: "a", Title: "Senior Developer", BaseCostDay: 900, MarkupPct: 1, IsActive: true})
	require.NoError(t, err)

	v5, err := f.projects.Revert(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, v5.VersionNumber)
	assert.Equal(t, "Reverted from v2", v5.Name)
	assert.Equal(t, v2.Snapshot, v5.Snapshot)
	assert.Equal(t, v2.TotalInvestment, v5.TotalInvestment)
	assert.Equal(t, v2.TotalInternalCost, v5.TotalInternalCost)

	stored, err := f.projects.Version(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, v5.ID, stored.ID)
	assert.Equal(t, v2.Snapshot, stored.Snapshot)

	// Editing the reverted draft leaves v2 untouched.
	_, err = f.projects.UpdateDraft(ctx, p.ID, snapshotWith())
	require.NoError(t, err)
	again, err := f.projects.Version(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, v2.Snapshot, again.Snapshot)

	_, err = f.projects.Revert(ctx, p.ID, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.projects.Revert(ctx, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProject_CompareMatchesRecreatedDeliverableByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Brand"})
	require.NoError(t, err)

	_, err = f.projects.UpdateDraft(ctx, p.ID, snapshotWith(scope.Deliverable{ID: "x", Name: "Logo", RoleAllocations: pricing.Allocations{"a": 2}}))
	require.NoError(t, err)
	_, err = f.projects.SaveVersion(ctx, p.ID, "Before")
	require.NoError(t, err)
	_, err = f.projects.UpdateDraft(ctx, p.ID, snapshotWith(scope.Deliverable{ID: "y", Name: "Logo", RoleAllocations: pricing.Allocations{"a": 3}}))
	require.NoError(t, err)

	res, err := f.projects.Compare(ctx, p.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Older)
	assert.Equal(t, 2, res.Newer)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, versiondiff.Changed, res.Entries[0].Kind)
	assert.Equal(t, "y", res.Entries[0].DeliverableID)
	assert.InDelta(t, 1, res.Entries[0].DaysDelta(), 1e-9)

	_, err = f.projects.Compare(ctx, p.ID, 1, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProject_Budget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)
	_, err = f.projects.UpdateDraft(ctx, p.ID, snapshotWith(
		scope.Deliverable{ID: "d1", Name: "Build", RoleAllocations: pricing.Allocations{"a": 2}},
		scope.Deliverable{ID: "d2", Name: "Legacy", RoleAllocations: pricing.Allocations{"gone": 4}},
	))
	require.NoError(t, err)

	b, err := f.projects.Budget(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, b.VersionNumber)
	require.Len(t, b.Phases, 1)
	assert.InDelta(t, 1022.73, b.Totals.Investment, 0.005)
	assert.InDelta(t, 48, b.Totals.Hours, 1e-9)
	assert.InDelta(t, 204.55, b.GrossProfit, 0.005)
	assert.InDelta(t, 20, b.Margin, 1e-9)
	assert.Equal(t, pricing.BandCaution, b.Band)
	require.Len(t, b.Roles, 1)

	_, err = f.projects.Budget(ctx, p.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProject_SetStatusAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)

	updated, err := f.projects.SetStatus(ctx, p.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)

	_, err = f.projects.SetStatus(ctx, p.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusApproved, list[0].Status)
}

func TestProject_SaveVersionRollsBackOnFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	projects := NewProjectService(testutil.NewTestUoW(database))
	p, _, err := projects.Create(ctx, CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)

	boom := errors.New("disk full")
	failing := NewProjectService(&testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: boom})
	_, err = failing.SaveVersion(ctx, p.ID, "Doomed")
	require.ErrorIs(t, err, boom)

	n, err := repository.NewSQLiteVersionRepo(database).MaxNumber(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	project, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.CurrentVersionID, project.CurrentVersionID)
}
