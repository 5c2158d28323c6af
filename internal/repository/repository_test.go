package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/testutil"
)

func TestRoleRepo_CreateListUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteRoleRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Role{ID: "dev", Title: "Senior Developer", BaseCostDay: 400, MarkupPct: 0.3, SortOrder: 2, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &domain.Role{ID: "pm", Title: "Project Manager", BaseCostDay: 300, MarkupPct: 0.25, SortOrder: 1, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &domain.Role{ID: "old", Title: "Retired", BaseCostDay: 100, SortOrder: 0, IsActive: false}))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "old", all[0].ID)

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, []string{"pm", "dev"}, []string{active[0].ID, active[1].ID})

	pm := active[0]
	pm.BaseCostDay = 320
	require.NoError(t, repo.Update(ctx, &pm))
	got, err := repo.GetByID(ctx, "pm")
	require.NoError(t, err)
	assert.Equal(t, 320.0, got.BaseCostDay)
	assert.True(t, got.IsActive)

	err = repo.Create(ctx, &domain.Role{ID: "pm", Title: "Dup"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domain.Role{ID: "missing", Title: "x"}), domain.ErrNotFound)
}

func TestOverheadRepo_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteOverheadRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.OverheadItem{ID: "o1", Name: "Rent", Category: "workspace", MonthlyCost: 1500}))
	require.NoError(t, repo.Create(ctx, &domain.OverheadItem{ID: "o2", Name: "Figma", Category: "subscription", MonthlyCost: 45, Notes: "3 seats", SortOrder: 1}))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1545.0, domain.TotalMonthly(items))
	assert.Equal(t, "3 seats", items[1].Notes)

	items[0].MonthlyCost = 1600
	require.NoError(t, repo.Update(ctx, &items[0]))
	got, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 1600.0, got.MonthlyCost)
	assert.Empty(t, got.Notes)

	require.NoError(t, repo.Delete(ctx, "o1"))
	assert.ErrorIs(t, repo.Delete(ctx, "o1"), domain.ErrNotFound)
}

func TestSettingsRepo_GetSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteSettingsRepo(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, SettingAnnualBillableDays)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Set(ctx, SettingAnnualBillableDays, "220"))
	require.NoError(t, repo.Set(ctx, SettingAnnualBillableDays, "200"))

	v, err := repo.Get(ctx, SettingAnnualBillableDays)
	require.NoError(t, err)
	assert.Equal(t, "200", v)
}

func TestServiceRepo_UpsertAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteServiceRepo(db)
	ctx := context.Background()

	lo, hi := 2.0, 5.0
	svc := domain.Service{ID: "svc-logo", Name: "Logo design", Phase: "Discovery", TypicalEffortMin: &lo, TypicalEffortMax: &hi, TypicalTeam: []string{"Senior Designer"}, IsActive: true}
	require.NoError(t, repo.Upsert(ctx, &svc))
	require.NoError(t, repo.Upsert(ctx, &domain.Service{ID: "svc-old", Name: "Fax setup", Phase: "Launch"}))

	svc.Name = "Logo & mark"
	require.NoError(t, repo.Upsert(ctx, &svc))

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Logo & mark", active[0].Name)
	require.NotNil(t, active[0].TypicalEffortMax)
	assert.Equal(t, 5.0, *active[0].TypicalEffortMax)
	assert.Equal(t, []string{"Senior Designer"}, active[0].TypicalTeam)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, all[0].TypicalEffortMin)
	assert.Empty(t, all[0].TypicalTeam)
}

func newProject(id, slug string) *domain.Project {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &domain.Project{ID: id, Slug: slug, ClientName: "Acme", ProjectName: slug, Status: domain.StatusDraft, CreatedAt: now, UpdatedAt: now}
}

func TestProjectRepo_CreateGetUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	p := newProject("p1", "acme-site")
	require.NoError(t, repo.Create(ctx, p))
	assert.ErrorIs(t, repo.Create(ctx, newProject("p2", "acme-site")), domain.ErrConflict)

	got, err := repo.GetBySlug(ctx, "acme-site")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Empty(t, got.CurrentVersionID)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	got.Status = domain.StatusSent
	got.CurrentVersionID = "v1"
	got.UpdatedAt = got.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, again.Status)
	assert.Equal(t, "v1", again.CurrentVersionID)

	require.NoError(t, repo.Create(ctx, newProject("p3", "beta-app")))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)

	_, err = repo.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionRepo_RoundTripAndSummaries(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(db)
	repo := NewSQLiteVersionRepo(db)
	ctx := context.Background()

	require.NoError(t, projects.Create(ctx, newProject("p1", "acme-site")))

	n, err := repo.MaxNumber(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, n)

	svc := "svc-logo"
	snap := scope.Snapshot{Phases: []scope.Phase{
		{ID: "ph1", Name: "Discovery", Deliverables: []scope.Deliverable{
			{ID: "d1", Name: "Logo", ServiceID: &svc, RoleAllocations: pricing.Allocations{"dev": 1.5}},
			{ID: "d2", Name: "Audit", RoleAllocations: pricing.Allocations{}},
		}},
		{ID: "ph2", Name: "Build", Deliverables: []scope.Deliverable{{ID: "d3", Name: "API", InternalNotes: "tight"}}},
		{ID: "ph3", Name: "Launch", Deliverables: []scope.Deliverable{}},
	}}
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	v1 := &domain.ProjectVersion{ID: "v1", ProjectID: "p1", VersionNumber: 1, Name: "Working draft", Snapshot: snap, TotalInvestment: 1200, TotalInternalCost: 900, CreatedAt: created}
	require.NoError(t, repo.Create(ctx, v1))
	require.NoError(t, repo.Create(ctx, &domain.ProjectVersion{ID: "v2", ProjectID: "p1", VersionNumber: 2, Name: "Sent", Snapshot: scope.Snapshot{}, CreatedAt: created.Add(time.Hour)}))

	dup := &domain.ProjectVersion{ID: "v9", ProjectID: "p1", VersionNumber: 2, Snapshot: snap, CreatedAt: created}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrConflict)

	got, err := repo.GetByNumber(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, snap, got.Snapshot)
	assert.Equal(t, 1200.0, got.TotalInvestment)
	assert.True(t, created.Equal(got.CreatedAt))

	n, err = repo.MaxNumber(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	summaries, err := repo.ListSummaries(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].VersionNumber)
	assert.Zero(t, summaries[0].Deliverables)
	assert.Equal(t, 3, summaries[1].Deliverables)

	got.Snapshot.Phases[0].Deliverables = got.Snapshot.Phases[0].Deliverables[:1]
	got.TotalInvestment = 600
	require.NoError(t, repo.UpdateDraft(ctx, got))
	byID, err := repo.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, byID.Snapshot.Flatten(), 2)
	assert.Equal(t, 600.0, byID.TotalInvestment)

	_, err = repo.GetByNumber(ctx, "p1", 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
