package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/migrations"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/seed"
	"github.com/Simplici0/scopeworks/internal/service"
	"github.com/Simplici0/scopeworks/internal/testutil"
)

// testApp wires a full App backed by a seeded in-memory DB.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	app := &App{
		Catalog:  service.NewCatalogService(uow),
		Projects: service.NewProjectService(uow),
		Migrate: func() (int64, error) {
			if err := migrations.Up(database, nil); err != nil {
				return 0, err
			}
			return migrations.Version(database, nil)
		},
		Seed: func(ctx context.Context) (seed.Stats, error) {
			return seed.Run(ctx, uow, seed.Config{})
		},
	}
	_, err := app.Seed(context.Background())
	require.NoError(t, err)
	return app
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func snapshot(apiDays float64) scope.Snapshot {
	return scope.Snapshot{Phases: []scope.Phase{{
		ID:   "p1",
		Name: "Build",
		Deliverables: []scope.Deliverable{
			{ID: "d1", Name: "API", RoleAllocations: pricing.Allocations{"senior-developer": apiDays}},
			{ID: "d2", Name: "Designs", RoleAllocations: pricing.Allocations{"senior-designer": 1}},
		},
	}}}
}

// seedVersions creates acme-site with v1 (API at 2 days) and v2 (API at 3 days).
func seedVersions(t *testing.T, app *App) *domain.Project {
	t.Helper()
	ctx := context.Background()
	project, _, err := app.Projects.Create(ctx, service.CreateProjectInput{ClientName: "Acme", ProjectName: "Site"})
	require.NoError(t, err)
	_, err = app.Projects.UpdateDraft(ctx, project.ID, snapshot(2))
	require.NoError(t, err)
	_, err = app.Projects.SaveVersion(ctx, project.ID, "Baseline")
	require.NoError(t, err)
	_, err = app.Projects.UpdateDraft(ctx, project.ID, snapshot(3))
	require.NoError(t, err)
	return project
}

func TestMigrateCmd(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Database at migration 1.\n", out)
}

func TestSeedCmd_Idempotent(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "seed")
	require.NoError(t, err)
	assert.Equal(t, "Defaults already present.\n", out)
}

func TestConfigCmd_RunsOffline(t *testing.T) {
	app := &App{Connect: func(*App) error { return errors.New("no database here") }}
	out, err := executeCmd(t, app, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "AUTOSAVE_DELAY")
	assert.Contains(t, out, "SESSION_SECRET")

	_, err = executeCmd(t, app, "projects")
	assert.EqualError(t, err, "no database here")
}

func TestConnect_SeesGlobalFlags(t *testing.T) {
	var gotPath, gotLevel string
	app := &App{DBPath: "default.db", LogLevel: "info"}
	app.Connect = func(a *App) error {
		gotPath, gotLevel = a.DBPath, a.LogLevel
		return errors.New("stop")
	}
	_, err := executeCmd(t, app, "--db", "/tmp/other.db", "--log-level", "debug", "projects")
	require.Error(t, err)
	assert.Equal(t, "/tmp/other.db", gotPath)
	assert.Equal(t, "debug", gotLevel)
}

func TestRatesCmd(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "rates")
	require.NoError(t, err)
	assert.Contains(t, out, "over 220 billable days")
	assert.Contains(t, out, "Senior Developer")
	assert.Contains(t, out, "CLIENT/DAY")
}

func TestProjectsCmd(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "projects")
	require.NoError(t, err)
	assert.Equal(t, "No projects found.\n", out)

	seedVersions(t, app)
	out, err = executeCmd(t, app, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "acme-site")
	assert.Contains(t, out, "draft")
}

func TestVersionsCmd_MarksCurrent(t *testing.T) {
	app := testApp(t)
	seedVersions(t, app)

	out, err := executeCmd(t, app, "versions", "acme-site")
	require.NoError(t, err)
	assert.Regexp(t, `\*\s+v2\s+Baseline`, out)
	assert.Regexp(t, `\n\s+v1\s+Working draft`, out)

	_, err = executeCmd(t, app, "versions", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiffCmd(t *testing.T) {
	app := testApp(t)
	seedVersions(t, app)

	out, err := executeCmd(t, app, "diff", "acme-site", "v2", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "v1 → v2: 0 added, 0 removed, 1 changed")
	assert.Contains(t, out, "API")
	assert.NotContains(t, out, "Designs")
	assert.Contains(t, out, "Net investment change: +£")

	out, err = executeCmd(t, app, "diff", "acme-site", "1", "2", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Designs")

	_, err = executeCmd(t, app, "diff", "acme-site", "1", "x")
	assert.Error(t, err)
	_, err = executeCmd(t, app, "diff", "acme-site", "1", "5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevertCmd(t *testing.T) {
	app := testApp(t)
	seedVersions(t, app)

	out, err := executeCmd(t, app, "revert", "acme-site", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Created v3 "Reverted from v1"`)
}

func TestExportCmd(t *testing.T) {
	app := testApp(t)
	seedVersions(t, app)

	out, err := executeCmd(t, app, "export", "acme-site", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "API")

	path := filepath.Join(t.TempDir(), "budget.xlsx")
	out, err = executeCmd(t, app, "export", "acme-site", "--type", "internal", "--format", "xlsx", "--version", "1", "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+path+" (v1).\n", out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))

	_, err = executeCmd(t, app, "export", "acme-site", "--format", "pdf")
	assert.Error(t, err)
}

func TestParseVersionArg(t *testing.T) {
	n, err := parseVersionArg("v4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, bad := range []string{"", "v", "0", "-1", "two"} {
		_, err := parseVersionArg(bad)
		assert.Error(t, err, bad)
	}
}
