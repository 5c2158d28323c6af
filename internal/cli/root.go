// Package cli holds the scopectl operator commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Simplici0/scopeworks/internal/seed"
	"github.com/Simplici0/scopeworks/internal/service"
)

// App holds what the commands run against. Connect fills the service fields once the
// global flags are parsed; tests wire them directly and leave Connect nil.
type App struct {
	Catalog  *service.CatalogService
	Projects *service.ProjectService
	Migrate  func() (int64, error)
	Seed     func(ctx context.Context) (seed.Stats, error)

	DBPath   string
	LogLevel string
	Connect  func(app *App) error
}

// NewRootCmd creates the top-level "scopectl" command and registers all subcommands
// against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "scopectl",
		Short:         "Operate a scopeworks database",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationOffline] == "true" || app.Connect == nil {
				return nil
			}
			return app.Connect(app)
		},
	}

	root.PersistentFlags().StringVar(&app.DBPath, "db", app.DBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&app.LogLevel, "log-level", app.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newMigrateCmd(app),
		newSeedCmd(app),
		newConfigCmd(),
		newRatesCmd(app),
		newProjectsCmd(app),
		newVersionsCmd(app),
		newDiffCmd(app),
		newRevertCmd(app),
		newExportCmd(app),
	)

	return root
}

// annotationOffline marks commands that run without a database.
const annotationOffline = "offline"
