package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/scopeworks/internal/config"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := app.Migrate()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database at migration %d.\n", version)
			return nil
		},
	}
}

func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert missing default roles, overhead, services and the admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if stats.Inserts == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Defaults already present.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d default rows.\n", stats.Inserts)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Describe the environment variables read at startup",
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
			return nil
		},
	}
}
