package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/export"
	"github.com/Simplici0/scopeworks/internal/money"
	"github.com/Simplici0/scopeworks/internal/versiondiff"
)

const dateTimeLayout = "2006-01-02 15:04"

func resolveProject(ctx context.Context, app *App, slug string) (*domain.Project, error) {
	project, err := app.Projects.GetBySlug(ctx, domain.NormalizeSlug(slug))
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", slug, err)
	}
	return project, nil
}

func parseVersionArg(raw string) (int, error) {
	if len(raw) > 1 && (raw[0] == 'v' || raw[0] == 'V') {
		raw = raw[1:]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a version number", raw)
	}
	return n, nil
}

func newProjectsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "SLUG\tCLIENT\tPROJECT\tSTATUS\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.Slug, p.ClientName, p.ProjectName, p.Status, p.UpdatedAt.Local().Format(dateTimeLayout))
			}
			return w.Flush()
		},
	}
}

func newVersionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "versions SLUG",
		Short: "Show the version history of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			versions, err := app.Projects.Versions(ctx, project.ID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "\tVERSION\tNAME\tINVESTMENT\tINTERNAL COST\tDELIVERABLES\tCREATED")
			for _, v := range versions {
				marker := ""
				if v.ID == project.CurrentVersionID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\tv%d\t%s\t%s\t%s\t%d\t%s\n",
					marker, v.VersionNumber, v.Name,
					money.Format(v.TotalInvestment), money.Format(v.TotalInternalCost),
					v.Deliverables, v.CreatedAt.Local().Format(dateTimeLayout))
			}
			return w.Flush()
		},
	}
}

func newDiffCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "diff SLUG A B",
		Short: "Compare two versions of a project deliverable by deliverable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			a, err := parseVersionArg(args[1])
			if err != nil {
				return err
			}
			b, err := parseVersionArg(args[2])
			if err != nil {
				return err
			}
			res, err := app.Projects.Compare(ctx, project.ID, a, b)
			if err != nil {
				return err
			}
			return writeDiff(cmd.OutOrStdout(), res, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include unchanged deliverables")

	return cmd
}

func writeDiff(out io.Writer, res versiondiff.Result, all bool) error {
	entries := res.Entries
	if !all {
		entries = res.Changes()
	}

	fmt.Fprintf(out, "v%d → v%d: %d added, %d removed, %d changed\n\n",
		res.Older, res.Newer,
		res.Count(versiondiff.Added), res.Count(versiondiff.Removed), res.Count(versiondiff.Changed))

	if len(entries) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "\tPHASE\tDELIVERABLE\tDAYS\tINVESTMENT\tCHANGE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s → %s\t%s\t%s\n",
				kindMarker(e.Kind), e.PhaseName, e.Name,
				daysOrDash(e.DaysBefore), daysOrDash(e.DaysAfter),
				money.Format(e.InvestmentAfter), signed(e.InvestmentDelta()))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Net investment change: %s\n", signed(res.NetInvestmentChange))
	fmt.Fprintf(out, "Net internal cost change: %s\n", signed(res.NetCostChange))
	return nil
}

func kindMarker(k versiondiff.Kind) string {
	switch k {
	case versiondiff.Added:
		return "+"
	case versiondiff.Removed:
		return "-"
	case versiondiff.Changed:
		return "~"
	}
	return " "
}

func daysOrDash(days float64) string {
	if s := money.FormatDays(days); s != "" {
		return s
	}
	return "-"
}

func signed(amount float64) string {
	if money.Round(amount, 0) > 0 {
		return "+" + money.Format(amount)
	}
	return money.Format(amount)
}

func newRevertCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "revert SLUG VERSION",
		Short: "Append a new version restoring an earlier one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := parseVersionArg(args[1])
			if err != nil {
				return err
			}
			v, err := app.Projects.Revert(ctx, project.ID, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created v%d %q (%s).\n", v.VersionNumber, v.Name, money.Format(v.TotalInvestment))
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var kindFlag, formatFlag, outPath string
	var version int

	cmd := &cobra.Command{
		Use:   "export SLUG",
		Short: "Write a client proposal or internal budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := export.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			budget, err := app.Projects.Budget(ctx, project.ID, version)
			if err != nil {
				return err
			}

			if outPath == "-" {
				return export.Write(cmd.OutOrStdout(), budget, kind, format)
			}
			if outPath == "" {
				outPath = export.FileName(*project, kind, format)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := export.Write(f, budget, kind, format); err != nil {
				f.Close()
				os.Remove(outPath)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (v%d).\n", outPath, budget.VersionNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "type", string(export.KindClient), "client or internal")
	cmd.Flags().StringVar(&formatFlag, "format", string(export.FormatText), "text or xlsx")
	cmd.Flags().IntVar(&version, "version", 0, "Version number (default current)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file, - for stdout (default derived from the project)")

	return cmd
}
