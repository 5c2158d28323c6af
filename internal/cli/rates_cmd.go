package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/scopeworks/internal/money"
)

func newRatesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Print the rate card at the current overhead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rc, err := app.Catalog.RateContext(ctx)
			if err != nil {
				return err
			}
			roles, err := app.Catalog.ListRoles(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overhead %s/month over %d billable days = %s/day\n\n",
				money.Format(rc.TotalMonthlyOverhead), rc.AnnualBillableDays, money.FormatExact(rc.OverheadPerDay))

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "ROLE\tBASE/DAY\tMARKUP\tCOST/DAY\tCLIENT/DAY\tCLIENT/HOUR\t")
			for _, r := range roles {
				title := r.Title
				if !r.IsActive {
					title += " (inactive)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
					title,
					money.Format(r.BaseCostDay),
					money.FormatPercent(r.MarkupPct),
					money.Format(r.Rates.TotalCostPerDay),
					money.Format(r.Rates.ClientDayRate),
					money.FormatExact(r.Rates.ClientHourRate))
			}
			return w.Flush()
		},
	}
}
