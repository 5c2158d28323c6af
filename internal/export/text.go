package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Simplici0/scopeworks/internal/money"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/service"
)

// ClientProposal writes the client-facing scope: deliverables with days and investment.
// Internal cost, profit and notes never appear.
func ClientProposal(w io.Writer, b *service.Budget) error {
	p := NewProposal(b)
	ew := &errWriter{w: w}
	ew.printf("PROJECT PROPOSAL\n%s\n%s\n%s\n\n", p.ProjectName, p.ClientName, header(b))
	ew.printf("SCOPE OF WORK\n")

	for _, phase := range p.Phases {
		ew.printf("\n%s\n", phase.Name)
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Deliverable\tDays\tInvestment\t")
		for _, d := range phase.Deliverables {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", d.Name, daysOrDash(d.Days), money.FormatExact(d.Investment))
		}
		fmt.Fprintf(tw, "%s subtotal\t%s\t%s\t\n", phase.Name, daysOrDash(phase.Days), money.FormatExact(phase.Investment))
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("write proposal phase %s: %w", phase.Name, err)
		}
	}

	ew.printf("\nINVESTMENT SUMMARY\n")
	ew.printf("Total investment: %s\n", money.FormatExact(p.TotalInvestment))
	ew.printf("Total days: %s\n", daysOrDash(p.TotalDays))
	ew.printf("\nAll prices are in GBP and exclude VAT. This proposal is valid for 30 days from the date above.\n")
	return ew.err
}

// InternalBudget writes the confidential budget: hours per role, cost, profit and notes.
func InternalBudget(w io.Writer, b *service.Budget) error {
	ew := &errWriter{w: w}
	ew.printf("INTERNAL PROJECT BUDGET (confidential)\n%s\n%s\n%s\n\n", b.Project.ProjectName, b.Project.ClientName, header(b))

	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total internal cost\t%s\n", money.FormatExact(b.Totals.InternalCost))
	fmt.Fprintf(tw, "Client investment\t%s\n", money.FormatExact(b.Totals.Investment))
	fmt.Fprintf(tw, "Gross profit\t%s\n", money.FormatExact(b.GrossProfit))
	fmt.Fprintf(tw, "Profit margin\t%s (%s)\n", money.FormatMargin(b.Margin), b.Band)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write budget summary: %w", err)
	}

	ew.printf("\nRATE CARD  overhead %s/day over %d billable days\n",
		money.FormatExact(b.RateContext.OverheadPerDay), b.RateContext.AnnualBillableDays)
	tw = tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Role\tBase/day\tCost/day\tMarkup\tDay rate\tHour rate\t")
	for _, r := range b.Roles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Title,
			money.FormatExact(r.BaseCostDay),
			money.FormatExact(r.Rates.TotalCostPerDay),
			money.FormatPercent(r.MarkupPct),
			money.FormatExact(r.Rates.ClientDayRate),
			money.FormatExact(r.Rates.ClientHourRate),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write rate card: %w", err)
	}

	roleHeads := make([]string, 0, len(b.Roles))
	for _, r := range b.Roles {
		roleHeads = append(roleHeads, money.AbbreviateRole(r.Title)+" hrs")
	}

	for _, phase := range b.Phases {
		if len(phase.Deliverables) == 0 {
			continue
		}
		ew.printf("\n%s\n", phase.Name)
		tw = tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Deliverable\t%s\tHours\tCost\tInvestment\tNotes\n", strings.Join(roleHeads, "\t"))
		for _, d := range phase.Deliverables {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.Name,
				strings.Join(roleHours(b, d.Allocations), "\t"),
				money.FormatDays(d.Totals.Hours),
				amountOrBlank(d.Totals.InternalCost),
				amountOrBlank(d.Totals.Investment),
				oneLine(d.InternalNotes),
			)
		}
		fmt.Fprintf(tw, "%s total\t%s\t%s\t%s\t%s\t\n",
			phase.Name,
			strings.Join(phaseRoleHours(b, phase.Deliverables), "\t"),
			money.FormatDays(phase.Totals.Hours),
			money.FormatExact(phase.Totals.InternalCost),
			money.FormatExact(phase.Totals.Investment),
		)
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("write budget phase %s: %w", phase.Name, err)
		}
	}
	return ew.err
}

func roleHours(b *service.Budget, alloc pricing.Allocations) []string {
	out := make([]string, 0, len(b.Roles))
	for _, r := range b.Roles {
		out = append(out, money.FormatDays(alloc[r.ID]*pricing.HoursPerDay))
	}
	return out
}

func phaseRoleHours(b *service.Budget, ds []scope.DeliverableBudget) []string {
	sum := make(pricing.Allocations, len(b.Roles))
	for _, d := range ds {
		for _, r := range b.Roles {
			sum[r.ID] += d.Allocations[r.ID]
		}
	}
	return roleHours(b, sum)
}

func daysOrDash(v float64) string {
	if s := money.FormatDays(v); s != "" {
		return s
	}
	return "-"
}

func amountOrBlank(v float64) string {
	if v > 0 {
		return money.FormatExact(v)
	}
	return ""
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// errWriter keeps the first write error so rendering can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}
