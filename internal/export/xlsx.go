package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/scopeworks/internal/money"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/service"
)

const (
	budgetSheet = "Budget"
	ratesSheet  = "Rate card"
)

// InternalBudgetXLSX writes the internal budget as a workbook with a budget sheet and a
// rate card sheet. Amounts are rounded to pence.
func InternalBudgetXLSX(w io.Writer, b *service.Budget) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", budgetSheet); err != nil {
		return fmt.Errorf("rename budget sheet: %w", err)
	}
	if _, err := f.NewSheet(ratesSheet); err != nil {
		return fmt.Errorf("create rate card sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create total style: %w", err)
	}

	sw := &sheetWriter{f: f, sheet: budgetSheet}
	sw.row(b.Project.ProjectName)
	sw.row(b.Project.ClientName)
	sw.row(header(b))
	sw.row()
	sw.row("Total internal cost", money.Round(b.Totals.InternalCost, 2))
	sw.row("Client investment", money.Round(b.Totals.Investment, 2))
	sw.row("Gross profit", money.Round(b.GrossProfit, 2))
	sw.row("Profit margin %", money.Round(b.Margin, 1), string(b.Band))

	head := []any{"Phase", "Deliverable"}
	for _, r := range b.Roles {
		head = append(head, money.AbbreviateRole(r.Title)+" hrs")
	}
	head = append(head, "Hours", "Cost", "Investment", "Notes")

	for _, phase := range b.Phases {
		if len(phase.Deliverables) == 0 {
			continue
		}
		sw.row()
		sw.styled(headerStyle, head...)
		for _, d := range phase.Deliverables {
			cells := []any{phase.Name, d.Name}
			for _, r := range b.Roles {
				cells = append(cells, d.Allocations[r.ID]*pricing.HoursPerDay)
			}
			cells = append(cells, d.Totals.Hours, money.Round(d.Totals.InternalCost, 2), money.Round(d.Totals.Investment, 2), d.InternalNotes)
			sw.row(cells...)
		}
		total := []any{phase.Name + " total", ""}
		for range b.Roles {
			total = append(total, "")
		}
		total = append(total, phase.Totals.Hours, money.Round(phase.Totals.InternalCost, 2), money.Round(phase.Totals.Investment, 2))
		sw.styled(totalStyle, total...)
	}

	rw := &sheetWriter{f: f, sheet: ratesSheet}
	rw.row("Overhead per day", money.Round(b.RateContext.OverheadPerDay, 2))
	rw.row("Annual billable days", b.RateContext.AnnualBillableDays)
	rw.row()
	rw.styled(headerStyle, "Role", "Base cost/day", "Total cost/day", "Markup %", "Client day rate", "Client hour rate")
	for _, r := range b.Roles {
		rw.row(r.Title,
			money.Round(r.BaseCostDay, 2),
			money.Round(r.Rates.TotalCostPerDay, 2),
			money.Round(r.MarkupPct*100, 1),
			money.Round(r.Rates.ClientDayRate, 2),
			money.Round(r.Rates.ClientHourRate, 2),
		)
	}

	if sw.err != nil {
		return sw.err
	}
	if rw.err != nil {
		return rw.err
	}
	if err := f.SetColWidth(budgetSheet, "A", "B", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(ratesSheet, "A", "A", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (s *sheetWriter) row(cells ...any) int {
	s.next++
	if s.err != nil || len(cells) == 0 {
		return s.next
	}
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		s.err = fmt.Errorf("convert coordinates: %w", err)
		return s.next
	}
	if err := s.f.SetSheetRow(s.sheet, cell, &cells); err != nil {
		s.err = fmt.Errorf("set %s row %d: %w", s.sheet, s.next, err)
	}
	return s.next
}

func (s *sheetWriter) styled(style int, cells ...any) {
	r := s.row(cells...)
	if s.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(len(cells), r)
	if err := s.f.SetCellStyle(s.sheet, first, last, style); err != nil {
		s.err = fmt.Errorf("style %s row %d: %w", s.sheet, r, err)
	}
}
