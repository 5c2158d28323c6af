// Package versiondiff compares two project versions deliverable by deliverable.
//
// Deliverables are matched by id, falling back to the first unmatched deliverable with an
// identical name. Line values are priced against the rate card passed in, while the net
// changes come from the totals frozen on each version.
package versiondiff

import (
	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/scope"
)

// Kind classifies a deliverable between two versions.
type Kind string

const (
	Added     Kind = "added"
	Removed   Kind = "removed"
	Changed   Kind = "changed"
	Unchanged Kind = "unchanged"
)

// Entry is the comparison of one deliverable.
type Entry struct {
	Kind             Kind    `json:"type"`
	DeliverableID    string  `json:"deliverable_id"`
	Name             string  `json:"name"`
	PhaseName        string  `json:"phase_name"`
	InvestmentBefore float64 `json:"investment_a"`
	InvestmentAfter  float64 `json:"investment_b"`
	DaysBefore       float64 `json:"days_a"`
	DaysAfter        float64 `json:"days_b"`
}

// InvestmentDelta is the rate-refreshed change in investment for the line.
func (e Entry) InvestmentDelta() float64 {
	return e.InvestmentAfter - e.InvestmentBefore
}

// DaysDelta is the change in allocated days for the line.
func (e Entry) DaysDelta() float64 {
	return e.DaysAfter - e.DaysBefore
}

// Result is the full classified comparison.
type Result struct {
	Older               int     `json:"older_version"`
	Newer               int     `json:"newer_version"`
	Entries             []Entry `json:"entries"`
	NetInvestmentChange float64 `json:"net_investment_change"`
	NetCostChange       float64 `json:"net_cost_change"`
}

// Changes returns the entries that are not unchanged.
func (r Result) Changes() []Entry {
	out := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Kind != Unchanged {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries have the given kind.
func (r Result) Count(kind Kind) int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Diff compares two versions. Argument order does not matter: the lower version number is
// always treated as the older side.
func Diff(a, b domain.ProjectVersion, roles pricing.RoleLookup, overheadPerDay float64) Result {
	older, newer := a, b
	if b.VersionNumber < a.VersionNumber {
		older, newer = b, a
	}

	olderItems := older.Snapshot.Flatten()
	newerItems := newer.Snapshot.Flatten()

	newerByID := make(map[string]int, len(newerItems))
	for i, d := range newerItems {
		if _, seen := newerByID[d.ID]; !seen {
			newerByID[d.ID] = i
		}
	}

	price := func(d scope.FlatDeliverable) (float64, float64) {
		return pricing.LineInvestment(d.RoleAllocations, roles, overheadPerDay), pricing.LineDays(d.RoleAllocations)
	}

	entries := make([]Entry, 0, len(olderItems)+len(newerItems))

	// Id matches are claimed up front so the name fallback cannot take a deliverable that
	// a later id match needs.
	matched := make([]bool, len(newerItems))
	for _, oldD := range olderItems {
		if idx, ok := newerByID[oldD.ID]; ok {
			matched[idx] = true
		}
	}

	for _, oldD := range olderItems {
		idx, ok := newerByID[oldD.ID]
		if !ok {
			idx, ok = matchByName(oldD.Name, newerItems, matched)
		}

		invA, daysA := price(oldD)
		if !ok {
			entries = append(entries, Entry{
				Kind:             Removed,
				DeliverableID:    oldD.ID,
				Name:             oldD.Name,
				PhaseName:        oldD.PhaseName,
				InvestmentBefore: invA,
				DaysBefore:       daysA,
			})
			continue
		}

		matched[idx] = true
		match := newerItems[idx]
		invB, daysB := price(match)
		kind := Unchanged
		if invA != invB || daysA != daysB {
			kind = Changed
		}
		entries = append(entries, Entry{
			Kind:             kind,
			DeliverableID:    match.ID,
			Name:             match.Name,
			PhaseName:        match.PhaseName,
			InvestmentBefore: invA,
			InvestmentAfter:  invB,
			DaysBefore:       daysA,
			DaysAfter:        daysB,
		})
	}

	for i, newD := range newerItems {
		if matched[i] {
			continue
		}
		invB, daysB := price(newD)
		entries = append(entries, Entry{
			Kind:            Added,
			DeliverableID:   newD.ID,
			Name:            newD.Name,
			PhaseName:       newD.PhaseName,
			InvestmentAfter: invB,
			DaysAfter:       daysB,
		})
	}

	return Result{
		Older:               older.VersionNumber,
		Newer:               newer.VersionNumber,
		Entries:             entries,
		NetInvestmentChange: newer.TotalInvestment - older.TotalInvestment,
		NetCostChange:       newer.TotalInternalCost - older.TotalInternalCost,
	}
}

// matchByName finds the first unmatched deliverable with the given name. With duplicate
// names this can pair the wrong deliverables.
func matchByName(name string, items []scope.FlatDeliverable, matched []bool) (int, bool) {
	for i, d := range items {
		if !matched[i] && d.Name == name {
			return i, true
		}
	}
	return 0, false
}
