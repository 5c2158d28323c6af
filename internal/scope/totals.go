package scope

import "github.com/Simplici0/scopeworks/internal/pricing"

// DeliverableBudget is a priced deliverable.
type DeliverableBudget struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Allocations   pricing.Allocations `json:"role_allocations"`
	InternalNotes string              `json:"internal_notes,omitempty"`
	Totals        pricing.Totals      `json:"totals"`
}

// PhaseBudget is a priced phase. Its totals are the sum of its deliverables.
type PhaseBudget struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Deliverables []DeliverableBudget `json:"deliverables"`
	Totals       pricing.Totals      `json:"totals"`
}

// Budget is a priced snapshot. Its totals are the sum of its phases.
type Budget struct {
	Phases []PhaseBudget  `json:"phases"`
	Totals pricing.Totals `json:"totals"`
}

// DeliverableTotals prices one deliverable.
func DeliverableTotals(d Deliverable, roles pricing.RoleLookup, overheadPerDay float64) pricing.Totals {
	return pricing.LineTotals(d.RoleAllocations, roles, overheadPerDay)
}

// PhaseTotals sums the deliverables of a phase.
func PhaseTotals(p Phase, roles pricing.RoleLookup, overheadPerDay float64) pricing.Totals {
	var t pricing.Totals
	for _, d := range p.Deliverables {
		t = t.Add(DeliverableTotals(d, roles, overheadPerDay))
	}
	return t
}

// SnapshotTotals sums the phases of a snapshot.
func SnapshotTotals(s Snapshot, roles pricing.RoleLookup, overheadPerDay float64) pricing.Totals {
	var t pricing.Totals
	for _, p := range s.Phases {
		t = t.Add(PhaseTotals(p, roles, overheadPerDay))
	}
	return t
}

// Price builds the full budget tree for a snapshot.
func Price(s Snapshot, roles pricing.RoleLookup, overheadPerDay float64) Budget {
	b := Budget{Phases: make([]PhaseBudget, 0, len(s.Phases))}
	for _, p := range s.Phases {
		pb := PhaseBudget{ID: p.ID, Name: p.Name, Deliverables: make([]DeliverableBudget, 0, len(p.Deliverables))}
		for _, d := range p.Deliverables {
			t := DeliverableTotals(d, roles, overheadPerDay)
			pb.Deliverables = append(pb.Deliverables, DeliverableBudget{
				ID:            d.ID,
				Name:          d.Name,
				Allocations:   d.RoleAllocations,
				InternalNotes: d.InternalNotes,
				Totals:        t,
			})
			pb.Totals = pb.Totals.Add(t)
		}
		b.Phases = append(b.Phases, pb)
		b.Totals = b.Totals.Add(pb.Totals)
	}
	return b
}
