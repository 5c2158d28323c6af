package export

import (
	"time"

	"github.com/Simplici0/scopeworks/internal/service"
)

// Proposal is the client-safe view of a priced version. It carries no cost, profit,
// rate or note fields, so it can be served without authentication.
type Proposal struct {
	ClientName      string          `json:"client_name"`
	ProjectName     string          `json:"project_name"`
	VersionName     string          `json:"version_name"`
	Date            time.Time       `json:"date"`
	Phases          []ProposalPhase `json:"phases"`
	TotalDays       float64         `json:"total_days"`
	TotalInvestment float64         `json:"total_investment"`
}

// ProposalPhase is one phase of a proposal with its day and investment subtotals.
type ProposalPhase struct {
	Name         string         `json:"name"`
	Deliverables []ProposalLine `json:"deliverables"`
	Days         float64        `json:"days"`
	Investment   float64        `json:"investment"`
}

// ProposalLine is a single deliverable as the client sees it.
type ProposalLine struct {
	Name       string  `json:"name"`
	Days       float64 `json:"days"`
	Investment float64 `json:"investment"`
}

// NewProposal strips a budget down to what the client sees. Empty phases are dropped.
func NewProposal(b *service.Budget) Proposal {
	p := Proposal{
		ClientName:      b.Project.ClientName,
		ProjectName:     b.Project.ProjectName,
		VersionName:     b.VersionName,
		Date:            b.VersionDate,
		Phases:          []ProposalPhase{},
		TotalDays:       b.Totals.Days,
		TotalInvestment: b.Totals.Investment,
	}
	for _, phase := range b.Phases {
		if len(phase.Deliverables) == 0 {
			continue
		}
		pp := ProposalPhase{
			Name:         phase.Name,
			Deliverables: make([]ProposalLine, 0, len(phase.Deliverables)),
			Days:         phase.Totals.Days,
			Investment:   phase.Totals.Investment,
		}
		for _, d := range phase.Deliverables {
			pp.Deliverables = append(pp.Deliverables, ProposalLine{Name: d.Name, Days: d.Totals.Days, Investment: d.Totals.Investment})
		}
		p.Phases = append(p.Phases, pp)
	}
	return p
}
