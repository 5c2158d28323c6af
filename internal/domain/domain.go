// Package domain holds the records the scoping tool persists.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Simplici0/scopeworks/internal/pricing"
	"github.com/Simplici0/scopeworks/internal/scope"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// User is an account allowed to sign in.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role is a staffable role on the rate card.
type Role struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	BaseCostDay float64 `json:"base_cost_day"`
	MarkupPct   float64 `json:"markup_pct"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

// Validate checks the invariants of a role record.
func (r Role) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if r.BaseCostDay < 0 {
		return fmt.Errorf("%w: base_cost_day must be greater than or equal to 0", ErrInvalidInput)
	}
	if r.MarkupPct < 0 {
		return fmt.Errorf("%w: markup_pct must be greater than or equal to 0", ErrInvalidInput)
	}
	return nil
}

// Rate projects the role onto the pricing engine's input.
func (r Role) Rate() pricing.Rate {
	return pricing.Rate{RoleID: r.ID, BaseCostDay: r.BaseCostDay, MarkupPct: r.MarkupPct}
}

// RateCard indexes roles for pricing.
func RateCard(roles []Role) pricing.RateCard {
	rates := make([]pricing.Rate, 0, len(roles))
	for _, r := range roles {
		rates = append(rates, r.Rate())
	}
	return pricing.NewRateCard(rates)
}

// OverheadCategories lists the accepted overhead item categories.
var OverheadCategories = []string{
	"subscription",
	"salary",
	"contractor",
	"workspace",
	"insurance",
	"travel",
	"equipment",
	"marketing",
	"professional",
	"training",
	"hosting",
	"telephone",
	"other",
}

// OverheadItem is one recurring monthly business cost.
type OverheadItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	MonthlyCost float64 `json:"monthly_cost"`
	Notes       string  `json:"notes"`
	SortOrder   int     `json:"sort_order"`
}

// Validate checks the invariants of an overhead item.
func (o OverheadItem) Validate() error {
	if o.MonthlyCost < 0 {
		return fmt.Errorf("%w: monthly_cost must be greater than or equal to 0", ErrInvalidInput)
	}
	for _, c := range OverheadCategories {
		if c == o.Category {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, o.Category)
}

// TotalMonthly sums the monthly cost of overhead items.
func TotalMonthly(items []OverheadItem) float64 {
	total := 0.0
	for _, i := range items {
		total += i.MonthlyCost
	}
	return total
}

// Service is a reusable deliverable template from the service library.
type Service struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Phase            string   `json:"phase" yaml:"phase"`
	Description      string   `json:"description" yaml:"description"`
	TypicalEffortMin *float64 `json:"typical_effort_min" yaml:"typical_effort_min"`
	TypicalEffortMax *float64 `json:"typical_effort_max" yaml:"typical_effort_max"`
	TypicalTeam      []string `json:"typical_team" yaml:"typical_team"`
	SortOrder        int      `json:"sort_order" yaml:"sort_order"`
	IsActive         bool     `json:"is_active" yaml:"is_active"`
}

// ProjectStatus is the commercial state of a project.
type ProjectStatus string

const (
	StatusDraft    ProjectStatus = "draft"
	StatusSent     ProjectStatus = "sent"
	StatusApproved ProjectStatus = "approved"
	StatusComplete ProjectStatus = "complete"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusComplete:
		return true
	}
	return false
}

// Project is a client engagement being scoped.
type Project struct {
	ID               string        `json:"id"`
	Slug             string        `json:"slug"`
	ClientName       string        `json:"client_name"`
	ProjectName      string        `json:"project_name"`
	Status           ProjectStatus `json:"status"`
	CurrentVersionID string        `json:"current_version_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ProjectVersion is a numbered scope snapshot with totals frozen when it was written.
type ProjectVersion struct {
	ID                string         `json:"id"`
	ProjectID         string         `json:"project_id"`
	VersionNumber     int            `json:"version_number"`
	Name              string         `json:"name"`
	Snapshot          scope.Snapshot `json:"snapshot"`
	TotalInvestment   float64        `json:"total_investment"`
	TotalInternalCost float64        `json:"total_internal_cost"`
	CreatedAt         time.Time      `json:"created_at"`
}

// VersionSummary is a version without its snapshot, as shown in version history.
type VersionSummary struct {
	ID                string    `json:"id"`
	VersionNumber     int       `json:"version_number"`
	Name              string    `json:"name"`
	TotalInvestment   float64   `json:"total_investment"`
	TotalInternalCost float64   `json:"total_internal_cost"`
	Deliverables      int       `json:"deliverables"`
	CreatedAt         time.Time `json:"created_at"`
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugEdges   = regexp.MustCompile(`^-|-$`)
)

// GenerateSlug builds a URL-safe slug from client and project names.
func GenerateSlug(clientName, projectName string) string {
	return NormalizeSlug(clientName + "-" + projectName)
}

// NormalizeSlug lowercases s and collapses anything outside [a-z0-9] to single dashes.
func NormalizeSlug(s string) string {
	s = slugInvalid.ReplaceAllString(strings.ToLower(s), "-")
	return slugEdges.ReplaceAllString(s, "")
}
