package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/scopeworks/internal/domain"
)

type roleRequest struct {
	Title       string  `json:"title"`
	BaseCostDay float64 `json:"base_cost_day"`
	MarkupPct   float64 `json:"markup_pct"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

func (req roleRequest) role(id string) domain.Role {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return domain.Role{
		ID:          id,
		Title:       req.Title,
		BaseCostDay: req.BaseCostDay,
		MarkupPct:   req.MarkupPct,
		SortOrder:   req.SortOrder,
		IsActive:    active,
	}
}

func (s *server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.catalog.ListRoles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (s *server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := s.catalog.CreateRole(r.Context(), req.role(""))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (s *server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := s.catalog.UpdateRole(r.Context(), req.role(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (s *server) handleGetOverhead(w http.ResponseWriter, r *http.Request) {
	summary, err := s.catalog.Overhead(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleCreateOverhead(w http.ResponseWriter, r *http.Request) {
	var item domain.OverheadItem
	if err := decodeJSON(w, r, &item); err != nil {
		s.writeError(w, r, err)
		return
	}
	item.ID = ""
	created, err := s.catalog.CreateOverhead(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleUpdateOverhead(w http.ResponseWriter, r *http.Request) {
	var item domain.OverheadItem
	if err := decodeJSON(w, r, &item); err != nil {
		s.writeError(w, r, err)
		return
	}
	item.ID = chi.URLParam(r, "id")
	updated, err := s.catalog.UpdateOverhead(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleDeleteOverhead(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteOverhead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetBillableDays(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnnualBillableDays int `json:"annual_billable_days"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	stored, err := s.catalog.SetBillableDays(r.Context(), req.AnnualBillableDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"annual_billable_days": stored})
}

func (s *server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListServices(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}
