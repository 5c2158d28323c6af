package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/export"
	"github.com/Simplici0/scopeworks/internal/scope"
	"github.com/Simplici0/scopeworks/internal/service"
)

// projectFromSlug resolves the {slug} route parameter, writing the error response itself
// when the lookup fails.
func (s *server) projectFromSlug(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	project, err := s.projects.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return project, true
}

func (s *server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientName  string `json:"client_name"`
		ProjectName string `json:"project_name"`
		Slug        string `json:"slug"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	project, version, err := s.projects.Create(r.Context(), service.CreateProjectInput{
		ClientName:  req.ClientName,
		ProjectName: req.ProjectName,
		Slug:        req.Slug,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectResponse{Project: project, Version: version})
}

type projectResponse struct {
	Project *domain.Project        `json:"project"`
	Version *domain.ProjectVersion `json:"version"`
}

func (s *server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	version, err := s.projects.Version(r.Context(), project.ID, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse{Project: project, Version: version})
}

func (s *server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	var req struct {
		Status domain.ProjectStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.projects.SetStatus(r.Context(), project.ID, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleSaveScope accepts an edited scope and defers the write. Later edits to the same
// project within the autosave delay replace this one.
func (s *server) handleSaveScope(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	var snap scope.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := snap.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	projectID, slug := project.ID, project.Slug
	s.autosave.Schedule(projectID, s.autosaveDelay, func(ctx context.Context) {
		v, err := s.projects.UpdateDraft(ctx, projectID, snap)
		if err != nil {
			s.logger.Error("autosave failed", zap.String("project", slug), zap.Error(err))
			return
		}
		s.logger.Debug("autosaved",
			zap.String("project", slug),
			zap.Int("version", v.VersionNumber),
			zap.Float64("total_investment", v.TotalInvestment))
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	versions, err := s.projects.Versions(r.Context(), project.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *server) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	// A pending autosave belongs to the draft being saved.
	s.autosave.FlushID(project.ID)
	version, err := s.projects.SaveVersion(r.Context(), project.ID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (s *server) handleRevert(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	n, err := parsePositiveInt(chi.URLParam(r, "n"), "version")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.autosave.FlushID(project.ID)
	version, err := s.projects.Revert(r.Context(), project.ID, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	a, err := parsePositiveInt(query.Get("a"), "a")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := parsePositiveInt(query.Get("b"), "b")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.projects.Compare(r.Context(), project.ID, a, b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !parseFlag(query.Get("all")) {
		res.Entries = res.Changes()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) budgetFor(w http.ResponseWriter, r *http.Request, project *domain.Project) (*service.Budget, bool) {
	n, err := parseVersionNumber(r.URL.Query().Get("v"), "v")
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	budget, err := s.projects.Budget(r.Context(), project.ID, n)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return budget, true
}

func (s *server) handleBudget(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	budget, ok := s.budgetFor(w, r, project)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	kind, err := export.ParseKind(query.Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	budget, ok := s.budgetFor(w, r, project)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, budget, kind, format); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(*project, kind, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handlePublicProposal serves the client view of a version without a session. Only the
// fields of export.Proposal leave the server.
func (s *server) handlePublicProposal(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromSlug(w, r)
	if !ok {
		return
	}
	budget, ok := s.budgetFor(w, r, project)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, export.NewProposal(budget))
}
