package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

type projectPayload struct {
	Label       *string  `json:"label"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func (p projectPayload) apply(dst *domain.Project) {
	if p.Label != nil {
		dst.Label = *p.Label
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Tags != nil {
		dst.Tags = p.Tags
	}
}

// projectSort reads ?sortBy=label|createdAt|id&sortOrder=asc|desc. An
// explicit sortBy defaults to ascending.
func projectSort(r *http.Request) (repo.ProjectSort, bool) {
	q := r.URL.Query()
	by := strings.TrimSpace(q.Get("sortBy"))
	if by == "" {
		return repo.ProjectSort{}, true
	}
	switch strings.ToLower(by) {
	case "createdat", "created_at":
		by = repo.SortCreatedAt
	default:
		by = strings.ToLower(by)
	}
	sort := repo.ProjectSort{Field: by, Desc: strings.EqualFold(q.Get("sortOrder"), "desc")}
	return sort, sort.Column() != ""
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	sort, ok := projectSort(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sortBy must be one of label, createdAt, id")
		return
	}
	ps, err := s.Projects.ListProjects(r.Context(), limit, offset, sort)
	if err != nil {
		s.fail(w, "list_projects", err, "")
		return
	}
	count, err := s.Projects.CountProjects(r.Context())
	if err != nil {
		s.fail(w, "count_projects", err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ps, "count": count, "limit": limit, "offset": offset})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in projectPayload
	if !decode(w, r, &in) {
		return
	}
	p := &domain.Project{Tags: []string{}}
	in.apply(p)
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Projects.CreateProject(r.Context(), p); err != nil {
		s.fail(w, "create_project", err, "project not found")
		return
	}
	s.Logger.Info("project_created", zap.String("project_id", string(p.ID)))
	writeJSON(w, http.StatusCreated, map[string]any{"data": p, "message": "project created"})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.Projects.GetProject(r.Context(), domain.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "get_project", err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var in projectPayload
	if !decode(w, r, &in) {
		return
	}
	p, err := s.Projects.GetProject(r.Context(), domain.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "get_project", err, "project not found")
		return
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Projects.UpdateProject(r.Context(), p); err != nil {
		s.fail(w, "update_project", err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p, "message": "project updated"})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := domain.ProjectID(chi.URLParam(r, "id"))
	if err := s.Projects.DeleteProject(r.Context(), id); err != nil {
		s.fail(w, "delete_project", err, "project not found")
		return
	}
	s.Logger.Info("project_deleted", zap.String("project_id", string(id)))
	writeJSON(w, http.StatusOK, map[string]any{"message": "project deleted"})
}
