package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/badge"
	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

// monitorPayload is the flat wire shape for create and update. On update only
// the fields present are changed; the type is fixed at creation.
type monitorPayload struct {
	Type            *string  `json:"type"`
	Label           *string  `json:"label"`
	BadgeLabel      *string  `json:"badge_label"`
	Periodicity     *int     `json:"periodicity"`
	Host            *string  `json:"host"`
	Port            *int     `json:"port"`
	URL             *string  `json:"url"`
	CheckStatusCode *bool    `json:"check_status_code"`
	Keywords        []string `json:"keywords"`
}

func (p monitorPayload) apply(m *domain.Monitor) {
	if p.Label != nil {
		m.Label = *p.Label
	}
	if p.BadgeLabel != nil {
		m.BadgeLabel = *p.BadgeLabel
	}
	if p.Periodicity != nil {
		m.PeriodicitySeconds = *p.Periodicity
	}
	switch m.Kind {
	case domain.KindPing:
		if m.Ping == nil {
			m.Ping = &domain.PingConfig{}
		}
		if p.Host != nil {
			m.Ping.Host = *p.Host
		}
		if p.Port != nil {
			m.Ping.Port = *p.Port
		}
	case domain.KindWebsite:
		if m.Website == nil {
			m.Website = &domain.WebsiteConfig{}
		}
		if p.URL != nil {
			m.Website.URL = *p.URL
			if isValidHTTPURL(m.Website.URL) {
				m.Website.URL = normalizeHTTPURL(m.Website.URL)
			}
		}
		if p.CheckStatusCode != nil {
			m.Website.CheckStatusCode = *p.CheckStatusCode
		}
		if p.Keywords != nil {
			m.Website.Keywords = p.Keywords
		}
	}
}

func (s *Server) handleListProjectMonitors(w http.ResponseWriter, r *http.Request) {
	id := domain.ProjectID(chi.URLParam(r, "id"))
	if _, err := s.Projects.GetProject(r.Context(), id); err != nil {
		s.fail(w, "get_project", err, "project not found")
		return
	}
	limit, offset := paging(r)
	ms, err := s.Monitors.ListMonitorsByProject(r.Context(), id, limit, offset)
	if err != nil {
		s.fail(w, "list_monitors", err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ms, "limit": limit, "offset": offset})
}

func (s *Server) handleCreateMonitor(w http.ResponseWriter, r *http.Request) {
	var in monitorPayload
	if !decode(w, r, &in) {
		return
	}
	m := &domain.Monitor{ProjectID: domain.ProjectID(chi.URLParam(r, "id"))}
	if in.Type != nil {
		m.Kind = domain.Kind(*in.Type)
	}
	if !m.Kind.Valid() {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidKind.Error())
		return
	}
	in.apply(m)
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Monitors.CreateMonitor(r.Context(), m); err != nil {
		s.fail(w, "create_monitor", err, "project not found")
		return
	}
	s.Logger.Info("monitor_created",
		zap.String("monitor_id", string(m.ID)),
		zap.String("project_id", string(m.ProjectID)),
		zap.String("type", string(m.Kind)),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"data": m, "message": "monitor created"})
}

func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := s.Monitors.GetMonitor(r.Context(), domain.MonitorID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "get_monitor", err, "monitor not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": m})
}

func (s *Server) handleUpdateMonitor(w http.ResponseWriter, r *http.Request) {
	var in monitorPayload
	if !decode(w, r, &in) {
		return
	}
	m, err := s.Monitors.GetMonitor(r.Context(), domain.MonitorID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "get_monitor", err, "monitor not found")
		return
	}
	if in.Type != nil && domain.Kind(*in.Type) != m.Kind {
		writeError(w, http.StatusBadRequest, "monitor type cannot be changed")
		return
	}
	in.apply(m)
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Monitors.UpdateMonitor(r.Context(), m); err != nil {
		s.fail(w, "update_monitor", err, "monitor not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": m, "message": "monitor updated"})
}

func (s *Server) handleDeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id := domain.MonitorID(chi.URLParam(r, "id"))
	if err := s.Monitors.DeleteMonitor(r.Context(), id); err != nil {
		s.fail(w, "delete_monitor", err, "monitor not found")
		return
	}
	s.Logger.Info("monitor_deleted", zap.String("monitor_id", string(id)))
	writeJSON(w, http.StatusOK, map[string]any{"message": "monitor deleted"})
}

func (s *Server) handleMonitorStatus(w http.ResponseWriter, r *http.Request) {
	m, err := s.Monitors.GetMonitor(r.Context(), domain.MonitorID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "get_monitor", err, "monitor not found")
		return
	}
	limit, offset := paging(r)
	outcomes, err := s.Results.ListOutcomes(r.Context(), m.ID, limit, offset)
	if err != nil {
		s.fail(w, "list_outcomes", err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":    outcomes,
		"monitor": m,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleMonitorBadge(w http.ResponseWriter, r *http.Request) {
	m, err := s.Monitors.GetMonitor(r.Context(), domain.MonitorID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "get_monitor", err, "monitor not found")
		return
	}
	latest, err := s.Results.LatestOutcome(r.Context(), m.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.fail(w, "latest_outcome", err, "")
		return
	}
	up := latest != nil && latest.Success

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(badge.Status(m.BadgeLabel, up))
}
