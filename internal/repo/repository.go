package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/owleyes/internal/domain"
)

// ErrNotFound is returned when a project or monitor does not exist.
var ErrNotFound = errors.New("not found")

// Project list orderings accepted by ListProjects.
const (
	SortCreatedAt = "created_at"
	SortLabel     = "label"
	SortID        = "id"
)

// ProjectSort orders ListProjects. The zero value lists newest first. Ties
// on Field are broken by id in the same direction.
type ProjectSort struct {
	Field string
	Desc  bool
}

// Column returns the column to order by, or "" for an unknown Field.
func (s ProjectSort) Column() string {
	switch s.Field {
	case "":
		return SortCreatedAt
	case SortCreatedAt, SortLabel, SortID:
		return s.Field
	}
	return ""
}

// Direction is "ASC" or "DESC". An empty Field means newest first.
func (s ProjectSort) Direction() string {
	if s.Field == "" || s.Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy renders the SQL ORDER BY list. Column must be non-empty.
func (s ProjectSort) OrderBy() string {
	col, dir := s.Column(), s.Direction()
	if col == SortID {
		return "id " + dir
	}
	return col + " " + dir + ", id " + dir
}

// Ports (interfaces): swap in any DB adapter.

type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id domain.ProjectID) (*domain.Project, error)
	ListProjects(ctx context.Context, limit, offset int, sort ProjectSort) ([]domain.Project, error)
	CountProjects(ctx context.Context) (int, error)
	UpdateProject(ctx context.Context, p *domain.Project) error
	// DeleteProject cascades to the project's monitors and their outcomes.
	DeleteProject(ctx context.Context, id domain.ProjectID) error
}

// Catalog is the read side the scheduler pages through. Monitors come back
// ordered by (created_at, id) ascending so that paging is stable.
type Catalog interface {
	ListMonitors(ctx context.Context, limit, offset int) ([]domain.Monitor, error)
}

type MonitorStore interface {
	Catalog
	// CreateMonitor returns ErrNotFound when the owning project is missing.
	CreateMonitor(ctx context.Context, m *domain.Monitor) error
	GetMonitor(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error)
	ListMonitorsByProject(ctx context.Context, id domain.ProjectID, limit, offset int) ([]domain.Monitor, error)
	UpdateMonitor(ctx context.Context, m *domain.Monitor) error
	// DeleteMonitor cascades to the monitor's outcomes.
	DeleteMonitor(ctx context.Context, id domain.MonitorID) error
}

type ResultStore interface {
	// SaveOutcome appends an outcome and assigns its ID. Safe for concurrent use.
	SaveOutcome(ctx context.Context, o *domain.CheckOutcome) error
	// LatestOutcome returns nil, nil if the monitor has no outcome yet.
	LatestOutcome(ctx context.Context, id domain.MonitorID) (*domain.CheckOutcome, error)
	// ListOutcomes pages through a monitor's history, most recent first.
	ListOutcomes(ctx context.Context, id domain.MonitorID, limit, offset int) ([]domain.CheckOutcome, error)
}

// LatestIndex is an optional batched form of LatestOutcome.
type LatestIndex interface {
	LatestOutcomes(ctx context.Context) (map[domain.MonitorID]domain.CheckOutcome, error)
}

// Store is everything a backend provides.
type Store interface {
	ProjectStore
	MonitorStore
	ResultStore
	LatestIndex
	Close() error
}
