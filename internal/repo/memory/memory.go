package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

type Store struct {
	mu       sync.RWMutex
	seq      int64
	projects map[domain.ProjectID]*domain.Project
	monitors map[domain.MonitorID]*domain.Monitor
	outcomes map[domain.MonitorID][]domain.CheckOutcome
}

var _ repo.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		projects: make(map[domain.ProjectID]*domain.Project),
		monitors: make(map[domain.MonitorID]*domain.Monitor),
		outcomes: make(map[domain.MonitorID][]domain.CheckOutcome),
	}
}

func (m *Store) Close() error { return nil }

// ---- ProjectStore ----

func (m *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = domain.ProjectID(uuid.NewString())
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	m.projects[p.ID] = copyProject(p)
	return nil
}

func (m *Store) GetProject(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyProject(p), nil
}

func (m *Store) ListProjects(ctx context.Context, limit, offset int, by repo.ProjectSort) ([]domain.Project, error) {
	col := by.Column()
	if col == "" {
		return nil, fmt.Errorf("list projects: unknown sort field %q", by.Field)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		all = append(all, *copyProject(p))
	}
	desc := by.Direction() == "DESC"
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if desc {
			a, b = b, a
		}
		switch col {
		case repo.SortLabel:
			if a.Label != b.Label {
				return a.Label < b.Label
			}
		case repo.SortCreatedAt:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
	return page(all, limit, offset), nil
}

func (m *Store) CountProjects(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects), nil
}

func (m *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.projects[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	now := time.Now().UTC()
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = &now
	m.projects[p.ID] = copyProject(p)
	return nil
}

func (m *Store) DeleteProject(ctx context.Context, id domain.ProjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return repo.ErrNotFound
	}
	for mid, mon := range m.monitors {
		if mon.ProjectID == id {
			delete(m.monitors, mid)
			delete(m.outcomes, mid)
		}
	}
	delete(m.projects, id)
	return nil
}

// ---- MonitorStore ----

func (m *Store) CreateMonitor(ctx context.Context, mon *domain.Monitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[mon.ProjectID]; !ok {
		return repo.ErrNotFound
	}
	if mon.ID == "" {
		mon.ID = domain.MonitorID(uuid.NewString())
	}
	if mon.CreatedAt.IsZero() {
		mon.CreatedAt = time.Now().UTC()
	}
	m.monitors[mon.ID] = copyMonitor(mon)
	return nil
}

func (m *Store) GetMonitor(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mon, ok := m.monitors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyMonitor(mon), nil
}

func (m *Store) ListMonitors(ctx context.Context, limit, offset int) ([]domain.Monitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]domain.Monitor, 0, len(m.monitors))
	for _, mon := range m.monitors {
		all = append(all, *copyMonitor(mon))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), nil
}

func (m *Store) ListMonitorsByProject(ctx context.Context, id domain.ProjectID, limit, offset int) ([]domain.Monitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := []domain.Monitor{}
	for _, mon := range m.monitors {
		if mon.ProjectID == id {
			all = append(all, *copyMonitor(mon))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, limit, offset), nil
}

func (m *Store) UpdateMonitor(ctx context.Context, mon *domain.Monitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.monitors[mon.ID]
	if !ok {
		return repo.ErrNotFound
	}
	now := time.Now().UTC()
	mon.CreatedAt = cur.CreatedAt
	mon.ProjectID = cur.ProjectID
	mon.UpdatedAt = &now
	m.monitors[mon.ID] = copyMonitor(mon)
	return nil
}

func (m *Store) DeleteMonitor(ctx context.Context, id domain.MonitorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.monitors[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.monitors, id)
	delete(m.outcomes, id)
	return nil
}

// ---- ResultStore ----

func (m *Store) SaveOutcome(ctx context.Context, o *domain.CheckOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.monitors[o.MonitorID]; !ok {
		// monitor deleted while its check was in flight
		return repo.ErrNotFound
	}
	m.seq++
	o.ID = m.seq
	m.outcomes[o.MonitorID] = append(m.outcomes[o.MonitorID], copyOutcome(*o))
	return nil
}

func (m *Store) LatestOutcome(ctx context.Context, id domain.MonitorID) (*domain.CheckOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := latest(m.outcomes[id])
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *Store) LatestOutcomes(ctx context.Context) (map[domain.MonitorID]domain.CheckOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.MonitorID]domain.CheckOutcome, len(m.outcomes))
	for id, rows := range m.outcomes {
		if o, ok := latest(rows); ok {
			out[id] = o
		}
	}
	return out, nil
}

func (m *Store) ListOutcomes(ctx context.Context, id domain.MonitorID, limit, offset int) ([]domain.CheckOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.outcomes[id]
	all := make([]domain.CheckOutcome, 0, len(rows))
	for _, o := range rows {
		all = append(all, copyOutcome(o))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].StartTime.Equal(all[j].StartTime) {
			return all[i].StartTime.After(all[j].StartTime)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, limit, offset), nil
}

// ---- helpers ----

func latest(rows []domain.CheckOutcome) (domain.CheckOutcome, bool) {
	var cur *domain.CheckOutcome
	for i := range rows {
		r := &rows[i]
		if cur == nil || r.StartTime.After(cur.StartTime) ||
			(r.StartTime.Equal(cur.StartTime) && r.ID > cur.ID) {
			cur = r
		}
	}
	if cur == nil {
		return domain.CheckOutcome{}, false
	}
	return copyOutcome(*cur), true
}

func page[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func copyProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.Tags = slices.Clone(p.Tags)
	return &cp
}

func copyMonitor(mon *domain.Monitor) *domain.Monitor {
	cp := *mon
	if mon.Ping != nil {
		pc := *mon.Ping
		cp.Ping = &pc
	}
	if mon.Website != nil {
		wc := *mon.Website
		wc.Keywords = slices.Clone(mon.Website.Keywords)
		cp.Website = &wc
	}
	return &cp
}

func copyOutcome(o domain.CheckOutcome) domain.CheckOutcome {
	if o.ResponseTimeMS != nil {
		v := *o.ResponseTimeMS
		o.ResponseTimeMS = &v
	}
	return o
}
