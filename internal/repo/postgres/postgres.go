package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

//go:embed schema.sql
var schemaSQL string

var _ repo.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- ProjectStore ----

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = domain.ProjectID(uuid.NewString())
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, label, description, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(p.ID), p.Label, nullStr(p.Description), p.Tags, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

const projectCols = `id, label, COALESCE(description, ''), tags, created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p  domain.Project
		id string
	)
	if err := row.Scan(&id, &p.Label, &p.Description, &p.Tags, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = domain.ProjectID(id)
	return &p, nil
}

func (s *Store) GetProject(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, limit, offset int, by repo.ProjectSort) ([]domain.Project, error) {
	if by.Column() == "" {
		return nil, fmt.Errorf("list projects: unknown sort field %q", by.Field)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectCols+`
		   FROM projects
		  ORDER BY `+by.OrderBy()+`
		  LIMIT $1 OFFSET $2`, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) CountProjects(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE projects
		    SET label = $2, description = $3, tags = $4, updated_at = $5
		  WHERE id = $1
		RETURNING created_at`,
		string(p.ID), p.Label, nullStr(p.Description), p.Tags, now,
	).Scan(&p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	p.UpdatedAt = &now
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id domain.ProjectID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- MonitorStore ----

const monitorCols = `id, project_id, type, label, badge_label, periodicity,
       host, port, url, check_status, keywords, created_at, updated_at`

func scanMonitor(row pgx.Row) (*domain.Monitor, error) {
	var (
		id, projectID, kind string
		host, url           *string
		port                *int
		checkStatus         bool
		keywords            []string
		m                   domain.Monitor
	)
	if err := row.Scan(&id, &projectID, &kind, &m.Label, &m.BadgeLabel, &m.PeriodicitySeconds,
		&host, &port, &url, &checkStatus, &keywords, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.ID = domain.MonitorID(id)
	m.ProjectID = domain.ProjectID(projectID)
	m.Kind = domain.Kind(kind)
	switch m.Kind {
	case domain.KindPing:
		pc := domain.PingConfig{}
		if host != nil {
			pc.Host = *host
		}
		if port != nil {
			pc.Port = *port
		}
		m.Ping = &pc
	case domain.KindWebsite:
		wc := domain.WebsiteConfig{CheckStatusCode: checkStatus, Keywords: keywords}
		if url != nil {
			wc.URL = *url
		}
		if wc.Keywords == nil {
			wc.Keywords = []string{}
		}
		m.Website = &wc
	}
	return &m, nil
}

// monitorArgs flattens the tagged variant into nullable columns.
func monitorArgs(m *domain.Monitor) (host, url any, port any, checkStatus bool, keywords []string) {
	keywords = []string{}
	if m.Ping != nil {
		host, port = m.Ping.Host, m.Ping.Port
	}
	if m.Website != nil {
		url, checkStatus = m.Website.URL, m.Website.CheckStatusCode
		if m.Website.Keywords != nil {
			keywords = m.Website.Keywords
		}
	}
	return
}

func (s *Store) CreateMonitor(ctx context.Context, m *domain.Monitor) error {
	if m.ID == "" {
		m.ID = domain.MonitorID(uuid.NewString())
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	host, url, port, checkStatus, keywords := monitorArgs(m)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO monitors
		   (id, project_id, type, label, badge_label, periodicity, host, port, url, check_status, keywords, created_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(m.ID), string(m.ProjectID), string(m.Kind), m.Label, m.BadgeLabel, m.PeriodicitySeconds,
		host, port, url, checkStatus, keywords, m.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert monitor: %w", err)
	}
	return nil
}

func (s *Store) GetMonitor(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	m, err := scanMonitor(s.pool.QueryRow(ctx,
		`SELECT `+monitorCols+` FROM monitors WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	return m, nil
}

func (s *Store) ListMonitors(ctx context.Context, limit, offset int) ([]domain.Monitor, error) {
	return s.queryMonitors(ctx,
		`SELECT `+monitorCols+`
		   FROM monitors
		  ORDER BY created_at, id
		  LIMIT $1 OFFSET $2`, limitArg(limit), offset)
}

func (s *Store) ListMonitorsByProject(ctx context.Context, id domain.ProjectID, limit, offset int) ([]domain.Monitor, error) {
	return s.queryMonitors(ctx,
		`SELECT `+monitorCols+`
		   FROM monitors
		  WHERE project_id = $3
		  ORDER BY created_at DESC, id DESC
		  LIMIT $1 OFFSET $2`, limitArg(limit), offset, string(id))
}

func (s *Store) queryMonitors(ctx context.Context, q string, args ...any) ([]domain.Monitor, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	out := []domain.Monitor{}
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMonitor(ctx context.Context, m *domain.Monitor) error {
	now := time.Now().UTC()
	host, url, port, checkStatus, keywords := monitorArgs(m)
	var projectID string
	err := s.pool.QueryRow(ctx,
		`UPDATE monitors
		    SET label = $2, badge_label = $3, periodicity = $4,
		        host = $5, port = $6, url = $7, check_status = $8, keywords = $9,
		        updated_at = $10
		  WHERE id = $1
		RETURNING project_id, created_at`,
		string(m.ID), m.Label, m.BadgeLabel, m.PeriodicitySeconds,
		host, port, url, checkStatus, keywords, now,
	).Scan(&projectID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}
	m.ProjectID = domain.ProjectID(projectID)
	m.UpdatedAt = &now
	return nil
}

func (s *Store) DeleteMonitor(ctx context.Context, id domain.MonitorID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- ResultStore ----

func (s *Store) SaveOutcome(ctx context.Context, o *domain.CheckOutcome) error {
	if o.StartTime.IsZero() {
		o.StartTime = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO monitor_statuses (monitor_id, start_time, status, response_time)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		string(o.MonitorID), o.StartTime, o.Success, o.ResponseTimeMS,
	).Scan(&o.ID)
	if isForeignKeyViolation(err) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func scanOutcome(row pgx.Row) (domain.CheckOutcome, error) {
	var (
		o         domain.CheckOutcome
		monitorID string
	)
	if err := row.Scan(&o.ID, &monitorID, &o.StartTime, &o.Success, &o.ResponseTimeMS); err != nil {
		return o, err
	}
	o.MonitorID = domain.MonitorID(monitorID)
	return o, nil
}

func (s *Store) LatestOutcome(ctx context.Context, id domain.MonitorID) (*domain.CheckOutcome, error) {
	o, err := scanOutcome(s.pool.QueryRow(ctx,
		`SELECT id, monitor_id, start_time, status, response_time
		   FROM monitor_statuses
		  WHERE monitor_id = $1
		  ORDER BY start_time DESC, id DESC
		  LIMIT 1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // no outcome yet
	}
	if err != nil {
		return nil, fmt.Errorf("latest outcome: %w", err)
	}
	return &o, nil
}

func (s *Store) LatestOutcomes(ctx context.Context) (map[domain.MonitorID]domain.CheckOutcome, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (monitor_id)
       id, monitor_id, start_time, status, response_time
  FROM monitor_statuses
 ORDER BY monitor_id, start_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.MonitorID]domain.CheckOutcome)
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		out[o.MonitorID] = o
	}
	return out, rows.Err()
}

func (s *Store) ListOutcomes(ctx context.Context, id domain.MonitorID, limit, offset int) ([]domain.CheckOutcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, monitor_id, start_time, status, response_time
		   FROM monitor_statuses
		  WHERE monitor_id = $1
		  ORDER BY start_time DESC, id DESC
		  LIMIT $2 OFFSET $3`, string(id), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	out := []domain.CheckOutcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// limitArg maps a non-positive limit to NULL, which Postgres reads as no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
