// Package sqlite is a single-file Store for small deployments. Timestamps are
// kept as unix nanoseconds so ordering works on plain integers.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

//go:embed migrations.sql
var migrationsFS embed.FS

var _ repo.Store = (*Store)(nil)

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	// pragmas in the DSN apply to every connection the pool opens
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, log: log}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("sqlite store ready", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
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
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects(id, label, description, tags, created_at) VALUES(?,?,?,?,?)`,
		string(p.ID), p.Label, nullStr(p.Description), string(tags), p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

const projectCols = `id, label, COALESCE(description, ''), tags, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var (
		p         domain.Project
		id, tags  string
		created   int64
		updatedAt sql.NullInt64
	)
	if err := row.Scan(&id, &p.Label, &p.Description, &tags, &created, &updatedAt); err != nil {
		return nil, err
	}
	p.ID = domain.ProjectID(id)
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = nullTime(updatedAt)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &p, nil
}

func (s *Store) GetProject(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectCols+` FROM projects ORDER BY `+by.OrderBy()+` LIMIT ? OFFSET ?`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) CountProjects(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	var created int64
	err = s.db.QueryRowContext(ctx,
		`UPDATE projects SET label = ?, description = ?, tags = ?, updated_at = ?
		  WHERE id = ? RETURNING created_at`,
		p.Label, nullStr(p.Description), string(tags), now.UnixNano(), string(p.ID),
	).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = &now
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id domain.ProjectID) error {
	return s.deleteByID(ctx, `DELETE FROM projects WHERE id = ?`, string(id))
}

// ---- MonitorStore ----

const monitorCols = `id, project_id, type, label, badge_label, periodicity,
       host, port, url, check_status, keywords, created_at, updated_at`

func scanMonitor(row interface{ Scan(...any) error }) (*domain.Monitor, error) {
	var (
		m                   domain.Monitor
		id, projectID, kind string
		host, url           sql.NullString
		port                sql.NullInt64
		checkStatus         bool
		keywords            string
		created             int64
		updatedAt           sql.NullInt64
	)
	if err := row.Scan(&id, &projectID, &kind, &m.Label, &m.BadgeLabel, &m.PeriodicitySeconds,
		&host, &port, &url, &checkStatus, &keywords, &created, &updatedAt); err != nil {
		return nil, err
	}
	m.ID = domain.MonitorID(id)
	m.ProjectID = domain.ProjectID(projectID)
	m.Kind = domain.Kind(kind)
	m.CreatedAt = fromNanos(created)
	m.UpdatedAt = nullTime(updatedAt)
	switch m.Kind {
	case domain.KindPing:
		m.Ping = &domain.PingConfig{Host: host.String, Port: int(port.Int64)}
	case domain.KindWebsite:
		wc := &domain.WebsiteConfig{URL: url.String, CheckStatusCode: checkStatus, Keywords: []string{}}
		if err := json.Unmarshal([]byte(keywords), &wc.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
		m.Website = wc
	}
	return &m, nil
}

type monitorRow struct {
	host, url   any
	port        any
	checkStatus bool
	keywords    string
}

func toRow(m *domain.Monitor) (monitorRow, error) {
	r := monitorRow{keywords: "[]"}
	if m.Ping != nil {
		r.host, r.port = m.Ping.Host, m.Ping.Port
	}
	if m.Website != nil {
		r.url, r.checkStatus = m.Website.URL, m.Website.CheckStatusCode
		if len(m.Website.Keywords) > 0 {
			b, err := json.Marshal(m.Website.Keywords)
			if err != nil {
				return r, err
			}
			r.keywords = string(b)
		}
	}
	return r, nil
}

func (s *Store) CreateMonitor(ctx context.Context, m *domain.Monitor) error {
	if m.ID == "" {
		m.ID = domain.MonitorID(uuid.NewString())
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r, err := toRow(m)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO monitors(id, project_id, type, label, badge_label, periodicity,
		                      host, port, url, check_status, keywords, created_at)
		 SELECT ?,?,?,?,?,?,?,?,?,?,?,?
		  WHERE EXISTS (SELECT 1 FROM projects WHERE id = ?)`,
		string(m.ID), string(m.ProjectID), string(m.Kind), m.Label, m.BadgeLabel, m.PeriodicitySeconds,
		r.host, r.port, r.url, r.checkStatus, r.keywords, m.CreatedAt.UnixNano(),
		string(m.ProjectID),
	)
	if err != nil {
		return fmt.Errorf("insert monitor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) GetMonitor(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	m, err := scanMonitor(s.db.QueryRowContext(ctx,
		`SELECT `+monitorCols+` FROM monitors WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	return m, nil
}

func (s *Store) ListMonitors(ctx context.Context, limit, offset int) ([]domain.Monitor, error) {
	return s.queryMonitors(ctx,
		`SELECT `+monitorCols+` FROM monitors ORDER BY created_at, id LIMIT ? OFFSET ?`,
		limitArg(limit), offset)
}

func (s *Store) ListMonitorsByProject(ctx context.Context, id domain.ProjectID, limit, offset int) ([]domain.Monitor, error) {
	return s.queryMonitors(ctx,
		`SELECT `+monitorCols+` FROM monitors WHERE project_id = ?
		  ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		string(id), limitArg(limit), offset)
}

func (s *Store) queryMonitors(ctx context.Context, q string, args ...any) ([]domain.Monitor, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	out := []domain.Monitor{}
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMonitor(ctx context.Context, m *domain.Monitor) error {
	now := time.Now().UTC()
	r, err := toRow(m)
	if err != nil {
		return err
	}
	var (
		projectID string
		created   int64
	)
	err = s.db.QueryRowContext(ctx,
		`UPDATE monitors
		    SET label = ?, badge_label = ?, periodicity = ?,
		        host = ?, port = ?, url = ?, check_status = ?, keywords = ?, updated_at = ?
		  WHERE id = ?
		RETURNING project_id, created_at`,
		m.Label, m.BadgeLabel, m.PeriodicitySeconds,
		r.host, r.port, r.url, r.checkStatus, r.keywords, now.UnixNano(), string(m.ID),
	).Scan(&projectID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}
	m.ProjectID = domain.ProjectID(projectID)
	m.CreatedAt = fromNanos(created)
	m.UpdatedAt = &now
	return nil
}

func (s *Store) DeleteMonitor(ctx context.Context, id domain.MonitorID) error {
	return s.deleteByID(ctx, `DELETE FROM monitors WHERE id = ?`, string(id))
}

// ---- ResultStore ----

func (s *Store) SaveOutcome(ctx context.Context, o *domain.CheckOutcome) error {
	if o.StartTime.IsZero() {
		o.StartTime = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO monitor_statuses(monitor_id, start_time, status, response_time)
		 SELECT ?,?,?,?
		  WHERE EXISTS (SELECT 1 FROM monitors WHERE id = ?)`,
		string(o.MonitorID), o.StartTime.UnixNano(), o.Success, o.ResponseTimeMS, string(o.MonitorID),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("outcome id: %w", err)
	}
	o.ID = id
	return nil
}

const outcomeCols = `id, monitor_id, start_time, status, response_time`

func scanOutcome(row interface{ Scan(...any) error }) (domain.CheckOutcome, error) {
	var (
		o         domain.CheckOutcome
		monitorID string
		start     int64
		rt        sql.NullInt64
	)
	if err := row.Scan(&o.ID, &monitorID, &start, &o.Success, &rt); err != nil {
		return o, err
	}
	o.MonitorID = domain.MonitorID(monitorID)
	o.StartTime = fromNanos(start)
	if rt.Valid {
		v := rt.Int64
		o.ResponseTimeMS = &v
	}
	return o, nil
}

func (s *Store) LatestOutcome(ctx context.Context, id domain.MonitorID) (*domain.CheckOutcome, error) {
	o, err := scanOutcome(s.db.QueryRowContext(ctx,
		`SELECT `+outcomeCols+` FROM monitor_statuses WHERE monitor_id = ?
		  ORDER BY start_time DESC, id DESC LIMIT 1`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest outcome: %w", err)
	}
	return &o, nil
}

func (s *Store) LatestOutcomes(ctx context.Context) (map[domain.MonitorID]domain.CheckOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+outcomeCols+` FROM (
  SELECT `+outcomeCols+`,
         ROW_NUMBER() OVER (PARTITION BY monitor_id ORDER BY start_time DESC, id DESC) AS rn
    FROM monitor_statuses
) WHERE rn = 1`)
	if err != nil {
		return nil, fmt.Errorf("latest outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.MonitorID]domain.CheckOutcome)
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out[o.MonitorID] = o
	}
	return out, rows.Err()
}

func (s *Store) ListOutcomes(ctx context.Context, id domain.MonitorID, limit, offset int) ([]domain.CheckOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+outcomeCols+` FROM monitor_statuses WHERE monitor_id = ?
		  ORDER BY start_time DESC, id DESC LIMIT ? OFFSET ?`,
		string(id), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	out := []domain.CheckOutcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ---- helpers ----

func (s *Store) deleteByID(ctx context.Context, q, id string) error {
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// limitArg maps a non-positive limit to -1, which SQLite reads as no limit.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func fromNanos(v int64) time.Time { return time.Unix(0, v).UTC() }

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromNanos(v.Int64)
	return &t
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
