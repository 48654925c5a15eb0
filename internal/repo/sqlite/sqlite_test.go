package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "owleyes.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store) (*domain.Project, *domain.Monitor) {
	t.Helper()
	ctx := context.Background()
	p := &domain.Project{Label: "shop", Description: "store front", Tags: []string{"prod"}}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	m := &domain.Monitor{
		ProjectID:          p.ID,
		Kind:               domain.KindPing,
		Label:              "db",
		BadgeLabel:         "db",
		PeriodicitySeconds: 10,
		Ping:               &domain.PingConfig{Host: "127.0.0.1", Port: 5432},
	}
	if err := s.CreateMonitor(ctx, m); err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	return p, m
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  ", zap.NewNop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSQLiteStore_ProjectRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p, _ := seed(t, s)

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Description != "store front" || len(got.Tags) != 1 || got.Tags[0] != "prod" {
		t.Fatalf("unexpected project: %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("created_at drifted: %v vs %v", got.CreatedAt, p.CreatedAt)
	}

	got.Label = "renamed"
	if err := s.UpdateProject(ctx, got); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if got.UpdatedAt == nil {
		t.Fatal("expected updated_at")
	}

	if err := s.UpdateProject(ctx, &domain.Project{ID: "missing", Label: "x"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_MonitorVariants(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p, ping := seed(t, s)

	web := &domain.Monitor{
		ProjectID:          p.ID,
		Kind:               domain.KindWebsite,
		Label:              "home",
		BadgeLabel:         "home",
		PeriodicitySeconds: 30,
		Website:            &domain.WebsiteConfig{URL: "https://example.com", CheckStatusCode: true, Keywords: []string{"a", "b"}},
	}
	if err := s.CreateMonitor(ctx, web); err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}

	gotPing, err := s.GetMonitor(ctx, ping.ID)
	if err != nil {
		t.Fatalf("GetMonitor: %v", err)
	}
	if gotPing.Ping == nil || gotPing.Ping.Port != 5432 || gotPing.Website != nil {
		t.Fatalf("ping variant mangled: %+v", gotPing)
	}

	gotWeb, err := s.GetMonitor(ctx, web.ID)
	if err != nil {
		t.Fatalf("GetMonitor: %v", err)
	}
	if gotWeb.Website == nil || !gotWeb.Website.CheckStatusCode || len(gotWeb.Website.Keywords) != 2 {
		t.Fatalf("website variant mangled: %+v", gotWeb.Website)
	}

	orphan := &domain.Monitor{ProjectID: "nope", Kind: domain.KindPing, Label: "x", BadgeLabel: "x",
		PeriodicitySeconds: 5, Ping: &domain.PingConfig{Host: "h", Port: 1}}
	if err := s.CreateMonitor(ctx, orphan); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown project, got %v", err)
	}
}

func TestSQLiteStore_OutcomesAndCascade(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p, m := seed(t, s)

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	rt := int64(17)
	for i := 0; i < 3; i++ {
		o := &domain.CheckOutcome{MonitorID: m.ID, StartTime: base.Add(time.Duration(i) * time.Minute), Success: i == 2}
		if i == 2 {
			o.ResponseTimeMS = &rt
		}
		if err := s.SaveOutcome(ctx, o); err != nil {
			t.Fatalf("SaveOutcome: %v", err)
		}
	}

	latest, err := s.LatestOutcome(ctx, m.ID)
	if err != nil || latest == nil {
		t.Fatalf("LatestOutcome: %+v %v", latest, err)
	}
	if !latest.Success || !latest.StartTime.Equal(base.Add(2*time.Minute)) || latest.ResponseTimeMS == nil || *latest.ResponseTimeMS != 17 {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	idx, err := s.LatestOutcomes(ctx)
	if err != nil || len(idx) != 1 || idx[m.ID].ID != latest.ID {
		t.Fatalf("LatestOutcomes: %+v %v", idx, err)
	}

	all, err := s.ListOutcomes(ctx, m.ID, 0, 0)
	if err != nil || len(all) != 3 || all[2].ResponseTimeMS != nil {
		t.Fatalf("ListOutcomes: %+v %v", all, err)
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := s.GetMonitor(ctx, m.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("monitor should cascade away, got %v", err)
	}
	if o, _ := s.LatestOutcome(ctx, m.ID); o != nil {
		t.Fatalf("outcomes should cascade away, got %+v", o)
	}
	if err := s.SaveOutcome(ctx, &domain.CheckOutcome{MonitorID: m.ID}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound for deleted monitor, got %v", err)
	}
}

func TestSQLiteStore_ListMonitorsStableOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := &domain.Project{Label: "bulk"}
	_ = s.CreateProject(ctx, p)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		err := s.CreateMonitor(ctx, &domain.Monitor{
			ID:                 domain.MonitorID(fmt.Sprintf("m%02d", i)),
			ProjectID:          p.ID,
			Kind:               domain.KindPing,
			Label:              "m",
			BadgeLabel:         "m",
			PeriodicitySeconds: 5,
			Ping:               &domain.PingConfig{Host: "h", Port: 1},
			CreatedAt:          base.Add(time.Duration(i%3) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateMonitor: %v", err)
		}
	}

	var ids []domain.MonitorID
	for off := 0; ; off += 5 {
		pg, err := s.ListMonitors(ctx, 5, off)
		if err != nil {
			t.Fatalf("ListMonitors: %v", err)
		}
		for _, m := range pg {
			ids = append(ids, m.ID)
		}
		if len(pg) < 5 {
			break
		}
	}
	if len(ids) != 12 {
		t.Fatalf("want 12 monitors, got %d", len(ids))
	}
	// created_at buckets 0,1,2 then id ascending inside each bucket
	if ids[0] != "m00" || ids[1] != "m03" || ids[4] != "m01" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestSQLiteStore_ListProjectsSortAndCount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, label := range []string{"bravo", "alpha", "charlie"} {
		p := &domain.Project{Label: label, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
	}

	ps, err := s.ListProjects(ctx, 0, 0, repo.ProjectSort{Field: repo.SortLabel, Desc: true})
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(ps) != 3 || ps[0].Label != "charlie" || ps[2].Label != "alpha" {
		t.Fatalf("unexpected order: %+v", ps)
	}

	newest, err := s.ListProjects(ctx, 1, 0, repo.ProjectSort{})
	if err != nil || len(newest) != 1 || newest[0].Label != "charlie" {
		t.Fatalf("default should list newest first: %+v %v", newest, err)
	}

	if _, err := s.ListProjects(ctx, 0, 0, repo.ProjectSort{Field: "label; DROP TABLE projects"}); err == nil {
		t.Fatal("expected error for unknown sort field")
	}

	n, err := s.CountProjects(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountProjects = %d, %v", n, err)
	}
}
