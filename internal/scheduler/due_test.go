package scheduler

import (
	"reflect"
	"testing"
	"time"

	"github.com/hamed0406/owleyes/internal/domain"
)

func mon(id string, periodicity int) domain.Monitor {
	return domain.Monitor{
		ID:                 domain.MonitorID(id),
		Kind:               domain.KindPing,
		PeriodicitySeconds: periodicity,
		Ping:               &domain.PingConfig{Host: "127.0.0.1", Port: 1},
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	m := mon("a", 30)

	cases := []struct {
		name   string
		latest *domain.CheckOutcome
		want   bool
	}{
		{"never checked", nil, true},
		{"just checked", &domain.CheckOutcome{StartTime: now.Add(-time.Second)}, false},
		{"one ms short", &domain.CheckOutcome{StartTime: now.Add(-30*time.Second + time.Millisecond)}, false},
		{"exactly periodicity", &domain.CheckOutcome{StartTime: now.Add(-30 * time.Second)}, true},
		{"overdue", &domain.CheckOutcome{StartTime: now.Add(-10 * time.Minute)}, true},
		{"future dated", &domain.CheckOutcome{StartTime: now.Add(time.Hour)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDue(m, tc.latest, now); got != tc.want {
				t.Fatalf("IsDue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectDue_MixedCatalog(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	monitors := []domain.Monitor{mon("fresh", 60), mon("new", 5), mon("stale", 5), mon("edge", 300)}
	latest := map[domain.MonitorID]domain.CheckOutcome{
		"fresh": {MonitorID: "fresh", StartTime: now.Add(-59 * time.Second)},
		"stale": {MonitorID: "stale", StartTime: now.Add(-6 * time.Second)},
		"edge":  {MonitorID: "edge", StartTime: now.Add(-300 * time.Second)},
		"gone":  {MonitorID: "gone", StartTime: now.Add(-time.Hour)},
	}

	got := SelectDue(monitors, latest, now)
	var ids []domain.MonitorID
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	want := []domain.MonitorID{"new", "stale", "edge"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("due = %v, want %v", ids, want)
	}

	// same inputs, same answer
	if again := SelectDue(monitors, latest, now); !reflect.DeepEqual(again, got) {
		t.Fatalf("SelectDue is not idempotent: %v vs %v", again, got)
	}
}

func TestSelectDue_EveryPeriodicityBound(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for p := domain.MinPeriodicity; p <= domain.MaxPeriodicity; p++ {
		m := mon("m", p)
		before := map[domain.MonitorID]domain.CheckOutcome{"m": {StartTime: now.Add(-time.Duration(p)*time.Second + time.Nanosecond)}}
		at := map[domain.MonitorID]domain.CheckOutcome{"m": {StartTime: now.Add(-time.Duration(p) * time.Second)}}
		if len(SelectDue([]domain.Monitor{m}, before, now)) != 0 {
			t.Fatalf("p=%d: due before periodicity elapsed", p)
		}
		if len(SelectDue([]domain.Monitor{m}, at, now)) != 1 {
			t.Fatalf("p=%d: not due once periodicity elapsed", p)
		}
	}
}

func TestSelectDue_Empty(t *testing.T) {
	if got := SelectDue(nil, nil, time.Now()); len(got) != 0 {
		t.Fatalf("want empty, got %v", got)
	}
}
