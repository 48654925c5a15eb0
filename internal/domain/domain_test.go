package domain

import (
	"errors"
	"testing"
	"time"
)

func pingMonitor() Monitor {
	return Monitor{
		ID:                 MonitorID("M1"),
		ProjectID:          ProjectID("P1"),
		Kind:               KindPing,
		Label:              "db",
		PeriodicitySeconds: 30,
		Ping:               &PingConfig{Host: "db.internal", Port: 5432},
	}
}

func TestMonitor_ValidateDefaultsBadgeLabel(t *testing.T) {
	m := pingMonitor()
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if m.BadgeLabel != "db" {
		t.Fatalf("want badge label to default to label, got %q", m.BadgeLabel)
	}
}

func TestMonitor_ValidatePeriodicityBounds(t *testing.T) {
	cases := []struct {
		p    int
		want error
	}{
		{4, ErrInvalidPeriodicity},
		{5, nil},
		{300, nil},
		{301, ErrInvalidPeriodicity},
	}
	for _, c := range cases {
		m := pingMonitor()
		m.PeriodicitySeconds = c.p
		if err := m.Validate(); !errors.Is(err, c.want) {
			t.Fatalf("periodicity %d: want %v, got %v", c.p, c.want, err)
		}
	}
}

func TestMonitor_ValidateKindConfig(t *testing.T) {
	m := pingMonitor()
	m.Ping.Port = 0
	if err := m.Validate(); !errors.Is(err, ErrInvalidPort) {
		t.Fatalf("want ErrInvalidPort, got %v", err)
	}

	w := pingMonitor()
	w.Kind = KindWebsite
	w.Website = &WebsiteConfig{URL: "ftp://example.com"}
	if err := w.Validate(); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("want ErrInvalidURL, got %v", err)
	}

	w.Website.URL = "https://example.com"
	if err := w.Validate(); err != nil {
		t.Fatalf("validate website: %v", err)
	}
	if w.Ping != nil {
		t.Fatalf("ping config should be cleared for website monitor")
	}
	if w.Website.Keywords == nil {
		t.Fatalf("keywords should be normalized to empty slice")
	}

	u := pingMonitor()
	u.Kind = Kind("icmp")
	if err := u.Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("want ErrInvalidKind, got %v", err)
	}
}

func TestMillis_ClampsNegative(t *testing.T) {
	if got := *Millis(-time.Second); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
	if got := *Millis(1500 * time.Millisecond); got != 1500 {
		t.Fatalf("want 1500, got %d", got)
	}
}
