package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type ProjectID string

type MonitorID string

// Kind tags which probe runs for a monitor.
type Kind string

const (
	KindPing    Kind = "ping"
	KindWebsite Kind = "website"
)

// Periodicity bounds, in seconds.
const (
	MinPeriodicity = 5
	MaxPeriodicity = 300
)

var (
	ErrInvalidKind        = errors.New("valid monitor type is required (ping or website)")
	ErrInvalidLabel       = errors.New("label is required")
	ErrInvalidPeriodicity = fmt.Errorf("periodicity must be between %d and %d seconds", MinPeriodicity, MaxPeriodicity)
	ErrInvalidHost        = errors.New("host is required for ping monitor")
	ErrInvalidPort        = errors.New("valid port is required for ping monitor")
	ErrInvalidURL         = errors.New("valid http(s) url is required for website monitor")
	ErrInvalidProject     = errors.New("project is required")
)

func (k Kind) Valid() bool {
	return k == KindPing || k == KindWebsite
}

type Project struct {
	ID          ProjectID  `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return ErrInvalidLabel
	}
	return nil
}

type PingConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type WebsiteConfig struct {
	URL             string   `json:"url"`
	CheckStatusCode bool     `json:"check_status_code"`
	Keywords        []string `json:"keywords"`
}

// Monitor is a configured target. Exactly one of Ping or Website is set and
// it matches Kind.
type Monitor struct {
	ID                 MonitorID      `json:"id"`
	ProjectID          ProjectID      `json:"project_id"`
	Kind               Kind           `json:"type"`
	Label              string         `json:"label"`
	BadgeLabel         string         `json:"badge_label"`
	PeriodicitySeconds int            `json:"periodicity"`
	Ping               *PingConfig    `json:"ping,omitempty"`
	Website            *WebsiteConfig `json:"website,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

func (m *Monitor) Periodicity() time.Duration {
	return time.Duration(m.PeriodicitySeconds) * time.Second
}

// Validate enforces the write-time rules. It also fills BadgeLabel from
// Label when empty.
func (m *Monitor) Validate() error {
	if m.ProjectID == "" {
		return ErrInvalidProject
	}
	if strings.TrimSpace(m.Label) == "" {
		return ErrInvalidLabel
	}
	if m.PeriodicitySeconds < MinPeriodicity || m.PeriodicitySeconds > MaxPeriodicity {
		return ErrInvalidPeriodicity
	}
	if strings.TrimSpace(m.BadgeLabel) == "" {
		m.BadgeLabel = m.Label
	}

	switch m.Kind {
	case KindPing:
		if m.Ping == nil || strings.TrimSpace(m.Ping.Host) == "" {
			return ErrInvalidHost
		}
		if m.Ping.Port <= 0 || m.Ping.Port > 65535 {
			return ErrInvalidPort
		}
		m.Website = nil
	case KindWebsite:
		if m.Website == nil || !IsHTTPURL(m.Website.URL) {
			return ErrInvalidURL
		}
		if m.Website.Keywords == nil {
			m.Website.Keywords = []string{}
		}
		m.Ping = nil
	default:
		return ErrInvalidKind
	}
	return nil
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// CheckOutcome is one recorded check. ResponseTimeMS is nil only when a store
// row carries no value.
type CheckOutcome struct {
	ID             int64     `json:"id"`
	MonitorID      MonitorID `json:"monitor_id"`
	StartTime      time.Time `json:"start_time"`
	Success        bool      `json:"status"`
	ResponseTimeMS *int64    `json:"response_time"` // pointer to allow nil
}

func Millis(d time.Duration) *int64 {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}
