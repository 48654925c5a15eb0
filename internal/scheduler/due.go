package scheduler

import (
	"time"

	"github.com/hamed0406/owleyes/internal/domain"
)

// IsDue reports whether m should be checked at now. A monitor that has never
// been checked is due. A latest outcome dated after now is treated as fresh.
func IsDue(m domain.Monitor, latest *domain.CheckOutcome, now time.Time) bool {
	if latest == nil {
		return true
	}
	elapsed := now.Sub(latest.StartTime)
	if elapsed < 0 {
		return false
	}
	return elapsed >= m.Periodicity()
}

// SelectDue returns the monitors that are due at now, in input order. It has
// no side effects.
func SelectDue(monitors []domain.Monitor, latest map[domain.MonitorID]domain.CheckOutcome, now time.Time) []domain.Monitor {
	due := make([]domain.Monitor, 0, len(monitors))
	for _, m := range monitors {
		var last *domain.CheckOutcome
		if o, ok := latest[m.ID]; ok {
			last = &o
		}
		if IsDue(m, last, now) {
			due = append(due, m)
		}
	}
	return due
}
