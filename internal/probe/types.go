package probe

import (
	"context"

	"github.com/hamed0406/owleyes/internal/domain"
)

// Result is the outcome of a single probe.
//
// Fields:
//   - Outcome: what gets persisted; MonitorID, StartTime, Success and
//     ResponseTimeMS are always set.
//   - StatusCode: HTTP status code when available; 0 for ping checks and
//     transport errors.
//   - Reason: short human-readable explanation, for logs only.
type Result struct {
	Outcome    domain.CheckOutcome
	StatusCode int
	Reason     string
}

// Checker performs a single check for a monitor. Implementations never fail:
// every error is encoded in the returned outcome.
type Checker interface {
	Check(ctx context.Context, m domain.Monitor) Result
}
