package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/hamed0406/owleyes/internal/domain"
)

// checkPing succeeds when a TCP connection to host:port is established.
// The elapsed time is recorded on failure too.
func (p *Prober) checkPing(ctx context.Context, id domain.MonitorID, cfg domain.PingConfig, start time.Time) Result {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	begin := time.Now()
	conn, err := p.Dialer.DialContext(ctx, "tcp", addr)
	elapsed := time.Since(begin)

	out := domain.CheckOutcome{
		MonitorID:      id,
		StartTime:      start,
		ResponseTimeMS: domain.Millis(elapsed),
	}
	if err != nil {
		return Result{Outcome: out, Reason: err.Error()}
	}
	_ = conn.Close()

	out.Success = true
	return Result{Outcome: out, Reason: "connected"}
}
