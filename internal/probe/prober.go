package probe

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/hamed0406/owleyes/internal/domain"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 10 << 20
)

type Options struct {
	Timeout      time.Duration
	InsecureTLS  bool  // skip certificate verification for website checks
	MaxBodyBytes int64 // cap on the body scanned for keywords
}

// Prober runs ping and website checks, dispatching on the monitor kind.
type Prober struct {
	Timeout      time.Duration
	Client       *http.Client
	Dialer       *net.Dialer
	MaxBodyBytes int64
}

func New(opts Options) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	// every check opens a fresh connection so latency includes the handshake
	tr.DisableKeepAlives = true
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.InsecureTLS}

	return &Prober{
		Timeout:      opts.Timeout,
		Client:       &http.Client{Timeout: opts.Timeout, Transport: tr},
		Dialer:       &net.Dialer{Timeout: opts.Timeout},
		MaxBodyBytes: opts.MaxBodyBytes,
	}
}

func (p *Prober) Check(ctx context.Context, m domain.Monitor) Result {
	start := time.Now().UTC()

	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	switch {
	case m.Kind == domain.KindPing && m.Ping != nil:
		return p.checkPing(cctx, m.ID, *m.Ping, start)
	case m.Kind == domain.KindWebsite && m.Website != nil:
		return p.checkWebsite(cctx, m.ID, *m.Website, start)
	default:
		return failed(m.ID, start, "unsupported_kind")
	}
}

// failed builds an unsuccessful outcome with a zero response time.
func failed(id domain.MonitorID, start time.Time, reason string) Result {
	zero := int64(0)
	return Result{
		Outcome: domain.CheckOutcome{
			MonitorID:      id,
			StartTime:      start,
			Success:        false,
			ResponseTimeMS: &zero,
		},
		Reason: reason,
	}
}
