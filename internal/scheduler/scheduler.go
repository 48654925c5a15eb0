package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/probe"
	"github.com/hamed0406/owleyes/internal/repo"
)

// CycleReport summarizes one refresh → select → dispatch → persist pass.
//
// Checked counts probes that finished before shutdown; it splits into
// Succeeded and Failed. PersistFailed is the subset whose outcome could not
// be saved, with the joined errors in PersistErr. Dropped counts due monitors
// that were never started or finished after shutdown began.
// saveTimeout bounds an outcome write that outlives the cycle context.
const saveTimeout = 5 * time.Second

type CycleReport struct {
	Found         int
	Due           int
	Checked       int
	Succeeded     int
	Failed        int
	PersistFailed int
	Dropped       int
	PersistErr    error
	Duration      time.Duration
}

type Scheduler struct {
	Logger      *zap.Logger
	Catalog     repo.Catalog
	Results     repo.ResultStore
	Checker     probe.Checker
	Idle        time.Duration
	Timeout     time.Duration
	Concurrency int
	PageSize    int

	// Now is the clock used for due selection. Defaults to time.Now.
	Now func() time.Time
}

func New(
	logger *zap.Logger,
	catalog repo.Catalog,
	results repo.ResultStore,
	checker probe.Checker,
	idle time.Duration,
	timeout time.Duration,
	concurrency int,
	pageSize int,
) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if idle < 0 {
		idle = 0
	}
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Scheduler{
		Logger:      logger,
		Catalog:     catalog,
		Results:     results,
		Checker:     checker,
		Idle:        idle,
		Timeout:     timeout,
		Concurrency: concurrency,
		PageSize:    pageSize,
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Run loops until ctx is cancelled, idling between cycles. It returns nil on
// shutdown and a wrapped error when the catalog cannot be refreshed.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				s.Logger.Info("scheduler_stopped")
				return nil
			}
			return fmt.Errorf("refresh catalog: %w", err)
		}

		t := time.NewTimer(s.Idle)
		select {
		case <-ctx.Done():
			t.Stop()
			s.Logger.Info("scheduler_stopped")
			return nil
		case <-t.C:
		}
	}
}

// RunOnce runs a single cycle and waits for every probe it started. Only a
// refresh failure is returned as an error; probe and persistence failures are
// counted in the report.
func (s *Scheduler) RunOnce(ctx context.Context) (CycleReport, error) {
	started := time.Now()
	s.Logger.Info("cycle_start")

	snap, err := LoadSnapshot(ctx, s.Catalog, s.Results, s.PageSize)
	if err != nil {
		return CycleReport{}, err
	}
	rep := CycleReport{Found: len(snap.Monitors)}
	s.Logger.Info("monitors_found", zap.Int("count", rep.Found))

	due := SelectDue(snap.Monitors, snap.Latest, s.now())
	rep.Due = len(due)
	s.Logger.Info("monitors_due", zap.Int("count", rep.Due))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(s.Concurrency, 1))

	for i, m := range due {
		if ctx.Err() != nil {
			mu.Lock()
			rep.Dropped += len(due) - i
			mu.Unlock()
			break
		}
		m := m
		g.Go(func() error {
			res := s.check(ctx, m)
			if ctx.Err() != nil {
				mu.Lock()
				rep.Dropped++
				mu.Unlock()
				return nil
			}

			o := res.Outcome
			saveErr := s.save(ctx, &o)

			mu.Lock()
			rep.Checked++
			if o.Success {
				rep.Succeeded++
			} else {
				rep.Failed++
			}
			if saveErr != nil {
				rep.PersistFailed++
				rep.PersistErr = multierr.Append(rep.PersistErr, fmt.Errorf("monitor %s: %w", m.ID, saveErr))
			}
			mu.Unlock()

			if saveErr != nil {
				s.Logger.Warn("outcome_save_error",
					zap.String("monitor_id", string(m.ID)),
					zap.Error(saveErr),
				)
				return nil
			}
			s.Logger.Debug("monitor_checked",
				zap.String("monitor_id", string(m.ID)),
				zap.String("type", string(m.Kind)),
				zap.Bool("success", o.Success),
				zap.Int("status_code", res.StatusCode),
				zap.Int64p("response_time_ms", o.ResponseTimeMS),
				zap.String("reason", res.Reason),
			)
			return nil
		})
	}
	_ = g.Wait()

	rep.Duration = time.Since(started)
	s.Logger.Info("cycle_done",
		zap.Int("found", rep.Found),
		zap.Int("due", rep.Due),
		zap.Int("checked", rep.Checked),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("persist_failed", rep.PersistFailed),
		zap.Int("dropped", rep.Dropped),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// save persists a finished probe even if shutdown begins mid-write.
func (s *Scheduler) save(ctx context.Context, o *domain.CheckOutcome) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	return s.Results.SaveOutcome(sctx, o)
}

// check runs one probe under its own timeout. A panicking checker yields a
// failed outcome instead of taking the process down.
func (s *Scheduler) check(ctx context.Context, m domain.Monitor) (res probe.Result) {
	start := time.Now().UTC()
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("probe_panic",
				zap.String("monitor_id", string(m.ID)),
				zap.Any("panic", r),
			)
			res = probe.Result{
				Outcome: domain.CheckOutcome{
					MonitorID:      m.ID,
					StartTime:      start,
					Success:        false,
					ResponseTimeMS: domain.Millis(0),
				},
				Reason: "panic",
			}
		}
	}()

	res = s.Checker.Check(cctx, m)
	res.Outcome.MonitorID = m.ID
	if res.Outcome.StartTime.IsZero() {
		res.Outcome.StartTime = start
	}
	return res
}
