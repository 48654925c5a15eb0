package scheduler

import (
	"context"
	"fmt"

	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/repo"
)

const DefaultPageSize = 1000

// Snapshot is one cycle's view of the catalog. It is rebuilt every cycle and
// never mutated after LoadSnapshot returns.
type Snapshot struct {
	Monitors []domain.Monitor
	Latest   map[domain.MonitorID]domain.CheckOutcome
}

// LoadSnapshot pages through the whole catalog and builds the latest-outcome
// index for it. Results that also implement repo.LatestIndex are queried in
// one batch; otherwise LatestOutcome is called per monitor.
func LoadSnapshot(ctx context.Context, catalog repo.Catalog, results repo.ResultStore, pageSize int) (Snapshot, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var (
		monitors []domain.Monitor
		seen     = make(map[domain.MonitorID]struct{})
	)
	for offset := 0; ; offset += pageSize {
		page, err := catalog.ListMonitors(ctx, pageSize, offset)
		if err != nil {
			return Snapshot{}, fmt.Errorf("list monitors at offset %d: %w", offset, err)
		}
		for _, m := range page {
			// rows can shift between pages when monitors are created or deleted concurrently
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			monitors = append(monitors, m)
		}
		if len(page) < pageSize {
			break
		}
	}

	latest := make(map[domain.MonitorID]domain.CheckOutcome, len(monitors))
	if idx, ok := results.(repo.LatestIndex); ok {
		all, err := idx.LatestOutcomes(ctx)
		if err != nil {
			return Snapshot{}, fmt.Errorf("latest outcomes: %w", err)
		}
		for id, o := range all {
			if _, ok := seen[id]; ok {
				latest[id] = o
			}
		}
	} else {
		for _, m := range monitors {
			o, err := results.LatestOutcome(ctx, m.ID)
			if err != nil {
				return Snapshot{}, fmt.Errorf("latest outcome for %s: %w", m.ID, err)
			}
			if o != nil {
				latest[m.ID] = *o
			}
		}
	}

	return Snapshot{Monitors: monitors, Latest: latest}, nil
}
