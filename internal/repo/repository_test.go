package repo_test

import (
	"testing"

	"github.com/hamed0406/owleyes/internal/repo"
	"github.com/hamed0406/owleyes/internal/repo/memory"
	pg "github.com/hamed0406/owleyes/internal/repo/postgres"
	"github.com/hamed0406/owleyes/internal/repo/sqlite"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.Store = memory.New()

	var _ repo.Catalog = (*pg.Store)(nil)
	var _ repo.ResultStore = (*pg.Store)(nil)
	var _ repo.LatestIndex = (*pg.Store)(nil)

	var _ repo.Store = (*sqlite.Store)(nil)
}
