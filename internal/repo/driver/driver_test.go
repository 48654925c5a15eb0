package driver

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/config"
	"github.com/hamed0406/owleyes/internal/repo/memory"
	"github.com/hamed0406/owleyes/internal/repo/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	st, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory}, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := st.(*memory.Store); !ok {
		t.Fatalf("want *memory.Store, got %T", st)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "db", "x.db")}
	st, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*sqlite.Store); !ok {
		t.Fatalf("want *sqlite.Store, got %T", st)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, config.Config{StoreDriver: config.DriverPostgres}, zap.NewNop()); err == nil {
		t.Fatal("postgres without DATABASE_URL should fail")
	}
	if _, err := Open(ctx, config.Config{StoreDriver: "mongo"}, zap.NewNop()); err == nil {
		t.Fatal("unknown driver should fail")
	}
}
