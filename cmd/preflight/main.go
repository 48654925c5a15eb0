// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/config"
	"github.com/hamed0406/owleyes/internal/repo/driver"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	if strings.TrimSpace(os.Getenv("ADDR")) == "" {
		warn("ADDR is empty; API will bind " + cfg.Addr)
	} else {
		ok("ADDR=" + cfg.Addr)
	}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		fail("STORE_DRIVER=memory keeps monitors inside one process; the scheduler cannot see what the API creates. Use sqlite or postgres.")
	case config.DriverPostgres, config.DriverSQLite:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err := driver.Open(ctx, cfg, zap.NewNop())
		if err != nil {
			fail("store " + cfg.StoreDriver + " unreachable: " + err.Error())
		}
		_ = st.Close()
		ok("store " + cfg.StoreDriver + " reachable, schema applied")
	default:
		fail("STORE_DRIVER must be memory, postgres or sqlite (got " + cfg.StoreDriver + ")")
	}

	if cfg.WebsiteTLSInsecure {
		warn("WEBSITE_TLS_INSECURE=true; website checks skip certificate verification.")
	}

	if cfg.MaxConcurrentChecks > 512 {
		warn(fmt.Sprintf("MAX_CONCURRENT_CHECKS=%d is high; watch file descriptor limits.", cfg.MaxConcurrentChecks))
	}
	ok(fmt.Sprintf("scheduler: idle=%s timeout=%s concurrency=%d page=%d",
		cfg.IdleInterval, cfg.CheckTimeout, cfg.MaxConcurrentChecks, cfg.CatalogPageSize))

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		warn("ALLOWED_ORIGINS allows any origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.PublicRPM == 0 {
		warn("PUBLIC_RPM=0; API rate limiting disabled.")
	}

	ok("preflight passed")
}
