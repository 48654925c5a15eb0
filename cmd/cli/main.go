// Command cli runs a single check from the terminal, without touching any
// store. A failed check is followed by a DNS diagnosis of the target host.
//
//	cli https://example.com [keyword...]
//	cli -status https://example.com
//	cli db.internal:5432
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/hamed0406/owleyes/internal/config"
	"github.com/hamed0406/owleyes/internal/domain"
	"github.com/hamed0406/owleyes/internal/probe"
)

func main() {
	checkStatus := flag.Bool("status", false, "require a 2xx status (website checks)")
	flag.Parse()

	target := flag.Arg(0)
	if target == "" {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Enter a URL or host:port to check (e.g., https://example.com): ")
		raw, _ := reader.ReadString('\n')
		target = strings.TrimSpace(raw)
	}

	m, err := monitorFor(target, *checkStatus, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(2)
	}

	cfg := config.FromEnv()
	p := probe.New(probe.Options{Timeout: cfg.CheckTimeout, InsecureTLS: cfg.WebsiteTLSInsecure})

	ctx := context.Background()
	res := p.Check(ctx, m)
	rt := int64(0)
	if res.Outcome.ResponseTimeMS != nil {
		rt = *res.Outcome.ResponseTimeMS
	}

	if res.Outcome.Success {
		fmt.Printf("✔ %s up in %dms (%s)\n", target, rt, res.Reason)
		return
	}
	fmt.Printf("✖ %s down after %dms (%s)\n", target, rt, res.Reason)

	d := probe.Diagnose(ctx, target)
	fmt.Printf("  dns: host=%s class=%s", d.Host, d.Class)
	if d.CNAME != "" {
		fmt.Printf(" cname=%s", d.CNAME)
	}
	if d.ResolverError != "" {
		fmt.Printf(" error=%q", d.ResolverError)
	}
	fmt.Println()
	os.Exit(1)
}

// monitorFor builds an ad-hoc monitor: http(s) URLs become website checks,
// anything else must be host:port and becomes a ping check.
func monitorFor(target string, checkStatus bool, args []string) (domain.Monitor, error) {
	m := domain.Monitor{
		ID:                 "cli",
		ProjectID:          "cli",
		Label:              target,
		PeriodicitySeconds: domain.MinPeriodicity,
	}

	if strings.Contains(target, "://") {
		m.Kind = domain.KindWebsite
		var keywords []string
		if len(args) > 1 {
			keywords = args[1:]
		}
		m.Website = &domain.WebsiteConfig{URL: target, CheckStatusCode: checkStatus, Keywords: keywords}
	} else {
		host, portStr, err := net.SplitHostPort(target)
		if err != nil {
			return m, fmt.Errorf("want a URL or host:port, got %q", target)
		}
		port, _ := strconv.Atoi(portStr)
		m.Kind = domain.KindPing
		m.Ping = &domain.PingConfig{Host: host, Port: port}
	}
	return m, m.Validate()
}
