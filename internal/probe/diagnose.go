package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNSClass summarizes how a host name resolves.
type DNSClass string

const (
	DNSResolves    DNSClass = "RESOLVES"
	DNSNXDomain    DNSClass = "NXDOMAIN"
	DNSNoARecord   DNSClass = "NO_A_RECORD"
	DNSServFail    DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName DNSClass = "INVALID_NAME"
)

// Diagnosis explains a failed check from the resolver's point of view.
type Diagnosis struct {
	Host          string
	Class         DNSClass
	IPs           []net.IP
	CNAME         string
	Nameservers   []string
	ResolverError string
}

var diagnoseTimeout = 3 * time.Second

// Diagnose resolves the host of target, which may be a bare host, host:port
// or a URL. It is meant for operators; the scheduler never calls it.
func Diagnose(ctx context.Context, target string) Diagnosis {
	d := Diagnosis{Host: HostOf(target)}
	if d.Host == "" || strings.Contains(d.Host, "://") {
		d.Class = DNSInvalidName
		return d
	}
	if ip := net.ParseIP(d.Host); ip != nil {
		d.Class = DNSResolves
		d.IPs = []net.IP{ip}
		return d
	}

	ctx, cancel := context.WithTimeout(ctx, diagnoseTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", d.Host)
	switch {
	case err == nil && len(ips) > 0:
		d.IPs = ips
		d.Class = DNSResolves
	case err != nil:
		d.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				d.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				d.Class = DNSServFail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, d.Host); err == nil && !strings.EqualFold(cname, d.Host+".") {
		d.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, d.Host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			d.Nameservers = append(d.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if d.Class == DNSNXDomain {
			d.Class = DNSNoARecord
		}
	}

	if d.Class == "" {
		switch {
		case len(d.Nameservers) > 0:
			d.Class = DNSNoARecord
		case d.ResolverError != "":
			d.Class = DNSServFail
		default:
			d.Class = DNSNXDomain
		}
	}
	return d
}

// HostOf pulls the host name out of a URL or host:port string.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			return raw
		}
		return u.Hostname()
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		return host
	}
	return raw
}
