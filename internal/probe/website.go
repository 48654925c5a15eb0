package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/owleyes/internal/domain"
)

func (p *Prober) checkWebsite(ctx context.Context, id domain.MonitorID, cfg domain.WebsiteConfig, start time.Time) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return failed(id, start, err.Error())
	}

	begin := time.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		return failed(id, start, err.Error())
	}
	defer resp.Body.Close()
	elapsed := time.Since(begin)

	statusOK := StatusValid(cfg.CheckStatusCode, resp.StatusCode)

	keywordsOK := true
	if len(cfg.Keywords) > 0 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, p.MaxBodyBytes))
		if err != nil {
			res := failed(id, start, "body_read_error: "+err.Error())
			res.StatusCode = resp.StatusCode
			return res
		}
		keywordsOK = ContainsAll(string(body), cfg.Keywords)
	}

	reason := "ok"
	switch {
	case !statusOK:
		reason = "status_invalid: " + resp.Status
	case !keywordsOK:
		reason = "keyword_missing"
	}

	return Result{
		Outcome: domain.CheckOutcome{
			MonitorID:      id,
			StartTime:      start,
			Success:        statusOK && keywordsOK,
			ResponseTimeMS: domain.Millis(elapsed),
		},
		StatusCode: resp.StatusCode,
		Reason:     reason,
	}
}

// StatusValid applies the status rule: with checking enabled a code is valid
// only in (200, 300]. Exactly 200 is rejected.
func StatusValid(checkStatusCode bool, code int) bool {
	if !checkStatusCode {
		return true
	}
	return code > 200 && code <= 300
}

// ContainsAll reports whether every keyword is a literal substring of body.
// It stops at the first missing keyword.
func ContainsAll(body string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(body, kw) {
			return false
		}
	}
	return true
}
