package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scamscope/scamscope/internal/config"
	"github.com/scamscope/scamscope/internal/pipeline"
	"github.com/scamscope/scamscope/internal/ratelimit"
	"github.com/scamscope/scamscope/internal/report"
	"github.com/scamscope/scamscope/internal/urlcheck"
	"github.com/scamscope/scamscope/internal/verdict"
)

func newTestServer(maxRequests int) (*httptest.Server, report.Store) {
	cfg, _ := config.Load()
	cfg.IdentifierSecret = "test-secret"

	gate := ratelimit.NewGate(ratelimit.NewMemoryStore(time.Minute), ratelimit.GateConfig{
		Window:      time.Minute,
		MaxRequests: maxRequests,
	})
	reports := report.NewInMemoryStore()
	svc := pipeline.New(gate, urlcheck.Disabled{}, verdict.Heuristic{}, reports, nil, 5*time.Second)

	srv := New(cfg, svc, reports)
	return httptest.NewServer(srv.Router()), reports
}

func postAnalyze(t *testing.T, url string, body map[string]string) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	res, err := http.Post(url+"/v1/analyze", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("analyze request error = %v", err)
	}
	return res
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts, _ := newTestServer(10)
	defer ts.Close()

	res := postAnalyze(t, ts.URL, map[string]string{
		"text":    "Dear John Smith, verify your account at http://evil.example/login urgently",
		"contact": "0412345678",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if id, _ := out["report_id"].(string); id == "" {
		t.Fatalf("missing report_id: %+v", out)
	}
	urls, _ := out["urls"].([]any)
	if len(urls) != 1 {
		t.Fatalf("urls = %v, want one entry", urls)
	}
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	ts, _ := newTestServer(10)
	defer ts.Close()

	res := postAnalyze(t, ts.URL, map[string]string{"text": ""})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestAnalyzeRateLimitedWithRetryAfter(t *testing.T) {
	ts, _ := newTestServer(1)
	defer ts.Close()

	first := postAnalyze(t, ts.URL, map[string]string{"text": "hello"})
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d, want %d", first.StatusCode, http.StatusOK)
	}

	second := postAnalyze(t, ts.URL, map[string]string{"text": "hello again"})
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want %d", second.StatusCode, http.StatusTooManyRequests)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestReportsByContactUsesMaskedResidue(t *testing.T) {
	ts, _ := newTestServer(10)
	defer ts.Close()

	res := postAnalyze(t, ts.URL, map[string]string{
		"text":    "scam message from this number",
		"contact": "0412345678",
	})
	res.Body.Close()

	lookup, err := http.Get(ts.URL + "/v1/reports/by-contact?contact=0412345678")
	if err != nil {
		t.Fatalf("lookup request error = %v", err)
	}
	defer lookup.Body.Close()
	if lookup.StatusCode != http.StatusOK {
		t.Fatalf("lookup status = %d, want %d", lookup.StatusCode, http.StatusOK)
	}

	var out struct {
		Reports []report.Report `json:"reports"`
	}
	if err := json.NewDecoder(lookup.Body).Decode(&out); err != nil {
		t.Fatalf("decode lookup response: %v", err)
	}
	if len(out.Reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(out.Reports))
	}
	if out.Reports[0].MaskedContact != "*******678" {
		t.Fatalf("MaskedContact = %q, want \"*******678\"", out.Reports[0].MaskedContact)
	}
	if strings.Contains(out.Reports[0].MaskedContact, "0412345") {
		t.Fatalf("raw contact leaked: %q", out.Reports[0].MaskedContact)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(10)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}
