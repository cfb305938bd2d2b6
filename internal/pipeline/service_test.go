package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scamscope/scamscope/internal/ratelimit"
	"github.com/scamscope/scamscope/internal/report"
	"github.com/scamscope/scamscope/internal/urlcheck"
	"github.com/scamscope/scamscope/internal/verdict"
)

func newTestService(maxRequests int) (*Service, *report.InMemoryStore) {
	gate := ratelimit.NewGate(ratelimit.NewMemoryStore(time.Minute), ratelimit.GateConfig{
		Window:      time.Minute,
		MaxRequests: maxRequests,
	})
	reports := report.NewInMemoryStore()
	svc := New(gate, urlcheck.Disabled{}, verdict.Heuristic{}, reports, nil, 5*time.Second)
	return svc, reports
}

func testHash() string {
	return ratelimit.Identify("test-secret", "203.0.113.7", "curl/8.0")
}

func TestAnalyzeFullFlow(t *testing.T) {
	svc, reports := newTestService(10)

	text := "Dear John Smith, urgent: verify your account at http://evil.example/login or call 0412 345 678. Email scam@bad.example."
	var stages []string
	res, err := svc.Analyze(context.Background(), Request{
		Text:           text,
		Mode:           "message",
		IdentifierHash: testHash(),
		Contact:        "0412345678",
		OnStage: func(stage string, _ any) {
			stages = append(stages, stage)
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(res.URLs) != 1 || res.URLs[0] != "http://evil.example/login" {
		t.Fatalf("URLs = %v", res.URLs)
	}
	if res.URLRisks["http://evil.example/login"] != urlcheck.RiskUnknown {
		t.Fatalf("disabled checker risk = %q, want unknown", res.URLRisks["http://evil.example/login"])
	}
	if res.Verdict.Category == "" {
		t.Fatalf("verdict category empty")
	}
	if res.ReportID == "" {
		t.Fatalf("report was not persisted")
	}

	wantStages := []string{"admitted", "urls_extracted", "urls_checked", "verdict", "stored"}
	if strings.Join(stages, ",") != strings.Join(wantStages, ",") {
		t.Fatalf("stages = %v, want %v", stages, wantStages)
	}

	saved, err := reports.Recent(context.Background(), 1)
	if err != nil || len(saved) != 1 {
		t.Fatalf("Recent() = (%v, %v)", saved, err)
	}
	r := saved[0]
	for _, raw := range []string{"John Smith", "0412 345 678", "scam@bad.example"} {
		if strings.Contains(r.ScrubbedText, raw) {
			t.Fatalf("raw PII %q crossed the persistence boundary: %q", raw, r.ScrubbedText)
		}
	}
	if r.MaskedContact != "*******678" {
		t.Fatalf("MaskedContact = %q, want \"*******678\"", r.MaskedContact)
	}
	if r.URLCount != 1 {
		t.Fatalf("URLCount = %d, want 1", r.URLCount)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	svc, _ := newTestService(1)
	h := testHash()

	if _, err := svc.Analyze(context.Background(), Request{Text: "hello", Mode: "message", IdentifierHash: h}); err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}

	res, err := svc.Analyze(context.Background(), Request{Text: "hello again", Mode: "message", IdentifierHash: h})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Analyze() error = %v, want ErrRateLimited", err)
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want positive", res.RetryAfter)
	}
}

func TestAnalyzeBadIdentifierIsFatal(t *testing.T) {
	svc, _ := newTestService(10)
	if _, err := svc.Analyze(context.Background(), Request{Text: "hello", Mode: "message", IdentifierHash: "bogus"}); !errors.Is(err, ratelimit.ErrBadIdentifier) {
		t.Fatalf("Analyze() error = %v, want ErrBadIdentifier", err)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	svc, _ := newTestService(10)
	if _, err := svc.Analyze(context.Background(), Request{Mode: "message", IdentifierHash: testHash()}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("Analyze() error = %v, want ErrEmptyText", err)
	}
}

type failingGenerator struct{}

func (failingGenerator) Analyze(context.Context, string, map[string]urlcheck.Risk) (verdict.Verdict, error) {
	return verdict.Verdict{}, errors.New("model unreachable")
}

func TestAnalyzeVerdictFailureDegrades(t *testing.T) {
	gate := ratelimit.NewGate(ratelimit.NewMemoryStore(time.Minute), ratelimit.GateConfig{MaxRequests: 10})
	svc := New(gate, urlcheck.Disabled{}, failingGenerator{}, report.NewInMemoryStore(), nil, 5*time.Second)

	res, err := svc.Analyze(context.Background(), Request{Text: "hello", Mode: "message", IdentifierHash: testHash()})
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded success", err)
	}
	if res.Verdict.Category != "unknown" {
		t.Fatalf("category = %q, want unknown", res.Verdict.Category)
	}
}

type failingReports struct{}

func (failingReports) Save(context.Context, report.Report) (report.Report, error) {
	return report.Report{}, errors.New("disk full")
}
func (failingReports) Recent(context.Context, int) ([]report.Report, error)      { return nil, nil }
func (failingReports) ByContact(context.Context, string) ([]report.Report, error) { return nil, nil }
func (failingReports) Close() error                                               { return nil }

func TestAnalyzePersistenceFailureIsNonFatal(t *testing.T) {
	gate := ratelimit.NewGate(ratelimit.NewMemoryStore(time.Minute), ratelimit.GateConfig{MaxRequests: 10})
	svc := New(gate, urlcheck.Disabled{}, verdict.Heuristic{}, failingReports{}, nil, 5*time.Second)

	res, err := svc.Analyze(context.Background(), Request{Text: "hello", Mode: "message", IdentifierHash: testHash()})
	if err != nil {
		t.Fatalf("Analyze() error = %v, want success without report", err)
	}
	if res.ReportID != "" {
		t.Fatalf("ReportID = %q, want empty when save fails", res.ReportID)
	}
}
