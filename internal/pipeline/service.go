package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/scamscope/scamscope/internal/extract"
	"github.com/scamscope/scamscope/internal/observability"
	"github.com/scamscope/scamscope/internal/privacy"
	"github.com/scamscope/scamscope/internal/ratelimit"
	"github.com/scamscope/scamscope/internal/report"
	"github.com/scamscope/scamscope/internal/urlcheck"
	"github.com/scamscope/scamscope/internal/verdict"
)

var (
	// ErrRateLimited carries the gate's rejection to the caller, which maps
	// it to an HTTP 429 with the Retry-After from the Result.
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrEmptyText   = errors.New("empty text")
)

// Request is one analysis submission. IdentifierHash must already be the
// output of ratelimit.Identify; the pipeline never sees raw client identity.
type Request struct {
	Text           string
	Mode           string
	IdentifierHash string
	// Contact is an optional contact value (typically a phone number) to
	// retain, masked, for cross-referencing later reports.
	Contact string

	// OnStage, when set, receives progress events as stages complete. Used
	// by the websocket API; ignored elsewhere.
	OnStage func(stage string, detail any)
}

// Result is what the caller gets back. Verdict and URLRisks derive from the
// raw text; ReportID references the scrubbed record that was persisted.
type Result struct {
	ReportID   string                   `json:"report_id,omitempty"`
	Verdict    verdict.Verdict          `json:"verdict"`
	URLs       []string                 `json:"urls"`
	URLRisks   map[string]urlcheck.Risk `json:"url_risks"`
	Remaining  int                      `json:"rate_remaining"`
	RetryAfter time.Duration            `json:"-"`
}

// Service runs the analysis stages in fixed order: rate gate, URL
// extraction, reputation check, verdict generation, then scrub-and-persist.
// Reputation and verdict are enrichments; only the gate can reject a
// request.
type Service struct {
	gate      *ratelimit.Gate
	checker   urlcheck.Checker
	generator verdict.Generator
	reports   report.Store
	metrics   *observability.Metrics
	deadline  time.Duration
}

func New(gate *ratelimit.Gate, checker urlcheck.Checker, generator verdict.Generator, reports report.Store, metrics *observability.Metrics, deadline time.Duration) *Service {
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &Service{
		gate:      gate,
		checker:   checker,
		generator: generator,
		reports:   reports,
		metrics:   metrics,
		deadline:  deadline,
	}
}

func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	if req.Text == "" {
		s.metrics.IncRequest(req.Mode, "invalid")
		return Result{}, ErrEmptyText
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	decision, err := s.gate.Admit(ctx, req.IdentifierHash)
	if err != nil {
		if errors.Is(err, ratelimit.ErrBadIdentifier) {
			s.metrics.IncRequest(req.Mode, "invalid")
			return Result{}, err
		}
		// Store outage: the decision already reflects the configured
		// fail-open/fail-closed policy.
		log.Printf("rate gate degraded: %v", err)
		s.metrics.IncRateGateDegraded()
	}
	if !decision.Allowed {
		s.metrics.IncRequest(req.Mode, "rate_limited")
		return Result{RetryAfter: decision.RetryAfter}, fmt.Errorf("%w: retry after %s", ErrRateLimited, decision.RetryAfter)
	}
	s.stage(req, "admitted", decision.Remaining)

	urls := extract.URLs(req.Text)
	s.stage(req, "urls_extracted", urls)

	risks := s.checker.Check(ctx, urls)
	malicious := 0
	for _, r := range risks {
		s.metrics.IncURLRisk(string(r))
		if r == urlcheck.RiskMalicious {
			malicious++
		}
	}
	s.stage(req, "urls_checked", risks)

	// The generator gets the raw text: the external analyzer needs full
	// fidelity to reason about intent. Failure degrades to an unknown
	// verdict rather than failing the request.
	v, err := s.generator.Analyze(ctx, req.Text, risks)
	if err != nil {
		log.Printf("verdict generation degraded: %v", err)
		s.metrics.IncProviderError("verdict")
		v = verdict.Verdict{Category: "unknown", Summary: "Analysis unavailable; no verdict produced."}
	}
	s.stage(req, "verdict", v.Category)

	// Only scrubbed text and masked contacts cross the persistence
	// boundary. Report loss is tolerable; persisting raw PII is not.
	scrubbed, _ := privacy.Scrub(req.Text)
	masked := ""
	if req.Contact != "" {
		masked = privacy.Mask(req.Contact)
	}

	saved, err := s.reports.Save(ctx, report.Report{
		Mode:          req.Mode,
		ScrubbedText:  scrubbed,
		MaskedContact: masked,
		URLCount:      len(urls),
		MaliciousURLs: malicious,
		Category:      v.Category,
		Confidence:    v.Confidence,
		Summary:       v.Summary,
	})
	if err != nil {
		log.Printf("report save failed: %v", err)
		s.metrics.IncProviderError("report_store")
	}
	s.stage(req, "stored", saved.ID)

	s.metrics.IncRequest(req.Mode, "ok")
	s.metrics.ObservePipelineLatency(time.Since(start))

	return Result{
		ReportID:  saved.ID,
		Verdict:   v,
		URLs:      urls,
		URLRisks:  risks,
		Remaining: decision.Remaining,
	}, nil
}

func (s *Service) stage(req Request, name string, detail any) {
	if req.OnStage != nil {
		req.OnStage(name, detail)
	}
}
