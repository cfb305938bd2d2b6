package verdict

import (
	"context"
	"sort"
	"strings"

	"github.com/scamscope/scamscope/internal/urlcheck"
)

// Verdict is the analysis outcome for one submitted text.
type Verdict struct {
	Category   string   `json:"category"` // scam | suspicious | legitimate | unknown
	Confidence float64  `json:"confidence"`
	Summary    string   `json:"summary"`
	RedFlags   []string `json:"red_flags,omitempty"`
}

// Generator produces a verdict from the raw, unscrubbed text. Full fidelity
// is required to reason about scam intent, which is why scrubbing happens on
// the persistence path and not here.
type Generator interface {
	Analyze(ctx context.Context, text string, risks map[string]urlcheck.Risk) (Verdict, error)
}

// scamSignals are phrase-level heuristics for the offline generator. Scores
// are additive and deliberately coarse.
var scamSignals = map[string]float64{
	"urgent":              0.15,
	"verify your account": 0.25,
	"suspended":           0.2,
	"gift card":           0.3,
	"wire transfer":       0.25,
	"bitcoin":             0.2,
	"tax refund":          0.2,
	"click the link":      0.2,
	"confirm your details": 0.2,
	"prize":               0.15,
	"act now":             0.2,
	"password":            0.15,
}

// Heuristic is a deterministic, credential-free generator used when no LLM
// API key is configured. It scores known scam phrasing plus the URL risk
// classification.
type Heuristic struct{}

func (Heuristic) Analyze(_ context.Context, text string, risks map[string]urlcheck.Risk) (Verdict, error) {
	lower := strings.ToLower(text)

	var score float64
	var flags []string
	for phrase, weight := range scamSignals {
		if strings.Contains(lower, phrase) {
			score += weight
			flags = append(flags, `contains "`+phrase+`"`)
		}
	}
	for u, r := range risks {
		if r == urlcheck.RiskMalicious {
			score += 0.5
			flags = append(flags, "known malicious link "+u)
		}
	}
	sort.Strings(flags)

	if score > 1 {
		score = 1
	}
	v := Verdict{Confidence: score, RedFlags: flags}
	switch {
	case score >= 0.7:
		v.Category = "scam"
		v.Summary = "Multiple strong scam indicators detected."
	case score >= 0.3:
		v.Category = "suspicious"
		v.Summary = "Some scam indicators detected; treat with caution."
	default:
		v.Category = "legitimate"
		v.Summary = "No significant scam indicators detected."
		v.Confidence = 1 - score
	}
	return v, nil
}
