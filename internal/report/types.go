package report

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("report not found")

// Report is the persisted outcome of one analysis. Only scrubbed text and
// masked contact values ever reach this package; the raw submission stays
// request-scoped in the pipeline.
type Report struct {
	ID            string    `json:"id"`
	Mode          string    `json:"mode"`
	ScrubbedText  string    `json:"scrubbed_text"`
	MaskedContact string    `json:"masked_contact,omitempty"`
	URLCount      int       `json:"url_count"`
	MaliciousURLs int       `json:"malicious_urls"`
	Category      string    `json:"category"`
	Confidence    float64   `json:"confidence"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store persists and retrieves analysis reports. ByContact looks up earlier
// reports through the masked residue, which is the reason contacts are
// masked rather than dropped.
type Store interface {
	Save(ctx context.Context, r Report) (Report, error)
	Recent(ctx context.Context, limit int) ([]Report, error)
	ByContact(ctx context.Context, maskedContact string) ([]Report, error)
	Close() error
}
