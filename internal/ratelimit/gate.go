package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBadIdentifier signals a caller bug: the value passed to Admit is not a
// well-formed identifier hash. Adversarial input never reaches the gate in
// raw form, so this is fatal to the call rather than handled as a quota
// decision.
var ErrBadIdentifier = errors.New("malformed identifier hash")

// hashLen is the hex length of the HMAC-SHA256 digest produced by Identify.
const hashLen = 64

// Decision is the gate's verdict on a single submission.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	// Degraded is set when the counter store failed and the configured
	// fail-open/fail-closed policy decided the outcome instead of a count.
	Degraded bool
}

// GateConfig controls the quota and the behavior when the counter store is
// unreachable. FailOpen must be an explicit choice: open favors
// availability, closed favors abuse prevention.
type GateConfig struct {
	Window       time.Duration
	MaxRequests  int
	FailOpen     bool
	StoreTimeout time.Duration
}

// Gate enforces a per-identifier submission quota over a fixed window. It
// only ever accepts pre-hashed identifiers; raw client identity stops at
// Identify.
type Gate struct {
	store CounterStore
	cfg   GateConfig
}

func NewGate(store CounterStore, cfg GateConfig) *Gate {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 10
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 2 * time.Second
	}
	return &Gate{store: store, cfg: cfg}
}

// Admit records one submission for identifierHash and reports whether it is
// within quota. When the store cannot be reached within the configured
// timeout the returned decision follows the fail-open/fail-closed policy and
// carries the store error for logging; the error is informational in that
// case, not fatal.
func (g *Gate) Admit(ctx context.Context, identifierHash string) (Decision, error) {
	if !validHash(identifierHash) {
		return Decision{}, fmt.Errorf("%w: %q", ErrBadIdentifier, identifierHash)
	}

	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.StoreTimeout)
	defer cancel()

	count, windowStart, err := g.store.Incr(storeCtx, identifierHash)
	if err != nil {
		d := Decision{Allowed: g.cfg.FailOpen, Degraded: true}
		if !d.Allowed {
			d.RetryAfter = g.cfg.Window
		}
		return d, fmt.Errorf("counter store unavailable: %w", err)
	}

	if count > g.cfg.MaxRequests {
		retry := time.Until(windowStart.Add(g.cfg.Window))
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	return Decision{Allowed: true, Remaining: g.cfg.MaxRequests - count}, nil
}

func validHash(h string) bool {
	if len(h) != hashLen {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}
