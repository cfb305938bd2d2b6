package urlcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scamscope/scamscope/internal/reliability"
)

// Risk classifies a URL's reputation. Unknown is the safe default for any
// failure or absent capability, so downstream logic only ever deals with
// three states.
type Risk string

const (
	RiskSafe      Risk = "safe"
	RiskMalicious Risk = "malicious"
	RiskUnknown   Risk = "unknown"
)

// Checker classifies a batch of already-deduplicated URLs. Implementations
// never fail the request: any URL whose reputation cannot be determined maps
// to RiskUnknown.
type Checker interface {
	Check(ctx context.Context, urls []string) map[string]Risk
}

// Disabled is used when no reputation API credentials are configured. Every
// URL resolves to unknown.
type Disabled struct{}

func (Disabled) Check(_ context.Context, urls []string) map[string]Risk {
	out := make(map[string]Risk, len(urls))
	for _, u := range urls {
		out[u] = RiskUnknown
	}
	return out
}

const defaultEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

// ReputationConfig configures the external reputation lookup.
type ReputationConfig struct {
	APIKey    string
	Endpoint  string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

// ReputationChecker queries a Safe Browsing style threat-match endpoint, one
// batched call per request. Recent verdicts are cached with a bounded TTL to
// absorb the same URL appearing across nearby reports; the cache is an
// optimization only.
type ReputationChecker struct {
	cfg    ReputationConfig
	client *http.Client
	cache  *resultCache
}

func NewReputationChecker(cfg ReputationConfig) *ReputationChecker {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	return &ReputationChecker{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  newResultCache(cfg.CacheSize, cfg.CacheTTL),
	}
}

type threatEntry struct {
	URL string `json:"url"`
}

type threatMatchRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string      `json:"threatTypes"`
		PlatformTypes    []string      `json:"platformTypes"`
		ThreatEntryTypes []string      `json:"threatEntryTypes"`
		ThreatEntries    []threatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type threatMatchResponse struct {
	Matches []struct {
		ThreatType string      `json:"threatType"`
		Threat     threatEntry `json:"threat"`
	} `json:"matches"`
}

// Check resolves each URL to a risk class. Cached verdicts are served
// directly; the rest go out in a single batched call. Any transport failure,
// non-2xx status or malformed body leaves the affected URLs at unknown.
func (c *ReputationChecker) Check(ctx context.Context, urls []string) map[string]Risk {
	out := make(map[string]Risk, len(urls))
	var misses []string
	for _, u := range urls {
		if risk, ok := c.cache.get(u); ok {
			out[u] = risk
			continue
		}
		out[u] = RiskUnknown
		misses = append(misses, u)
	}
	if len(misses) == 0 {
		return out
	}

	resp, err := c.lookup(ctx, misses)
	if err != nil {
		return out
	}

	flagged := make(map[string]bool, len(resp.Matches))
	for _, m := range resp.Matches {
		flagged[m.Threat.URL] = true
	}
	for _, u := range misses {
		risk := RiskSafe
		if flagged[u] {
			risk = RiskMalicious
		}
		out[u] = risk
		c.cache.set(u, risk)
	}
	return out
}

func (c *ReputationChecker) lookup(ctx context.Context, urls []string) (threatMatchResponse, error) {
	var req threatMatchRequest
	req.Client.ClientID = "scamscope"
	req.Client.ClientVersion = "1.0"
	req.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}
	req.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	req.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	for _, u := range urls {
		req.ThreatInfo.ThreatEntries = append(req.ThreatInfo.ThreatEntries, threatEntry{URL: u})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return threatMatchResponse{}, err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return threatMatchResponse{}, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, 200*time.Millisecond, time.Second)):
			}
		}

		resp, retryable, err := c.post(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return threatMatchResponse{}, lastErr
}

func (c *ReputationChecker) post(ctx context.Context, payload []byte) (threatMatchResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"?key="+c.cfg.APIKey, bytes.NewReader(payload))
	if err != nil {
		return threatMatchResponse{}, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return threatMatchResponse{}, true, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return threatMatchResponse{}, reliability.IsRetryableHTTPStatus(res.StatusCode),
			&statusError{code: res.StatusCode, body: string(body)}
	}

	var out threatMatchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return threatMatchResponse{}, false, err
	}
	return out, false, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("reputation service status %d: %s", e.code, e.body)
}
