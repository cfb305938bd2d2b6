package ratelimit

import (
	"strings"
	"testing"
)

func TestIdentifyShape(t *testing.T) {
	h := Identify("secret", "203.0.113.7", "Mozilla/5.0")
	if len(h) != hashLen {
		t.Fatalf("len = %d, want %d", len(h), hashLen)
	}
	if !validHash(h) {
		t.Fatalf("Identify output rejected by validHash: %q", h)
	}
	if strings.Contains(h, "203.0.113.7") {
		t.Fatalf("raw IP leaked into identifier: %q", h)
	}
}

func TestIdentifyDistinguishesClients(t *testing.T) {
	base := Identify("secret", "203.0.113.7", "Mozilla/5.0")
	if Identify("secret", "203.0.113.8", "Mozilla/5.0") == base {
		t.Fatalf("different IPs produced the same identifier")
	}
	if Identify("secret", "203.0.113.7", "curl/8.0") == base {
		t.Fatalf("different user agents produced the same identifier")
	}
	if Identify("other", "203.0.113.7", "Mozilla/5.0") == base {
		t.Fatalf("different secrets produced the same identifier")
	}
	if Identify("secret", "203.0.113.7", "Mozilla/5.0") != base {
		t.Fatalf("Identify is not deterministic")
	}
}
