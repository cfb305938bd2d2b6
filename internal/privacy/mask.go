package privacy

import "strings"

// maskedShort is returned for values too short to mask meaningfully.
const maskedShort = "***"

// Mask obfuscates a retained contact value down to its last 3 characters,
// padding the front with asterisks so the total length is preserved. Values
// shorter than 4 characters collapse to the fixed literal "***" regardless of
// their original length. Mask is one-way and lossy; it is used for values
// kept for later cross-referencing, never as a substitute for Scrub.
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) < 4 {
		return maskedShort
	}
	return strings.Repeat("*", len(runes)-3) + string(runes[len(runes)-3:])
}
