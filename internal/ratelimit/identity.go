package ratelimit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Identify derives the one-way rate-limit key for an anonymous client from
// its IP address and user agent. This is the only place raw client identity
// is handled; everything past this function, including the counter store,
// only ever sees the digest. The secret keys the digest so identifiers are
// not enumerable offline.
func Identify(secret, ip, userAgent string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ip))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(userAgent))
	return hex.EncodeToString(mac.Sum(nil))
}
