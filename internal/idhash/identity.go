// Package idhash derives deterministic keys from video identities.
package idhash

import (
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// NormalizeURL trims whitespace and a trailing slash so the same video
// always maps to the same key.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	return strings.TrimSuffix(url, "/")
}

// IdentityKey computes a compact, fixed-size key for a video URL.
// Formula: base58(SHA256(normalized url)). Used where raw URLs make poor
// keys (KV stores, ClickHouse ordering keys).
func IdentityKey(url string) string {
	hash := sha256.Sum256([]byte(NormalizeURL(url)))
	return base58.Encode(hash[:])
}

// DecodeIdentityKey returns the raw SHA256 digest behind key.
func DecodeIdentityKey(key string) ([]byte, error) {
	return base58.Decode(key)
}
