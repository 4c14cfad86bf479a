package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeCheckID computes a deterministic check_id using SHA256.
// Formula: SHA256(normalized url|cycle_id|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeCheckID(url, cycleID string, ts time.Time) string {
	data := fmt.Sprintf("%s|%s|%d",
		NormalizeURL(url),
		cycleID,
		ts.UnixMilli(),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
