package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// sourceHashLen is the number of hex characters of the digest kept on disk.
const sourceHashLen = 16

// HashSourceID returns a truncated SHA-256 of a client source address.
// The full address never reaches the database; the prefix is enough to
// correlate submissions from one source during moderation.
func HashSourceID(sourceID string) string {
	sum := sha256.Sum256([]byte(sourceID))
	return hex.EncodeToString(sum[:])[:sourceHashLen]
}
