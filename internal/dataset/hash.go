package dataset

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex SHA-256 of the raw upload bytes. It is the
// dataset's identity: identical bytes always map to the same loaded dataset,
// which is what the memoization cache keys on.
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
