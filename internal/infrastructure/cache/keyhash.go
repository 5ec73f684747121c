package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey maps a logical cache key to a filesystem-safe name: lowercase hex
// SHA-256, 64 characters, stable across platforms and restarts.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
