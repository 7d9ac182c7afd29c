package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key builds a cache key from a prefix and the request parts that make a
// completion unique (model, prompt). Parts are JSON-encoded before hashing
// so "ab"+"c" and "a"+"bc" produce different keys.
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the SHA-256 of data as a 64-character hex string. The full
// digest is kept; truncating would invite collisions between prompts.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
