package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key computes the cache key for one compilation: sha256(source) +
// dialect + compiler-version, exactly §4.6's stated key shape.
func Key(source, dialect, compilerVersion string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(dialect))
	h.Write([]byte{0})
	h.Write([]byte(compilerVersion))
	return hex.EncodeToString(h.Sum(nil))
}
