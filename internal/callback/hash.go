package callback

import (
	"crypto/md5"
	"encoding/hex"
)

const (
	// SearchHashLen keeps search tokens short enough for callback data.
	SearchHashLen = 5
	// MagnetHashLen identifies stored magnet links.
	MagnetHashLen = 8
)

// ShortHash derives a deterministic lowercase hex token from input,
// truncated to length characters. It is an identifier, not a secret:
// collisions alias two inputs to one store entry, which is acceptable
// because entries are short-lived and namespaced per use case.
func ShortHash(input string, length int) string {
	sum := md5.Sum([]byte(input))
	full := hex.EncodeToString(sum[:])
	if length <= 0 || length > len(full) {
		length = SearchHashLen
	}
	return full[:length]
}
