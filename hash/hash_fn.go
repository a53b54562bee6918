package hash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// DefaultHash hashes any key by turning it into bytes (directly for
// strings and byte slices, via its default formatting otherwise) and
// taking the low 32 bits of its xxhash digest. It fits the spec's "no
// assumptions about distribution; collisions are handled by
// directory/bucket growth" note (§6) — any function from K to a
// reasonably well-distributed uint32 is an acceptable Hash.
func DefaultHash[K any](key K) uint32 {
	var buf []byte
	switch v := any(key).(type) {
	case string:
		buf = []byte(v)
	case []byte:
		buf = v
	default:
		buf = []byte(fmt.Sprint(key))
	}
	return uint32(xxhash.Sum64(buf))
}
