// Package util holds the error taxonomy and page codec shared by the
// storage engine's layers.
package util

import "github.com/go-faster/errors"

// ErrNoCapacity is returned when the buffer pool has no free or
// evictable frame to satisfy an allocation (spec §7). The other "normal,
// callers check for this" outcomes spec §7 describes — not found,
// directory overflow, duplicate key — are represented as a plain
// `(zero, false)` return at their call sites instead of a sentinel
// error, per spec §7's own framing of those as absent/false returns
// rather than errors.
var ErrNoCapacity = errors.New("petrocore: no capacity available")

// ContractViolation panics with a message identifying a broken invariant.
// Used for cases spec §7 calls "programmer error": invalid frame ids and
// removing a non-evictable frame from the replacer. Double-unpinning a
// page is not one of them: PoolManager.UnpinPage reports it by returning
// false.
func ContractViolation(msg string) {
	panic("petrocore: contract violation: " + msg)
}
