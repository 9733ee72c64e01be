// Package pagestoreerr defines the error taxonomy shared by the disk,
// buffer, and index layers: IO, Codec, CacheExhaustion, InvariantViolation,
// and UsageError. Callers use errors.Is against the sentinels below; leaf
// call sites wrap a sentinel with context via fmt.Errorf("...: %w", ...).
package pagestoreerr

import "errors"

var (
	// ErrIO marks a disk read/write failure or a missing backing file.
	// Fatal to the in-progress operation; never retried.
	ErrIO = errors.New("pagestore: io error")

	// ErrCodec marks a page that failed structural decode. The underlying
	// bytes are left intact; the operation that triggered the decode fails.
	ErrCodec = errors.New("pagestore: codec error")

	// ErrCacheExhaustion marks a buffer pool that is full with every frame
	// pinned, so no eviction victim exists. Recoverable by the caller
	// (retry after unpinning something), never by the cache itself.
	ErrCacheExhaustion = errors.New("pagestore: buffer pool exhausted")

	// ErrInvariantViolation marks a condition treated as fatal: a hash
	// directory local depth that would exceed the global-depth cap of 9,
	// or a page insert that has run out of room.
	ErrInvariantViolation = errors.New("pagestore: invariant violation")

	// ErrUsage marks a caller mistake: unpinning a page that was never
	// pinned, or unpinning one already at zero references. No state change
	// is made.
	ErrUsage = errors.New("pagestore: usage error")
)

// IsIO reports whether err (or any error it wraps) is an IO error.
func IsIO(err error) bool { return errors.Is(err, ErrIO) }

// IsCodec reports whether err (or any error it wraps) is a codec error.
func IsCodec(err error) bool { return errors.Is(err, ErrCodec) }

// IsCacheExhaustion reports whether err is a buffer pool exhaustion error.
func IsCacheExhaustion(err error) bool { return errors.Is(err, ErrCacheExhaustion) }

// IsInvariantViolation reports whether err is a declared-fatal invariant break.
func IsInvariantViolation(err error) bool { return errors.Is(err, ErrInvariantViolation) }

// IsUsage reports whether err is a caller usage error.
func IsUsage(err error) bool { return errors.Is(err, ErrUsage) }
