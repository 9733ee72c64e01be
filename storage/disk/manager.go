// Package disk implements the Disk Manager: the only component that ever
// touches the backing file. It knows nothing of pinning, caching, or page
// contents beyond their fixed size — it just maps page_id to a byte range.
package disk

import (
	"fmt"

	"github.com/ryogrid/pagestore/pagestoreerr"
	"github.com/ryogrid/pagestore/types"
)

// Manager is the contract every backend (buffered file, direct I/O,
// in-memory) implements. Every method is safe to call concurrently: an
// implementation holds its own mutex across a whole read or write so
// seek+io+flush is never interleaved with another goroutine's operation.
type Manager interface {
	// ReadPage reads exactly one page at page_id*PageSize. Reading past EOF
	// is an IO error.
	ReadPage(pageID types.PageID) ([types.PageSize]byte, error)

	// WritePage writes and flushes exactly one page at page_id*PageSize,
	// auto-extending the file with zero pages if page_id is past the
	// current end.
	WritePage(pageID types.PageID, data [types.PageSize]byte) error

	// FileLength returns the current backing file length, in bytes.
	FileLength() (uint64, error)

	// AllocateNewPage returns file_length/PageSize, writes a zero page
	// there, and returns that id. It does not pin or cache anything.
	AllocateNewPage() (types.PageID, error)

	// Close releases any OS-level resources held by the backend.
	Close() error
}

// ioErrorf wraps cause as an ErrIO with a formatted message, the convention
// every backend in this package uses to surface disk faults.
func ioErrorf(msg string, cause error) error {
	return fmt.Errorf("%s: %w: %w", msg, pagestoreerr.ErrIO, cause)
}
