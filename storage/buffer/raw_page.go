// Package buffer implements the buffer pool manager: the cache of
// POOL_SIZE in-memory frames sitting between the disk manager and every
// index structure. Nothing outside this package touches a page's bytes
// except through a pinned RawPage handle.
package buffer

import (
	"sync"

	"github.com/ryogrid/pagestore/types"
)

// RawPage is a shared, concurrently readable/writable 4096-byte buffer.
// A pinned frame's handle stays valid for the life of the pin; the page
// codecs copy the bytes out when decoding and do not keep the handle. The
// RWMutex lets a pin holder read or mutate the bytes without re-entering
// the pool's mutex.
type RawPage struct {
	mu   sync.RWMutex
	data [types.PageSize]byte
}

// WithRLock runs fn with the page's read lock held, handing it a read-only
// view of the bytes.
func (p *RawPage) WithRLock(fn func(data *[types.PageSize]byte)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(&p.data)
}

// WithLock runs fn with the page's write lock held, handing it a mutable
// view of the bytes.
func (p *RawPage) WithLock(fn func(data *[types.PageSize]byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.data)
}

// Bytes returns a copy of the page's current contents.
func (p *RawPage) Bytes() [types.PageSize]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// SetBytes overwrites the page's contents in place.
func (p *RawPage) SetBytes(data [types.PageSize]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = data
}
