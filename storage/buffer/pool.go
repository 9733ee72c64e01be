package buffer

import (
	"log/slog"
	"sync"

	applog "github.com/ryogrid/pagestore/log"
	"github.com/ryogrid/pagestore/pagestoreerr"
	"github.com/ryogrid/pagestore/storage/disk"
	"github.com/ryogrid/pagestore/storage/replacer"
	"github.com/ryogrid/pagestore/types"
)

// PageTableEntry mirrors the resident-page bookkeeping the pool keeps
// per page_id: which frame it lives in, whether it needs write-back, and
// how many outstanding pins hold it.
type PageTableEntry struct {
	FrameIndex types.FrameID
	Dirty      bool
	RefCount   int
}

// Stats is a point-in-time snapshot of pool activity, for observability.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	WritesBack uint64
}

// PoolManager is the buffer pool: a fixed array of frames, a page_id ->
// PageTableEntry table, an LRU replacer for eviction candidates, and a
// handle to the backing disk manager. All operations are serialized by a
// single mutex; a holder of that mutex may acquire the disk manager's own
// mutex during miss, eviction write-back, or flush, but never the reverse.
type PoolManager struct {
	mu sync.Mutex

	disk     disk.Manager
	replacer *replacer.LRUReplacer

	frames    []*RawPage
	pageTable map[types.PageID]*PageTableEntry

	stats Stats
	log   *slog.Logger
}

// NewPoolManager builds a pool of poolSize frames backed by d.
func NewPoolManager(d disk.Manager, poolSize int) *PoolManager {
	return &PoolManager{
		disk:      d,
		replacer:  replacer.NewLRUReplacer(poolSize),
		frames:    make([]*RawPage, poolSize),
		pageTable: make(map[types.PageID]*PageTableEntry, poolSize),
		log:       applog.Component("buffer"),
	}
}

// Stats returns a snapshot of the pool's hit/miss/eviction counters.
func (p *PoolManager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// FetchPage pins page_id, loading it from disk on a miss, and returns its
// RawPage handle. Callers must pair every successful FetchPage with an
// UnpinPage.
func (p *PoolManager) FetchPage(pageID types.PageID) (*RawPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchLocked(pageID)
}

func (p *PoolManager) fetchLocked(pageID types.PageID) (*RawPage, error) {
	if entry, ok := p.pageTable[pageID]; ok {
		if entry.RefCount == 0 {
			p.replacer.DropPage(pageID)
		}
		entry.RefCount++
		p.stats.Hits++
		return p.frames[entry.FrameIndex], nil
	}

	p.stats.Misses++
	frameIdx, err := p.admitFrameLocked()
	if err != nil {
		return nil, err
	}

	data, err := p.disk.ReadPage(pageID)
	if err != nil {
		return nil, err
	}

	rp := &RawPage{data: data}
	p.frames[frameIdx] = rp
	p.pageTable[pageID] = &PageTableEntry{FrameIndex: frameIdx, Dirty: false, RefCount: 1}
	return rp, nil
}

// admitFrameLocked returns a frame index ready to receive a freshly read
// page, evicting an LRU victim if the pool is full. Caller holds p.mu.
func (p *PoolManager) admitFrameLocked() (types.FrameID, error) {
	for i, f := range p.frames {
		if f == nil {
			return types.FrameID(i), nil
		}
	}

	victimPID, ok := p.replacer.PopLeastRecentlyUsed()
	if !ok {
		return types.InvalidFrameID, pagestoreerr.ErrCacheExhaustion
	}

	victim := p.pageTable[victimPID]
	frameIdx := victim.FrameIndex
	if victim.Dirty {
		if err := p.disk.WritePage(victimPID, p.frames[frameIdx].Bytes()); err != nil {
			return types.InvalidFrameID, err
		}
		p.stats.WritesBack++
	}
	delete(p.pageTable, victimPID)
	p.frames[frameIdx] = nil
	p.stats.Evictions++
	p.log.Debug("evicted page", "page_id", victimPID, "frame", frameIdx, "was_dirty", victim.Dirty)
	return frameIdx, nil
}

func (p *PoolManager) unpinLocked(pageID types.PageID) error {
	entry, ok := p.pageTable[pageID]
	if !ok {
		return pagestoreerr.ErrUsage
	}
	if entry.RefCount == 0 {
		return pagestoreerr.ErrUsage
	}
	entry.RefCount--
	if entry.RefCount == 0 {
		p.replacer.AddPage(pageID)
	}
	return nil
}

// UnpinPage decrements page_id's pin count, registering it with the LRU
// replacer on the 1->0 transition. It is a usage error to unpin a page
// that is not resident or already at zero pins.
func (p *PoolManager) UnpinPage(pageID types.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unpinLocked(pageID)
}

func (p *PoolManager) updateLocked(pageID types.PageID, data [types.PageSize]byte) error {
	entry, ok := p.pageTable[pageID]
	if !ok {
		if _, err := p.fetchLocked(pageID); err != nil {
			return err
		}
		entry = p.pageTable[pageID]
	}
	p.frames[entry.FrameIndex].SetBytes(data)
	entry.Dirty = true
	return nil
}

// UpdatePage overwrites page_id's bytes and marks it dirty, pinning it
// first if it was not already resident.
func (p *PoolManager) UpdatePage(pageID types.PageID, data [types.PageSize]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateLocked(pageID, data)
}

// AllocatePage asks the disk manager for a fresh page_id. The new page is
// not pinned.
func (p *PoolManager) AllocatePage() (types.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disk.AllocateNewPage()
}

func (p *PoolManager) newPageLocked() (types.PageID, *RawPage, error) {
	pageID, err := p.disk.AllocateNewPage()
	if err != nil {
		return 0, nil, err
	}
	rp, err := p.fetchLocked(pageID)
	if err != nil {
		return 0, nil, err
	}
	return pageID, rp, nil
}

// NewPage allocates a fresh page_id and immediately pins it, returning
// both the id and its (zeroed) RawPage handle.
func (p *PoolManager) NewPage() (types.PageID, *RawPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.newPageLocked()
}

// FlushAll writes every dirty resident page through the disk manager, then
// clears the pool: all frames freed, all LRU entries dropped. Any
// outstanding pin handles become invalid; that is the caller's
// responsibility to avoid.
func (p *PoolManager) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	written := 0
	for pageID, entry := range p.pageTable {
		if !entry.Dirty {
			continue
		}
		if err := p.disk.WritePage(pageID, p.frames[entry.FrameIndex].Bytes()); err != nil {
			return err
		}
		entry.Dirty = false
		written++
	}
	p.stats.WritesBack += uint64(written)
	p.log.Debug("flush_all", "pages_written", written, "hits", p.stats.Hits, "misses", p.stats.Misses, "evictions", p.stats.Evictions)

	for i := range p.frames {
		p.frames[i] = nil
	}
	p.pageTable = make(map[types.PageID]*PageTableEntry)
	p.replacer.DropAll()
	return nil
}

// Guard gives an index structural operation (a split, a directory growth)
// exclusive access to the pool's fetch/unpin/update/new-page primitives
// across several page touches, without re-entering the pool's public API
// and self-deadlocking on its mutex.
type Guard struct {
	pool *PoolManager
}

// Fetch pins page_id. See PoolManager.FetchPage.
func (g *Guard) Fetch(pageID types.PageID) (*RawPage, error) {
	return g.pool.fetchLocked(pageID)
}

// Unpin unpins page_id. See PoolManager.UnpinPage.
func (g *Guard) Unpin(pageID types.PageID) error {
	return g.pool.unpinLocked(pageID)
}

// Update overwrites page_id's bytes and marks it dirty. See PoolManager.UpdatePage.
func (g *Guard) Update(pageID types.PageID, data [types.PageSize]byte) error {
	return g.pool.updateLocked(pageID, data)
}

// NewPage allocates and pins a fresh page. See PoolManager.NewPage.
func (g *Guard) NewPage() (types.PageID, *RawPage, error) {
	return g.pool.newPageLocked()
}

// WithGuard runs fn with the pool mutex held for fn's entire duration,
// passing a Guard through which fn performs its page accesses. Index
// insert/split/remove sequences that must appear atomic to other
// goroutines call this once per top-level operation.
func (p *PoolManager) WithGuard(fn func(g *Guard) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(&Guard{pool: p})
}
