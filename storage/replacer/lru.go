// Package replacer implements the LRU Replacer: a capacity-bounded set of
// evictable page ids, each tagged with the monotonic time it became
// evictable. Eviction order follows that timestamp, not access recency —
// the buffer pool is the only thing that ever calls AddPage, and only on
// the ref_count 1->0 transition.
package replacer

import (
	"container/heap"

	"github.com/ryogrid/pagestore/types"
)

type entry struct {
	pageID types.PageID
	stamp  int64
	index  int // position in the heap, maintained by container/heap
}

// timestampHeap is a min-heap by stamp, implementing container/heap.Interface.
type timestampHeap []*entry

func (h timestampHeap) Len() int            { return len(h) }
func (h timestampHeap) Less(i, j int) bool  { return h[i].stamp < h[j].stamp }
func (h timestampHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timestampHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timestampHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// LRUReplacer tracks evictable page ids ordered by the time each became
// evictable and pops the oldest on demand.
type LRUReplacer struct {
	capacity int
	heap     timestampHeap
	byPage   map[types.PageID]*entry
	clock    int64 // monotonically increasing logical timestamp
}

// NewLRUReplacer allocates a replacer with room for capacity page ids.
func NewLRUReplacer(capacity int) *LRUReplacer {
	return &LRUReplacer{
		capacity: capacity,
		heap:     make(timestampHeap, 0, capacity),
		byPage:   make(map[types.PageID]*entry, capacity),
	}
}

// Size returns the number of page ids currently tracked.
func (r *LRUReplacer) Size() int { return len(r.byPage) }

// AddPage stamps pageID with the current logical timestamp. If pageID is
// already present its timestamp is replaced (add is only ever called on the
// 0->evictable transition, so this is not expected to matter in practice).
func (r *LRUReplacer) AddPage(pageID types.PageID) {
	r.clock++
	if e, ok := r.byPage[pageID]; ok {
		e.stamp = r.clock
		heap.Fix(&r.heap, e.index)
		return
	}
	e := &entry{pageID: pageID, stamp: r.clock}
	heap.Push(&r.heap, e)
	r.byPage[pageID] = e
}

// DropPage removes pageID if present, returning it and true; otherwise
// returns the zero value and false.
func (r *LRUReplacer) DropPage(pageID types.PageID) (types.PageID, bool) {
	e, ok := r.byPage[pageID]
	if !ok {
		return 0, false
	}
	heap.Remove(&r.heap, e.index)
	delete(r.byPage, pageID)
	return pageID, true
}

// PopLeastRecentlyUsed removes and returns the page id with the smallest
// timestamp — the one that became evictable longest ago.
func (r *LRUReplacer) PopLeastRecentlyUsed() (types.PageID, bool) {
	if r.heap.Len() == 0 {
		return 0, false
	}
	e := heap.Pop(&r.heap).(*entry)
	delete(r.byPage, e.pageID)
	return e.pageID, true
}

// DropAll clears every tracked page id.
func (r *LRUReplacer) DropAll() {
	r.heap = r.heap[:0]
	r.byPage = make(map[types.PageID]*entry, r.capacity)
}
