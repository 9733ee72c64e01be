// Package btree implements the B+ tree index: ordered key -> RID lookups,
// range scans via leaf chaining, and full split-and-promote insert
// (leaf/internal split at the median, new-root growth on a root split).
package btree

import (
	"log/slog"

	applog "github.com/ryogrid/pagestore/log"
	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/storage/page"
	"github.com/ryogrid/pagestore/types"
)

// Index is an ordered key -> RID map backed by a B+ tree of pages pinned
// through a buffer.PoolManager.
type Index struct {
	pool        *buffer.PoolManager
	rootPageID  types.PageID
	maxLeaf     uint32
	maxInternal uint32
	log         *slog.Logger
}

// CreateBTree allocates a single empty leaf page as the initial root.
func CreateBTree(pool *buffer.PoolManager, maxLeaf, maxInternal uint32) (*Index, types.PageID, error) {
	var rootID types.PageID
	err := pool.WithGuard(func(g *buffer.Guard) error {
		id, _, err := g.NewPage()
		if err != nil {
			return err
		}
		root := page.NewBPlusLeaf(id, types.InvalidPageID, maxLeaf)
		if err := g.Update(id, page.EncodeBPlusLeaf(root).Bytes()); err != nil {
			return err
		}
		g.Unpin(id)
		rootID = id
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return OpenBTree(pool, rootID, maxLeaf, maxInternal), rootID, nil
}

// OpenBTree wraps an existing root page.
func OpenBTree(pool *buffer.PoolManager, rootPageID types.PageID, maxLeaf, maxInternal uint32) *Index {
	return &Index{
		pool:        pool,
		rootPageID:  rootPageID,
		maxLeaf:     maxLeaf,
		maxInternal: maxInternal,
		log:         applog.Component("btree"),
	}
}

// RootPageID returns the current root page id. A root split changes it, so
// callers that persist the root id externally must re-read it after any
// Insert that might have split the root.
func (idx *Index) RootPageID() types.PageID {
	return idx.rootPageID
}

// Search walks from the root to the containing leaf and returns the RID
// for key, if present.
func (idx *Index) Search(key uint32) (types.RID, bool, error) {
	var result types.RID
	var found bool
	err := idx.pool.WithGuard(func(g *buffer.Guard) error {
		leafID, err := idx.findLeaf(g, key)
		if err != nil {
			return err
		}
		leaf, err := idx.loadLeaf(g, leafID)
		if err != nil {
			g.Unpin(leafID)
			return err
		}
		result, found = leaf.Search(key)
		g.Unpin(leafID)
		return nil
	})
	return result, found, err
}

// Insert adds (key, rid) to the containing leaf, splitting (and promoting
// into ancestors, growing a new root if necessary) when the leaf is full.
func (idx *Index) Insert(key uint32, rid types.RID) error {
	return idx.pool.WithGuard(func(g *buffer.Guard) error {
		leafID, err := idx.findLeaf(g, key)
		if err != nil {
			return err
		}
		leaf, err := idx.loadLeaf(g, leafID)
		if err != nil {
			g.Unpin(leafID)
			return err
		}

		if !leaf.IsFull() {
			leaf.Insert(key, rid)
			if err := g.Update(leafID, page.EncodeBPlusLeaf(leaf).Bytes()); err != nil {
				g.Unpin(leafID)
				return err
			}
			g.Unpin(leafID)
			return nil
		}

		g.Unpin(leafID)
		return idx.splitLeafAndInsert(g, leaf, key, rid)
	})
}

// findLeaf routes from the root to the leaf that would contain key,
// returning its page id. No pages remain pinned on return.
func (idx *Index) findLeaf(g *buffer.Guard, key uint32) (types.PageID, error) {
	pid := idx.rootPageID
	for {
		rp, err := g.Fetch(pid)
		if err != nil {
			return 0, err
		}
		if page.PeekPageType(rp) == page.BPlusPageLeaf {
			g.Unpin(pid)
			return pid, nil
		}
		internal, err := page.DecodeBPlusInternal(rp)
		if err != nil {
			g.Unpin(pid)
			return 0, err
		}
		child := internal.Route(key)
		g.Unpin(pid)
		pid = child
	}
}

// leftmostLeaf recursively follows entry[0].child from the root, used as
// the starting point for a full-range scan.
func (idx *Index) leftmostLeaf(g *buffer.Guard) (types.PageID, error) {
	pid := idx.rootPageID
	for {
		rp, err := g.Fetch(pid)
		if err != nil {
			return 0, err
		}
		if page.PeekPageType(rp) == page.BPlusPageLeaf {
			g.Unpin(pid)
			return pid, nil
		}
		internal, err := page.DecodeBPlusInternal(rp)
		if err != nil {
			g.Unpin(pid)
			return 0, err
		}
		g.Unpin(pid)
		if len(internal.Entries) == 0 {
			return 0, errEmptyInternal
		}
		pid = internal.Entries[0].ChildID
	}
}

// Scan calls fn for every (key, rid) pair in ascending key order, starting
// from the leftmost leaf and following next_leaf links. Stops early if fn
// returns false.
func (idx *Index) Scan(fn func(key uint32, rid types.RID) bool) error {
	return idx.pool.WithGuard(func(g *buffer.Guard) error {
		pid, err := idx.leftmostLeaf(g)
		if err != nil {
			return err
		}
		for pid != types.InvalidPageID {
			leaf, err := idx.loadLeaf(g, pid)
			if err != nil {
				g.Unpin(pid)
				return err
			}
			next := leaf.NextLeaf
			for i := range leaf.Keys {
				if !fn(leaf.Keys[i], leaf.RIDs[i]) {
					g.Unpin(pid)
					return nil
				}
			}
			g.Unpin(pid)
			pid = next
		}
		return nil
	})
}

func (idx *Index) loadLeaf(g *buffer.Guard, pageID types.PageID) (*page.BPlusLeaf, error) {
	rp, err := g.Fetch(pageID)
	if err != nil {
		return nil, err
	}
	return page.DecodeBPlusLeaf(rp)
}

func (idx *Index) loadInternal(g *buffer.Guard, pageID types.PageID) (*page.BPlusInternal, error) {
	rp, err := g.Fetch(pageID)
	if err != nil {
		return nil, err
	}
	return page.DecodeBPlusInternal(rp)
}

// setParentPID updates the stored parent_pid of whichever page kind lives
// at pageID.
func (idx *Index) setParentPID(g *buffer.Guard, pageID, parentID types.PageID) error {
	rp, err := g.Fetch(pageID)
	if err != nil {
		return err
	}
	defer g.Unpin(pageID)

	if page.PeekPageType(rp) == page.BPlusPageLeaf {
		leaf, err := page.DecodeBPlusLeaf(rp)
		if err != nil {
			return err
		}
		leaf.ParentPID = parentID
		return g.Update(pageID, page.EncodeBPlusLeaf(leaf).Bytes())
	}
	internal, err := page.DecodeBPlusInternal(rp)
	if err != nil {
		return err
	}
	internal.ParentPID = parentID
	return g.Update(pageID, page.EncodeBPlusInternal(internal).Bytes())
}

func (idx *Index) relinkPrev(g *buffer.Guard, pageID, newPrev types.PageID) error {
	leaf, err := idx.loadLeaf(g, pageID)
	if err != nil {
		g.Unpin(pageID)
		return err
	}
	leaf.PrevLeaf = newPrev
	if err := g.Update(pageID, page.EncodeBPlusLeaf(leaf).Bytes()); err != nil {
		g.Unpin(pageID)
		return err
	}
	g.Unpin(pageID)
	return nil
}

// splitLeafAndInsert splits a full leaf at the median, chains the new leaf
// into the doubly linked list, and promotes the right half's first key
// into the parent (recursing into splitInternalAndInsert / a new root as
// needed).
func (idx *Index) splitLeafAndInsert(g *buffer.Guard, leaf *page.BPlusLeaf, key uint32, rid types.RID) error {
	merged := &page.BPlusLeaf{
		Keys: append([]uint32{}, leaf.Keys...),
		RIDs: append([]types.RID{}, leaf.RIDs...),
	}
	merged.Insert(key, rid)

	mid := len(merged.Keys) / 2
	leftKeys := append([]uint32{}, merged.Keys[:mid]...)
	leftRIDs := append([]types.RID{}, merged.RIDs[:mid]...)
	rightKeys := append([]uint32{}, merged.Keys[mid:]...)
	rightRIDs := append([]types.RID{}, merged.RIDs[mid:]...)

	newLeafID, _, err := g.NewPage()
	if err != nil {
		return err
	}
	newLeaf := page.NewBPlusLeaf(newLeafID, leaf.ParentPID, leaf.MaxSize)
	newLeaf.Keys = rightKeys
	newLeaf.RIDs = rightRIDs
	newLeaf.NextLeaf = leaf.NextLeaf
	newLeaf.PrevLeaf = leaf.OwnPID

	oldNext := leaf.NextLeaf
	leaf.Keys = leftKeys
	leaf.RIDs = leftRIDs
	leaf.NextLeaf = newLeafID

	if oldNext != types.InvalidPageID {
		if err := idx.relinkPrev(g, oldNext, newLeafID); err != nil {
			return err
		}
	}

	if err := g.Update(leaf.OwnPID, page.EncodeBPlusLeaf(leaf).Bytes()); err != nil {
		return err
	}
	if err := g.Update(newLeafID, page.EncodeBPlusLeaf(newLeaf).Bytes()); err != nil {
		g.Unpin(newLeafID)
		return err
	}
	g.Unpin(newLeafID)

	idx.log.Debug("leaf split", "left", leaf.OwnPID, "right", newLeafID, "promote_key", rightKeys[0])
	return idx.insertIntoParentOrNewRoot(g, leaf.ParentPID, leaf.OwnPID, newLeafID, rightKeys[0])
}

// insertIntoParentOrNewRoot is the shared promotion step for both leaf and
// internal splits: insert (sepKey, rightChildID) into parentID, or grow a
// brand-new root over leftChildID/rightChildID if parentID is invalid (the
// split node was the root).
func (idx *Index) insertIntoParentOrNewRoot(g *buffer.Guard, parentID, leftChildID, rightChildID types.PageID, sepKey uint32) error {
	if parentID == types.InvalidPageID {
		newRootID, _, err := g.NewPage()
		if err != nil {
			return err
		}
		root := page.NewBPlusInternal(newRootID, types.InvalidPageID, idx.maxInternal)
		root.Entries = []page.BPlusInternalEntry{
			{Key: 0, ChildID: leftChildID},
			{Key: sepKey, ChildID: rightChildID},
		}
		if err := idx.setParentPID(g, leftChildID, newRootID); err != nil {
			return err
		}
		if err := idx.setParentPID(g, rightChildID, newRootID); err != nil {
			return err
		}
		if err := g.Update(newRootID, page.EncodeBPlusInternal(root).Bytes()); err != nil {
			g.Unpin(newRootID)
			return err
		}
		g.Unpin(newRootID)
		idx.log.Debug("new root grown", "root", newRootID)
		idx.rootPageID = newRootID
		return nil
	}

	parent, err := idx.loadInternal(g, parentID)
	if err != nil {
		g.Unpin(parentID)
		return err
	}

	if !parent.IsFull() {
		parent.InsertEntry(page.BPlusInternalEntry{Key: sepKey, ChildID: rightChildID})
		if err := idx.setParentPID(g, rightChildID, parentID); err != nil {
			g.Unpin(parentID)
			return err
		}
		err := g.Update(parentID, page.EncodeBPlusInternal(parent).Bytes())
		g.Unpin(parentID)
		return err
	}

	g.Unpin(parentID)
	return idx.splitInternalAndInsert(g, parent, sepKey, rightChildID)
}

// splitInternalAndInsert splits a full internal page at the median,
// promoting the middle entry's key into the parent; the middle entry's
// child becomes the new right page's first (positional) entry.
func (idx *Index) splitInternalAndInsert(g *buffer.Guard, parent *page.BPlusInternal, sepKey uint32, sepChildID types.PageID) error {
	temp := &page.BPlusInternal{Entries: append([]page.BPlusInternalEntry{}, parent.Entries...)}
	temp.InsertEntry(page.BPlusInternalEntry{Key: sepKey, ChildID: sepChildID})
	merged := temp.Entries

	mid := len(merged) / 2
	leftEntries := append([]page.BPlusInternalEntry{}, merged[:mid]...)
	promoteKey := merged[mid].Key
	rightFirstChild := merged[mid].ChildID
	rightEntries := append([]page.BPlusInternalEntry{{Key: 0, ChildID: rightFirstChild}}, merged[mid+1:]...)

	newRightID, _, err := g.NewPage()
	if err != nil {
		return err
	}
	newRight := page.NewBPlusInternal(newRightID, parent.ParentPID, parent.MaxSize)
	newRight.Entries = rightEntries

	parent.Entries = leftEntries

	for _, e := range newRight.Entries {
		if err := idx.setParentPID(g, e.ChildID, newRightID); err != nil {
			g.Unpin(newRightID)
			return err
		}
	}

	if err := g.Update(parent.OwnPID, page.EncodeBPlusInternal(parent).Bytes()); err != nil {
		g.Unpin(newRightID)
		return err
	}
	if err := g.Update(newRightID, page.EncodeBPlusInternal(newRight).Bytes()); err != nil {
		g.Unpin(newRightID)
		return err
	}
	g.Unpin(newRightID)

	idx.log.Debug("internal split", "left", parent.OwnPID, "right", newRightID, "promote_key", promoteKey)
	return idx.insertIntoParentOrNewRoot(g, parent.ParentPID, parent.OwnPID, newRightID, promoteKey)
}
