// Package types holds the identifiers and constants shared across the
// storage engine: page/frame ids, the row identifier used by both index
// structures, and the fixed sizes the whole stack is built around.
package types

import "math"

// PageSize is the fixed size, in bytes, of every page on disk and in memory.
const PageSize = 4096

// PoolSize is the number of frames the buffer pool holds.
const PoolSize = 100

// PageID identifies a page by its offset (in units of PageSize) in the
// backing file. PageID(offset) lives at byte offset*PageSize.
type PageID uint32

// InvalidPageID marks the absence of a page, used in link fields such as
// next_leaf/prev_leaf and a root's parent_pid.
const InvalidPageID PageID = math.MaxUint32

// FrameID identifies a slot in the buffer pool's frame array, in [0, PoolSize).
type FrameID int32

// InvalidFrameID marks "no frame assigned".
const InvalidFrameID FrameID = -1

// RID (row identifier) points into a heap (table) page: the page holding the
// tuple and its slot within that page's slot array. Opaque to index code.
type RID struct {
	PageID PageID
	SlotID uint32
}

// RIDSize is the encoded size of a RID: 4 bytes PageID + 4 bytes SlotID.
const RIDSize = 8

// NewRID builds a RID from its components.
func NewRID(pageID PageID, slotID uint32) RID {
	return RID{PageID: pageID, SlotID: slotID}
}

// IsValid reports whether the RID refers to a real page.
func (r RID) IsValid() bool {
	return r.PageID != InvalidPageID
}
