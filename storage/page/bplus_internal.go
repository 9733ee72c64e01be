package page

import (
	"encoding/binary"

	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/types"
)

// BPlusPageType is the discriminator byte at offset 4 of every B+ tree
// page, distinguishing an internal page from a leaf.
type BPlusPageType uint8

const (
	BPlusPageInternal BPlusPageType = 0
	BPlusPageLeaf     BPlusPageType = 1
)

const (
	bplusInternalHeaderSize = 21 // own_pid(4)+type(1)+lsn(4)+current_size(4)+max_size(4)+parent_pid(4)
	bplusInternalEntrySize  = 8  // key(4) + child_page_id(4)
	// BPlusPageTypeOffset is the fixed offset of the type discriminator
	// byte shared by both internal and leaf pages.
	BPlusPageTypeOffset = 4
)

// PeekPageType reads the type discriminator byte shared by both B+ tree
// page kinds without fully decoding either one.
func PeekPageType(rp *buffer.RawPage) BPlusPageType {
	var t BPlusPageType
	rp.WithRLock(func(data *[types.PageSize]byte) {
		t = BPlusPageType(data[BPlusPageTypeOffset])
	})
	return t
}

// BPlusInternalEntry is one (key, child_page_id) routing entry. Entry 0's
// key is conventionally unused by the routing rule.
type BPlusInternalEntry struct {
	Key     uint32
	ChildID types.PageID
}

// BPlusInternal is the decoded view of a B+ tree internal page.
type BPlusInternal struct {
	OwnPID      types.PageID
	LSN         uint32
	CurrentSize uint32
	MaxSize     uint32
	ParentPID   types.PageID
	Entries     []BPlusInternalEntry
}

// NewBPlusInternal returns an empty internal page with the given capacity.
func NewBPlusInternal(pageID, parentPID types.PageID, maxSize uint32) *BPlusInternal {
	return &BPlusInternal{
		OwnPID:    pageID,
		MaxSize:   maxSize,
		ParentPID: parentPID,
	}
}

// IsFull reports whether the page has no room for another entry.
func (n *BPlusInternal) IsFull() bool { return uint32(len(n.Entries)) >= n.MaxSize }

// Route implements the routing rule from §4.6.1: entry 0's key is ignored;
// for i from 1 to n-1, key in [entry[i].Key, entry[i+1].Key) routes to
// entry[i].ChildID; below entry[1].Key routes to entry[0].ChildID; at or
// past the last entry's key routes to the last entry.
func (n *BPlusInternal) Route(key uint32) types.PageID {
	if len(n.Entries) == 0 {
		return types.InvalidPageID
	}
	if len(n.Entries) == 1 || key < n.Entries[1].Key {
		return n.Entries[0].ChildID
	}
	for i := 1; i < len(n.Entries)-1; i++ {
		if key >= n.Entries[i].Key && key < n.Entries[i+1].Key {
			return n.Entries[i].ChildID
		}
	}
	return n.Entries[len(n.Entries)-1].ChildID
}

// InsertEntry inserts e keeping Entries sorted by Key among indices [1:]
// (entry 0 is positional, not key-ordered).
func (n *BPlusInternal) InsertEntry(e BPlusInternalEntry) {
	pos := len(n.Entries)
	for i := 1; i < len(n.Entries); i++ {
		if e.Key < n.Entries[i].Key {
			pos = i
			break
		}
	}
	n.Entries = append(n.Entries, BPlusInternalEntry{})
	copy(n.Entries[pos+1:], n.Entries[pos:])
	n.Entries[pos] = e
}

// DecodeBPlusInternal parses rp's bytes into a BPlusInternal. Fails with
// ErrCodec if the type byte does not mark an internal page.
func DecodeBPlusInternal(rp *buffer.RawPage) (*BPlusInternal, error) {
	var n *BPlusInternal
	var typeByte byte
	rp.WithRLock(func(data *[types.PageSize]byte) {
		typeByte = data[BPlusPageTypeOffset]
		n = &BPlusInternal{
			OwnPID:      types.PageID(binary.LittleEndian.Uint32(data[0:4])),
			LSN:         binary.LittleEndian.Uint32(data[5:9]),
			CurrentSize: binary.LittleEndian.Uint32(data[9:13]),
			MaxSize:     binary.LittleEndian.Uint32(data[13:17]),
			ParentPID:   types.PageID(binary.LittleEndian.Uint32(data[17:21])),
		}
		n.Entries = make([]BPlusInternalEntry, n.CurrentSize)
		for i := uint32(0); i < n.CurrentSize; i++ {
			off := bplusInternalHeaderSize + int(i)*bplusInternalEntrySize
			n.Entries[i] = BPlusInternalEntry{
				Key:     binary.LittleEndian.Uint32(data[off : off+4]),
				ChildID: types.PageID(binary.LittleEndian.Uint32(data[off+4 : off+8])),
			}
		}
	})
	if BPlusPageType(typeByte) != BPlusPageInternal {
		return nil, errCodecWrongType
	}
	return n, nil
}

// EncodeBPlusInternal serializes n into a fresh RawPage.
func EncodeBPlusInternal(n *BPlusInternal) *buffer.RawPage {
	rp := &buffer.RawPage{}
	rp.WithLock(func(data *[types.PageSize]byte) {
		binary.LittleEndian.PutUint32(data[0:4], uint32(n.OwnPID))
		data[BPlusPageTypeOffset] = byte(BPlusPageInternal)
		binary.LittleEndian.PutUint32(data[5:9], n.LSN)
		binary.LittleEndian.PutUint32(data[9:13], uint32(len(n.Entries)))
		binary.LittleEndian.PutUint32(data[13:17], n.MaxSize)
		binary.LittleEndian.PutUint32(data[17:21], uint32(n.ParentPID))
		for i, e := range n.Entries {
			off := bplusInternalHeaderSize + i*bplusInternalEntrySize
			binary.LittleEndian.PutUint32(data[off:off+4], e.Key)
			binary.LittleEndian.PutUint32(data[off+4:off+8], uint32(e.ChildID))
		}
	})
	return rp
}
