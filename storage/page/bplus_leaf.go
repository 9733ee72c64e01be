package page

import (
	"encoding/binary"

	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/types"
)

const (
	bplusLeafHeaderSize = 29 // internal header(21) + next_leaf(4) + prev_leaf(4)
	bplusLeafKeySize    = 4
)

// BPlusLeaf is the decoded view of a B+ tree leaf page. Keys grow forward
// from offset 29; RIDs occupy a separate fixed region starting at
// PAGE_SIZE - max_size*RIDSize, also indexed forward. next_leaf/prev_leaf
// chain every leaf into one doubly linked list for range scans.
type BPlusLeaf struct {
	OwnPID      types.PageID
	LSN         uint32
	CurrentSize uint32
	MaxSize     uint32
	ParentPID   types.PageID
	NextLeaf    types.PageID
	PrevLeaf    types.PageID
	Keys        []uint32
	RIDs        []types.RID
}

// NewBPlusLeaf returns an empty leaf page with no chain links.
func NewBPlusLeaf(pageID, parentPID types.PageID, maxSize uint32) *BPlusLeaf {
	return &BPlusLeaf{
		OwnPID:    pageID,
		MaxSize:   maxSize,
		ParentPID: parentPID,
		NextLeaf:  types.InvalidPageID,
		PrevLeaf:  types.InvalidPageID,
	}
}

// IsFull reports whether the leaf has no room for another entry.
func (l *BPlusLeaf) IsFull() bool { return uint32(len(l.Keys)) >= l.MaxSize }

// Search binary-searches for key, returning its RID and true on a hit.
func (l *BPlusLeaf) Search(key uint32) (types.RID, bool) {
	lo, hi := 0, len(l.Keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.Keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(l.Keys) && l.Keys[lo] == key {
		return l.RIDs[lo], true
	}
	return types.RID{}, false
}

// Insert inserts (key, rid) at the binary-search position, keeping Keys
// ascending. Duplicate keys are permitted, inserted before any equal key.
func (l *BPlusLeaf) Insert(key uint32, rid types.RID) {
	lo, hi := 0, len(l.Keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.Keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	l.Keys = append(l.Keys, 0)
	copy(l.Keys[lo+1:], l.Keys[lo:])
	l.Keys[lo] = key

	l.RIDs = append(l.RIDs, types.RID{})
	copy(l.RIDs[lo+1:], l.RIDs[lo:])
	l.RIDs[lo] = rid
}

// DecodeBPlusLeaf parses rp's bytes into a BPlusLeaf. Fails with ErrCodec
// if the type byte does not mark a leaf page.
func DecodeBPlusLeaf(rp *buffer.RawPage) (*BPlusLeaf, error) {
	var l *BPlusLeaf
	var typeByte byte
	rp.WithRLock(func(data *[types.PageSize]byte) {
		typeByte = data[BPlusPageTypeOffset]
		l = &BPlusLeaf{
			OwnPID:      types.PageID(binary.LittleEndian.Uint32(data[0:4])),
			LSN:         binary.LittleEndian.Uint32(data[5:9]),
			CurrentSize: binary.LittleEndian.Uint32(data[9:13]),
			MaxSize:     binary.LittleEndian.Uint32(data[13:17]),
			ParentPID:   types.PageID(binary.LittleEndian.Uint32(data[17:21])),
			NextLeaf:    types.PageID(binary.LittleEndian.Uint32(data[21:25])),
			PrevLeaf:    types.PageID(binary.LittleEndian.Uint32(data[25:29])),
		}
		l.Keys = make([]uint32, l.CurrentSize)
		l.RIDs = make([]types.RID, l.CurrentSize)
		ridBase := types.PageSize - int(l.MaxSize)*types.RIDSize
		for i := uint32(0); i < l.CurrentSize; i++ {
			keyOff := bplusLeafHeaderSize + int(i)*bplusLeafKeySize
			l.Keys[i] = binary.LittleEndian.Uint32(data[keyOff : keyOff+4])

			ridOff := ridBase + int(i)*types.RIDSize
			l.RIDs[i] = types.RID{
				PageID: types.PageID(binary.LittleEndian.Uint32(data[ridOff : ridOff+4])),
				SlotID: binary.LittleEndian.Uint32(data[ridOff+4 : ridOff+8]),
			}
		}
	})
	if BPlusPageType(typeByte) != BPlusPageLeaf {
		return nil, errCodecWrongType
	}
	return l, nil
}

// EncodeBPlusLeaf serializes l into a fresh RawPage.
func EncodeBPlusLeaf(l *BPlusLeaf) *buffer.RawPage {
	rp := &buffer.RawPage{}
	rp.WithLock(func(data *[types.PageSize]byte) {
		binary.LittleEndian.PutUint32(data[0:4], uint32(l.OwnPID))
		data[BPlusPageTypeOffset] = byte(BPlusPageLeaf)
		binary.LittleEndian.PutUint32(data[5:9], l.LSN)
		binary.LittleEndian.PutUint32(data[9:13], uint32(len(l.Keys)))
		binary.LittleEndian.PutUint32(data[13:17], l.MaxSize)
		binary.LittleEndian.PutUint32(data[17:21], uint32(l.ParentPID))
		binary.LittleEndian.PutUint32(data[21:25], uint32(l.NextLeaf))
		binary.LittleEndian.PutUint32(data[25:29], uint32(l.PrevLeaf))

		ridBase := types.PageSize - int(l.MaxSize)*types.RIDSize
		for i := range l.Keys {
			keyOff := bplusLeafHeaderSize + i*bplusLeafKeySize
			binary.LittleEndian.PutUint32(data[keyOff:keyOff+4], l.Keys[i])

			ridOff := ridBase + i*types.RIDSize
			binary.LittleEndian.PutUint32(data[ridOff:ridOff+4], uint32(l.RIDs[i].PageID))
			binary.LittleEndian.PutUint32(data[ridOff+4:ridOff+8], l.RIDs[i].SlotID)
		}
	})
	return rp
}
