// Package page holds the bit-exact codecs for every on-disk page layout:
// table directory, table (heap) page, hash directory, hash bucket, B+
// internal and B+ leaf. Every codec is a pure Decode/Encode pair, infallible
// on well-formed input, little-endian, with no length-prefixed arrays —
// array extents come from fixed capacity or from a header-carried count.
package page

import (
	"encoding/binary"

	"github.com/ryogrid/pagestore/pagestoreerr"
	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/types"
)

const (
	tableHeaderSize = 8 // own_pid(4) + free_space_pointer(2) + tuple_count(2)
	slotHeaderSize  = 5 // tuple_offset(2) + tuple_size(2) + free(1)
)

// Slot is one entry of a TablePage's forward-growing slot array.
type Slot struct {
	Offset uint16
	Size   uint16
	Free   bool
}

// TablePage is the decoded view of a heap page: a forward-growing slot
// array and a backward-growing tuple region. slot_id is a tuple's index
// into Slots and is stable across Remove (tombstoned, never compacted).
type TablePage struct {
	OwnPID           types.PageID
	FreeSpacePointer uint16
	Slots            []Slot
	tuples           [][]byte // raw bytes per slot, indexed by slot id; retained even after tombstoning
}

// NewTablePage returns an empty heap page owned by pageID.
func NewTablePage(pageID types.PageID) *TablePage {
	return &TablePage{
		OwnPID:           pageID,
		FreeSpacePointer: types.PageSize,
	}
}

// Insert appends data to the tuple region and a new slot referencing it,
// returning the new slot_id. Fails if the slot array would run into the
// tuple region.
func (t *TablePage) Insert(data []byte) (uint32, error) {
	headerEnd := tableHeaderSize + len(t.Slots)*slotHeaderSize
	newFSP := int(t.FreeSpacePointer) - len(data)
	if headerEnd+slotHeaderSize > newFSP {
		return 0, pagestoreerr.ErrInvariantViolation
	}

	slotID := uint32(len(t.Slots))
	t.Slots = append(t.Slots, Slot{Offset: uint16(newFSP), Size: uint16(len(data)), Free: false})
	buf := make([]byte, len(data))
	copy(buf, data)
	t.tuples = append(t.tuples, buf)
	t.FreeSpacePointer = uint16(newFSP)
	return slotID, nil
}

// Get returns the tuple at slotID, or ok=false if slotID is out of range or
// tombstoned.
func (t *TablePage) Get(slotID uint32) ([]byte, bool) {
	if slotID >= uint32(len(t.Slots)) || t.Slots[slotID].Free {
		return nil, false
	}
	return t.tuples[slotID], true
}

// Remove tombstones slotID and returns the tuple bytes it held. A second
// Remove of the same slot returns ok=false.
func (t *TablePage) Remove(slotID uint32) ([]byte, bool) {
	if slotID >= uint32(len(t.Slots)) || t.Slots[slotID].Free {
		return nil, false
	}
	t.Slots[slotID].Free = true
	return t.tuples[slotID], true
}

// DecodeTablePage parses rp's bytes into a TablePage.
func DecodeTablePage(rp *buffer.RawPage) (*TablePage, error) {
	var tp *TablePage
	var err error
	rp.WithRLock(func(data *[types.PageSize]byte) {
		ownPID := types.PageID(binary.LittleEndian.Uint32(data[0:4]))
		fsp := binary.LittleEndian.Uint16(data[4:6])
		tupleCount := binary.LittleEndian.Uint16(data[6:8])

		tp = &TablePage{OwnPID: ownPID, FreeSpacePointer: fsp}
		tp.Slots = make([]Slot, tupleCount)
		tp.tuples = make([][]byte, tupleCount)

		for i := uint16(0); i < tupleCount; i++ {
			off := tableHeaderSize + int(i)*slotHeaderSize
			tupleOffset := binary.LittleEndian.Uint16(data[off : off+2])
			tupleSize := binary.LittleEndian.Uint16(data[off+2 : off+4])
			free := data[off+4] != 0
			tp.Slots[i] = Slot{Offset: tupleOffset, Size: tupleSize, Free: free}
			if int(tupleOffset)+int(tupleSize) > types.PageSize {
				err = pagestoreerr.ErrCodec
				return
			}
			tuple := make([]byte, tupleSize)
			copy(tuple, data[tupleOffset:int(tupleOffset)+int(tupleSize)])
			tp.tuples[i] = tuple
		}
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

// EncodeTablePage serializes t into a fresh RawPage.
func EncodeTablePage(t *TablePage) *buffer.RawPage {
	rp := &buffer.RawPage{}
	rp.WithLock(func(data *[types.PageSize]byte) {
		binary.LittleEndian.PutUint32(data[0:4], uint32(t.OwnPID))
		binary.LittleEndian.PutUint16(data[4:6], t.FreeSpacePointer)
		binary.LittleEndian.PutUint16(data[6:8], uint16(len(t.Slots)))

		for i, s := range t.Slots {
			off := tableHeaderSize + i*slotHeaderSize
			binary.LittleEndian.PutUint16(data[off:off+2], s.Offset)
			binary.LittleEndian.PutUint16(data[off+2:off+4], s.Size)
			if s.Free {
				data[off+4] = 1
			} else {
				data[off+4] = 0
			}
			copy(data[s.Offset:int(s.Offset)+int(s.Size)], t.tuples[i])
		}
	})
	return rp
}
