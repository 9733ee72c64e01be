package page

import (
	"encoding/binary"

	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/types"
)

const (
	tableDirHeaderSize = 20 // own_pid(4) + lsn(4) + prev_directory(4) + next_directory(4) + entry_count(4)
	tableDirEntrySize  = 6  // capacity(2) + page_id(4)
	tableDirMaxEntries = (types.PageSize - tableDirHeaderSize) / tableDirEntrySize
)

// TableDirectoryEntry records one heap page's reported free capacity, so
// the heap layer can find a page with room without a catalog.
type TableDirectoryEntry struct {
	Capacity uint16
	PageID   types.PageID
}

// TableDirectory is one link in the chain of directory pages tracking a
// table's heap pages. Restored from the original source's table module: the
// heap page codec on its own has no notion of "which pages belong to this
// table", and this is the minimal structure that supplies one.
type TableDirectory struct {
	OwnPID         types.PageID
	LSN            uint32
	PrevDirectory  types.PageID
	NextDirectory  types.PageID
	Entries        []TableDirectoryEntry
}

// NewTableDirectory returns an empty directory page with no chain links.
func NewTableDirectory(pageID types.PageID) *TableDirectory {
	return &TableDirectory{
		OwnPID:        pageID,
		PrevDirectory: types.InvalidPageID,
		NextDirectory: types.InvalidPageID,
	}
}

// AddEntry appends a heap-page record. Returns false if the directory page
// is full and a new directory link is required.
func (d *TableDirectory) AddEntry(e TableDirectoryEntry) bool {
	if len(d.Entries) >= tableDirMaxEntries {
		return false
	}
	d.Entries = append(d.Entries, e)
	return true
}

// UpdateCapacity rewrites the recorded capacity for pageID, if present.
func (d *TableDirectory) UpdateCapacity(pageID types.PageID, capacity uint16) bool {
	for i := range d.Entries {
		if d.Entries[i].PageID == pageID {
			d.Entries[i].Capacity = capacity
			return true
		}
	}
	return false
}

// DecodeTableDirectory parses rp's bytes into a TableDirectory.
func DecodeTableDirectory(rp *buffer.RawPage) (*TableDirectory, error) {
	var d *TableDirectory
	rp.WithRLock(func(data *[types.PageSize]byte) {
		d = &TableDirectory{
			OwnPID:        types.PageID(binary.LittleEndian.Uint32(data[0:4])),
			LSN:           binary.LittleEndian.Uint32(data[4:8]),
			PrevDirectory: types.PageID(binary.LittleEndian.Uint32(data[8:12])),
			NextDirectory: types.PageID(binary.LittleEndian.Uint32(data[12:16])),
		}
		count := binary.LittleEndian.Uint32(data[16:20])
		d.Entries = make([]TableDirectoryEntry, count)
		for i := uint32(0); i < count; i++ {
			off := tableDirHeaderSize + int(i)*tableDirEntrySize
			d.Entries[i] = TableDirectoryEntry{
				Capacity: binary.LittleEndian.Uint16(data[off : off+2]),
				PageID:   types.PageID(binary.LittleEndian.Uint32(data[off+2 : off+6])),
			}
		}
	})
	return d, nil
}

// EncodeTableDirectory serializes d into a fresh RawPage.
func EncodeTableDirectory(d *TableDirectory) *buffer.RawPage {
	rp := &buffer.RawPage{}
	rp.WithLock(func(data *[types.PageSize]byte) {
		binary.LittleEndian.PutUint32(data[0:4], uint32(d.OwnPID))
		binary.LittleEndian.PutUint32(data[4:8], d.LSN)
		binary.LittleEndian.PutUint32(data[8:12], uint32(d.PrevDirectory))
		binary.LittleEndian.PutUint32(data[12:16], uint32(d.NextDirectory))
		binary.LittleEndian.PutUint32(data[16:20], uint32(len(d.Entries)))
		for i, e := range d.Entries {
			off := tableDirHeaderSize + i*tableDirEntrySize
			binary.LittleEndian.PutUint16(data[off:off+2], e.Capacity)
			binary.LittleEndian.PutUint32(data[off+2:off+6], uint32(e.PageID))
		}
	})
	return rp
}
