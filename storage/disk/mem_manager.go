package disk

import (
	"io"
	"sync"

	"github.com/dsnet/golib/memfile"

	"github.com/ryogrid/pagestore/types"
)

// MemManager is a Manager backed by an in-memory github.com/dsnet/golib/memfile
// file: a ReadWriteSeeker over a growable byte slice. It implements the same
// ReadPage/WritePage/AllocateNewPage contract as FileManager without
// touching the filesystem, which is what the buffer-pool and index test
// suites use so they stay fast and hermetic.
type MemManager struct {
	mu   sync.Mutex
	file *memfile.File
}

var _ Manager = (*MemManager)(nil)

// NewMemManager returns an empty in-memory backend.
func NewMemManager() *MemManager {
	return &MemManager{file: memfile.New(nil)}
}

func (m *MemManager) ReadPage(pageID types.PageID) ([types.PageSize]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var buf [types.PageSize]byte
	offset := int64(pageID) * types.PageSize
	if _, err := m.file.Seek(offset, io.SeekStart); err != nil {
		return buf, ioErrorf("seek to page", err)
	}
	if _, err := io.ReadFull(m.file, buf[:]); err != nil {
		return buf, ioErrorf("read page", err)
	}
	return buf, nil
}

func (m *MemManager) WritePage(pageID types.PageID, data [types.PageSize]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(pageID, data[:])
}

func (m *MemManager) writeLocked(pageID types.PageID, data []byte) error {
	offset := int64(pageID) * types.PageSize
	if _, err := m.file.Seek(offset, io.SeekStart); err != nil {
		return ioErrorf("seek to page", err)
	}
	if _, err := m.file.Write(data); err != nil {
		return ioErrorf("write page", err)
	}
	return nil
}

func (m *MemManager) FileLength() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fileLengthLocked()
}

func (m *MemManager) fileLengthLocked() (uint64, error) {
	cur, err := m.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, ioErrorf("tell database file", err)
	}
	end, err := m.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, ioErrorf("seek to end", err)
	}
	if _, err := m.file.Seek(cur, io.SeekStart); err != nil {
		return 0, ioErrorf("restore seek position", err)
	}
	return uint64(end), nil
}

func (m *MemManager) AllocateNewPage() (types.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	length, err := m.fileLengthLocked()
	if err != nil {
		return 0, err
	}
	newID := types.PageID(length / types.PageSize)
	var zero [types.PageSize]byte
	if err := m.writeLocked(newID, zero[:]); err != nil {
		return 0, err
	}
	return newID, nil
}

func (m *MemManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
