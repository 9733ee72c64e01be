package disk

import (
	"io"
	"os"
	"sync"

	"github.com/ryogrid/pagestore/types"
)

// FileManager is the default Manager: a plain buffered os.File, page-aligned
// seeks, write-then-flush on every write. It creates the backing file if it
// does not already exist.
type FileManager struct {
	mu   sync.Mutex
	path string
	file *os.File
}

var _ Manager = (*FileManager)(nil)

// NewFileManager opens (creating if absent) the database file at path.
func NewFileManager(path string) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, ioErrorf("open database file "+path, err)
	}
	return &FileManager{path: path, file: f}, nil
}

func (m *FileManager) ReadPage(pageID types.PageID) ([types.PageSize]byte, error) {
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

func (m *FileManager) WritePage(pageID types.PageID, data [types.PageSize]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(pageID, data[:])
}

// writeLocked assumes m.mu is already held.
func (m *FileManager) writeLocked(pageID types.PageID, data []byte) error {
	offset := int64(pageID) * types.PageSize
	if _, err := m.file.Seek(offset, io.SeekStart); err != nil {
		return ioErrorf("seek to page", err)
	}
	if _, err := m.file.Write(data); err != nil {
		return ioErrorf("write page", err)
	}
	if err := m.file.Sync(); err != nil {
		return ioErrorf("flush page", err)
	}
	return nil
}

func (m *FileManager) FileLength() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fileLengthLocked()
}

func (m *FileManager) fileLengthLocked() (uint64, error) {
	info, err := m.file.Stat()
	if err != nil {
		return 0, ioErrorf("stat database file", err)
	}
	return uint64(info.Size()), nil
}

func (m *FileManager) AllocateNewPage() (types.PageID, error) {
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

func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Close(); err != nil {
		return ioErrorf("close database file", err)
	}
	return nil
}
