package disk

import (
	"io"
	"os"
	"sync"

	"github.com/ncw/directio"

	"github.com/ryogrid/pagestore/types"
)

// DirectManager is a Manager that opens the backing file with O_DIRECT via
// github.com/ncw/directio, bypassing the host page cache. Pages must be
// read/written in directio.AlignedBlock-aligned buffers of directio.BlockSize
// bytes; PageSize (4096) matches the common BlockSize on Linux, so every
// page read/write is a single aligned block transfer.
type DirectManager struct {
	mu   sync.Mutex
	path string
	file *os.File
}

var _ Manager = (*DirectManager)(nil)

// NewDirectManager opens (creating if absent) path for direct, unbuffered
// I/O. If the platform or filesystem does not support O_DIRECT, callers
// should fall back to NewFileManager.
func NewDirectManager(path string) (*DirectManager, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, ioErrorf("stat database file "+path, err)
		}
		f, cerr := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if cerr != nil {
			return nil, ioErrorf("create direct-io database file "+path, cerr)
		}
		return &DirectManager{path: path, file: f}, nil
	}

	f, err := directio.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, ioErrorf("open direct-io database file "+path, err)
	}
	return &DirectManager{path: path, file: f}, nil
}

func (m *DirectManager) ReadPage(pageID types.PageID) ([types.PageSize]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out [types.PageSize]byte
	block := directio.AlignedBlock(types.PageSize)
	offset := int64(pageID) * types.PageSize
	if _, err := m.file.Seek(offset, io.SeekStart); err != nil {
		return out, ioErrorf("seek to page", err)
	}
	if _, err := io.ReadFull(m.file, block); err != nil {
		return out, ioErrorf("read page", err)
	}
	copy(out[:], block)
	return out, nil
}

func (m *DirectManager) WritePage(pageID types.PageID, data [types.PageSize]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(pageID, data[:])
}

func (m *DirectManager) writeLocked(pageID types.PageID, data []byte) error {
	block := directio.AlignedBlock(types.PageSize)
	copy(block, data)
	offset := int64(pageID) * types.PageSize
	if _, err := m.file.Seek(offset, io.SeekStart); err != nil {
		return ioErrorf("seek to page", err)
	}
	if _, err := m.file.Write(block); err != nil {
		return ioErrorf("write page", err)
	}
	return nil
}

func (m *DirectManager) FileLength() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fileLengthLocked()
}

func (m *DirectManager) fileLengthLocked() (uint64, error) {
	info, err := m.file.Stat()
	if err != nil {
		return 0, ioErrorf("stat database file", err)
	}
	return uint64(info.Size()), nil
}

func (m *DirectManager) AllocateNewPage() (types.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	length, err := m.fileLengthLocked()
	if err != nil {
		return 0, err
	}
	newID := types.PageID(length / types.PageSize)
	zero := directio.AlignedBlock(types.PageSize)
	if err := m.writeLocked(newID, zero); err != nil {
		return 0, err
	}
	return newID, nil
}

func (m *DirectManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Close(); err != nil {
		return ioErrorf("close database file", err)
	}
	return nil
}
