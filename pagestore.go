// Package pagestore is the single-file storage engine: a disk manager, a
// bounded buffer cache in front of it, and two index structures (extendible
// hash, B+ tree) built on that cache. Store is the one construction entry
// point callers need; everything else in this module can be used directly
// by tests or by code that wants finer control over the cache.
package pagestore

import (
	"fmt"

	"github.com/ryogrid/pagestore/index/btree"
	"github.com/ryogrid/pagestore/index/hash"
	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/storage/disk"
	"github.com/ryogrid/pagestore/types"
)

// Backend selects the disk.Manager implementation a Store opens over.
type Backend int

const (
	// BackendFile uses a buffered os.File, fsyncing every write.
	BackendFile Backend = iota
	// BackendDirect bypasses the page cache with O_DIRECT, via ncw/directio.
	BackendDirect
	// BackendMemory keeps pages in a dsnet/golib/memfile, for tests and
	// benchmarks that don't need persistence.
	BackendMemory
)

// Store owns one disk.Manager and the one buffer.PoolManager in front of
// it, and is the construction entry point for opening hash and B+ tree
// indexes over that shared cache, so callers construct one object instead
// of wiring a disk manager and a pool manager by hand before opening each
// index.
type Store struct {
	disk disk.Manager
	pool *buffer.PoolManager
}

// Open creates a Store backed by the given backend and path. path is
// ignored for BackendMemory.
func Open(backend Backend, path string) (*Store, error) {
	var d disk.Manager
	var err error
	switch backend {
	case BackendFile:
		d, err = disk.NewFileManager(path)
	case BackendDirect:
		d, err = disk.NewDirectManager(path)
	case BackendMemory:
		d = disk.NewMemManager()
	default:
		return nil, fmt.Errorf("pagestore: unknown backend %d", backend)
	}
	if err != nil {
		return nil, err
	}
	return &Store{
		disk: d,
		pool: buffer.NewPoolManager(d, types.PoolSize),
	}, nil
}

// Pool exposes the Store's buffer pool, for callers that need direct page
// access (e.g. a future table heap layer) alongside the indexes opened
// through this Store.
func (s *Store) Pool() *buffer.PoolManager {
	return s.pool
}

// CreateHash allocates a fresh extendible hash index over this Store's
// cache, returning the index and its directory page id (the handle a
// catalog would persist to reopen it later).
func CreateHash[K comparable, V any](s *Store, logID uint32, kc hash.KeyCodec[K], vc hash.ValueCodec[V]) (*hash.Index[K, V], types.PageID, error) {
	return hash.CreateHash[K, V](s.pool, logID, kc, vc)
}

// OpenOrCreateHash reopens an existing hash index at dirPageID, or creates
// a fresh one if dirPageID is types.InvalidPageID.
func OpenOrCreateHash[K comparable, V any](s *Store, dirPageID types.PageID, logID uint32, kc hash.KeyCodec[K], vc hash.ValueCodec[V]) (*hash.Index[K, V], types.PageID, error) {
	if dirPageID == types.InvalidPageID {
		return CreateHash[K, V](s, logID, kc, vc)
	}
	return hash.OpenHash[K, V](s.pool, dirPageID, kc, vc), dirPageID, nil
}

// CreateBTree allocates a fresh B+ tree index over this Store's cache.
func CreateBTree(s *Store, maxLeaf, maxInternal uint32) (*btree.Index, types.PageID, error) {
	return btree.CreateBTree(s.pool, maxLeaf, maxInternal)
}

// OpenBTree reopens an existing B+ tree index at rootPageID.
func OpenBTree(s *Store, rootPageID types.PageID, maxLeaf, maxInternal uint32) *btree.Index {
	return btree.OpenBTree(s.pool, rootPageID, maxLeaf, maxInternal)
}

// FlushAll writes every dirty page through to the disk manager. It is the
// only durability barrier this engine offers; outside of FlushAll and
// Close, a dirty page reaches the disk manager only when the pool evicts it.
func (s *Store) FlushAll() error {
	return s.pool.FlushAll()
}

// Close flushes outstanding writes and releases the backing disk manager.
func (s *Store) Close() error {
	if err := s.pool.FlushAll(); err != nil {
		return err
	}
	return s.disk.Close()
}
