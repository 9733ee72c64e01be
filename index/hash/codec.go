// Package hash implements the extendible hash index: one directory page
// addressed by the low bits of a key's hash, pointing at bucket pages that
// split on overflow. Every structural mutation runs under a single
// buffer.Guard so a split's directory update and bucket rehash appear
// atomic to any other goroutine touching the pool.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/ryogrid/pagestore/types"
)

// KeyCodec converts a key type to and from its fixed-width wire bytes and
// supplies a stable process-level hash of those bytes. Hash and HashBytes
// must agree for any k and its encoding (HashBytes(Encode(k)) == Hash(k)),
// since a bucket split rehashes directly off the stored wire bytes rather
// than decoding them back into a K first — Decode is not guaranteed
// lossless (e.g. StringKey strips padding), so hashing the bytes directly
// is the only way a rehash reproduces the value used at insert time.
type KeyCodec[K any] interface {
	Size() int
	Encode(K) []byte
	Decode([]byte) K
	Hash(K) uint64
	HashBytes([]byte) uint64
}

// ValueCodec converts a value type to and from its fixed-width wire bytes.
type ValueCodec[V any] interface {
	Size() int
	Encode(V) []byte
	Decode([]byte) V
}

// Uint32Key is a KeyCodec for plain uint32 keys, hashed with xxhash over
// their little-endian bytes.
type Uint32Key struct{}

func (Uint32Key) Size() int { return 4 }

func (Uint32Key) Encode(k uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, k)
	return b
}

func (Uint32Key) Decode(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func (Uint32Key) Hash(k uint32) uint64 {
	b := [4]byte{}
	binary.LittleEndian.PutUint32(b[:], k)
	return xxhash.Sum64(b[:])
}

func (Uint32Key) HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// StringKey is a KeyCodec for fixed-width, null-padded string keys.
type StringKey struct {
	Width int
}

func (s StringKey) Size() int { return s.Width }

func (s StringKey) Encode(k string) []byte {
	b := make([]byte, s.Width)
	copy(b, k)
	return b
}

func (s StringKey) Decode(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// Hash must agree with HashBytes(Encode(k)) (see KeyCodec), so it hashes
// the padded wire bytes rather than k's raw, unpadded bytes.
func (s StringKey) Hash(k string) uint64 {
	return s.HashBytes(s.Encode(k))
}

func (s StringKey) HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// RIDValue is a ValueCodec for types.RID values.
type RIDValue struct{}

func (RIDValue) Size() int { return types.RIDSize }

func (RIDValue) Encode(r types.RID) []byte {
	b := make([]byte, types.RIDSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(r.PageID))
	binary.LittleEndian.PutUint32(b[4:8], r.SlotID)
	return b
}

func (RIDValue) Decode(b []byte) types.RID {
	return types.RID{
		PageID: types.PageID(binary.LittleEndian.Uint32(b[0:4])),
		SlotID: binary.LittleEndian.Uint32(b[4:8]),
	}
}

// Uint32Value is a ValueCodec for plain uint32 values.
type Uint32Value struct{}

func (Uint32Value) Size() int { return 4 }

func (Uint32Value) Encode(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func (Uint32Value) Decode(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
