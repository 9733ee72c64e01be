package page

import (
	"github.com/ryogrid/pagestore/pagestoreerr"
	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/types"
)

// HashBucketCapacity returns floor(PAGE_SIZE / (2 + keySize + valueSize)):
// the number of (readable, occupied, key||value) slots a bucket page can
// hold for a given fixed key/value width.
func HashBucketCapacity(keySize, valueSize int) int {
	return types.PageSize / (2 + keySize + valueSize)
}

// HashBucket is the decoded view of a hash bucket page: parallel
// readable/occupied flag arrays plus a raw key||value byte region. Slot i's
// key/value bytes live at Entries[i][:keySize] / Entries[i][keySize:].
// readable records whether the slot currently holds a live entry; occupied
// records whether it was ever used and is retained but unused by the split
// algorithm (reserved for future linear-probing variants).
type HashBucket struct {
	KeySize   int
	ValueSize int
	Readable  []bool
	Occupied  []bool
	Entries   [][]byte
}

// NewHashBucket returns an empty bucket sized for keySize/valueSize.
func NewHashBucket(keySize, valueSize int) *HashBucket {
	n := HashBucketCapacity(keySize, valueSize)
	b := &HashBucket{KeySize: keySize, ValueSize: valueSize}
	b.Readable = make([]bool, n)
	b.Occupied = make([]bool, n)
	b.Entries = make([][]byte, n)
	for i := range b.Entries {
		b.Entries[i] = make([]byte, keySize+valueSize)
	}
	return b
}

// Capacity returns the number of slots this bucket has room for.
func (b *HashBucket) Capacity() int { return len(b.Readable) }

// Insert writes key||value into the first free slot, returning its index.
// Fails with ErrInvariantViolation if the bucket has no free slot; callers are expected to split before calling Insert on
// a full bucket.
func (b *HashBucket) Insert(key, value []byte) (int, error) {
	for i := range b.Readable {
		if !b.Readable[i] {
			copy(b.Entries[i][:b.KeySize], key)
			copy(b.Entries[i][b.KeySize:], value)
			b.Readable[i] = true
			b.Occupied[i] = true
			return i, nil
		}
	}
	return 0, pagestoreerr.ErrInvariantViolation
}

// RemoveAt tombstones slot i.
func (b *HashBucket) RemoveAt(i int) {
	b.Readable[i] = false
}

// Key returns slot i's key bytes.
func (b *HashBucket) Key(i int) []byte { return b.Entries[i][:b.KeySize] }

// Value returns slot i's value bytes.
func (b *HashBucket) Value(i int) []byte { return b.Entries[i][b.KeySize:] }

// IsFull reports whether every slot is readable.
func (b *HashBucket) IsFull() bool {
	for _, r := range b.Readable {
		if !r {
			return false
		}
	}
	return true
}

// DecodeHashBucket parses rp's bytes into a HashBucket for the given
// key/value widths.
func DecodeHashBucket(rp *buffer.RawPage, keySize, valueSize int) (*HashBucket, error) {
	n := HashBucketCapacity(keySize, valueSize)
	b := &HashBucket{KeySize: keySize, ValueSize: valueSize}
	b.Readable = make([]bool, n)
	b.Occupied = make([]bool, n)
	b.Entries = make([][]byte, n)

	rp.WithRLock(func(data *[types.PageSize]byte) {
		kvBase := 2 * n
		entrySize := keySize + valueSize
		for i := 0; i < n; i++ {
			b.Readable[i] = data[i] != 0
			b.Occupied[i] = data[n+i] != 0
			entry := make([]byte, entrySize)
			off := kvBase + i*entrySize
			copy(entry, data[off:off+entrySize])
			b.Entries[i] = entry
		}
	})
	return b, nil
}

// EncodeHashBucket serializes b into a fresh RawPage.
func EncodeHashBucket(b *HashBucket) *buffer.RawPage {
	rp := &buffer.RawPage{}
	n := len(b.Readable)
	entrySize := b.KeySize + b.ValueSize
	kvBase := 2 * n
	rp.WithLock(func(data *[types.PageSize]byte) {
		for i := 0; i < n; i++ {
			if b.Readable[i] {
				data[i] = 1
			}
			if b.Occupied[i] {
				data[n+i] = 1
			}
			off := kvBase + i*entrySize
			copy(data[off:off+entrySize], b.Entries[i])
		}
	})
	return rp
}
