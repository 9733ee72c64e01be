package hash

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/storage/disk"
)

func newTestIndex(t *testing.T, poolSize int) *Index[uint32, uint32] {
	t.Helper()
	d := disk.NewMemManager()
	pool := buffer.NewPoolManager(d, poolSize)
	idx, _, err := CreateHash[uint32, uint32](pool, 1, Uint32Key{}, Uint32Value{})
	if err != nil {
		t.Fatalf("CreateHash() error = %v", err)
	}
	return idx
}

func TestIndex_InsertLookupRoundTrip(t *testing.T) {
	idx := newTestIndex(t, 20)

	tests := []struct {
		key, value uint32
	}{
		{1, 100}, {2, 200}, {3, 300}, {42, 4242},
	}
	for _, tt := range tests {
		if err := idx.Insert(tt.key, tt.value); err != nil {
			t.Fatalf("Insert(%d,%d) error = %v", tt.key, tt.value, err)
		}
	}
	for _, tt := range tests {
		got, ok, err := idx.Lookup(tt.key)
		if err != nil {
			t.Fatalf("Lookup(%d) error = %v", tt.key, err)
		}
		if !ok || got != tt.value {
			t.Errorf("Lookup(%d) = (%d, %v), want (%d, true)", tt.key, got, ok, tt.value)
		}
	}

	if _, ok, err := idx.Lookup(9999); err != nil || ok {
		t.Errorf("Lookup(9999) = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestIndex_RemoveThenLookupMisses(t *testing.T) {
	idx := newTestIndex(t, 20)
	if err := idx.Insert(5, 50); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, ok, err := idx.Remove(5)
	if err != nil || !ok || got != 50 {
		t.Fatalf("Remove(5) = (%d, %v, %v), want (50, true, nil)", got, ok, err)
	}
	if _, ok, err := idx.Remove(5); err != nil || ok {
		t.Errorf("second Remove(5) = (_, %v, %v), want (_, false, nil)", ok, err)
	}
	if _, ok, err := idx.Lookup(5); err != nil || ok {
		t.Errorf("Lookup(5) after Remove = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestIndex_SplitCorrectness_AllRetrievableAfterOverflow(t *testing.T) {
	idx := newTestIndex(t, 200)
	n := idx.bucketCapacity()

	// n+1 keys that all hash into slot 0 of the initial depth-1 directory,
	// so bucket 0 must overflow and split.
	keys := make([]uint32, 0, n+1)
	for k := uint32(0); len(keys) <= n; k++ {
		if idx.keyCodec.Hash(k)&1 == 0 {
			keys = append(keys, k)
		}
	}

	for _, i := range keys {
		if err := idx.Insert(i, i*10); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	for _, i := range keys {
		got, ok, err := idx.Lookup(i)
		if err != nil {
			t.Fatalf("Lookup(%d) error = %v", i, err)
		}
		if !ok || got != i*10 {
			t.Errorf("Lookup(%d) = (%d, %v), want (%d, true)", i, got, ok, i*10)
		}
	}
}

func TestIndex_FuzzStringKeysWithUUIDs(t *testing.T) {
	d := disk.NewMemManager()
	pool := buffer.NewPoolManager(d, 500)
	kc := StringKey{Width: 36}
	idx, _, err := CreateHash[string, uint32](pool, 2, kc, Uint32Value{})
	if err != nil {
		t.Fatalf("CreateHash() error = %v", err)
	}

	keys := make([]string, 300)
	for i := range keys {
		keys[i] = uuid.New().String()
	}
	for i, k := range keys {
		if err := idx.Insert(k, uint32(i)); err != nil {
			t.Fatalf("Insert(%q) error = %v", k, err)
		}
	}
	for i, k := range keys {
		got, ok, err := idx.Lookup(k)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", k, err)
		}
		if !ok || got != uint32(i) {
			t.Errorf("Lookup(%q) = (%d, %v), want (%d, true)", k, got, ok, i)
		}
	}
}

// bucketCapacity exposes the bucket slot count for uint32/uint32 indexes,
// used by TestIndex_SplitCorrectness_AllRetrievableAfterOverflow to size
// the overflow beyond a single bucket's capacity.
func (idx *Index[K, V]) bucketCapacity() int {
	return (4096) / (2 + idx.keyCodec.Size() + idx.valCodec.Size())
}
