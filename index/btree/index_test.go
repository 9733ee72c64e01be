package btree

import (
	"testing"

	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/storage/disk"
	"github.com/ryogrid/pagestore/types"
)

func newTestIndex(t *testing.T, maxLeaf, maxInternal uint32, poolSize int) *Index {
	t.Helper()
	d := disk.NewMemManager()
	pool := buffer.NewPoolManager(d, poolSize)
	idx, _, err := CreateBTree(pool, maxLeaf, maxInternal)
	if err != nil {
		t.Fatalf("CreateBTree() error = %v", err)
	}
	return idx
}

func TestBTree_SearchBeforeAnySplit(t *testing.T) {
	idx := newTestIndex(t, 4, 4, 20)

	for i := uint32(0); i < 3; i++ {
		rid := types.RID{PageID: types.PageID(i + 1), SlotID: i}
		if err := idx.Insert(i, rid); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	for i := uint32(0); i < 3; i++ {
		got, ok, err := idx.Search(i)
		if err != nil {
			t.Fatalf("Search(%d) error = %v", i, err)
		}
		want := types.RID{PageID: types.PageID(i + 1), SlotID: i}
		if !ok || got != want {
			t.Errorf("Search(%d) = (%+v, %v), want (%+v, true)", i, got, ok, want)
		}
	}

	if _, ok, err := idx.Search(999); err != nil || ok {
		t.Errorf("Search(999) = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestBTree_InsertTriggersLeafSplit(t *testing.T) {
	idx := newTestIndex(t, 4, 4, 20)

	for i := uint32(0); i < 5; i++ {
		rid := types.RID{PageID: types.PageID(i + 1), SlotID: i}
		if err := idx.Insert(i, rid); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	for i := uint32(0); i < 5; i++ {
		got, ok, err := idx.Search(i)
		if err != nil {
			t.Fatalf("Search(%d) error = %v", i, err)
		}
		want := types.RID{PageID: types.PageID(i + 1), SlotID: i}
		if !ok || got != want {
			t.Errorf("Search(%d) = (%+v, %v), want (%+v, true)", i, got, ok, want)
		}
	}

	var scanned []uint32
	if err := idx.Scan(func(key uint32, rid types.RID) bool {
		scanned = append(scanned, key)
		return true
	}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	for i := 1; i < len(scanned); i++ {
		if scanned[i-1] >= scanned[i] {
			t.Fatalf("Scan() not ascending at %d: %v", i, scanned)
		}
	}
	if len(scanned) != 5 {
		t.Errorf("Scan() returned %d keys, want 5", len(scanned))
	}
}

func TestBTree_CascadingInternalSplitsGrowNewRoot(t *testing.T) {
	idx := newTestIndex(t, 3, 3, 200)
	originalRoot := idx.RootPageID()

	const n = 200
	for i := uint32(0); i < n; i++ {
		rid := types.RID{PageID: types.PageID(i + 1), SlotID: i}
		if err := idx.Insert(i, rid); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	if idx.RootPageID() == originalRoot {
		t.Fatalf("expected root to change after %d inserts with maxLeaf/maxInternal=3", n)
	}

	for i := uint32(0); i < n; i++ {
		got, ok, err := idx.Search(i)
		if err != nil {
			t.Fatalf("Search(%d) error = %v", i, err)
		}
		want := types.RID{PageID: types.PageID(i + 1), SlotID: i}
		if !ok || got != want {
			t.Errorf("Search(%d) = (%+v, %v), want (%+v, true)", i, got, ok, want)
		}
	}

	var count int
	var prev uint32
	first := true
	if err := idx.Scan(func(key uint32, rid types.RID) bool {
		if !first && prev >= key {
			t.Fatalf("Scan() not ascending: prev=%d key=%d", prev, key)
		}
		first = false
		prev = key
		count++
		return true
	}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if count != n {
		t.Errorf("Scan() visited %d keys, want %d", count, n)
	}
}

func TestBTree_ScanStopsEarly(t *testing.T) {
	idx := newTestIndex(t, 4, 4, 50)
	for i := uint32(0); i < 20; i++ {
		if err := idx.Insert(i, types.RID{PageID: types.PageID(i), SlotID: 0}); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	var count int
	if err := idx.Scan(func(key uint32, rid types.RID) bool {
		count++
		return count < 5
	}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if count != 5 {
		t.Errorf("Scan() visited %d keys, want 5", count)
	}
}
