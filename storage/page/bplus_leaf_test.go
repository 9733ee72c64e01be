package page

import (
	"testing"

	"github.com/ryogrid/pagestore/types"
)

func TestBPlusLeaf_InsertKeepsAscendingOrder(t *testing.T) {
	l := NewBPlusLeaf(1, types.InvalidPageID, 10)
	l.Insert(20, types.NewRID(1, 0))
	l.Insert(10, types.NewRID(1, 1))
	l.Insert(15, types.NewRID(1, 2))

	want := []uint32{10, 15, 20}
	for i, w := range want {
		if l.Keys[i] != w {
			t.Errorf("Keys[%d] = %d, want %d", i, l.Keys[i], w)
		}
	}

	rid, ok := l.Search(15)
	if !ok || rid.SlotID != 2 {
		t.Errorf("Search(15) = (%+v, %v), want slot_id=2, true", rid, ok)
	}
	if _, ok := l.Search(999); ok {
		t.Errorf("Search(999) ok = true, want false")
	}
}

func TestBPlusLeaf_DecodeEncodeRoundTrip(t *testing.T) {
	l := NewBPlusLeaf(4, 2, 50)
	l.NextLeaf = 5
	l.PrevLeaf = 3
	l.Insert(1, types.NewRID(10, 0))
	l.Insert(2, types.NewRID(10, 1))

	rp := EncodeBPlusLeaf(l)
	got, err := DecodeBPlusLeaf(rp)
	if err != nil {
		t.Fatalf("DecodeBPlusLeaf() error = %v", err)
	}
	if got.OwnPID != l.OwnPID || got.ParentPID != l.ParentPID || got.MaxSize != l.MaxSize {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if got.NextLeaf != 5 || got.PrevLeaf != 3 {
		t.Fatalf("chain links = (%v,%v), want (5,3)", got.NextLeaf, got.PrevLeaf)
	}
	for i := range l.Keys {
		if got.Keys[i] != l.Keys[i] || got.RIDs[i] != l.RIDs[i] {
			t.Errorf("entry[%d] = (%v,%v), want (%v,%v)", i, got.Keys[i], got.RIDs[i], l.Keys[i], l.RIDs[i])
		}
	}
}

func TestDecodeBPlusLeaf_WrongTypeByte(t *testing.T) {
	internal := NewBPlusInternal(1, types.InvalidPageID, 10)
	rp := EncodeBPlusInternal(internal)
	if _, err := DecodeBPlusLeaf(rp); err == nil {
		t.Errorf("DecodeBPlusLeaf() on an internal page: error = nil, want non-nil")
	}
}
