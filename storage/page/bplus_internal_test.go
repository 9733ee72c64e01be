package page

import (
	"testing"

	"github.com/ryogrid/pagestore/types"
)

func TestBPlusInternal_EncodeMatchesExpectedBytes(t *testing.T) {
	n := &BPlusInternal{
		OwnPID:    10,
		LSN:       1,
		MaxSize:   120,
		ParentPID: 0,
		Entries: []BPlusInternalEntry{
			{Key: 15, ChildID: 0},
			{Key: 20, ChildID: 20},
			{Key: 45, ChildID: 21},
		},
	}

	want := []byte{
		10, 0, 0, 0, 0, 1, 0, 0, 0, 3, 0, 0, 0, 120, 0, 0, 0, 0, 0, 0, 0,
		15, 0, 0, 0, 0, 0, 0, 0, 20, 0, 0, 0, 20, 0, 0, 0, 45, 0, 0, 0, 21, 0, 0, 0,
	}

	rp := EncodeBPlusInternal(n)
	got := rp.Bytes()
	for i, b := range want {
		if got[i] != b {
			t.Fatalf("byte[%d] = %v, want %v", i, got[i], b)
		}
	}
	for i := len(want); i < types.PageSize; i++ {
		if got[i] != 0 {
			t.Fatalf("byte[%d] = %v, want 0 (padding)", i, got[i])
		}
	}
}

func TestBPlusInternal_DecodeEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries []BPlusInternalEntry
	}{
		{name: "empty", entries: nil},
		{name: "single", entries: []BPlusInternalEntry{{Key: 0, ChildID: 7}}},
		{name: "several", entries: []BPlusInternalEntry{
			{Key: 15, ChildID: 0}, {Key: 20, ChildID: 20}, {Key: 45, ChildID: 21},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := &BPlusInternal{OwnPID: 3, LSN: 9, MaxSize: 50, ParentPID: 1, Entries: tt.entries}
			rp := EncodeBPlusInternal(orig)
			got, err := DecodeBPlusInternal(rp)
			if err != nil {
				t.Fatalf("DecodeBPlusInternal() error = %v", err)
			}
			if got.OwnPID != orig.OwnPID || got.LSN != orig.LSN || got.MaxSize != orig.MaxSize || got.ParentPID != orig.ParentPID {
				t.Fatalf("header mismatch: got %+v, want %+v", got, orig)
			}
			if len(got.Entries) != len(orig.Entries) {
				t.Fatalf("Entries len = %d, want %d", len(got.Entries), len(orig.Entries))
			}
			for i := range orig.Entries {
				if got.Entries[i] != orig.Entries[i] {
					t.Errorf("Entries[%d] = %+v, want %+v", i, got.Entries[i], orig.Entries[i])
				}
			}
		})
	}
}

func TestBPlusInternal_Route(t *testing.T) {
	n := &BPlusInternal{Entries: []BPlusInternalEntry{
		{Key: 0, ChildID: 100},
		{Key: 20, ChildID: 101},
		{Key: 45, ChildID: 102},
	}}

	tests := []struct {
		key  uint32
		want types.PageID
	}{
		{key: 5, want: 100},
		{key: 19, want: 100},
		{key: 20, want: 101},
		{key: 44, want: 101},
		{key: 45, want: 102},
		{key: 1000, want: 102},
	}
	for _, tt := range tests {
		if got := n.Route(tt.key); got != tt.want {
			t.Errorf("Route(%d) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestDecodeBPlusInternal_WrongTypeByte(t *testing.T) {
	leaf := NewBPlusLeaf(1, types.InvalidPageID, 10)
	rp := EncodeBPlusLeaf(leaf)
	if _, err := DecodeBPlusInternal(rp); err == nil {
		t.Errorf("DecodeBPlusInternal() on a leaf page: error = nil, want non-nil")
	}
}
