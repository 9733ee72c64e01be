package page

import "testing"

func TestHashDirectory_NewHasInitialDepth(t *testing.T) {
	d := NewHashDirectory(1, 42, 10, 11)
	if d.GlobalDepth != 1 {
		t.Fatalf("GlobalDepth = %d, want 1", d.GlobalDepth)
	}
	if d.LocalDepths[0] != 1 || d.LocalDepths[1] != 1 {
		t.Fatalf("LocalDepths[0:2] = %v, want [1 1]", d.LocalDepths[:2])
	}
	if d.BucketPageIDs[0] != 10 || d.BucketPageIDs[1] != 11 {
		t.Fatalf("BucketPageIDs[0:2] = %v, want [10 11]", d.BucketPageIDs[:2])
	}
}

func TestHashDirectory_DecodeEncodeRoundTrip(t *testing.T) {
	d := NewHashDirectory(5, 99, 1, 2)
	d.GlobalDepth = 3
	d.LocalDepths[7] = 2
	d.BucketPageIDs[7] = 123

	rp := EncodeHashDirectory(d)
	got, err := DecodeHashDirectory(rp)
	if err != nil {
		t.Fatalf("DecodeHashDirectory() error = %v", err)
	}
	if got.PageID != d.PageID || got.LogID != d.LogID || got.GlobalDepth != d.GlobalDepth {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if got.LocalDepths != d.LocalDepths {
		t.Errorf("LocalDepths mismatch")
	}
	if got.BucketPageIDs != d.BucketPageIDs {
		t.Errorf("BucketPageIDs mismatch")
	}
}

func TestHashDirectory_SlotIndex(t *testing.T) {
	d := &HashDirectory{GlobalDepth: 3}
	if got := d.SlotIndex(0b1011); got != 0b011 {
		t.Errorf("SlotIndex(0b1011) = %b, want 0b011", got)
	}
}
