package page

import "testing"

func TestTableDirectory_AddAndUpdateEntry(t *testing.T) {
	d := NewTableDirectory(1)
	if !d.AddEntry(TableDirectoryEntry{Capacity: 4000, PageID: 2}) {
		t.Fatalf("AddEntry() = false, want true")
	}
	if !d.UpdateCapacity(2, 3500) {
		t.Fatalf("UpdateCapacity() = false, want true")
	}
	if d.Entries[0].Capacity != 3500 {
		t.Errorf("Entries[0].Capacity = %d, want 3500", d.Entries[0].Capacity)
	}
	if d.UpdateCapacity(999, 0) {
		t.Errorf("UpdateCapacity() for unknown page = true, want false")
	}
}

func TestTableDirectory_DecodeEncodeRoundTrip(t *testing.T) {
	d := NewTableDirectory(7)
	d.LSN = 2
	d.PrevDirectory = 6
	d.NextDirectory = 8
	d.AddEntry(TableDirectoryEntry{Capacity: 100, PageID: 20})
	d.AddEntry(TableDirectoryEntry{Capacity: 200, PageID: 21})

	rp := EncodeTableDirectory(d)
	got, err := DecodeTableDirectory(rp)
	if err != nil {
		t.Fatalf("DecodeTableDirectory() error = %v", err)
	}
	if got.OwnPID != d.OwnPID || got.LSN != d.LSN || got.PrevDirectory != d.PrevDirectory || got.NextDirectory != d.NextDirectory {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if len(got.Entries) != len(d.Entries) {
		t.Fatalf("Entries len = %d, want %d", len(got.Entries), len(d.Entries))
	}
	for i := range d.Entries {
		if got.Entries[i] != d.Entries[i] {
			t.Errorf("Entries[%d] = %+v, want %+v", i, got.Entries[i], d.Entries[i])
		}
	}
}
