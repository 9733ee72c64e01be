package disk

import (
	"testing"

	"github.com/ryogrid/pagestore/types"
)

func TestMemManager_AllocateWriteRead(t *testing.T) {
	tests := []struct {
		name string
	}{
		{name: "single page roundtrip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemManager()

			id, err := m.AllocateNewPage()
			if err != nil {
				t.Fatalf("AllocateNewPage() error = %v", err)
			}
			if id != 0 {
				t.Errorf("AllocateNewPage() = %v, want 0", id)
			}

			var data [types.PageSize]byte
			data[0] = 0xAB
			data[types.PageSize-1] = 0xCD
			if err := m.WritePage(id, data); err != nil {
				t.Fatalf("WritePage() error = %v", err)
			}

			got, err := m.ReadPage(id)
			if err != nil {
				t.Fatalf("ReadPage() error = %v", err)
			}
			if got != data {
				t.Errorf("ReadPage() = %v, want %v", got[:4], data[:4])
			}
		})
	}
}

func TestMemManager_AllocateNewPage_Sequence(t *testing.T) {
	m := NewMemManager()

	for want := types.PageID(0); want < 3; want++ {
		got, err := m.AllocateNewPage()
		if err != nil {
			t.Fatalf("AllocateNewPage() error = %v", err)
		}
		if got != want {
			t.Errorf("AllocateNewPage() = %v, want %v", got, want)
		}
	}

	length, err := m.FileLength()
	if err != nil {
		t.Fatalf("FileLength() error = %v", err)
	}
	if length != 3*types.PageSize {
		t.Errorf("FileLength() = %v, want %v", length, 3*types.PageSize)
	}
}

func TestMemManager_ReadPastEOF(t *testing.T) {
	m := NewMemManager()
	if _, err := m.ReadPage(0); err == nil {
		t.Errorf("ReadPage() past EOF: error = nil, want non-nil")
	}
}

func TestMemManager_WritePageExtendsFile(t *testing.T) {
	m := NewMemManager()

	var data [types.PageSize]byte
	data[0] = 7
	if err := m.WritePage(2, data); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}

	length, err := m.FileLength()
	if err != nil {
		t.Fatalf("FileLength() error = %v", err)
	}
	if length != 3*types.PageSize {
		t.Errorf("FileLength() = %v, want %v", length, 3*types.PageSize)
	}

	got, err := m.ReadPage(2)
	if err != nil {
		t.Fatalf("ReadPage() error = %v", err)
	}
	if got[0] != 7 {
		t.Errorf("ReadPage()[0] = %v, want 7", got[0])
	}
}
