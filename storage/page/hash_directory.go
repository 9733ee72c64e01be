package page

import (
	"encoding/binary"

	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/types"
)

// MaxGlobalDepth is the hard ceiling on a hash directory's global depth:
// 2^9 == 512 matches the fixed-size directory slot arrays below.
const MaxGlobalDepth = 9

const hashDirSlotCount = 512

// HashDirectory is the one directory page of an extendible hash index:
// global depth, and per-slot local depth + bucket pointer. Layout:
// page_id(4) | log_id(4) | global_depth(1) | local_depths[512](1 each) |
// bucket_page_ids[512](4 each) = 2569 bytes used, the rest zero-padded.
type HashDirectory struct {
	PageID        types.PageID
	LogID         uint32
	GlobalDepth   uint8
	LocalDepths   [hashDirSlotCount]uint8
	BucketPageIDs [hashDirSlotCount]types.PageID
}

// NewHashDirectory returns a directory sized for an initial global depth of
// 1 with both slots pointing at the given buckets (per the bootstrapping
// contract in §6: two initial buckets, local_depths[0]=local_depths[1]=1).
func NewHashDirectory(pageID types.PageID, logID uint32, bucket0, bucket1 types.PageID) *HashDirectory {
	d := &HashDirectory{PageID: pageID, LogID: logID, GlobalDepth: 1}
	d.LocalDepths[0] = 1
	d.LocalDepths[1] = 1
	d.BucketPageIDs[0] = bucket0
	d.BucketPageIDs[1] = bucket1
	return d
}

// SlotIndex computes hash mod 2^GlobalDepth.
func (d *HashDirectory) SlotIndex(hash uint64) int {
	return int(hash & ((1 << d.GlobalDepth) - 1))
}

// DecodeHashDirectory parses rp's bytes into a HashDirectory.
func DecodeHashDirectory(rp *buffer.RawPage) (*HashDirectory, error) {
	var d *HashDirectory
	rp.WithRLock(func(data *[types.PageSize]byte) {
		d = &HashDirectory{
			PageID:      types.PageID(binary.LittleEndian.Uint32(data[0:4])),
			LogID:       binary.LittleEndian.Uint32(data[4:8]),
			GlobalDepth: data[8],
		}
		copy(d.LocalDepths[:], data[9:9+hashDirSlotCount])
		base := 9 + hashDirSlotCount
		for i := 0; i < hashDirSlotCount; i++ {
			off := base + i*4
			d.BucketPageIDs[i] = types.PageID(binary.LittleEndian.Uint32(data[off : off+4]))
		}
	})
	return d, nil
}

// EncodeHashDirectory serializes d into a fresh RawPage.
func EncodeHashDirectory(d *HashDirectory) *buffer.RawPage {
	rp := &buffer.RawPage{}
	rp.WithLock(func(data *[types.PageSize]byte) {
		binary.LittleEndian.PutUint32(data[0:4], uint32(d.PageID))
		binary.LittleEndian.PutUint32(data[4:8], d.LogID)
		data[8] = d.GlobalDepth
		copy(data[9:9+hashDirSlotCount], d.LocalDepths[:])
		base := 9 + hashDirSlotCount
		for i := 0; i < hashDirSlotCount; i++ {
			off := base + i*4
			binary.LittleEndian.PutUint32(data[off:off+4], uint32(d.BucketPageIDs[i]))
		}
	})
	return rp
}
