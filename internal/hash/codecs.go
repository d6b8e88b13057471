package hash

import (
	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/heap"
)

// Int64Codec encodes the int64 row-index keys used throughout
// internal/btree's KeyType, so hash and btree indexes can share a
// column's key domain.
var Int64Codec = Codec[int64]{
	Size:   8,
	Encode: func(v int64, b []byte) { bx.PutU64(b, uint64(v)) },
	Decode: func(b []byte) int64 { return int64(bx.U64(b)) },
}

// TIDCodec encodes a heap.TID (PageID uint32 + Slot uint16) as 6 bytes.
var TIDCodec = Codec[heap.TID]{
	Size: 6,
	Encode: func(v heap.TID, b []byte) {
		bx.PutU32(b[0:4], v.PageID)
		bx.PutU16(b[4:6], v.Slot)
	},
	Decode: func(b []byte) heap.TID {
		return heap.TID{PageID: bx.U32(b[0:4]), Slot: bx.U16(b[4:6])}
	},
}

// Int64Comparator orders int64 keys numerically, matching
// internal/btree's ordering for the same key domain.
func Int64Comparator(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
