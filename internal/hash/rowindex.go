package hash

import (
	"github.com/tuannm99/novasql/internal/bufferpool"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/storage"
)

// RowIndex is the int64-key, heap.TID-value hash index used by the
// table-level index registry — the hash-index counterpart of
// internal/btree.Tree, sharing the same KeyType domain.
type RowIndex = Table[int64, heap.TID]

// NewRowIndex creates a brand-new row-level hash index.
func NewRowIndex(sm *storage.StorageManager, fs storage.FileSet, bp bufferpool.Manager) (*RowIndex, error) {
	return NewTable[int64, heap.TID](sm, fs, bp, Int64Codec, TIDCodec, Int64Comparator)
}

// OpenRowIndex reopens an existing row-level hash index.
func OpenRowIndex(sm *storage.StorageManager, fs storage.FileSet, bp bufferpool.Manager) (*RowIndex, error) {
	return OpenTable[int64, heap.TID](sm, fs, bp, Int64Codec, TIDCodec, Int64Comparator)
}

// SearchEqual returns every TID stored under key, matching
// internal/btree.Tree's SearchEqual signature so planner/executor code
// can treat btree and hash indexes uniformly.
func SearchEqual(idx *RowIndex, key int64) ([]heap.TID, error) {
	var results []heap.TID
	if err := idx.GetValue(key, &results); err != nil {
		return nil, err
	}
	return results, nil
}
