package hash

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/bufferpool"
	"github.com/tuannm99/novasql/internal/storage"
)

var uint32Codec = Codec[uint32]{
	Size:   4,
	Encode: func(v uint32, b []byte) { bx.PutU32(b, v) },
	Decode: func(b []byte) uint32 { return bx.U32(b) },
}

func uint32Cmp(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newTestTable(t *testing.T) (*Table[uint32, uint32], func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "novasql-hash-*")
	require.NoError(t, err)

	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: "idx"}
	bp := bufferpool.NewPool(sm, fs, 64)

	tbl, err := NewTable[uint32, uint32](sm, fs, bp, uint32Codec, uint32Codec, uint32Cmp)
	require.NoError(t, err)

	cleanup := func() { _ = os.RemoveAll(dir) }
	return tbl, cleanup
}

func TestTable_InsertAndGetValue(t *testing.T) {
	tbl, cleanup := newTestTable(t)
	defer cleanup()

	ok, err := tbl.Insert(42, 100)
	require.NoError(t, err)
	require.True(t, ok)

	var results []uint32
	require.NoError(t, tbl.GetValue(42, &results))
	require.Equal(t, []uint32{100}, results)
}

func TestTable_Insert_RejectsDuplicate(t *testing.T) {
	tbl, cleanup := newTestTable(t)
	defer cleanup()

	ok, err := tbl.Insert(1, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tbl.Insert(1, 1)
	require.NoError(t, err)
	require.False(t, ok)

	var results []uint32
	require.NoError(t, tbl.GetValue(1, &results))
	require.Equal(t, []uint32{1}, results)
}

func TestTable_Insert_SameKeyDifferentValues(t *testing.T) {
	tbl, cleanup := newTestTable(t)
	defer cleanup()

	require.NoError(t, mustInsert(t, tbl, 7, 1))
	require.NoError(t, mustInsert(t, tbl, 7, 2))
	require.NoError(t, mustInsert(t, tbl, 7, 3))

	var results []uint32
	require.NoError(t, tbl.GetValue(7, &results))
	require.ElementsMatch(t, []uint32{1, 2, 3}, results)
}

func TestTable_SplitOnInsert_GrowsPastBucketCapacity(t *testing.T) {
	tbl, cleanup := newTestTable(t)
	defer cleanup()

	const n = 500
	for i := uint32(0); i < n; i++ {
		ok, err := tbl.Insert(i, i*10)
		require.NoErrorf(t, err, "insert %d", i)
		require.Truef(t, ok, "insert %d should succeed", i)
	}

	for i := uint32(0); i < n; i++ {
		var results []uint32
		require.NoError(t, tbl.GetValue(i, &results))
		require.Containsf(t, results, i*10, "missing value for key %d", i)
	}

	dirPage, err := tbl.BP.GetPage(tbl.dirPageID)
	require.NoError(t, err)
	dir := NewDirectoryPage(dirPage)
	require.NoError(t, dir.VerifyIntegrity())
	require.Greater(t, dir.GlobalDepth(), uint16(0))
	require.NoError(t, tbl.BP.Unpin(dirPage, false))
}

func TestTable_Remove_MergesEmptyBucket(t *testing.T) {
	tbl, cleanup := newTestTable(t)
	defer cleanup()

	const n = 500
	for i := uint32(0); i < n; i++ {
		_, err := tbl.Insert(i, i)
		require.NoError(t, err)
	}

	for i := uint32(0); i < n; i++ {
		ok, err := tbl.Remove(i, i)
		require.NoError(t, err)
		require.True(t, ok)
	}

	for i := uint32(0); i < n; i++ {
		var results []uint32
		require.NoError(t, tbl.GetValue(i, &results))
		require.Empty(t, results)
	}
}

func TestTable_Remove_NonExistentReturnsFalse(t *testing.T) {
	tbl, cleanup := newTestTable(t)
	defer cleanup()

	ok, err := tbl.Remove(999, 999)
	require.NoError(t, err)
	require.False(t, ok)
}

func mustInsert(t *testing.T, tbl *Table[uint32, uint32], k, v uint32) error {
	t.Helper()
	ok, err := tbl.Insert(k, v)
	require.True(t, ok)
	return err
}
