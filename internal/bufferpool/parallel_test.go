package bufferpool

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/storage"
)

func newTestParallelPool(t *testing.T, n, capacityPerInstance int) (*ParallelBufferPool, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "novasql-pbp-*")
	require.NoError(t, err)

	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: "testtable"}

	pbp := NewParallelBufferPool(sm, fs, n, capacityPerInstance)

	cleanup := func() { _ = os.RemoveAll(dir) }
	return pbp, cleanup
}

func TestParallelBufferPool_RoutesByPageIDModN(t *testing.T) {
	pbp, cleanup := newTestParallelPool(t, 4, 2)
	defer cleanup()

	page0, err := pbp.GetPage(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), page0.PageID())

	page4, err := pbp.GetPage(4)
	require.NoError(t, err)
	require.Equal(t, uint32(4), page4.PageID())

	require.Same(t, pbp.instanceFor(0), pbp.instanceFor(4))
	require.NotSame(t, pbp.instanceFor(0), pbp.instanceFor(1))
}

func TestParallelBufferPool_UnpinAndFlushAll(t *testing.T) {
	pbp, cleanup := newTestParallelPool(t, 2, 2)
	defer cleanup()

	page, err := pbp.GetPage(1)
	require.NoError(t, err)
	page.Buf[0] = 7

	require.NoError(t, pbp.Unpin(page, true))
	require.NoError(t, pbp.FlushAll())

	reloaded, err := pbp.instanceFor(1).sm.LoadPage(pbp.instanceFor(1).fs, 1)
	require.NoError(t, err)
	require.Equal(t, byte(7), reloaded.Buf[0])
}

func TestParallelBufferPool_NewPage_SpreadsRoundRobin(t *testing.T) {
	pbp, cleanup := newTestParallelPool(t, 3, 1)
	defer cleanup()

	first := pbp.cursor.Load()
	_, err := pbp.NewPage(0)
	require.NoError(t, err)
	require.NotEqual(t, first, pbp.cursor.Load())
}
