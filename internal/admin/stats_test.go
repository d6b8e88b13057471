package admin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/engine"
	"github.com/tuannm99/novasql/internal/record"
)

func newTestDatabase(t *testing.T) *engine.Database {
	t.Helper()
	return engine.NewDatabase(t.TempDir())
}

func TestCollector_Snapshot_ReportsTables(t *testing.T) {
	db := newTestDatabase(t)
	schema := record.Schema{Cols: []record.Column{{Name: "id", Type: record.ColInt64}}}
	_, err := db.CreateTable("widgets", schema)
	require.NoError(t, err)

	reg := catalog.NewRegistry(db)
	c := NewCollector(db, reg)

	snap, err := c.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Tables, 1)
	require.Equal(t, "widgets", snap.Tables[0].Name)
}

func TestCollector_Checkpoint_FlushesWithoutError(t *testing.T) {
	db := newTestDatabase(t)
	schema := record.Schema{Cols: []record.Column{{Name: "id", Type: record.ColInt64}}}
	tbl, err := db.CreateTable("widgets", schema)
	require.NoError(t, err)
	_, err = tbl.Insert([]any{int64(1)})
	require.NoError(t, err)

	reg := catalog.NewRegistry(db)
	c := NewCollector(db, reg)
	require.NoError(t, c.Checkpoint())
}
