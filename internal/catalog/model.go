package catalog

import (
	"errors"

	"github.com/tuannm99/novasql/internal/engine"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

var ErrTableNotFound = errors.New("catalog: table not found")

// IndexKind and its constants are re-exported from internal/engine so
// callers that only import internal/catalog still see both index
// kinds without depending on internal/engine directly.
type IndexKind = engine.IndexKind

const (
	IndexKindBTree = engine.IndexKindBTree
	IndexKindHash  = engine.IndexKindHash
)

// TableInfo is the catalog's view of an open table, per SPEC_FULL.md
// section 8's get_table(oid) -> TableInfo{name, schema, table_heap}.
type TableInfo struct {
	OID    OID
	Name   string
	Schema record.Schema
	Heap   *heap.Table
}

// IndexInfo exposes an index registered on a table, per section 8's
// get_table_indexes(name) -> [IndexInfo].
type IndexInfo struct {
	Name      string
	Kind      IndexKind
	KeyColumn string
	FileBase  string
}
