package novasql

import "github.com/tuannm99/novasql/internal/engine"

// IndexKind, IndexMeta, and the index-related error values are
// re-exported from internal/engine here so external callers keep
// using novasql.IndexMeta / novasql.IndexKindBTree etc. The actual
// CreateBTreeIndex/CreateHashIndex/OpenBTreeIndex/OpenHashIndex/
// DropIndex/ListIndexes methods live on engine.Database in
// internal/engine/index_registry.go, since Database here is a type
// alias for engine.Database and methods can only be declared in the
// package where a type is actually defined.
type IndexKind = engine.IndexKind

type IndexMeta = engine.IndexMeta

const (
	IndexKindBTree = engine.IndexKindBTree
	IndexKindHash  = engine.IndexKindHash
)

var (
	ErrIndexNotFound  = engine.ErrIndexNotFound
	ErrIndexExists    = engine.ErrIndexExists
	ErrIndexBadColumn = engine.ErrIndexBadColumn
	ErrIndexBadKind   = engine.ErrIndexBadKind
	ErrIndexBadName   = engine.ErrIndexBadName
	ErrIndexBadTable  = engine.ErrIndexBadTable
	ErrIndexBadKeyCol = engine.ErrIndexBadKeyCol
)
