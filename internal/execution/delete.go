package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// DeleteExecutor pulls (tuple, rid) pairs from a child (typically a
// scan) and applies the delete to both the table heap and every
// registered index.
type DeleteExecutor struct {
	tbl    *heap.Table
	table  string
	schema record.Schema
	child  Executor
	idx    *IndexMaintainer
}

func NewDeleteExecutor(tbl *heap.Table, table string, schema record.Schema, child Executor, idx *IndexMaintainer) *DeleteExecutor {
	return &DeleteExecutor{tbl: tbl, table: table, schema: schema, child: child, idx: idx}
}

func (e *DeleteExecutor) Init() error { return e.child.Init() }

func (e *DeleteExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	var row []any
	var r heap.TID
	ok, err := e.child.Next(&row, &r)
	if err != nil || !ok {
		return false, err
	}

	if err := e.tbl.Delete(r); err != nil {
		return false, err
	}
	if e.idx != nil {
		if err := e.idx.DeleteEntry(e.table, e.schema, row, r); err != nil {
			return false, err
		}
	}
	*tuple = row
	*rid = r
	return true, nil
}

func (e *DeleteExecutor) OutputSchema() record.Schema { return e.schema }
