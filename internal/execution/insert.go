package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// InsertExecutor materialises rows either from a fixed RawValues list
// (raw mode) or by pulling already-formed tuples from a child executor
// (pipelined mode), inserting each into the table heap and mirroring
// it to every registered index.
type InsertExecutor struct {
	tbl    *heap.Table
	table  string
	schema record.Schema
	raw    [][]any
	child  Executor
	idx    *IndexMaintainer
	pos    int
}

func NewInsertExecutor(tbl *heap.Table, table string, schema record.Schema, raw [][]any, child Executor, idx *IndexMaintainer) *InsertExecutor {
	return &InsertExecutor{tbl: tbl, table: table, schema: schema, raw: raw, child: child, idx: idx}
}

func (e *InsertExecutor) Init() error {
	e.pos = 0
	if e.child != nil {
		return e.child.Init()
	}
	return nil
}

func (e *InsertExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	var row []any
	if e.child != nil {
		var childRid heap.TID
		ok, err := e.child.Next(&row, &childRid)
		if err != nil || !ok {
			return false, err
		}
	} else {
		if e.pos >= len(e.raw) {
			return false, nil
		}
		row = e.raw[e.pos]
		e.pos++
	}

	newRid, err := e.tbl.Insert(row)
	if err != nil {
		return false, err
	}
	if e.idx != nil {
		if err := e.idx.InsertEntry(e.table, e.schema, row, newRid); err != nil {
			return false, err
		}
	}
	*tuple = row
	*rid = newRid
	return true, nil
}

func (e *InsertExecutor) OutputSchema() record.Schema { return e.schema }
