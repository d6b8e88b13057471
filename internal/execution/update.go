package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// UpdateExecutor pulls (tuple, rid) pairs from a child, applies each
// Assignment to produce a new tuple (Set replaces, Add does integer
// addition; unlisted columns pass through unchanged), writes it back,
// and maintains indexes analogously to InsertExecutor -- resolving
// spec's update-index Open Question in favor of the index-consistent
// behavior, since a stale index entry is a correctness bug in any
// system with both Update and index lookups.
type UpdateExecutor struct {
	tbl         *heap.Table
	table       string
	schema      record.Schema
	assignments []Assignment
	child       Executor
	idx         *IndexMaintainer
}

func NewUpdateExecutor(tbl *heap.Table, table string, schema record.Schema, assignments []Assignment, child Executor, idx *IndexMaintainer) *UpdateExecutor {
	return &UpdateExecutor{tbl: tbl, table: table, schema: schema, assignments: assignments, child: child, idx: idx}
}

func (e *UpdateExecutor) Init() error { return e.child.Init() }

func (e *UpdateExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	var row []any
	var r heap.TID
	ok, err := e.child.Next(&row, &r)
	if err != nil || !ok {
		return false, err
	}

	newRow := copyRow(row)
	for _, a := range e.assignments {
		i := columnIndex(e.schema, a.Column)
		if i < 0 || i >= len(newRow) {
			continue
		}
		switch a.Op {
		case AssignSet:
			newRow[i] = a.Value
		case AssignAdd:
			newRow[i] = addInt(newRow[i], a.Value)
		}
	}

	if err := e.tbl.Update(r, newRow); err != nil {
		return false, err
	}
	if e.idx != nil {
		if err := e.idx.UpdateEntry(e.table, e.schema, row, newRow, r); err != nil {
			return false, err
		}
	}
	*tuple = newRow
	*rid = r
	return true, nil
}

func (e *UpdateExecutor) OutputSchema() record.Schema { return e.schema }
