package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

type scannedRow struct {
	tuple []any
	rid   heap.TID
}

// SeqScanExecutor walks a table heap, keeping only rows matching an
// optional predicate. The underlying heap.Table.Scan API is
// callback-driven rather than resumable, so the scan is drained once
// in Init and served incrementally from a slice in Next -- observably
// a pull iterator to callers, who never see more than one row per
// Next call.
type SeqScanExecutor struct {
	tbl       *heap.Table
	schema    record.Schema
	predicate RowPredicate

	rows []scannedRow
	pos  int
}

func NewSeqScanExecutor(tbl *heap.Table, schema record.Schema, predicate RowPredicate) *SeqScanExecutor {
	return &SeqScanExecutor{tbl: tbl, schema: schema, predicate: predicate}
}

func (e *SeqScanExecutor) Init() error {
	e.rows = e.rows[:0]
	e.pos = 0
	return e.tbl.Scan(func(id heap.TID, row []any) error {
		if e.predicate != nil {
			ok, err := e.predicate(row)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		e.rows = append(e.rows, scannedRow{tuple: copyRow(row), rid: id})
		return nil
	})
}

func (e *SeqScanExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	if e.pos >= len(e.rows) {
		return false, nil
	}
	r := e.rows[e.pos]
	e.pos++
	*tuple = r.tuple
	*rid = r.rid
	return true, nil
}

func (e *SeqScanExecutor) OutputSchema() record.Schema { return e.schema }
