package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// DistinctExecutor keeps only the first tuple seen for each distinct
// output row. A hash of the row's values buckets candidates, but two
// rows can collide on that hash, so record.Equal re-verifies every
// element before treating a row as a duplicate -- the same
// collision-safety rule HashJoinExecutor applies to its probe.
type DistinctExecutor struct {
	child  Executor
	schema record.Schema

	seen map[string][][]any
}

func NewDistinctExecutor(child Executor, schema record.Schema) *DistinctExecutor {
	return &DistinctExecutor{child: child, schema: schema}
}

func (e *DistinctExecutor) Init() error {
	e.seen = make(map[string][][]any)
	return e.child.Init()
}

func rowHash(row []any) string {
	h := ""
	for _, v := range row {
		h += record.HashKey(v) + "\x00"
	}
	return h
}

func rowsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !record.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (e *DistinctExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	for {
		var row []any
		var r heap.TID
		ok, err := e.child.Next(&row, &r)
		if err != nil || !ok {
			return false, err
		}

		h := rowHash(row)
		dup := false
		for _, existing := range e.seen[h] {
			if rowsEqual(existing, row) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		e.seen[h] = append(e.seen[h], row)

		*tuple = row
		*rid = r
		return true, nil
	}
}

func (e *DistinctExecutor) OutputSchema() record.Schema { return e.schema }
