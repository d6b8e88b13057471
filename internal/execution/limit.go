package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// LimitExecutor discards the first Offset rows from Child, then
// yields at most Limit rows. A non-positive Limit means unbounded.
type LimitExecutor struct {
	child  Executor
	limit  int
	offset int
	schema record.Schema

	skipped int
	emitted int
}

func NewLimitExecutor(child Executor, limit, offset int, schema record.Schema) *LimitExecutor {
	return &LimitExecutor{child: child, limit: limit, offset: offset, schema: schema}
}

func (e *LimitExecutor) Init() error {
	e.skipped = 0
	e.emitted = 0
	return e.child.Init()
}

func (e *LimitExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	if e.limit > 0 && e.emitted >= e.limit {
		return false, nil
	}

	for e.skipped < e.offset {
		var row []any
		var r heap.TID
		ok, err := e.child.Next(&row, &r)
		if err != nil || !ok {
			return false, err
		}
		e.skipped++
	}

	var row []any
	var r heap.TID
	ok, err := e.child.Next(&row, &r)
	if err != nil || !ok {
		return false, err
	}
	e.emitted++
	*tuple = row
	*rid = r
	return true, nil
}

func (e *LimitExecutor) OutputSchema() record.Schema { return e.schema }
