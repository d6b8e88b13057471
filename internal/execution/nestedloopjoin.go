package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// NestedLoopJoinExecutor drives Left as the outer loop and Right as
// the inner loop: for each left row, Right is re-initialised and
// walked to exhaustion, keeping only pairs that satisfy Predicate.
type NestedLoopJoinExecutor struct {
	left, right Executor
	predicate   JoinPredicate
	schema      record.Schema

	haveLeft bool
	leftRow  []any
	leftRid  heap.TID
}

func NewNestedLoopJoinExecutor(left, right Executor, predicate JoinPredicate, schema record.Schema) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{left: left, right: right, predicate: predicate, schema: schema}
}

func (e *NestedLoopJoinExecutor) Init() error {
	e.haveLeft = false
	return e.left.Init()
}

func (e *NestedLoopJoinExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	for {
		if !e.haveLeft {
			ok, err := e.left.Next(&e.leftRow, &e.leftRid)
			if err != nil || !ok {
				return false, err
			}
			e.haveLeft = true
			if err := e.right.Init(); err != nil {
				return false, err
			}
		}

		var rightRow []any
		var rightRid heap.TID
		ok, err := e.right.Next(&rightRow, &rightRid)
		if err != nil {
			return false, err
		}
		if !ok {
			e.haveLeft = false
			continue
		}

		matched := true
		if e.predicate != nil {
			matched, err = e.predicate(e.leftRow, rightRow)
			if err != nil {
				return false, err
			}
		}
		if !matched {
			continue
		}

		*tuple = concatRows(e.leftRow, rightRow)
		*rid = e.leftRid
		return true, nil
	}
}

func (e *NestedLoopJoinExecutor) OutputSchema() record.Schema { return e.schema }
