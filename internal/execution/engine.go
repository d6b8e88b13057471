package execution

import (
	"fmt"
	"log/slog"

	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/engine"
	"github.com/tuannm99/novasql/internal/heap"
)

// ExecutorException wraps a panic recovered from an operator's Init
// or Next call, converting it into the ordinary error return every
// other executor failure already takes.
type ExecutorException struct {
	Op    string
	Cause any
}

func (e *ExecutorException) Error() string {
	return fmt.Sprintf("execution: %s panicked: %v", e.Op, e.Cause)
}

// ExecutionEngine builds an Executor tree from a PlanNode tree and
// drives it to completion, resolving tables and their indexes through
// a catalog.Registry rather than touching *engine.Database directly.
type ExecutionEngine struct {
	db  *engine.Database
	reg *catalog.Registry
	idx *IndexMaintainer
}

func NewExecutionEngine(db *engine.Database, reg *catalog.Registry) *ExecutionEngine {
	return &ExecutionEngine{db: db, reg: reg, idx: NewIndexMaintainer(db, reg)}
}

// Build compiles a plan tree into an Executor tree without running it.
func (e *ExecutionEngine) Build(plan PlanNode) (Executor, error) {
	switch p := plan.(type) {
	case *SeqScanPlan:
		info, err := e.reg.GetTableByName(p.Table)
		if err != nil {
			return nil, err
		}
		return NewSeqScanExecutor(info.Heap, p.Schema, p.Predicate), nil

	case *InsertPlan:
		info, err := e.reg.GetTableByName(p.Table)
		if err != nil {
			return nil, err
		}
		var child Executor
		if p.Child != nil {
			child, err = e.Build(p.Child)
			if err != nil {
				return nil, err
			}
		}
		return NewInsertExecutor(info.Heap, p.Table, p.Schema, p.RawValues, child, e.idx), nil

	case *DeletePlan:
		info, err := e.reg.GetTableByName(p.Table)
		if err != nil {
			return nil, err
		}
		child, err := e.Build(p.Child)
		if err != nil {
			return nil, err
		}
		return NewDeleteExecutor(info.Heap, p.Table, p.Schema, child, e.idx), nil

	case *UpdatePlan:
		info, err := e.reg.GetTableByName(p.Table)
		if err != nil {
			return nil, err
		}
		child, err := e.Build(p.Child)
		if err != nil {
			return nil, err
		}
		return NewUpdateExecutor(info.Heap, p.Table, p.Schema, p.Assignments, child, e.idx), nil

	case *NestedLoopJoinPlan:
		left, err := e.Build(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.Build(p.Right)
		if err != nil {
			return nil, err
		}
		return NewNestedLoopJoinExecutor(left, right, p.Predicate, p.Schema), nil

	case *HashJoinPlan:
		left, err := e.Build(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.Build(p.Right)
		if err != nil {
			return nil, err
		}
		return NewHashJoinExecutor(left, right, p.LeftKey, p.RightKey, p.Schema), nil

	case *AggregationPlan:
		child, err := e.Build(p.Child)
		if err != nil {
			return nil, err
		}
		return NewAggregationExecutor(child, p.GroupBy, p.Aggregates, p.Having, p.Output, p.Schema), nil

	case *DistinctPlan:
		child, err := e.Build(p.Child)
		if err != nil {
			return nil, err
		}
		return NewDistinctExecutor(child, p.Schema), nil

	case *LimitPlan:
		child, err := e.Build(p.Child)
		if err != nil {
			return nil, err
		}
		return NewLimitExecutor(child, p.Limit, p.Offset, p.Schema), nil

	default:
		return nil, fmt.Errorf("execution: unknown plan node %T", plan)
	}
}

func recoverInto(op string, errp *error) {
	if r := recover(); r != nil {
		*errp = &ExecutorException{Op: op, Cause: r}
	}
}

func safeInit(ex Executor) (err error) {
	defer recoverInto("Init", &err)
	return ex.Init()
}

func safeNext(ex Executor, tuple *[]any, rid *heap.TID) (ok bool, err error) {
	defer recoverInto("Next", &err)
	return ex.Next(tuple, rid)
}

// Run builds plan, then drives it to completion, returning every
// produced row. Any panic raised by an operator is recovered into an
// *ExecutorException, logged via slog.Error, and ends the run: the rows
// produced so far are returned with a nil error. Errors that operators
// return are passed back to the caller with the rows produced so far.
func (e *ExecutionEngine) Run(plan PlanNode) ([][]any, error) {
	ex, err := e.Build(plan)
	if err != nil {
		return nil, err
	}
	if err := safeInit(ex); err != nil {
		if ee, ok := err.(*ExecutorException); ok {
			slog.Error("execution: operator panicked", "op", ee.Op, "cause", ee.Cause)
			return nil, nil
		}
		return nil, err
	}

	var rows [][]any
	for {
		var row []any
		var rid heap.TID
		ok, err := safeNext(ex, &row, &rid)
		if err != nil {
			if ee, ok := err.(*ExecutorException); ok {
				slog.Error("execution: operator panicked", "op", ee.Op, "cause", ee.Cause)
				return rows, nil
			}
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}
