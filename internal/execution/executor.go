// Package execution implements a pull-based iterator engine over
// operator plan trees: init() initialises a node and its children,
// next(tuple, rid) produces one row at a time until end-of-stream, and
// output_schema() reports the row shape. See ExecutionEngine for the
// plan-to-executor factory and driver loop.
package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

// Executor is implemented by every operator. Next must keep returning
// (false, nil) once exhausted -- it's never called again with fresh
// state expectations.
type Executor interface {
	Init() error
	Next(tuple *[]any, rid *heap.TID) (bool, error)
	OutputSchema() record.Schema
}

func concatRows(left, right []any) []any {
	out := make([]any, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

func copyRow(row []any) []any {
	cp := make([]any, len(row))
	copy(cp, row)
	return cp
}

func columnIndex(schema record.Schema, name string) int {
	for i, c := range schema.Cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func coerceInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	}
	return 0, false
}

func numeric(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	}
	return 0
}

// addInt implements UpdatePlan's Add assignment: integer addition,
// falling back to replacing with b when a isn't numeric.
func addInt(a, b any) any {
	ai, aok := coerceInt64(a)
	bi, bok := coerceInt64(b)
	if aok && bok {
		return ai + bi
	}
	return b
}
