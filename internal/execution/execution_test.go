package execution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/bufferpool"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/storage"
)

func newTestTable(t *testing.T, base string, schema record.Schema) *heap.Table {
	t.Helper()
	dir := t.TempDir()

	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	bp := bufferpool.NewPool(sm, fs, bufferpool.DefaultCapacity)
	ovf := storage.NewOverflowManager(sm, storage.LocalFileSet{Dir: dir, Base: base + "_ovf"})

	return heap.NewTable(base, schema, sm, fs, bp, ovf, 0)
}

func drain(t *testing.T, ex Executor) [][]any {
	t.Helper()
	require.NoError(t, ex.Init())
	var rows [][]any
	for {
		var row []any
		var rid heap.TID
		ok, err := ex.Next(&row, &rid)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows
}

var usersSchema = record.Schema{Cols: []record.Column{
	{Name: "id", Type: record.ColInt64},
	{Name: "amount", Type: record.ColInt64},
}}

func seedUsers(t *testing.T, tbl *heap.Table, n int) {
	t.Helper()
	for i := int64(1); i <= int64(n); i++ {
		_, err := tbl.Insert([]any{i, i * 10})
		require.NoError(t, err)
	}
}

func TestSeqScan_PredicateFilters(t *testing.T) {
	tbl := newTestTable(t, "seq_users", usersSchema)
	seedUsers(t, tbl, 5)

	predicate := func(row []any) (bool, error) {
		id, _ := coerceInt64(row[0])
		return id%2 == 0, nil
	}
	ex := NewSeqScanExecutor(tbl, usersSchema, predicate)
	rows := drain(t, ex)
	require.Len(t, rows, 2)
}

func TestInsertDeleteScan_OddRemoved(t *testing.T) {
	tbl := newTestTable(t, "ins_del_users", usersSchema)

	raw := make([][]any, 0, 5)
	for i := int64(1); i <= 5; i++ {
		raw = append(raw, []any{i, i * 10})
	}
	ins := NewInsertExecutor(tbl, "t", usersSchema, raw, nil, nil)
	inserted := drain(t, ins)
	require.Len(t, inserted, 5)

	oddScan := NewSeqScanExecutor(tbl, usersSchema, func(row []any) (bool, error) {
		id, _ := coerceInt64(row[0])
		return id%2 == 1, nil
	})
	del := NewDeleteExecutor(tbl, "t", usersSchema, oddScan, nil)
	deleted := drain(t, del)
	require.Len(t, deleted, 3)

	remaining := drain(t, NewSeqScanExecutor(tbl, usersSchema, nil))
	require.Len(t, remaining, 2)
	for _, row := range remaining {
		id, _ := coerceInt64(row[0])
		require.Zero(t, id%2)
	}
}

func TestUpdate_AddAssignment(t *testing.T) {
	tbl := newTestTable(t, "upd_users", usersSchema)
	seedUsers(t, tbl, 3)

	scan := NewSeqScanExecutor(tbl, usersSchema, nil)
	upd := NewUpdateExecutor(tbl, "t", usersSchema, []Assignment{
		{Column: "amount", Op: AssignAdd, Value: int64(1)},
	}, scan, nil)
	updated := drain(t, upd)
	require.Len(t, updated, 3)

	rows := drain(t, NewSeqScanExecutor(tbl, usersSchema, nil))
	for _, row := range rows {
		id, _ := coerceInt64(row[0])
		amount, _ := coerceInt64(row[1])
		require.Equal(t, id*10+1, amount)
	}
}

func TestNestedLoopJoin_3x4UnderPredicate(t *testing.T) {
	left := newTestTable(t, "nlj_left", usersSchema)
	seedUsers(t, left, 3)

	rightSchema := record.Schema{Cols: []record.Column{
		{Name: "rid", Type: record.ColInt64},
		{Name: "lid", Type: record.ColInt64},
	}}
	right := newTestTable(t, "nlj_right", rightSchema)
	for i := int64(1); i <= 4; i++ {
		_, err := right.Insert([]any{i, (i % 3) + 1})
		require.NoError(t, err)
	}

	leftEx := NewSeqScanExecutor(left, usersSchema, nil)
	rightEx := NewSeqScanExecutor(right, rightSchema, nil)
	outSchema := record.Schema{Cols: append(append([]record.Column{}, usersSchema.Cols...), rightSchema.Cols...)}
	predicate := func(l, r []any) (bool, error) {
		lid, _ := coerceInt64(l[0])
		rlid, _ := coerceInt64(r[1])
		return lid == rlid, nil
	}
	join := NewNestedLoopJoinExecutor(leftEx, rightEx, predicate, outSchema)
	rows := drain(t, join)
	require.Len(t, rows, 4)
}

func TestHashJoin_MatchesNestedLoopJoinAsSet(t *testing.T) {
	left := newTestTable(t, "hj_left", usersSchema)
	seedUsers(t, left, 3)

	rightSchema := record.Schema{Cols: []record.Column{
		{Name: "rid", Type: record.ColInt64},
		{Name: "lid", Type: record.ColInt64},
	}}
	right := newTestTable(t, "hj_right", rightSchema)
	for i := int64(1); i <= 4; i++ {
		_, err := right.Insert([]any{i, (i % 3) + 1})
		require.NoError(t, err)
	}
	outSchema := record.Schema{Cols: append(append([]record.Column{}, usersSchema.Cols...), rightSchema.Cols...)}

	leftKey := func(row []any) (any, error) { return row[0], nil }
	rightKey := func(row []any) (any, error) { return row[1], nil }

	hj := NewHashJoinExecutor(
		NewSeqScanExecutor(left, usersSchema, nil),
		NewSeqScanExecutor(right, rightSchema, nil),
		leftKey, rightKey, outSchema,
	)
	hashRows := drain(t, hj)

	nlj := NewNestedLoopJoinExecutor(
		NewSeqScanExecutor(left, usersSchema, nil),
		NewSeqScanExecutor(right, rightSchema, nil),
		func(l, r []any) (bool, error) {
			lid, _ := coerceInt64(l[0])
			rlid, _ := coerceInt64(r[1])
			return lid == rlid, nil
		},
		outSchema,
	)
	nljRows := drain(t, nlj)

	require.Len(t, hashRows, len(nljRows))
	require.ElementsMatch(t, nljRows, hashRows)
}

func TestAggregation_SumGroupByWithHaving(t *testing.T) {
	tbl := newTestTable(t, "agg_users", usersSchema)
	// two groups by id%2: evens {2,4} amounts 20+40=60; odds {1,3,5} amounts 10+30+50=90
	seedUsers(t, tbl, 5)

	groupBy := func(row []any) (any, error) {
		id, _ := coerceInt64(row[0])
		return id % 2, nil
	}
	sumAmount := func(row []any) (any, error) { return row[1], nil }

	having := func(groupKey, aggValues []any) (bool, error) {
		sum := numeric(aggValues[0])
		return sum > 60, nil
	}
	output := func(groupKey, aggValues []any) ([]any, error) {
		return []any{groupKey[0], aggValues[0]}, nil
	}

	outSchema := record.Schema{Cols: []record.Column{
		{Name: "parity", Type: record.ColInt64},
		{Name: "total", Type: record.ColFloat64},
	}}

	agg := NewAggregationExecutor(
		NewSeqScanExecutor(tbl, usersSchema, nil),
		[]ValueExpr{groupBy},
		[]AggregateExpr{{Kind: AggSum, Value: sumAmount}},
		having, output, outSchema,
	)
	rows := drain(t, agg)
	require.Len(t, rows, 1)
	require.InDelta(t, 90.0, numeric(rows[0][1]), 0.001)
}

func TestDistinct_DedupesByValue(t *testing.T) {
	schema := record.Schema{Cols: []record.Column{{Name: "v", Type: record.ColInt64}}}
	tbl := newTestTable(t, "distinct_vals", schema)
	for _, v := range []int64{1, 2, 1, 3, 2, 1} {
		_, err := tbl.Insert([]any{v})
		require.NoError(t, err)
	}

	rows := drain(t, NewDistinctExecutor(NewSeqScanExecutor(tbl, schema, nil), schema))
	require.Len(t, rows, 3)
}

func TestLimit_CapsAfterOffset(t *testing.T) {
	tbl := newTestTable(t, "limit_users", usersSchema)
	seedUsers(t, tbl, 5)

	rows := drain(t, NewLimitExecutor(NewSeqScanExecutor(tbl, usersSchema, nil), 2, 1, usersSchema))
	require.Len(t, rows, 2)
	id0, _ := coerceInt64(rows[0][0])
	require.Equal(t, int64(2), id0)
}
