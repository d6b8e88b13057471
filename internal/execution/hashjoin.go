package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

type hashJoinBucketEntry struct {
	row []any
	rid heap.TID
}

// HashJoinExecutor drains Left entirely in Init, bucketing rows by
// LeftKey's hash; Next then drains Right, probing the bucket for its
// key's hash and re-checking actual equality with record.Equal on
// every candidate, since two distinct keys can share a hash bucket
// and a bare hash match alone would silently join unrelated rows.
type HashJoinExecutor struct {
	left, right       Executor
	leftKey, rightKey ValueExpr
	schema            record.Schema

	buckets map[string][]hashJoinBucketEntry

	rightRow     []any
	rightRid     heap.TID
	candidates   []hashJoinBucketEntry
	candidatePos int
}

func NewHashJoinExecutor(left, right Executor, leftKey, rightKey ValueExpr, schema record.Schema) *HashJoinExecutor {
	return &HashJoinExecutor{left: left, right: right, leftKey: leftKey, rightKey: rightKey, schema: schema}
}

func (e *HashJoinExecutor) Init() error {
	if err := e.left.Init(); err != nil {
		return err
	}
	e.buckets = make(map[string][]hashJoinBucketEntry)
	for {
		var row []any
		var rid heap.TID
		ok, err := e.left.Next(&row, &rid)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key, err := e.leftKey(row)
		if err != nil {
			return err
		}
		h := record.HashKey(key)
		e.buckets[h] = append(e.buckets[h], hashJoinBucketEntry{row: row, rid: rid})
	}

	e.candidates = nil
	e.candidatePos = 0
	return e.right.Init()
}

func (e *HashJoinExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	for {
		if e.candidatePos < len(e.candidates) {
			c := e.candidates[e.candidatePos]
			e.candidatePos++
			*tuple = concatRows(c.row, e.rightRow)
			*rid = c.rid
			return true, nil
		}

		ok, err := e.right.Next(&e.rightRow, &e.rightRid)
		if err != nil || !ok {
			return false, err
		}

		rightKey, err := e.rightKey(e.rightRow)
		if err != nil {
			return false, err
		}
		bucket := e.buckets[record.HashKey(rightKey)]
		e.candidates = e.candidates[:0]
		for _, c := range bucket {
			leftKey, err := e.leftKey(c.row)
			if err != nil {
				return false, err
			}
			if record.Equal(leftKey, rightKey) {
				e.candidates = append(e.candidates, c)
			}
		}
		e.candidatePos = 0
	}
}

func (e *HashJoinExecutor) OutputSchema() record.Schema { return e.schema }
