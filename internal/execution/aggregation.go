package execution

import (
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

type aggGroup struct {
	key    []any
	counts []int64
	sums   []float64
	mins   []float64
	maxs   []float64
	inited []bool
}

// AggregationExecutor is two-phase per spec's operator description:
// Init drains Child and combines every row into its group's running
// Count/Sum/Min/Max, and Next walks the finished groups, applying
// Having then Output.
type AggregationExecutor struct {
	child      Executor
	groupBy    []ValueExpr
	aggregates []AggregateExpr
	having     HavingPredicate
	output     ProjectExpr
	schema     record.Schema

	groups map[string]*aggGroup
	pos    int
	keys   []string
}

func NewAggregationExecutor(child Executor, groupBy []ValueExpr, aggregates []AggregateExpr, having HavingPredicate, output ProjectExpr, schema record.Schema) *AggregationExecutor {
	return &AggregationExecutor{child: child, groupBy: groupBy, aggregates: aggregates, having: having, output: output, schema: schema}
}

func (e *AggregationExecutor) groupKeyHash(key []any) string {
	h := ""
	for _, k := range key {
		h += record.HashKey(k) + "\x00"
	}
	return h
}

func (e *AggregationExecutor) Init() error {
	if err := e.child.Init(); err != nil {
		return err
	}
	e.groups = make(map[string]*aggGroup)
	e.keys = nil
	e.pos = 0

	for {
		var row []any
		var rid heap.TID
		ok, err := e.child.Next(&row, &rid)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		key := make([]any, len(e.groupBy))
		for i, g := range e.groupBy {
			v, err := g(row)
			if err != nil {
				return err
			}
			key[i] = v
		}
		h := e.groupKeyHash(key)
		g, ok := e.groups[h]
		if !ok {
			g = &aggGroup{
				key:    key,
				counts: make([]int64, len(e.aggregates)),
				sums:   make([]float64, len(e.aggregates)),
				mins:   make([]float64, len(e.aggregates)),
				maxs:   make([]float64, len(e.aggregates)),
				inited: make([]bool, len(e.aggregates)),
			}
			e.groups[h] = g
			e.keys = append(e.keys, h)
		}

		for i, a := range e.aggregates {
			g.counts[i]++
			if a.Kind == AggCount {
				continue
			}
			v, err := a.Value(row)
			if err != nil {
				return err
			}
			n := numeric(v)
			switch a.Kind {
			case AggSum:
				g.sums[i] += n
			case AggMin:
				if !g.inited[i] || n < g.mins[i] {
					g.mins[i] = n
				}
			case AggMax:
				if !g.inited[i] || n > g.maxs[i] {
					g.maxs[i] = n
				}
			}
			g.inited[i] = true
		}
	}
	return nil
}

func (e *AggregationExecutor) Next(tuple *[]any, rid *heap.TID) (bool, error) {
	for e.pos < len(e.keys) {
		g := e.groups[e.keys[e.pos]]
		e.pos++

		aggValues := make([]any, len(e.aggregates))
		for i, a := range e.aggregates {
			switch a.Kind {
			case AggCount:
				aggValues[i] = g.counts[i]
			case AggSum:
				aggValues[i] = g.sums[i]
			case AggMin:
				aggValues[i] = g.mins[i]
			case AggMax:
				aggValues[i] = g.maxs[i]
			}
		}

		if e.having != nil {
			ok, err := e.having(g.key, aggValues)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
		}

		out, err := e.output(g.key, aggValues)
		if err != nil {
			return false, err
		}
		*tuple = out
		*rid = heap.TID{}
		return true, nil
	}
	return false, nil
}

func (e *AggregationExecutor) OutputSchema() record.Schema { return e.schema }
