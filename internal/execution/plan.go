package execution

import (
	"github.com/tuannm99/novasql/internal/record"
)

// RowPredicate decides whether a scanned row survives a filter.
type RowPredicate func(row []any) (bool, error)

// JoinPredicate decides whether a (left, right) row pair joins.
type JoinPredicate func(left, right []any) (bool, error)

// ValueExpr extracts a single value out of a row, used for join/group
// keys and aggregate inputs.
type ValueExpr func(row []any) (any, error)

// HavingPredicate filters aggregation groups after combination.
type HavingPredicate func(groupKey, aggValues []any) (bool, error)

// ProjectExpr maps a (groupKey, aggValues) pair onto an aggregation's
// output row, per the output schema's column expressions.
type ProjectExpr func(groupKey, aggValues []any) ([]any, error)

// PlanNode is a tagged tree, per spec's "a tagged tree with child plan
// pointers plus operator-specific accessors". There is deliberately no
// SQL surface here: plans are built with Go closures, not parsed
// expressions, matching the Non-goal that excludes a SQL front end
// from this engine.
type PlanNode interface {
	planNode()
	OutputSchema() record.Schema
	Children() []PlanNode
}

// SeqScanPlan walks every tuple in a table, optionally filtered.
type SeqScanPlan struct {
	Table     string
	Schema    record.Schema
	Predicate RowPredicate
}

func (*SeqScanPlan) planNode() {}
func (p *SeqScanPlan) OutputSchema() record.Schema { return p.Schema }
func (p *SeqScanPlan) Children() []PlanNode        { return nil }

// InsertPlan materialises RawValues directly (raw mode) or pulls
// already-formed tuples from Child (pipelined mode); exactly one of
// the two is set.
type InsertPlan struct {
	Table     string
	Schema    record.Schema
	RawValues [][]any
	Child     PlanNode
}

func (*InsertPlan) planNode() {}
func (p *InsertPlan) OutputSchema() record.Schema { return p.Schema }
func (p *InsertPlan) Children() []PlanNode {
	if p.Child != nil {
		return []PlanNode{p.Child}
	}
	return nil
}

// DeletePlan pulls (tuple, rid) pairs from Child and removes each.
type DeletePlan struct {
	Table  string
	Schema record.Schema
	Child  PlanNode
}

func (*DeletePlan) planNode() {}
func (p *DeletePlan) OutputSchema() record.Schema { return p.Schema }
func (p *DeletePlan) Children() []PlanNode        { return []PlanNode{p.Child} }

// AssignOp is an UpdatePlan column assignment kind.
type AssignOp int

const (
	AssignSet AssignOp = iota
	AssignAdd
)

// Assignment is one column mutation applied by UpdatePlan.
type Assignment struct {
	Column string
	Op     AssignOp
	Value  any
}

// UpdatePlan pulls (tuple, rid) pairs from Child, applies Assignments
// to produce a new tuple, and writes it back.
type UpdatePlan struct {
	Table       string
	Schema      record.Schema
	Assignments []Assignment
	Child       PlanNode
}

func (*UpdatePlan) planNode() {}
func (p *UpdatePlan) OutputSchema() record.Schema { return p.Schema }
func (p *UpdatePlan) Children() []PlanNode        { return []PlanNode{p.Child} }

// NestedLoopJoinPlan: outer loop on Left, inner on Right.
type NestedLoopJoinPlan struct {
	Left, Right PlanNode
	Predicate   JoinPredicate
	Schema      record.Schema
}

func (*NestedLoopJoinPlan) planNode() {}
func (p *NestedLoopJoinPlan) OutputSchema() record.Schema { return p.Schema }
func (p *NestedLoopJoinPlan) Children() []PlanNode        { return []PlanNode{p.Left, p.Right} }

// HashJoinPlan builds a hash table over Left's join key in Init, then
// probes it with Right's join key.
type HashJoinPlan struct {
	Left, Right       PlanNode
	LeftKey, RightKey ValueExpr
	Schema            record.Schema
}

func (*HashJoinPlan) planNode() {}
func (p *HashJoinPlan) OutputSchema() record.Schema { return p.Schema }
func (p *HashJoinPlan) Children() []PlanNode        { return []PlanNode{p.Left, p.Right} }

// AggregateKind selects how an AggregateExpr combines values across a group.
type AggregateKind int

const (
	AggCount AggregateKind = iota
	AggSum
	AggMin
	AggMax
)

// AggregateExpr is one aggregate column: combine Value(row) across a
// group per Kind. Value is unused (may be nil) for AggCount.
type AggregateExpr struct {
	Kind  AggregateKind
	Value ValueExpr
}

// AggregationPlan drains Child, groups by GroupBy, combines Aggregates
// per group, filters with Having, and projects with Output.
type AggregationPlan struct {
	Child      PlanNode
	GroupBy    []ValueExpr
	Aggregates []AggregateExpr
	Having     HavingPredicate
	Output     ProjectExpr
	Schema     record.Schema
}

func (*AggregationPlan) planNode() {}
func (p *AggregationPlan) OutputSchema() record.Schema { return p.Schema }
func (p *AggregationPlan) Children() []PlanNode        { return []PlanNode{p.Child} }

// DistinctPlan pulls tuples from Child and passes on the first tuple seen
// per distinct output-column value combination.
type DistinctPlan struct {
	Child  PlanNode
	Schema record.Schema
}

func (*DistinctPlan) planNode() {}
func (p *DistinctPlan) OutputSchema() record.Schema { return p.Schema }
func (p *DistinctPlan) Children() []PlanNode        { return []PlanNode{p.Child} }

// LimitPlan caps Child's output at Limit tuples after discarding the
// first Offset.
type LimitPlan struct {
	Child  PlanNode
	Limit  int
	Offset int
	Schema record.Schema
}

func (*LimitPlan) planNode() {}
func (p *LimitPlan) OutputSchema() record.Schema { return p.Schema }
func (p *LimitPlan) Children() []PlanNode        { return []PlanNode{p.Child} }
