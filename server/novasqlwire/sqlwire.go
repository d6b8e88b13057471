package novasqlwire

import "github.com/tuannm99/novasql/internal/sql/executor"

// ExecuteRequest is a single command request. Exactly one of SQL or
// Plan should be set: SQL dispatches to the legacy internal/sql
// executor, Plan dispatches to internal/execution's operator engine
// over a small serializable operation set (the engine's real plan
// trees are built from Go closures and never cross the wire).
type ExecuteRequest struct {
	ID   uint64       `json:"id"`
	SQL  string       `json:"sql,omitempty"`
	Plan *PlanRequest `json:"plan,omitempty"`
}

// PlanRequest describes one of the execution engine's operators
// without requiring a SQL parser -- RawValues for Insert, FilterCol/
// FilterEq for Scan/Delete, matching the Non-goal that excludes a SQL
// front end from internal/execution itself.
type PlanRequest struct {
	Op        string  `json:"op"` // "scan" | "insert" | "delete"
	Table     string  `json:"table"`
	RawValues [][]any `json:"rawValues,omitempty"`
	FilterCol string  `json:"filterCol,omitempty"`
	FilterEq  any     `json:"filterEq,omitempty"`
}

// ExecuteResponse is the response for a request ID. Result carries the
// legacy SQL executor's shape; Rows carries a PlanRequest's output --
// one []any per tuple, in the table's column order.
type ExecuteResponse struct {
	ID     uint64           `json:"id"`
	Result *executor.Result `json:"result,omitempty"`
	Rows   [][]any          `json:"rows,omitempty"`
	Error  string           `json:"error,omitempty"`
}
