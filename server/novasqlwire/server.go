package novasqlwire

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuannm99/novasql"
	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/engine"
	"github.com/tuannm99/novasql/internal/execution"
	"github.com/tuannm99/novasql/internal/sql/executor"
)

type ServerConfig struct {
	Addr    string
	Workdir string
	CfgPath string
}

func Run(sc ServerConfig) error {
	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() { _ = ln.Close() }()

	log.Printf("novasql tcp server listening on %s (workdir=%s)", sc.Addr, sc.Workdir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Printf("accept: %v", err)
			continue
		}
		go handleConn(ctx, conn, sc.Workdir)
	}
}

func handleConn(ctx context.Context, conn net.Conn, workdir string) {
	defer func() { _ = conn.Close() }()

	// No global deadline; you can set per-request deadline if needed.
	_ = conn.SetDeadline(time.Time{})

	sess, cleanup := newSession(workdir)
	defer func() { _ = cleanup() }()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req ExecuteRequest
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			return
		}

		_ = WriteFrame(conn, sess.dispatch(req))
	}
}

// session pairs the legacy SQL executor with the plan-based execution
// engine so a single connection can serve either ExecuteRequest shape.
type session struct {
	sql *executor.Executor
	eng *execution.ExecutionEngine
	reg *catalog.Registry
	db  *engine.Database
}

// newSession returns a fresh DB per connection so USE <db> is session-scoped.
func newSession(workdir string) (*session, func() error) {
	db := novasql.NewDatabase(workdir)
	reg := catalog.NewRegistry(db)
	sess := &session{
		sql: executor.NewExecutor(db),
		eng: execution.NewExecutionEngine(db, reg),
		reg: reg,
		db:  db,
	}
	cleanup := func() error { return db.Close() }
	return sess, cleanup
}

func (s *session) dispatch(req ExecuteRequest) ExecuteResponse {
	if req.Plan != nil {
		return s.dispatchPlan(req)
	}

	res, err := s.sql.ExecSQL(req.SQL)
	if err != nil {
		return ExecuteResponse{ID: req.ID, Error: err.Error()}
	}
	return ExecuteResponse{ID: req.ID, Result: res}
}

func (s *session) dispatchPlan(req ExecuteRequest) ExecuteResponse {
	p := req.Plan
	info, err := s.reg.GetTableByName(p.Table)
	if err != nil {
		return ExecuteResponse{ID: req.ID, Error: err.Error()}
	}

	var predicate execution.RowPredicate
	if p.FilterCol != "" {
		predicate = func(row []any) (bool, error) {
			for i, c := range info.Schema.Cols {
				if c.Name == p.FilterCol {
					return fmt.Sprint(row[i]) == fmt.Sprint(p.FilterEq), nil
				}
			}
			return false, nil
		}
	}

	var plan execution.PlanNode
	switch p.Op {
	case "scan":
		plan = &execution.SeqScanPlan{Table: p.Table, Schema: info.Schema, Predicate: predicate}
	case "insert":
		plan = &execution.InsertPlan{Table: p.Table, Schema: info.Schema, RawValues: p.RawValues}
	case "delete":
		plan = &execution.DeletePlan{
			Table:  p.Table,
			Schema: info.Schema,
			Child:  &execution.SeqScanPlan{Table: p.Table, Schema: info.Schema, Predicate: predicate},
		}
	default:
		return ExecuteResponse{ID: req.ID, Error: fmt.Sprintf("novasqlwire: unknown plan op %q", p.Op)}
	}

	rows, err := s.eng.Run(plan)
	if err != nil {
		return ExecuteResponse{ID: req.ID, Error: err.Error()}
	}
	return ExecuteResponse{ID: req.ID, Rows: rows}
}
