package planner

import (
	"fmt"
	"strings"

	"github.com/tuannm99/novasql"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/sql/parser"
)

// BuildPlan builds a physical plan from an AST Statement. db is nil for
// statements that don't need catalog/schema access (CREATE/DROP/USE
// DATABASE, CREATE/DROP TABLE).
func BuildPlan(stmt parser.Statement, db *novasql.Database) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateDatabaseStmt:
		return &CreateDatabasePlan{Name: s.Name}, nil
	case *parser.DropDatabaseStmt:
		return &DropDatabasePlan{Name: s.Name}, nil
	case *parser.UseDatabaseStmt:
		return &UseDatabasePlan{Name: s.Name}, nil
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.DropTableStmt:
		return &DropTablePlan{TableName: s.TableName}, nil
	case *parser.InsertStmt:
		return buildInsertPlan(s)
	case *parser.SelectStmt:
		return buildSelectPlan(s, db)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s, db)
	case *parser.DeleteStmt:
		return buildDeletePlan(s, db)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	var cols []record.Column
	for _, c := range s.Columns {
		colType, err := mapSQLType(c.Type)
		if err != nil {
			return nil, err
		}
		cols = append(cols, record.Column{
			Name:     c.Name,
			Type:     colType,
			Nullable: true, // default
		})
	}
	return &CreateTablePlan{
		TableName: s.TableName,
		Schema:    record.Schema{Cols: cols},
	}, nil
}

func buildInsertPlan(s *parser.InsertStmt) (Plan, error) {
	return &InsertPlan{
		TableName: s.TableName,
		Values:    s.Values,
	}, nil
}

// buildSelectPlan binds the optional WHERE clause against the table's
// schema and, when an index is registered on the predicate's column,
// prefers an IndexLookupPlan over a full SeqScanPlan.
func buildSelectPlan(s *parser.SelectStmt, db *novasql.Database) (Plan, error) {
	where, err := resolveWhere(s.TableName, s.Where, db)
	if err != nil {
		return nil, err
	}
	if where != nil && db != nil {
		if lookup := tryIndexLookup(s.TableName, where, db); lookup != nil {
			return lookup, nil
		}
	}
	return &SeqScanPlan{TableName: s.TableName, Where: where}, nil
}

func buildUpdatePlan(s *parser.UpdateStmt, db *novasql.Database) (Plan, error) {
	where, err := resolveWhere(s.TableName, s.Where, db)
	if err != nil {
		return nil, err
	}

	var schema record.Schema
	if db != nil {
		tbl, err := db.OpenTable(s.TableName)
		if err != nil {
			return nil, err
		}
		schema = tbl.Schema
	}

	assigns := make([]Assignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		lit, ok := a.Value.(*parser.LiteralExpr)
		if !ok {
			return nil, fmt.Errorf("planner: unsupported assignment expr %T for column %q", a.Value, a.Column)
		}
		val := lit.Value
		if schema.Cols != nil {
			val, err = coerceLiteralToColumn(schema, a.Column, lit.Value)
			if err != nil {
				return nil, err
			}
		}
		assigns = append(assigns, Assignment{Column: a.Column, Value: val})
	}

	return &UpdatePlan{
		TableName: s.TableName,
		Assigns:   assigns,
		Where:     where,
	}, nil
}

func buildDeletePlan(s *parser.DeleteStmt, db *novasql.Database) (Plan, error) {
	where, err := resolveWhere(s.TableName, s.Where, db)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{TableName: s.TableName, Where: where}, nil
}

// resolveWhere binds a parser.WhereEq against the table's schema when db
// is available; without a db handle (e.g. unit tests exercising the
// planner in isolation) the literal is passed through uncoerced.
func resolveWhere(tableName string, w *parser.WhereEq, db *novasql.Database) (*WhereEq, error) {
	if w == nil {
		return nil, nil
	}
	if db == nil {
		lit, ok := w.Value.(*parser.LiteralExpr)
		if !ok {
			return nil, fmt.Errorf("planner: unsupported WHERE expr %T", w.Value)
		}
		return &WhereEq{Column: w.Column, Value: lit.Value}, nil
	}

	tbl, err := db.OpenTable(tableName)
	if err != nil {
		return nil, err
	}
	return bindWhereEq(tbl.Schema, w)
}

// bindWhereEq type-checks and coerces a parsed WHERE-equality clause
// against the table schema, producing a plan-level WhereEq.
func bindWhereEq(schema record.Schema, w *parser.WhereEq) (*WhereEq, error) {
	lit, ok := w.Value.(*parser.LiteralExpr)
	if !ok {
		return nil, fmt.Errorf("planner: unsupported WHERE expr %T", w.Value)
	}
	val, err := coerceLiteralToColumn(schema, w.Column, lit.Value)
	if err != nil {
		return nil, err
	}
	return &WhereEq{Column: w.Column, Value: val}, nil
}

// coerceLiteralToColumn validates that a literal value is compatible with
// the named column's declared type, normalizing integer widths to int64.
func coerceLiteralToColumn(schema record.Schema, col string, value any) (any, error) {
	var found *record.Column
	for i := range schema.Cols {
		if schema.Cols[i].Name == col {
			found = &schema.Cols[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("planner: unknown column %q", col)
	}

	if value == nil {
		if !found.Nullable {
			return nil, fmt.Errorf("planner: column %q is NOT NULL", col)
		}
		return nil, nil
	}

	switch found.Type {
	case record.ColInt32, record.ColInt64:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		default:
			return nil, fmt.Errorf("planner: column %q expects an integer, got %T", col, value)
		}
	case record.ColBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("planner: column %q expects a bool, got %T", col, value)
	case record.ColFloat64:
		if v, ok := value.(float64); ok {
			return v, nil
		}
		return nil, fmt.Errorf("planner: column %q expects a float64, got %T", col, value)
	case record.ColText:
		if v, ok := value.(string); ok {
			return v, nil
		}
		return nil, fmt.Errorf("planner: column %q expects text, got %T", col, value)
	case record.ColBytes:
		if v, ok := value.([]byte); ok {
			return v, nil
		}
		return nil, fmt.Errorf("planner: column %q expects bytes, got %T", col, value)
	default:
		return nil, fmt.Errorf("planner: column %q has unsupported type %v", col, found.Type)
	}
}

// tryIndexLookup returns an IndexLookupPlan when the table has a
// registered index on where.Column and the (coerced) predicate value is
// an int64, else nil so the caller falls back to a SeqScanPlan.
func tryIndexLookup(tableName string, where *WhereEq, db *novasql.Database) *IndexLookupPlan {
	key, ok := where.Value.(int64)
	if !ok {
		return nil
	}
	indexes, err := db.ListIndexes(tableName)
	if err != nil {
		return nil
	}
	for _, im := range indexes {
		if im.KeyColumn != where.Column {
			continue
		}
		return &IndexLookupPlan{
			TableName: tableName,
			IndexName: im.Name,
			Kind:      im.Kind,
			Column:    where.Column,
			Key:       key,
			Where:     where,
		}
	}
	return nil
}

func mapSQLType(t string) (record.ColumnType, error) {
	switch strings.ToUpper(t) {
	case "INT", "INTEGER":
		return record.ColInt64, nil
	case "TEXT":
		return record.ColText, nil
	case "BOOL", "BOOLEAN":
		return record.ColBool, nil
	default:
		return 0, fmt.Errorf("unsupported column type: %s", t)
	}
}
