package novasql

import "github.com/tuannm99/novasql/internal/engine"

// Package novasql is the top-level facade for NovaSQL engine. Fixing golangci-lint
type Database = engine.Database

type TableMeta = engine.TableMeta

var (
	ErrDatabaseClosed   = engine.ErrDatabaseClosed
	ErrInvalidPageID    = engine.ErrInvalidPageID
	ErrDatabaseExists   = engine.ErrDatabaseExists
	ErrDatabaseNotFound = engine.ErrDatabaseNotFound
	ErrBadIdentifier    = engine.ErrBadIdentifier
)

// NewDatabase opens a database handle rooted at dataDir without
// touching the filesystem.
func NewDatabase(dataDir string) *Database {
	return engine.NewDatabase(dataDir)
}
