package engine

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tuannm99/novasql/internal/bufferpool"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/storage"
)

var (
	ErrDatabaseClosed   = errors.New("novasql: database is closed")
	ErrInvalidPageID    = errors.New("novasql: invalid page ID")
	ErrDatabaseExists   = errors.New("novasql: database already exists")
	ErrDatabaseNotFound = errors.New("novasql: database not found")
	ErrBadIdentifier    = errors.New("novasql: invalid identifier")
)

// validateIdent rejects empty names and anything that isn't a simple
// identifier, so names can be used directly as path segments and JSON
// registry keys without escaping.
func validateIdent(name string) error {
	if name == "" {
		return ErrBadIdentifier
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return ErrBadIdentifier
		}
	}
	return nil
}

// fmtIndexBase derives the LocalFileSet.Base for an index's on-disk
// segments from its owning table and index name.
func fmtIndexBase(table, index string) string {
	return table + "__idx_" + index
}

type DatabaseOperation interface {
	CreateTable(name string, schema record.Schema) (*heap.Table, error)
	OpenTable(name string) (*heap.Table, error)
	Close() error
}

type TableMeta struct {
	Name      string        `json:"name"`
	Schema    record.Schema `json:"schema"`
	PageCount uint32        `json:"page_count"`
	Indexes   []IndexMeta   `json:"indexes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

var _ DatabaseOperation = (*Database)(nil)

// Database is a handle to a workdir on disk that may hold one or more
// named sub-databases (see CreateDatabase/SelectDatabase). DataDir is
// the workdir root; Current, when set, selects the active
// sub-database directory under it. Current empty means DataDir itself
// is used directly, so a handle opened against a single-schema
// directory (the common case) behaves exactly as before.
type Database struct {
	DataDir string
	Current string
	SM      *storage.StorageManager
	// TODO: bufferpool cache, locks, ...
}

// NewDatabase creates a new database handle without touching the filesystem.
func NewDatabase(dataDir string) *Database {
	return &Database{
		DataDir: dataDir,
		SM:      storage.NewStorageManager(),
	}
}

// activeDir is the root of whichever sub-database is currently selected.
func (db *Database) activeDir() string {
	if db.Current == "" {
		return db.DataDir
	}
	return filepath.Join(db.DataDir, db.Current)
}

func (db *Database) tableDir() string {
	return filepath.Join(db.activeDir(), "tables")
}

// CreateDatabase makes a new named sub-database directory under DataDir.
func (db *Database) CreateDatabase(name string) error {
	if err := validateIdent(name); err != nil {
		return err
	}
	dir := filepath.Join(db.DataDir, name)
	if _, err := os.Stat(dir); err == nil {
		return ErrDatabaseExists
	}
	return os.MkdirAll(filepath.Join(dir, "tables"), 0o755)
}

// DropDatabase removes a named sub-database directory and everything in it.
func (db *Database) DropDatabase(name string) (any, error) {
	if err := validateIdent(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(db.DataDir, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, ErrDatabaseNotFound
	}
	return nil, os.RemoveAll(dir)
}

// SelectDatabase switches the active sub-database for subsequent table
// and index operations.
func (db *Database) SelectDatabase(name string) (any, error) {
	if err := validateIdent(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(db.DataDir, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, ErrDatabaseNotFound
	}
	db.Current = name
	return nil, nil
}

// TableDir exposes the active sub-database's table directory, used by
// callers that address index file segments directly.
func (db *Database) TableDir() string {
	return db.tableDir()
}

// BufferView opens a fresh buffer pool over fs, sized to the default
// per-index/table capacity. Callers are responsible for closing
// whatever they build on top of it.
func (db *Database) BufferView(fs storage.FileSet) bufferpool.Manager {
	return bufferpool.NewPool(db.SM, fs, bufferpool.DefaultCapacity)
}

// StorageManager exposes the shared storage manager for callers that
// need to open index/table structures directly.
func (db *Database) StorageManager() *storage.StorageManager {
	return db.SM
}

// ListTables scans the active sub-database's table directory and
// returns the meta of every table registered there.
func (db *Database) ListTables() ([]*TableMeta, error) {
	entries, err := os.ReadDir(db.tableDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var metas []*TableMeta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta.json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".meta.json")
		meta, err := db.readTableMeta(name)
		if err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// DropTable removes a table's on-disk heap segments, overflow
// segments, and meta file.
func (db *Database) DropTable(name string) error {
	if err := validateIdent(name); err != nil {
		return err
	}
	fs := storage.LocalFileSet{Dir: db.tableDir(), Base: name}
	if err := storage.RemoveAllSegments(fs); err != nil && !os.IsNotExist(err) {
		return err
	}
	overflowFS := storage.LocalFileSet{Dir: db.tableDir(), Base: name + "_ovf"}
	if err := storage.RemoveAllSegments(overflowFS); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(db.tableMetaPath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (db *Database) tableMetaPath(name string) string {
	return filepath.Join(db.tableDir(), name+".meta.json")
}

// helper: return FileSet for a given table name.
func (db *Database) tableFileSet(name string) storage.FileSet {
	return storage.LocalFileSet{
		Dir:  db.tableDir(),
		Base: name,
	}
}

// writeTableMeta overwrites the meta file for a given table.
func (db *Database) writeTableMeta(meta *TableMeta) error {
	path := db.tableMetaPath(meta.Name)

	if err := os.MkdirAll(db.tableDir(), 0o755); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// readTableMeta loads table metadata from JSON file.
func (db *Database) readTableMeta(name string) (*TableMeta, error) {
	path := db.tableMetaPath(name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta TableMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (db *Database) CreateTable(name string, schema record.Schema) (*heap.Table, error) {
	fs := db.tableFileSet(name)
	bp := bufferpool.NewPool(db.SM, fs, bufferpool.DefaultCapacity)

	meta := &TableMeta{
		Name:      name,
		Schema:    schema,
		PageCount: 0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.writeTableMeta(meta); err != nil {
		return nil, err
	}

	// Overflow data for this table is stored in a separate fileset with a
	// deterministic naming convention: "<table>_ovf".
	overflowFS := storage.LocalFileSet{
		Dir:  db.tableDir(),
		Base: name + "_ovf",
	}
	ovf := storage.NewOverflowManager(db.SM, overflowFS)

	tbl := heap.NewTable(name, schema, db.SM, fs, bp, ovf, 0)
	return tbl, nil
}

func (db *Database) OpenTable(name string) (*heap.Table, error) {
	fs := db.tableFileSet(name)

	meta, err := db.readTableMeta(name)
	if err != nil {
		return nil, err
	}

	// Count pages on disk as the single source of truth.
	pageCount, err := db.SM.CountPages(fs)
	if err != nil {
		return nil, err
	}

	// Refresh meta PageCount snapshot.
	meta.PageCount = pageCount
	meta.UpdatedAt = time.Now()

	// Best-effort update; if this fails, we still can open the table.
	if err := db.writeTableMeta(meta); err != nil {
		slog.Info("open table:: error write table meta", "err", err)
	}

	bp := bufferpool.NewPool(db.SM, fs, bufferpool.DefaultCapacity)

	// Rebuild the overflow manager for this table based on the same naming
	// convention used in CreateTable.
	overflowFS := storage.LocalFileSet{
		Dir:  db.tableDir(),
		Base: name + "_ovf",
	}
	ovf := storage.NewOverflowManager(db.SM, overflowFS)

	tbl := heap.NewTable(name, meta.Schema, db.SM, fs, bp, ovf, pageCount)
	return tbl, nil
}

func (db *Database) Close() error {
	// TODO: later - keep track of opened tables and flush all buffer pools.
	return nil
}

// Not supported yet: we do not have a real ALTER TABLE that rewrites data.
// UpdateTableSchema only updates the meta file schema definition.
func (db *Database) UpdateTableSchema(name string, newSchema record.Schema) error {
	meta, err := db.readTableMeta(name)
	if err != nil {
		return err
	}

	meta.Schema = newSchema
	meta.UpdatedAt = time.Now()

	return db.writeTableMeta(meta)
}

// SyncTableMetaPageCount updates the table meta when only PageCount changes.
func (db *Database) SyncTableMetaPageCount(tbl *heap.Table) error {
	meta, err := db.readTableMeta(tbl.Name)
	if err != nil {
		return err
	}
	meta.PageCount = tbl.PageCount
	return db.writeTableMeta(meta)
}
