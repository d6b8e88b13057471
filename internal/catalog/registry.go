package catalog

import (
	"sync"

	"github.com/tuannm99/novasql/internal/engine"
)

// OID is a stable, process-lifetime numeric handle assigned to a table
// the first time the registry sees it by name, mirroring the
// nextTableID counter idiom used by catalog managers in the wider
// extendible-hash/B+tree storage corpus (table ids are assigned on
// first registration, not derived from the name).
type OID uint32

// Registry is the catalog facade spec.md section 6/8 calls "Catalog":
// get_table(oid) and get_table_indexes(name), layered over
// *engine.Database's existing table-meta and index-registry files
// rather than duplicating their storage.
type Registry struct {
	db *engine.Database

	mu      sync.RWMutex
	byName  map[string]OID
	byOID   map[OID]string
	nextOID OID
}

// NewRegistry builds a catalog facade over an already-open database handle.
func NewRegistry(db *engine.Database) *Registry {
	return &Registry{
		db:     db,
		byName: make(map[string]OID),
		byOID:  make(map[OID]string),
	}
}

func (r *Registry) oidFor(name string) OID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oid, ok := r.byName[name]; ok {
		return oid
	}
	r.nextOID++
	oid := r.nextOID
	r.byName[name] = oid
	r.byOID[oid] = name
	return oid
}

// GetTable resolves a previously-seen OID back to a TableInfo.
func (r *Registry) GetTable(oid OID) (*TableInfo, error) {
	r.mu.RLock()
	name, ok := r.byOID[oid]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrTableNotFound
	}
	return r.GetTableByName(name)
}

// GetTableByName opens (or re-opens) a table by name, assigning it a
// fresh OID the first time it's seen.
func (r *Registry) GetTableByName(name string) (*TableInfo, error) {
	tbl, err := r.db.OpenTable(name)
	if err != nil {
		return nil, err
	}
	return &TableInfo{
		OID:    r.oidFor(name),
		Name:   name,
		Schema: tbl.Schema,
		Heap:   tbl,
	}, nil
}

// GetTableIndexes returns every index registered on a table, of
// either kind.
func (r *Registry) GetTableIndexes(name string) ([]IndexInfo, error) {
	metas, err := r.db.ListIndexes(name)
	if err != nil {
		return nil, err
	}
	out := make([]IndexInfo, 0, len(metas))
	for _, m := range metas {
		out = append(out, IndexInfo{
			Name:      m.Name,
			Kind:      m.Kind,
			KeyColumn: m.KeyColumn,
			FileBase:  m.FileBase,
		})
	}
	return out, nil
}
