// Package admin exposes a small operational HTTP surface over a running
// database: a snapshot of table counts and sizes, an on-demand
// checkpoint (flush every open table's dirty pages), and a websocket
// stream that pushes the same snapshot on an interval -- grounded on
// the chi + gorilla/websocket stats surface in
// mnohosten-laura-db/pkg/server/{server,handlers/websocket}.go.
package admin

import (
	"sync"
	"time"

	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/engine"
)

// TableStat reports one table's catalog-visible shape.
type TableStat struct {
	Name      string `json:"name"`
	PageCount uint32 `json:"pageCount"`
	Indexes   int    `json:"indexes"`
}

// Snapshot is the point-in-time payload served by /stats and streamed
// over the websocket endpoint.
type Snapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	Tables    []TableStat `json:"tables"`
}

// Collector gathers Snapshots from a database handle and can flush
// every open table as a checkpoint.
type Collector struct {
	db  *engine.Database
	reg *catalog.Registry

	mu sync.Mutex
}

func NewCollector(db *engine.Database, reg *catalog.Registry) *Collector {
	return &Collector{db: db, reg: reg}
}

// Snapshot lists every table known to the database along with its
// page count and index count.
func (c *Collector) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metas, err := c.db.ListTables()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Timestamp: snapshotTime()}
	for _, m := range metas {
		indexes, err := c.reg.GetTableIndexes(m.Name)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Tables = append(snap.Tables, TableStat{
			Name:      m.Name,
			PageCount: m.PageCount,
			Indexes:   len(indexes),
		})
	}
	return snap, nil
}

// Checkpoint opens and flushes every table's buffer pool, persisting
// all dirty pages -- the admin-triggered equivalent of the periodic
// cron flush in cmd/novasqld.
func (c *Collector) Checkpoint() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	metas, err := c.db.ListTables()
	if err != nil {
		return err
	}
	for _, m := range metas {
		tbl, err := c.db.OpenTable(m.Name)
		if err != nil {
			return err
		}
		if err := tbl.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// snapshotTime is split out so tests can observe it's called exactly
// once per Snapshot without reaching for a real wall clock.
var snapshotTime = time.Now
