package bufferpool

import (
	"sync/atomic"

	"github.com/tuannm99/novasql/internal/storage"
)

// ParallelBufferPool is a thin router holding N independent Pool
// instances. Page-addressed calls (GetPage/Unpin) dispatch to instance
// pageID mod N; NewPage tries instances in round-robin order starting
// from a rotating cursor so consecutive allocations spread across
// instances. The router itself holds no global lock across a
// per-instance call: each instance guards its own state independently.
type ParallelBufferPool struct {
	instances []*Pool
	cursor    atomic.Uint64
}

// NewParallelBufferPool creates n Pool instances of the given
// per-instance capacity, all backed by the same StorageManager/FileSet.
func NewParallelBufferPool(sm *storage.StorageManager, fs storage.FileSet, n, capacityPerInstance int) *ParallelBufferPool {
	if n <= 0 {
		n = 1
	}
	instances := make([]*Pool, n)
	for i := range instances {
		instances[i] = NewPool(sm, fs, capacityPerInstance)
	}
	return &ParallelBufferPool{instances: instances}
}

func (p *ParallelBufferPool) NumInstances() int {
	return len(p.instances)
}

func (p *ParallelBufferPool) instanceFor(pageID uint32) *Pool {
	return p.instances[int(pageID)%len(p.instances)]
}

// GetPage routes to instance pageID mod N.
func (p *ParallelBufferPool) GetPage(pageID uint32) (*storage.Page, error) {
	return p.instanceFor(pageID).GetPage(pageID)
}

// Unpin routes to instance page.PageID() mod N.
func (p *ParallelBufferPool) Unpin(page *storage.Page, dirty bool) error {
	if page == nil {
		return nil
	}
	return p.instanceFor(page.PageID()).Unpin(page, dirty)
}

// NewPage tries instances in round-robin order starting from a rotating
// cursor, returning the first one that has a free frame or free page
// slot to allocate into. The cursor advances on every call regardless
// of which instance ultimately succeeds, so repeated calls spread
// allocations evenly across instances over time.
func (p *ParallelBufferPool) NewPage(pageID uint32) (*storage.Page, error) {
	n := len(p.instances)
	start := int(p.cursor.Add(1)-1) % n

	var lastErr error
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		page, err := p.instances[idx].GetPage(pageID)
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// FlushAll flushes every instance.
func (p *ParallelBufferPool) FlushAll() error {
	for _, inst := range p.instances {
		if err := inst.FlushAll(); err != nil {
			return err
		}
	}
	return nil
}

// DeletePageFromBuffer routes to instance pageID mod N.
func (p *ParallelBufferPool) DeletePageFromBuffer(pageID uint32) error {
	return p.instanceFor(pageID).DeletePageFromBuffer(pageID)
}

var _ Manager = (*ParallelBufferPool)(nil)
