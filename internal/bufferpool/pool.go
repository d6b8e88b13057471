package bufferpool

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tuannm99/novasql/internal/storage"
)

var (
	logDebugPrefix  = "bufferpool: "
	DefaultCapacity = 128

	// ErrNoFreeFrame is returned when no unpinned frame is available for replacement.
	ErrNoFreeFrame = errors.New("bufferpool: no free frame available (all pinned)")

	// ErrPagePinned is returned when trying to evict/delete a pinned page.
	ErrPagePinned = errors.New("bufferpool: page is pinned")
)

// Manager is a simple buffer pool interface for table- and index-level
// usage: one instance bound to a single FileSet.
type Manager interface {
	// GetPage returns a page from the buffer pool (pin count is increased).
	GetPage(pageID uint32) (*storage.Page, error)

	// Unpin decreases pin count and marks the page dirty if needed.
	Unpin(page *storage.Page, dirty bool) error

	// FlushAll flushes all dirty pages to disk.
	FlushAll() error

	// DeletePageFromBuffer removes a page from the buffer pool only
	// (not disk). Fails with ErrPagePinned if the page is pinned.
	DeletePageFromBuffer(pageID uint32) error
}

// Frame holds a single page and its metadata inside the buffer pool.
type Frame struct {
	PageID uint32
	Page   *storage.Page
	Dirty  bool
	Pin    int32
}

var _ Manager = (*Pool)(nil)

// Pool is a fixed-size buffer pool instance bound to one FileSet. Frames
// are replaced using an LRU Replacer: the least-recently-unpinned frame
// is evicted first whenever the pool is full and a new page is requested.
type Pool struct {
	sm *storage.StorageManager
	fs storage.FileSet

	mu        sync.Mutex
	frames    []*Frame       // fixed-size slice, len == capacity, nil == free slot
	pageTable map[uint32]int // PageID -> index in frames
	capacity  int
	replacer  Replacer
}

// NewPool creates a new buffer pool with the given capacity.
// If capacity <= 0, a small default capacity is used.
func NewPool(sm *storage.StorageManager, fs storage.FileSet, capacity int) *Pool {
	if capacity <= 0 {
		capacity = 16 // default small capacity
	}
	return &Pool{
		sm:        sm,
		fs:        fs,
		frames:    make([]*Frame, capacity),
		pageTable: make(map[uint32]int),
		capacity:  capacity,
		replacer:  NewLRUReplacer(),
	}
}

// GetPage returns a page from buffer pool and increases its pin count.
// If the page does not exist in memory, it will be loaded from disk.
// When the pool is full, the LRU Replacer picks a victim frame.
func (p *Pool) GetPage(pageID uint32) (*storage.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slog.Debug(logDebugPrefix+"GetPage called", "pageID", pageID)

	if idx, ok := p.pageTable[pageID]; ok {
		f := p.frames[idx]
		if f == nil {
			slog.Error(logDebugPrefix+"pageTable points to nil frame", "pageID", pageID, "frameIdx", idx)
			delete(p.pageTable, pageID)
		} else {
			if f.Pin == 0 {
				p.replacer.Pin(FrameID(idx))
			}
			f.Pin++
			slog.Debug(logDebugPrefix+"found page in buffer", "pageID", pageID, "frameIdx", idx, "framePin", f.Pin)
			return f.Page, nil
		}
	}

	freeIdx := -1
	for i, f := range p.frames {
		if f == nil {
			freeIdx = i
			break
		}
	}

	if freeIdx != -1 {
		slog.Debug(logDebugPrefix+"using free frame slot", "pageID", pageID, "frameIdx", freeIdx)

		page, err := p.sm.LoadPage(p.fs, pageID)
		if err != nil {
			return nil, err
		}
		f := &Frame{PageID: pageID, Page: page, Dirty: false, Pin: 1}
		p.frames[freeIdx] = f
		p.pageTable[pageID] = freeIdx

		slog.Debug(logDebugPrefix+"created new frame", "pageID", pageID, "frameIdx", freeIdx, "framePin", f.Pin)
		return page, nil
	}

	slog.Debug(logDebugPrefix + "buffer full, LRU selecting victim frame")
	victimIdx, ok := p.replacer.Victim()
	if !ok {
		return nil, ErrNoFreeFrame
	}

	victim := p.frames[victimIdx]
	slog.Debug(logDebugPrefix+"selected victim frame", "victimPageID", victim.PageID, "frameIdx", victimIdx, "dirty", victim.Dirty)

	if victim.Dirty {
		slog.Debug(logDebugPrefix+"flushing dirty victim page", "victimPageID", victim.PageID)
		if err := p.sm.SavePage(p.fs, victim.PageID, *victim.Page); err != nil {
			return nil, err
		}
		victim.Dirty = false
	}

	delete(p.pageTable, victim.PageID)

	page, err := p.sm.LoadPage(p.fs, pageID)
	if err != nil {
		return nil, err
	}

	victim.PageID = pageID
	victim.Page = page
	victim.Dirty = false
	victim.Pin = 1

	p.pageTable[pageID] = int(victimIdx)

	slog.Debug(logDebugPrefix+"reused victim frame for new page", "pageID", pageID, "frameIdx", victimIdx, "framePin", victim.Pin)

	return page, nil
}

// Unpin decreases the pin count of a page and marks it dirty if needed.
// When pin count reaches zero the frame becomes the replacer's new
// most-recently-used evictable entry.
func (p *Pool) Unpin(page *storage.Page, dirty bool) error {
	if page == nil {
		return nil
	}

	pageID := page.PageID()

	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		slog.Debug(logDebugPrefix+"Unpin ignored, page not in pool", "pageID", pageID)
		return nil
	}

	f := p.frames[idx]
	if f == nil {
		slog.Error(logDebugPrefix+"Unpin found nil frame", "pageID", pageID, "frameIdx", idx)
		return nil
	}

	if dirty {
		f.Dirty = true
	}

	if f.Pin > 0 {
		f.Pin--
	}
	if f.Pin == 0 {
		p.replacer.Unpin(FrameID(idx))
	}

	slog.Debug(logDebugPrefix+"Unpin", "pageID", pageID, "frameIdx", idx, "dirty", f.Dirty, "newPin", f.Pin)

	return nil
}

// FlushAll flushes all dirty frames to disk, regardless of pin state.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slog.Debug(logDebugPrefix + "FlushAll started")

	for idx, f := range p.frames {
		if f == nil || !f.Dirty {
			continue
		}
		slog.Debug(logDebugPrefix+"flushing frame", "pageID", f.PageID, "frameIdx", idx)
		if err := p.sm.SavePage(p.fs, f.PageID, *f.Page); err != nil {
			return err
		}
		f.Dirty = false
	}

	slog.Debug(logDebugPrefix + "FlushAll completed")
	return nil
}

// DeletePageFromBuffer removes a page from the buffer pool (buffer only,
// not disk). It fails if the page is currently pinned.
func (p *Pool) DeletePageFromBuffer(pageID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		slog.Debug(logDebugPrefix+"DeletePageFromBuffer: page not in pool", "pageID", pageID)
		return nil
	}

	f := p.frames[idx]
	if f == nil {
		delete(p.pageTable, pageID)
		return nil
	}

	if f.Pin != 0 {
		return ErrPagePinned
	}

	if f.Dirty {
		if err := p.sm.SavePage(p.fs, f.PageID, *f.Page); err != nil {
			return err
		}
	}

	p.replacer.Pin(FrameID(idx)) // remove from evictable set before freeing
	p.frames[idx] = nil
	delete(p.pageTable, pageID)
	return nil
}
