// Package hash implements an extendible hash index built on top of the
// buffer pool: a directory page of bucket pointers plus local depths,
// and fixed-capacity bucket pages holding the actual entries.
package hash

import (
	"errors"

	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/storage"
)

// MaxDepth bounds how many times the directory can double. 512 slots
// at 4 bytes + 2 bytes each fits one 4096 B page with room to spare.
const MaxDepth = 9

const dirMaxSlots = 1 << MaxDepth

const (
	dirOffGlobalDepth = 0
	dirOffBucketIDs   = 2
	dirOffLocalDepths = dirOffBucketIDs + 4*dirMaxSlots
)

var (
	ErrMaxDepthExceeded = errors.New("hash: directory global depth would exceed MaxDepth")
	ErrInvalidSlot      = errors.New("hash: directory slot out of range")
)

// DirectoryPage is a typed, bounds-checked view over a storage.Page's
// buffer holding the directory's global depth and its parallel
// bucket_page_id[]/local_depth[] arrays.
type DirectoryPage struct {
	Page *storage.Page
}

func NewDirectoryPage(p *storage.Page) *DirectoryPage {
	return &DirectoryPage{Page: p}
}

func (d *DirectoryPage) GlobalDepth() uint16 {
	return storage.GetU16(d.Page.Buf, dirOffGlobalDepth)
}

func (d *DirectoryPage) setGlobalDepth(depth uint16) {
	storage.PutU16(d.Page.Buf, dirOffGlobalDepth, depth)
}

func (d *DirectoryPage) numSlots() int {
	return 1 << d.GlobalDepth()
}

func (d *DirectoryPage) slotOffset(slot uint32) (int, error) {
	if int(slot) >= d.numSlots() {
		return 0, ErrInvalidSlot
	}
	return dirOffBucketIDs + int(slot)*4, nil
}

func (d *DirectoryPage) localDepthOffset(slot uint32) (int, error) {
	if int(slot) >= d.numSlots() {
		return 0, ErrInvalidSlot
	}
	return dirOffLocalDepths + int(slot)*2, nil
}

// BucketPageID returns the bucket page id directory slot points to.
func (d *DirectoryPage) BucketPageID(slot uint32) (uint32, error) {
	off, err := d.slotOffset(slot)
	if err != nil {
		return 0, err
	}
	return bx.U32At(d.Page.Buf, off), nil
}

func (d *DirectoryPage) SetBucketPageID(slot uint32, pageID uint32) error {
	off, err := d.slotOffset(slot)
	if err != nil {
		return err
	}
	bx.PutU32At(d.Page.Buf, off, pageID)
	return nil
}

// LocalDepth returns the local depth recorded for a directory slot.
func (d *DirectoryPage) LocalDepth(slot uint32) (uint16, error) {
	off, err := d.localDepthOffset(slot)
	if err != nil {
		return 0, err
	}
	return storage.GetU16(d.Page.Buf, off), nil
}

func (d *DirectoryPage) SetLocalDepth(slot uint32, depth uint16) error {
	off, err := d.localDepthOffset(slot)
	if err != nil {
		return err
	}
	storage.PutU16(d.Page.Buf, off, depth)
	return nil
}

// Init sets global depth to 0 and slot 0's bucket to firstBucketPageID.
func (d *DirectoryPage) Init(firstBucketPageID uint32) {
	d.setGlobalDepth(0)
	_ = d.SetBucketPageID(0, firstBucketPageID)
	_ = d.SetLocalDepth(0, 0)
}

// HashToSlot maps a hash value to its directory slot under the current
// global depth: slot(hash) = hash & ((1 << global_depth) - 1).
func (d *DirectoryPage) HashToSlot(h uint32) uint32 {
	mask := uint32(d.numSlots() - 1)
	return h & mask
}

// IncrGlobalDepth doubles the directory: every new slot in
// [2^D_old, 2^(D_old+1)) copies the page id and local depth from the
// slot whose low D_old bits match (slot XOR 2^D_old).
func (d *DirectoryPage) IncrGlobalDepth() error {
	depth := d.GlobalDepth()
	if depth >= MaxDepth {
		return ErrMaxDepthExceeded
	}
	oldSize := uint32(1) << depth
	for s := oldSize; s < oldSize*2; s++ {
		src := s - oldSize
		pid, err := d.BucketPageID(src)
		if err != nil {
			return err
		}
		ld, err := d.LocalDepth(src)
		if err != nil {
			return err
		}
		if err := d.SetBucketPageID(s, pid); err != nil {
			return err
		}
		if err := d.SetLocalDepth(s, ld); err != nil {
			return err
		}
	}
	d.setGlobalDepth(depth + 1)
	return nil
}

// DecrGlobalDepth halves the directory. Callers must ensure every slot
// has a local depth below the current global depth before calling
// (CanShrink reports this); DecrGlobalDepth itself does not check it.
func (d *DirectoryPage) DecrGlobalDepth() error {
	depth := d.GlobalDepth()
	if depth == 0 {
		return nil
	}
	d.setGlobalDepth(depth - 1)
	return nil
}

// CanShrink reports whether every occupied slot has local_depth strictly
// less than global_depth, meaning the directory can be halved.
func (d *DirectoryPage) CanShrink() bool {
	depth := d.GlobalDepth()
	if depth == 0 {
		return false
	}
	n := d.numSlots()
	for s := 0; s < n; s++ {
		ld, err := d.LocalDepth(uint32(s))
		if err != nil {
			return false
		}
		if ld >= depth {
			return false
		}
	}
	return true
}

// GetLocalHighBit returns the high bit (1 << (local_depth-1)) used to
// distinguish a slot from its split image.
func GetLocalHighBit(localDepth uint16) uint32 {
	if localDepth == 0 {
		return 0
	}
	return uint32(1) << (localDepth - 1)
}

// GetSplitImageIndex returns the directory slot that is slot's split
// image at the given local depth: slot XOR (1 << (localDepth-1)).
func GetSplitImageIndex(slot uint32, localDepth uint16) uint32 {
	return slot ^ GetLocalHighBit(localDepth)
}

// VerifyIntegrity checks that every directory slot pointing at the same
// bucket page agrees on local depth, and that local depth never exceeds
// global depth. Intended for tests and diagnostics, mirroring BusTub's
// directory page sanity check.
func (d *DirectoryPage) VerifyIntegrity() error {
	depth := d.GlobalDepth()
	n := d.numSlots()
	seen := make(map[uint32]uint16, n)
	for s := 0; s < n; s++ {
		pid, err := d.BucketPageID(uint32(s))
		if err != nil {
			return err
		}
		ld, err := d.LocalDepth(uint32(s))
		if err != nil {
			return err
		}
		if ld > depth {
			return errors.New("hash: local depth exceeds global depth")
		}
		if prev, ok := seen[pid]; ok && prev != ld {
			return errors.New("hash: inconsistent local depth for shared bucket page")
		}
		seen[pid] = ld
	}
	return nil
}
