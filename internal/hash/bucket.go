package hash

import (
	"errors"

	"github.com/tuannm99/novasql/internal/storage"
)

const (
	bucketOffSize     = 0
	bucketHeaderFixed = 4 // size field only; bitmaps follow
)

var ErrBucketFull = errors.New("hash: bucket page is full")

// BucketPage is a typed view over a storage.Page holding a fixed-capacity
// array of fixed-size (key || value) entries plus occupied/readable
// bitmaps. occupied tracks "this slot has ever held an entry"; readable
// tracks "this slot is live" (occupied but not readable means
// deleted-but-not-compacted). Lookups and inserts scan every slot and
// consult only readable.
type BucketPage struct {
	Page      *storage.Page
	Capacity  int
	EntrySize int

	occOff  int
	readOff int
	dataOff int
}

// NewBucketPage builds a view for a bucket holding up to capacity
// entries of entrySize bytes each (key bytes followed by value bytes).
func NewBucketPage(p *storage.Page, capacity, entrySize int) *BucketPage {
	bitmapBytes := (capacity + 7) / 8
	return &BucketPage{
		Page:      p,
		Capacity:  capacity,
		EntrySize: entrySize,
		occOff:    bucketHeaderFixed,
		readOff:   bucketHeaderFixed + bitmapBytes,
		dataOff:   bucketHeaderFixed + 2*bitmapBytes,
	}
}

// BucketCapacity computes how many fixed-size entries fit in one page
// alongside the bucket header and occupied/readable bitmaps, mirroring
// internal/btree/capacity.go's maxEntriesPerPage derivation.
func BucketCapacity(entrySize int) int {
	// size(4) + 2*ceil(n/8) + n*entrySize <= PageSize - HeaderSize
	avail := storage.PageSize - storage.HeaderSize - bucketHeaderFixed
	// Solve n*entrySize + 2*ceil(n/8) <= avail by linear search; bucket
	// counts are small (tens to low hundreds) so this is cheap and exact.
	n := avail / entrySize
	for n > 0 {
		bitmapBytes := (n + 7) / 8
		if n*entrySize+2*bitmapBytes <= avail {
			return n
		}
		n--
	}
	return 0
}

func (b *BucketPage) Size() uint32 {
	return storage.GetU32(b.Page.Buf, bucketOffSize)
}

func (b *BucketPage) setSize(n uint32) {
	storage.PutU32(b.Page.Buf, bucketOffSize, n)
}

// Init zeroes size and both bitmaps.
func (b *BucketPage) Init() {
	b.setSize(0)
	bitmapBytes := (b.Capacity + 7) / 8
	for i := 0; i < bitmapBytes; i++ {
		b.Page.Buf[b.occOff+i] = 0
		b.Page.Buf[b.readOff+i] = 0
	}
}

func (b *BucketPage) bitGet(base []byte, off, i int) bool {
	return base[off+i/8]&(1<<uint(i%8)) != 0
}

func (b *BucketPage) bitSet(base []byte, off, i int, v bool) {
	byteOff := off + i/8
	mask := byte(1 << uint(i%8))
	if v {
		base[byteOff] |= mask
	} else {
		base[byteOff] &^= mask
	}
}

func (b *BucketPage) IsOccupied(i int) bool { return b.bitGet(b.Page.Buf, b.occOff, i) }
func (b *BucketPage) IsReadable(i int) bool { return b.bitGet(b.Page.Buf, b.readOff, i) }

func (b *BucketPage) entryOffset(i int) int {
	return b.dataOff + i*b.EntrySize
}

func (b *BucketPage) EntryAt(i int) []byte {
	off := b.entryOffset(i)
	return b.Page.Buf[off : off+b.EntrySize]
}

// IsFull reports whether every slot in [0, Capacity) is readable.
func (b *BucketPage) IsFull() bool {
	return int(b.Size()) >= b.Capacity
}

func (b *BucketPage) IsEmpty() bool {
	return b.Size() == 0
}

// Insert writes entry (key||value, exactly EntrySize bytes) into the
// first free slot. Returns ErrBucketFull if no slot is free.
func (b *BucketPage) Insert(entry []byte) error {
	if len(entry) != b.EntrySize {
		return errors.New("hash: entry size mismatch")
	}
	for i := 0; i < b.Capacity; i++ {
		if b.IsReadable(i) {
			continue
		}
		copy(b.EntryAt(i), entry)
		b.bitSet(b.Page.Buf, b.occOff, i, true)
		b.bitSet(b.Page.Buf, b.readOff, i, true)
		b.setSize(b.Size() + 1)
		return nil
	}
	return ErrBucketFull
}

// RemoveAt clears slot i's readable bit (occupied stays set, matching
// BusTub's "tombstone" probing semantics).
func (b *BucketPage) RemoveAt(i int) {
	if !b.IsReadable(i) {
		return
	}
	b.bitSet(b.Page.Buf, b.readOff, i, false)
	if b.Size() > 0 {
		b.setSize(b.Size() - 1)
	}
}

// Each calls fn for every readable entry, passing its slot index and
// entry bytes. Stops early if fn returns false.
func (b *BucketPage) Each(fn func(slot int, entry []byte) bool) {
	for i := 0; i < b.Capacity; i++ {
		if !b.IsReadable(i) {
			continue
		}
		if !fn(i, b.EntryAt(i)) {
			return
		}
	}
}
