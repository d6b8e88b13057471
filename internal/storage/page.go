package storage

const (
	_256   = 256
	_256_2 = 256 * 256
	_256_3 = 256 * 256 * 256
)

func GetU16(b []byte, offset int) uint16 {
	return uint16(b[offset]) + uint16(b[offset+1])*_256
}

func PutU16(b []byte, offset int, v uint16) {
	b[offset], b[offset+1] = byte(v%_256), byte(v/_256)
}

func GetU32(b []byte, offset int) uint32 {
	return uint32(b[offset]) +
		uint32(b[offset+1])*_256 +
		uint32(b[offset+2])*_256_2 +
		uint32(b[offset+3])*_256_3
}

func PutU32(b []byte, offset int, v uint32) {
	b[offset] = byte(v % _256)
	b[offset+1] = byte((v / _256) % _256)
	b[offset+2] = byte((v / (_256 * _256)) % _256)
	b[offset+3] = byte((v / (_256 * _256 * _256)) % _256)
}

const (
	SlotFlagNormal  uint16 = 0
	SlotFlagDeleted uint16 = 1
	SlotFlagMoved   uint16 = 2
)

// slot is the decoded form of one line pointer entry.
// For SlotFlagMoved, Offset holds the forwarding slot index rather than a
// byte offset into Buf.
type slot struct {
	Offset uint16
	Length uint16
	Flags  uint16
}

// +------------------+ 0
// | flags / pageID   |
// | pd_lower/upper   |
// | LinePointers[]   | <-- pd_lower
// +------------------+
// |   Free space     |
// +------------------+ <-- pd_upper
// |  Tuple Data      |
// |  (grows down)    |
// +------------------+ <-- pd_special
// |  Special Space   |
// +------------------+ Block/Page Size
//
// Page is a thin, typed view over a fixed PageSize byte buffer using a
// Postgres-style slotted layout. Every mutating method keeps pd_lower and
// pd_upper consistent. The hash index's directory and bucket pages do not
// use the slotted layout; they read and write their own fields in Buf.
type Page struct {
	Buf []byte
}

// NewPage wraps buf (which must be exactly PageSize bytes) as a freshly
// initialized page tagged with pageID.
func NewPage(buf []byte, pageID uint32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrPageCorrupted
	}
	p := &Page{Buf: buf}
	p.init(pageID)
	return p, nil
}

// Reset reinitializes the page in place as an empty page tagged with
// pageID, discarding any existing slots and tuple data. Used when a page
// id is (re)allocated for a fresh page rather than loaded from disk.
func (p *Page) Reset(pageID uint32) {
	p.init(pageID)
}

func (p *Page) init(pageID uint32) {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	PutU16(p.Buf, 0, 0)          // flags
	PutU32(p.Buf, 2, pageID)     // page_id
	PutU16(p.Buf, 6, HeaderSize) // pd_lower
	PutU16(p.Buf, 8, PageSize)   // pd_upper
	PutU16(p.Buf, 10, PageSize)  // pd_special (unused)
}

func (p *Page) IsUninitialized() bool {
	return GetU16(p.Buf, 6) == 0 && GetU16(p.Buf, 8) == 0
}

func (p *Page) PageID() uint32 { return GetU32(p.Buf, 2) }

func (p *Page) SetPageID(id uint32) { PutU32(p.Buf, 2, id) }

func (p *Page) flags() uint16 { return GetU16(p.Buf, 0) }

func (p *Page) lower() uint16 { return GetU16(p.Buf, 6) }

func (p *Page) setLower(v uint16) { PutU16(p.Buf, 6, v) }

func (p *Page) upper() uint16 { return GetU16(p.Buf, 8) }

func (p *Page) setUpper(v uint16) { PutU16(p.Buf, 8, v) }

func (p *Page) special() uint16 { return GetU16(p.Buf, 10) }

// NumSlots returns how many line pointers are registered on this page,
// including deleted and moved ones.
func (p *Page) NumSlots() int {
	return (int(p.lower()) - HeaderSize) / SlotSize
}

// FreeSpace returns the number of bytes available between the slot array
// and the tuple data region.
func (p *Page) FreeSpace() int {
	return int(p.upper()) - int(p.lower())
}

func (p *Page) slotOff(idx int) int {
	return HeaderSize + idx*SlotSize
}

func (p *Page) getSlot(i int) (slot, error) {
	if i < 0 || i >= p.NumSlots() {
		return slot{}, ErrBadSlot
	}
	o := p.slotOff(i)
	return slot{
		Offset: GetU16(p.Buf, o),
		Length: GetU16(p.Buf, o+2),
		Flags:  GetU16(p.Buf, o+4),
	}, nil
}

func (p *Page) putSlot(i int, s slot) {
	o := p.slotOff(i)
	PutU16(p.Buf, o, s.Offset)
	PutU16(p.Buf, o+2, s.Length)
	PutU16(p.Buf, o+4, s.Flags)
}

func (p *Page) appendSlot(s slot) int {
	i := p.NumSlots()
	p.putSlot(i, s)
	p.setLower(p.lower() + SlotSize)
	return i
}

// InsertTuple appends tup into the free space region and registers a new
// slot pointing at it. Returns ErrNoSpace if tup plus a new line pointer
// would not fit.
func (p *Page) InsertTuple(tup []byte) (int, error) {
	need := len(tup) + SlotSize
	if int(p.upper())-int(p.lower()) < need {
		return -1, ErrNoSpace
	}
	u := int(p.upper()) - len(tup)
	copy(p.Buf[u:], tup)
	p.setUpper(uint16(u))
	return p.appendSlot(slot{Offset: uint16(u), Length: uint16(len(tup)), Flags: SlotFlagNormal}), nil
}

// ReadTuple returns the tuple bytes stored at slot i. Deleted slots and
// out-of-range indices return ErrBadSlot. Moved slots are transparently
// resolved to the slot they were relocated to.
func (p *Page) ReadTuple(i int) ([]byte, error) {
	s, err := p.getSlot(i)
	if err != nil {
		return nil, err
	}
	switch s.Flags {
	case SlotFlagDeleted:
		return nil, ErrBadSlot
	case SlotFlagMoved:
		return p.ReadTuple(int(s.Offset))
	default:
		return p.Buf[s.Offset : s.Offset+s.Length], nil
	}
}

// UpdateTuple replaces the tuple at slot i. If newTuple fits in the
// existing slot's reserved space it is overwritten in place; otherwise a
// new tuple is appended and the old slot becomes a forwarding pointer
// (SlotFlagMoved) to the new one, so existing TIDs keep resolving.
func (p *Page) UpdateTuple(i int, newTuple []byte) error {
	s, err := p.getSlot(i)
	if err != nil {
		return err
	}
	if s.Flags == SlotFlagDeleted {
		return ErrBadSlot
	}
	if s.Flags == SlotFlagNormal && len(newTuple) <= int(s.Length) {
		copy(p.Buf[s.Offset:], newTuple)
		p.putSlot(i, slot{Offset: s.Offset, Length: uint16(len(newTuple)), Flags: SlotFlagNormal})
		return nil
	}

	newSlot, err := p.InsertTuple(newTuple)
	if err != nil {
		return err
	}
	p.putSlot(i, slot{Offset: uint16(newSlot), Length: 0, Flags: SlotFlagMoved})
	return nil
}

// DeleteTuple marks slot i as deleted. The line pointer is retained so
// slot indices of other tuples never shift.
func (p *Page) DeleteTuple(i int) error {
	if _, err := p.getSlot(i); err != nil {
		return err
	}
	p.putSlot(i, slot{Flags: SlotFlagDeleted})
	return nil
}
