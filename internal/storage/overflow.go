package storage

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/tuannm99/novasql/internal/alias/bx"
)

// offset Size Field
// 0      4    nextPageID
// 4      2    usedBytes
// 6      n    dataChunk -- max(n) = PageSize - 6 (nextPageID+usedBytes)
// -> if dataChunk greater than PageSize-6 -> split to multiple pages -> linked by nextPageID
const (
	overflowOffNext           = 0
	overflowOffLen            = 4
	overflowHeaderSize        = 6
	overflowNoNext     uint32 = 0xFFFFFFFF
)

// OverflowRef describes an overflowed large value that is stored
// outside of the normal heap page as a linked list of overflow pages.
// Length is the size of the zstd-compressed byte stream, not the
// original value size.
type OverflowRef struct {
	FirstPageID uint32 `json:"first_page_id"`
	Length      uint32 `json:"length"`
}

// OverflowManager manages reading/writing large values that do not fit
// into a single normal tuple. It uses a dedicated FileSet and the
// StorageManager to allocate and chain pages on disk, compressing
// payloads with zstd before chunking them.
type OverflowManager struct {
	sm *StorageManager
	fs FileSet

	mu        sync.Mutex
	freePages []uint32

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewOverflowManager creates a new overflow manager bound to a FileSet.
//
// In many designs you will use a separate FileSet for overflow data,
// e.g. table "users" uses:
//
//	data:      LocalFileSet{Dir: ".../tables", Base: "users"}
//	overflow:  LocalFileSet{Dir: ".../tables", Base: "users_overflow"}
func NewOverflowManager(sm *StorageManager, fs FileSet) *OverflowManager {
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &OverflowManager{
		sm:      sm,
		fs:      fs,
		encoder: enc,
		decoder: dec,
	}
}

// allocatePage returns a page id to write into: a reclaimed page from
// Free() if one is available, otherwise the next page past EOF.
func (om *OverflowManager) allocatePage() (uint32, error) {
	om.mu.Lock()
	if n := len(om.freePages); n > 0 {
		id := om.freePages[n-1]
		om.freePages = om.freePages[:n-1]
		om.mu.Unlock()
		return id, nil
	}
	om.mu.Unlock()

	n, err := om.sm.CountPages(om.fs)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Write compresses value and stores it into one or more overflow pages,
// returning an OverflowRef that can be used to read it back later.
func (om *OverflowManager) Write(value []byte) (OverflowRef, error) {
	compressed := om.encoder.EncodeAll(value, nil)
	totalLen := len(compressed)

	var firstPageID uint32
	var prevPageID uint32
	var prevBuf []byte
	var havePrev bool

	payloadMax := PageSize - overflowHeaderSize

	offset := 0
	for offset <= totalLen {
		chunkLen := totalLen - offset
		if chunkLen > payloadMax {
			chunkLen = payloadMax
		}

		pageID, err := om.allocatePage()
		if err != nil {
			return OverflowRef{}, err
		}

		buf := make([]byte, PageSize)
		bx.PutU32(buf[overflowOffNext:], overflowNoNext)
		bx.PutU16(buf[overflowOffLen:], uint16(chunkLen))

		if chunkLen > 0 {
			copy(buf[overflowHeaderSize:overflowHeaderSize+chunkLen], compressed[offset:offset+chunkLen])
		}

		if havePrev {
			bx.PutU32(prevBuf[overflowOffNext:], pageID)
			if err := om.sm.WritePage(om.fs, int32(prevPageID), prevBuf); err != nil {
				return OverflowRef{}, err
			}
		} else {
			firstPageID = pageID
		}

		prevPageID = pageID
		prevBuf = buf
		havePrev = true
		offset += chunkLen

		if chunkLen == 0 {
			break
		}
	}

	if havePrev {
		if err := om.sm.WritePage(om.fs, int32(prevPageID), prevBuf); err != nil {
			return OverflowRef{}, err
		}
	}

	return OverflowRef{
		FirstPageID: firstPageID,
		Length:      uint32(totalLen),
	}, nil
}

// Read loads the full value described by the reference by walking the
// linked list of overflow pages and decompressing the result.
func (om *OverflowManager) Read(ref OverflowRef) ([]byte, error) {
	if ref.Length == 0 {
		return []byte{}, nil
	}

	compressed := make([]byte, int(ref.Length))
	remaining := int(ref.Length)

	pageID := ref.FirstPageID
	writePos := 0

	for {
		buf := make([]byte, PageSize)
		if err := om.sm.ReadPage(om.fs, int32(pageID), buf); err != nil {
			return nil, err
		}

		nextID := bx.U32(buf[overflowOffNext : overflowOffNext+4])
		used := int(bx.U16(buf[overflowOffLen : overflowOffLen+2]))
		if used > PageSize-overflowHeaderSize {
			used = PageSize - overflowHeaderSize
		}
		if used > remaining {
			used = remaining
		}

		if used > 0 {
			copy(compressed[writePos:writePos+used], buf[overflowHeaderSize:overflowHeaderSize+used])
			writePos += used
			remaining -= used
		}

		if remaining <= 0 || nextID == overflowNoNext {
			break
		}
		pageID = nextID
	}

	out, err := om.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: overflow decompress: %w", err)
	}
	return out, nil
}

// Free walks the overflow chain described by ref and returns every page in
// it to the free list so a later Write can reuse them. It does not zero
// the pages; they are overwritten on next allocation.
func (om *OverflowManager) Free(ref OverflowRef) error {
	if ref.Length == 0 {
		return nil
	}

	var reclaimed []uint32
	pageID := ref.FirstPageID
	buf := make([]byte, PageSize)

	for {
		if err := om.sm.ReadPage(om.fs, int32(pageID), buf); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		reclaimed = append(reclaimed, pageID)
		nextID := bx.U32(buf[overflowOffNext : overflowOffNext+4])
		if nextID == overflowNoNext {
			break
		}
		pageID = nextID
	}

	om.mu.Lock()
	om.freePages = append(om.freePages, reclaimed...)
	om.mu.Unlock()
	return nil
}
