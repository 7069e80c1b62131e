package pagebuf

import (
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// PageSize is the size of a disk page in bytes.
const PageSize = 4096

// PageID identifies a persistent page. IDs are allocated monotonically by the
// buffer pool and never reused within a process lifetime.
type PageID uint64

// InvalidPageID marks a frame with no resident page.
const InvalidPageID PageID = math.MaxUint64

// FrameID indexes a slot in the buffer pool's frame array.
type FrameID int

// InvalidFrameID denotes "no frame".
const InvalidFrameID FrameID = -1

// Page is a single frame in the buffer pool: a fixed-size buffer plus metadata
// for whichever disk page currently occupies it. The buffer is reused across
// many page residencies.
//
// The reader-writer latch synchronizes clients accessing the page contents; it
// is distinct from the pool's mutex, which only guards frame metadata. The
// pool never takes the page latch — only guards do.
type Page struct {
	data     [PageSize]byte
	id       PageID
	pinCount int
	isDirty  bool
	latch    sync.RWMutex
}

// ID returns the id of the resident page, or InvalidPageID if the frame is
// unoccupied.
func (p *Page) ID() PageID { return p.id }

// PinCount returns the current pin count.
func (p *Page) PinCount() int { return p.pinCount }

// IsDirty reports whether the in-memory contents differ from the persistent
// image.
func (p *Page) IsDirty() bool { return p.isDirty }

// Data returns the page buffer. Callers must hold a pin, and the page latch if
// other clients may touch the frame concurrently.
func (p *Page) Data() []byte { return p.data[:] }

// Checksum returns the xxhash digest of the page contents.
func (p *Page) Checksum() uint64 { return xxhash.Sum64(p.data[:]) }

// RLatch acquires the page's shared latch.
func (p *Page) RLatch() { p.latch.RLock() }

// RUnlatch releases the page's shared latch.
func (p *Page) RUnlatch() { p.latch.RUnlock() }

// WLatch acquires the page's exclusive latch.
func (p *Page) WLatch() { p.latch.Lock() }

// WUnlatch releases the page's exclusive latch.
func (p *Page) WUnlatch() { p.latch.Unlock() }

// resetMemory zeroes the buffer before a new tenant occupies the frame.
func (p *Page) resetMemory() {
	clear(p.data[:])
}
