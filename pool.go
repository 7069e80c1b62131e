package pagebuf

import (
	"sync"
	"sync/atomic"
)

// BufferPool is a fixed-capacity page cache mediating between page-addressed
// disk storage and clients reading or mutating pages.
//
// Every frame is in exactly one of three states: on the free list, mapped in
// the page table, or in transit between the two while the pool performs I/O.
// A page returned by NewPage or FetchPage is pinned and will not be evicted
// until every pin is released through UnpinPage (usually via a guard).
type BufferPool struct {
	mu        sync.Mutex
	pages     []Page
	pageTable map[PageID]FrameID
	freeList  []FrameID
	replacer  *LRUKReplacer
	scheduler *DiskScheduler

	nextPageID PageID
	closed     bool
	log        Logger

	// stats
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a buffer pool of poolSize frames over disk. The pool owns a
// disk scheduler for the lifetime of the pool; Close stops it.
func New(poolSize int, disk *DiskManager, options ...Option) *BufferPool {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	bp := &BufferPool{
		pages:     make([]Page, poolSize),
		pageTable: make(map[PageID]FrameID, poolSize),
		freeList:  make([]FrameID, 0, poolSize),
		replacer:  NewLRUKReplacer(poolSize, opts.replacerK),
		scheduler: NewDiskScheduler(disk, opts.logger),
		log:       opts.logger,
	}

	for i := range bp.pages {
		bp.pages[i].id = InvalidPageID
		bp.freeList = append(bp.freeList, FrameID(i))
	}
	return bp
}

// acquireFrame produces a usable frame: free list first, then an eviction
// victim. A dirty victim is written back before reuse. Must be called with
// bp.mu held. The returned frame is unmapped and zeroed.
func (bp *BufferPool) acquireFrame() (FrameID, error) {
	var fid FrameID
	switch {
	case len(bp.freeList) > 0:
		fid = bp.freeList[0]
		bp.freeList = bp.freeList[1:]
		return fid, nil
	case bp.replacer.Size() > 0:
		victim, ok := bp.replacer.Evict()
		if !ok {
			return InvalidFrameID, ErrNoFreeFrame
		}
		fid = victim
	default:
		return InvalidFrameID, ErrNoFreeFrame
	}

	page := &bp.pages[fid]
	delete(bp.pageTable, page.id)
	bp.evictions.Add(1)

	if page.isDirty {
		done := bp.scheduler.CreatePromise()
		bp.scheduler.Schedule(DiskRequest{
			IsWrite: true,
			Data:    page.data[:],
			PageID:  page.id,
			Done:    done,
		})
		if err := <-done; err != nil {
			bp.log.Warn("eviction write-back failed", "pageID", page.id, "error", err)
			// Frame contents were not persisted; put the frame back rather
			// than lose the page silently.
			bp.pageTable[page.id] = fid
			bp.replacer.RecordAccess(fid)
			bp.replacer.SetEvictable(fid, true)
			return InvalidFrameID, err
		}
	}
	page.id = InvalidPageID
	page.isDirty = false
	page.pinCount = 0
	page.resetMemory()
	return fid, nil
}

// installPage maps page id into frame fid, pinned once and clean. Must be
// called with bp.mu held.
func (bp *BufferPool) installPage(id PageID, fid FrameID) *Page {
	page := &bp.pages[fid]
	bp.pageTable[id] = fid
	page.id = id
	page.pinCount = 1
	page.isDirty = false
	bp.replacer.RecordAccess(fid)
	bp.replacer.SetEvictable(fid, false)
	return page
}

// NewPage allocates a fresh zero-filled page, pins it, and returns its frame.
// Returns ErrNoFreeFrame when every frame is pinned.
func (bp *BufferPool) NewPage() (*Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil, ErrPoolClosed
	}
	fid, err := bp.acquireFrame()
	if err != nil {
		return nil, err
	}
	id := bp.allocatePage()
	return bp.installPage(id, fid), nil
}

// FetchPage returns the frame holding page id, pinning it. On a miss the page
// is read from disk into a reclaimed frame. Returns ErrNoFreeFrame when every
// frame is pinned.
func (bp *BufferPool) FetchPage(id PageID) (*Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil, ErrPoolClosed
	}
	if fid, ok := bp.pageTable[id]; ok {
		page := &bp.pages[fid]
		page.pinCount++
		bp.replacer.RecordAccess(fid)
		bp.replacer.SetEvictable(fid, false)
		bp.hits.Add(1)
		return page, nil
	}

	fid, err := bp.acquireFrame()
	if err != nil {
		return nil, err
	}

	page := &bp.pages[fid]
	done := bp.scheduler.CreatePromise()
	bp.scheduler.Schedule(DiskRequest{
		IsWrite: false,
		Data:    page.data[:],
		PageID:  id,
		Done:    done,
	})
	if err := <-done; err != nil {
		// The frame was never mapped; hand it back to the free list.
		page.resetMemory()
		bp.freeList = append(bp.freeList, fid)
		return nil, err
	}

	bp.misses.Add(1)
	return bp.installPage(id, fid), nil
}

// UnpinPage releases one pin on page id, OR-merging dirty into the frame's
// dirty flag. Returns false if the page is not resident or not pinned. When
// the pin count reaches zero the frame becomes an eviction candidate.
func (bp *BufferPool) UnpinPage(id PageID, dirty bool) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	fid, ok := bp.pageTable[id]
	if !ok {
		return false
	}
	page := &bp.pages[fid]
	if page.pinCount <= 0 {
		return false
	}
	page.isDirty = page.isDirty || dirty
	page.pinCount--
	if page.pinCount == 0 {
		bp.replacer.SetEvictable(fid, true)
	}
	return true
}

// FlushPage writes page id back to disk regardless of its dirty flag, then
// zeroes the frame buffer and clears the flag. The page stays resident.
// Returns ErrPageNotFound if the page is not in the pool.
func (bp *BufferPool) FlushPage(id PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	fid, ok := bp.pageTable[id]
	if !ok {
		return ErrPageNotFound
	}
	page := &bp.pages[fid]

	done := bp.scheduler.CreatePromise()
	bp.scheduler.Schedule(DiskRequest{
		IsWrite: true,
		Data:    page.data[:],
		PageID:  id,
		Done:    done,
	})
	if err := <-done; err != nil {
		return err
	}
	page.resetMemory()
	page.isDirty = false
	return nil
}

// FlushAllPages writes every resident page back to disk. Submissions are
// batched before any await so the scheduler can overlap them. Returns the
// first error encountered, but attempts to flush all pages.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushAllLocked()
}

func (bp *BufferPool) flushAllLocked() error {
	promises := make(map[FrameID]chan error, len(bp.pageTable))
	for id, fid := range bp.pageTable {
		done := bp.scheduler.CreatePromise()
		bp.scheduler.Schedule(DiskRequest{
			IsWrite: true,
			Data:    bp.pages[fid].data[:],
			PageID:  id,
			Done:    done,
		})
		promises[fid] = done
	}

	var err error
	for fid, done := range promises {
		if flushErr := <-done; flushErr != nil {
			if err == nil {
				err = flushErr
			}
			continue
		}
		bp.pages[fid].resetMemory()
		bp.pages[fid].isDirty = false
	}
	return err
}

// DeletePage drops page id from the pool and returns its frame to the free
// list. A page that is not resident is a successful no-op; a pinned page
// returns ErrPagePinned. A dirty page is written back first.
func (bp *BufferPool) DeletePage(id PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	fid, ok := bp.pageTable[id]
	if !ok {
		return nil
	}
	page := &bp.pages[fid]
	if page.pinCount > 0 {
		return ErrPagePinned
	}
	if page.isDirty {
		done := bp.scheduler.CreatePromise()
		bp.scheduler.Schedule(DiskRequest{
			IsWrite: true,
			Data:    page.data[:],
			PageID:  id,
			Done:    done,
		})
		if err := <-done; err != nil {
			return err
		}
	}

	delete(bp.pageTable, id)
	bp.replacer.Remove(fid)
	page.id = InvalidPageID
	page.isDirty = false
	page.pinCount = 0
	page.resetMemory()
	bp.freeList = append(bp.freeList, fid)
	bp.deallocatePage(id)
	return nil
}

// allocatePage hands out the next page id. Must be called with bp.mu held.
func (bp *BufferPool) allocatePage() PageID {
	id := bp.nextPageID
	bp.nextPageID++
	return id
}

// deallocatePage is a hook for an external allocator. Page ids are monotonic
// and never reused within a process, so there is nothing to reclaim here.
func (bp *BufferPool) deallocatePage(PageID) {}

// Stats returns cache hit, miss, and eviction counters.
func (bp *BufferPool) Stats() (hits, misses, evictions uint64) {
	return bp.hits.Load(), bp.misses.Load(), bp.evictions.Load()
}

// Close flushes all resident pages and stops the disk scheduler. The pool
// must not be used afterwards.
func (bp *BufferPool) Close() error {
	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		return nil
	}
	bp.closed = true
	err := bp.flushAllLocked()
	bp.mu.Unlock()

	bp.scheduler.Close()
	return err
}
