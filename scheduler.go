package pagebuf

import "sync"

// DiskRequest is a single read or write submitted to the scheduler. Done is a
// one-shot promise fulfilled when the I/O completes; nil means success.
type DiskRequest struct {
	IsWrite bool
	Data    []byte
	PageID  PageID
	Done    chan error
}

// DiskScheduler serializes page I/O onto a background worker. Callers create
// a promise, submit a request, and receive completion on the promise channel.
// Submitting transfers ownership of the promise to the scheduler.
//
// The caller must keep Data valid and unaliased until the promise is
// fulfilled. The buffer pool guarantees this by holding its latch across
// submit-and-await.
type DiskScheduler struct {
	disk     *DiskManager
	requests chan DiskRequest
	wg       sync.WaitGroup
	log      Logger
}

// NewDiskScheduler starts the worker goroutine.
func NewDiskScheduler(disk *DiskManager, log Logger) *DiskScheduler {
	s := &DiskScheduler{
		disk:     disk,
		requests: make(chan DiskRequest, 64),
		log:      log,
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// CreatePromise returns a one-shot completion channel for a DiskRequest.
func (s *DiskScheduler) CreatePromise() chan error {
	return make(chan error, 1)
}

// Schedule submits a request and returns immediately.
func (s *DiskScheduler) Schedule(r DiskRequest) {
	s.requests <- r
}

func (s *DiskScheduler) worker() {
	defer s.wg.Done()
	for r := range s.requests {
		var err error
		if r.IsWrite {
			err = s.disk.WritePage(r.PageID, r.Data)
		} else {
			err = s.disk.ReadPage(r.PageID, r.Data)
		}
		if err != nil {
			s.log.Error("disk request failed",
				"pageID", r.PageID, "write", r.IsWrite, "error", err)
		}
		if r.Done != nil {
			r.Done <- err
		}
	}
}

// Close drains outstanding requests and stops the worker. No requests may be
// scheduled after Close.
func (s *DiskScheduler) Close() {
	close(s.requests)
	s.wg.Wait()
}
