package pagebuf

import "errors"

var (
	ErrPoolClosed       = errors.New("buffer pool is closed")
	ErrNoFreeFrame      = errors.New("no free frames")
	ErrPageNotFound     = errors.New("page not resident in buffer pool")
	ErrPagePinned       = errors.New("page is pinned")
	ErrInvalidPageSize  = errors.New("invalid page size")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
