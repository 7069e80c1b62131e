package pagebuf

import (
	"fmt"
	"sync"
)

// lruKNode tracks the access history of one frame: the timestamps of its most
// recent accesses, oldest first, capped at k entries.
type lruKNode struct {
	history   []uint64
	count     int
	evictable bool
}

// LRUKReplacer picks eviction victims under LRU-K semantics.
//
// The backward k-distance of a frame is the difference between the current
// timestamp and the timestamp of its k-th most recent access; frames with
// fewer than k recorded accesses have infinite distance. Eviction chooses the
// frame with the largest distance, with infinite-distance frames ranked by
// classic LRU on their earliest access.
//
// Misuse — an out-of-range frame id, toggling an unknown frame, or removing a
// non-evictable frame — is a programmer error and panics.
type LRUKReplacer struct {
	mu            sync.Mutex
	nodes         map[FrameID]*lruKNode
	currTimestamp uint64
	currSize      int
	replacerSize  int
	k             int
}

// NewLRUKReplacer creates a replacer for numFrames frames tracking the last k
// accesses of each.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	return &LRUKReplacer{
		nodes:        make(map[FrameID]*lruKNode, numFrames),
		replacerSize: numFrames,
		k:            k,
	}
}

// RecordAccess notes an access to fid at the next logical timestamp. A frame
// seen for the first time starts out non-evictable.
func (r *LRUKReplacer) RecordAccess(fid FrameID) {
	if fid < 0 || int(fid) > r.replacerSize {
		panic(fmt.Sprintf("lru-k: RecordAccess on frame %d beyond replacer size %d", fid, r.replacerSize))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[fid]
	if !ok {
		n = &lruKNode{}
		r.nodes[fid] = n
	}
	if n.count == r.k {
		n.history = n.history[1:]
		n.count--
	}
	n.history = append(n.history, r.currTimestamp)
	n.count++
	r.currTimestamp++
}

// SetEvictable toggles eviction eligibility for fid, adjusting the replacer's
// size accordingly.
func (r *LRUKReplacer) SetEvictable(fid FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[fid]
	if !ok {
		panic(fmt.Sprintf("lru-k: SetEvictable on unknown frame %d", fid))
	}
	if n.evictable && !evictable {
		r.currSize--
	} else if !n.evictable && evictable {
		r.currSize++
	}
	n.evictable = evictable
}

// Evict removes and returns the evictable frame with the largest backward
// k-distance. Returns (InvalidFrameID, false) if no frame is evictable.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return InvalidFrameID, false
	}

	victim := InvalidFrameID
	var victimOldest uint64
	victimInf := false
	var victimDist uint64

	for fid, n := range r.nodes {
		if !n.evictable {
			continue
		}
		oldest := n.history[0]
		inf := n.count < r.k
		dist := r.currTimestamp - oldest

		var better bool
		switch {
		case victim == InvalidFrameID:
			better = true
		case inf != victimInf:
			// Frames short of k accesses outrank fully observed ones.
			better = inf
		case inf:
			// Both infinite: LRU on first access.
			better = oldest < victimOldest
		case dist != victimDist:
			better = dist > victimDist
		default:
			better = oldest < victimOldest
		}
		if better {
			victim = fid
			victimOldest = oldest
			victimInf = inf
			victimDist = dist
		}
	}

	delete(r.nodes, victim)
	r.currSize--
	return victim, true
}

// Remove erases an evictable frame's history entirely. Unknown frames are
// ignored; removing a non-evictable frame panics.
func (r *LRUKReplacer) Remove(fid FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[fid]
	if !ok {
		return
	}
	if !n.evictable {
		panic(fmt.Sprintf("lru-k: Remove on non-evictable frame %d", fid))
	}
	delete(r.nodes, fid)
	r.currSize--
}

// Size returns the number of evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
