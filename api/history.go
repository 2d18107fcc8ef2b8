package api

import (
	"sync"

	"github.com/huandu/skiplist"

	"github.com/openalpha/fund-cycle/api/types"
)

// defaultHistoryCapacity bounds the in-memory pool value history
const defaultHistoryCapacity = 4096

// PoolHistory keeps a time-ordered cache of pool value samples.
// Samples are keyed by timestamp in a skip list, so appends and
// range scans are O(log n).
type PoolHistory struct {
	samples  *skiplist.SkipList // int64 timestamp -> *types.PoolValuePoint
	capacity int
	mu       sync.RWMutex
}

// NewPoolHistory creates a pool value history with the given capacity.
// A capacity of zero or less falls back to the default.
func NewPoolHistory(capacity int) *PoolHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &PoolHistory{
		samples:  skiplist.New(skiplist.Int64),
		capacity: capacity,
	}
}

// Record appends a sample, evicting the oldest once capacity is reached.
// A sample with the same timestamp as an existing one replaces it.
func (h *PoolHistory) Record(point *types.PoolValuePoint) {
	if point == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples.Set(point.Timestamp, point)
	for h.samples.Len() > h.capacity {
		front := h.samples.Front()
		if front == nil {
			break
		}
		h.samples.Remove(front.Key())
	}
}

// Range returns the samples whose cycle number falls in [fromCycle, toCycle].
// A toCycle of zero means no upper bound.
func (h *PoolHistory) Range(fromCycle, toCycle uint64) []*types.PoolValuePoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	points := make([]*types.PoolValuePoint, 0, h.samples.Len())
	for elem := h.samples.Front(); elem != nil; elem = elem.Next() {
		point := elem.Value.(*types.PoolValuePoint)
		if point.CycleNumber < fromCycle {
			continue
		}
		if toCycle > 0 && point.CycleNumber > toCycle {
			continue
		}
		points = append(points, point)
	}
	return points
}

// Latest returns the most recent sample, or nil if the history is empty
func (h *PoolHistory) Latest() *types.PoolValuePoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	back := h.samples.Back()
	if back == nil {
		return nil
	}
	return back.Value.(*types.PoolValuePoint)
}

// Len returns the number of cached samples
func (h *PoolHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.samples.Len()
}
