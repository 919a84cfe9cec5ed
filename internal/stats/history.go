package stats

import "sync"

// DefaultHistorySize is used when a buffer is created with a non-positive
// capacity.
const DefaultHistorySize = 300

// HistoryBuffer is a fixed-capacity FIFO of data points in chronological
// order, oldest first. Readers always receive copies, so a snapshot taken
// while the collector is pushing never observes a half-updated buffer.
type HistoryBuffer struct {
	mu       sync.RWMutex
	points   []DataPoint
	capacity int
}

// NewHistoryBuffer returns an empty buffer holding at most capacity points.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &HistoryBuffer{
		points:   make([]DataPoint, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a point, evicting the oldest entries once the buffer is full.
func (h *HistoryBuffer) Push(point DataPoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = append(h.points, point)
	if excess := len(h.points) - h.capacity; excess > 0 {
		h.points = append(h.points[:0], h.points[excess:]...)
	}
}

// Recent returns copies of the last min(n, length) points, oldest first.
func (h *HistoryBuffer) Recent(n int) []DataPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 {
		return []DataPoint{}
	}
	if n > len(h.points) {
		n = len(h.points)
	}
	return clonePoints(h.points[len(h.points)-n:])
}

// All returns copies of every buffered point, oldest first.
func (h *HistoryBuffer) All() []DataPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return clonePoints(h.points)
}

// Clear drops all buffered points, keeping the capacity.
func (h *HistoryBuffer) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = h.points[:0]
}

// Len reports the number of buffered points.
func (h *HistoryBuffer) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.points)
}

// Capacity reports the maximum number of buffered points.
func (h *HistoryBuffer) Capacity() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.capacity
}

// Resize changes the capacity, keeping the most recent points when the
// buffer shrinks.
func (h *HistoryBuffer) Resize(capacity int) {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.capacity = capacity
	if excess := len(h.points) - capacity; excess > 0 {
		h.points = append(h.points[:0], h.points[excess:]...)
	}
}

func clonePoints(points []DataPoint) []DataPoint {
	out := make([]DataPoint, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}
