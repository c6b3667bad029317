package zonesim

import (
	"errors"
	"sync"

	"github.com/mikey-austin/socos/pkg/zone"
)

// ErrNoTrack is returned when a transition has no track to move to.
var ErrNoTrack = errors.New("no such track")

// Queue holds a zone's play queue and current position.
type Queue struct {
	mu      sync.Mutex
	index   int
	entries []zone.QueueItem
}

// Snapshot returns a window of the queue.
func (q *Queue) Snapshot(start int, count int) zone.QueueGetReply {
	q.mu.Lock()
	defer q.mu.Unlock()

	from := clampIndex(start, len(q.entries))
	to := clampIndex(start+count, len(q.entries))
	items := make([]zone.QueueItem, to-from)
	copy(items, q.entries[from:to])
	return zone.QueueGetReply{Items: items, Total: len(q.entries)}
}

// Add appends entries and returns the one-based position of the first.
func (q *Queue) Add(entries []zone.QueueItem) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos := len(q.entries) + 1
	q.entries = append(q.entries, entries...)
	return pos
}

// Remove removes the zero-based index. The current position keeps pointing
// at the same track where it can.
func (q *Queue) Remove(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.entries) {
		return errors.New("index out of range")
	}
	q.entries = append(q.entries[:index], q.entries[index+1:]...)
	if index < q.index {
		q.index--
	}
	if q.index >= len(q.entries) {
		q.index = max(len(q.entries)-1, 0)
	}
	return nil
}

// Clear clears the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
	q.index = 0
}

// Jump sets the current zero-based index.
func (q *Queue) Jump(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.entries) {
		return errors.New("index out of range")
	}
	q.index = index
	return nil
}

// Step moves the current position by delta. With wrap the queue is
// circular; otherwise stepping past either end fails.
func (q *Queue) Step(delta int, wrap bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if n == 0 {
		return ErrNoTrack
	}
	next := q.index + delta
	if wrap {
		next = ((next % n) + n) % n
	}
	if next < 0 || next >= n {
		return ErrNoTrack
	}
	q.index = next
	return nil
}

// Current returns the current entry and its one-based position.
func (q *Queue) Current() (zone.QueueItem, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 || q.index < 0 || q.index >= len(q.entries) {
		return zone.QueueItem{}, 0, false
	}
	return q.entries[q.index], q.index + 1, true
}

// Len returns the queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

func clampIndex(index int, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}
