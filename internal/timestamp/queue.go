package timestamp

import "errors"

var ErrEmptyQueue = errors.New("timestamp: queue is empty")

// Queue holds the elapsed time of every capture request that has not been
// written yet. The Nth Pop returns the time of the Nth Push.
type Queue struct {
	items []float64
	head  int
}

// Push appends the elapsed time of a new capture request.
func (q *Queue) Push(elapsed float64) {
	q.items = append(q.items, elapsed)
}

// Pop removes the oldest elapsed time. It returns ErrEmptyQueue when no
// request is pending.
func (q *Queue) Pop() (float64, error) {
	if q.head >= len(q.items) {
		return 0, ErrEmptyQueue
	}
	v := q.items[q.head]
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v, nil
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}

// Reset drops every pending request.
func (q *Queue) Reset() {
	q.items = q.items[:0]
	q.head = 0
}
