// Package queue provides the unbounded inbox that holds messages a component
// has accepted but not processed yet.
package queue

type node[T any] struct {
	data T
	next *node[T]
}

// Queue is a singly linked FIFO with no capacity limit.
type Queue[T any] struct {
	size  int
	start *node[T]
	end   *node[T]
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// IsEmpty returns true if the queue holds no element.
func (q *Queue[T]) IsEmpty() bool {
	return q.size == 0
}

// Size returns the number of elements in the queue.
func (q *Queue[T]) Size() int {
	return q.size
}

// Enqueue appends data at the tail.
func (q *Queue[T]) Enqueue(data T) {
	n := &node[T]{data: data}

	if q.IsEmpty() {
		q.start = n
	} else {
		q.end.next = n
	}

	q.end = n
	q.size++
}

// Dequeue removes and returns the head. On an empty queue it returns the zero
// value of T, so callers check IsEmpty first.
func (q *Queue[T]) Dequeue() T {
	var data T

	if q.IsEmpty() {
		return data
	}

	n := q.start
	data = n.data
	q.start = n.next

	if q.start == nil {
		q.end = nil
	}

	n.next = nil
	q.size--

	return data
}

// Peek returns the head without removing it. The second return value is
// false on an empty queue.
func (q *Queue[T]) Peek() (T, bool) {
	if q.IsEmpty() {
		var zero T
		return zero, false
	}

	return q.start.data, true
}

// Flush drops every element.
func (q *Queue[T]) Flush() {
	for !q.IsEmpty() {
		q.Dequeue()
	}
}
