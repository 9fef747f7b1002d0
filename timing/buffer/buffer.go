// Package buffer provides the bounded ring buffer that carries one direction
// of a connection between two simulated components.
package buffer

import (
	"github.com/sarchlab/akita/v4/sim"
)

// HookPosEnqueue marks when an element is stored into the buffer.
var HookPosEnqueue = &sim.HookPos{Name: "Buffer Enqueue"}

// HookPosDequeue marks when an element is removed from the buffer.
var HookPosDequeue = &sim.HookPos{Name: "Buffer Dequeue"}

// HookPosEnqueueRejected marks an enqueue attempt on a full buffer.
var HookPosEnqueueRejected = &sim.HookPos{Name: "Buffer Enqueue Rejected"}

// Buffer is a fixed-capacity FIFO ring of message values.
//
// The zero value is an unallocated buffer. Every operation on an unallocated
// buffer fails the same way it would on a full (enqueue) or empty (dequeue)
// buffer.
type Buffer[T any] struct {
	sim.HookableBase

	name     string
	slots    []T
	occupied int
	start    int
	end      int
}

// NewBuffer creates a buffer and allocates it with the given capacity.
func NewBuffer[T any](name string, capacity int) *Buffer[T] {
	b := &Buffer[T]{name: name}
	b.Allocate(capacity)

	return b
}

// Name returns the name of the buffer.
func (b *Buffer[T]) Name() string {
	return b.name
}

// IsAllocated returns true once storage has been set up.
func (b *Buffer[T]) IsAllocated() bool {
	return b.slots != nil
}

// Allocate sets up storage for capacity elements. A non-positive capacity
// leaves the buffer unallocated. Allocating an allocated buffer is a no-op;
// the capacity never changes after the first allocation.
func (b *Buffer[T]) Allocate(capacity int) {
	if capacity <= 0 || b.IsAllocated() {
		return
	}

	b.slots = make([]T, capacity)
	b.occupied = 0
	b.start = 0
	b.end = 0
}

// Deallocate releases the storage. The buffer can be allocated again.
func (b *Buffer[T]) Deallocate() {
	b.slots = nil
	b.occupied = 0
	b.start = 0
	b.end = 0
}

// Capacity returns the number of slots.
func (b *Buffer[T]) Capacity() int {
	return len(b.slots)
}

// Size returns the number of elements currently stored.
func (b *Buffer[T]) Size() int {
	return b.occupied
}

// IsFull returns true if no more element can be enqueued.
func (b *Buffer[T]) IsFull() bool {
	return b.occupied == len(b.slots)
}

// IsEmpty returns true if there is nothing to dequeue.
func (b *Buffer[T]) IsEmpty() bool {
	return b.occupied == 0
}

// Start returns the read cursor.
func (b *Buffer[T]) Start() int {
	return b.start
}

// End returns the write cursor.
func (b *Buffer[T]) End() int {
	return b.end
}

// Enqueue copies e into the slot at the write cursor. It returns false and
// leaves the buffer untouched if the buffer is full.
func (b *Buffer[T]) Enqueue(e T) bool {
	if b.IsFull() {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosEnqueueRejected,
			Item:   e,
		})

		return false
	}

	b.slots[b.end] = e
	b.occupied++
	b.end++

	if b.end == len(b.slots) {
		b.end = 0
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosEnqueue,
		Item:   e,
	})

	return true
}

// Dequeue removes the oldest element. The second return value is false if
// the buffer is empty.
func (b *Buffer[T]) Dequeue() (T, bool) {
	var zero T

	if b.IsEmpty() {
		return zero, false
	}

	e := b.slots[b.start]
	b.slots[b.start] = zero
	b.occupied--
	b.start++

	if b.start == len(b.slots) {
		b.start = 0
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosDequeue,
		Item:   e,
	})

	return e, true
}

// Peek returns the oldest element without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	if b.IsEmpty() {
		var zero T
		return zero, false
	}

	return b.slots[b.start], true
}
