// Package component provides the message-passing substrate that simulated
// hardware units are built on.
//
// A unit embeds Component with its message type and implements Clocked. The
// driver calls Clock once per simulated cycle. Units never call each other's
// Clock; everything crossing a unit boundary goes through a connection
// buffer, so a message sent in one cycle is seen by the receiver in a later
// Clock call.
package component

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/queue"
)

// Clocked is a unit that updates its state once per simulated cycle.
type Clocked interface {
	Clock()
}

// Component binds a message type to a connection registry and an inbox.
type Component[T any] struct {
	*Linkable[T]
	sim.HookableBase

	name  string
	inbox *queue.Queue[T]
}

// NewComponent creates a component with no connection and an empty inbox.
func NewComponent[T any](name string) *Component[T] {
	return &Component[T]{
		Linkable: NewLinkable[T](name),
		name:     name,
		inbox:    queue.NewQueue[T](),
	}
}

// Name returns the name of the component.
func (c *Component[T]) Name() string {
	return c.name
}

// SendMessage is called by a peer to deliver msg on connection channelID.
// It returns false if there is no room left; the sender may keep the
// message and try again in a later cycle.
func (c *Component[T]) SendMessage(msg T, channelID int) bool {
	return c.SendRequest(channelID, msg)
}

// RetrieveResponse is called by a peer to read a buffered response from
// connection channelID. It returns false if no response is ready.
func (c *Component[T]) RetrieveResponse(channelID int) (T, bool) {
	return c.ReceiveResponse(channelID)
}

// IsQueueEmpty returns true if the inbox is empty.
func (c *Component[T]) IsQueueEmpty() bool {
	return c.inbox.IsEmpty()
}

// QueueSize returns the number of messages in the inbox.
func (c *Component[T]) QueueSize() int {
	return c.inbox.Size()
}

// Enqueue puts msg into the inbox.
func (c *Component[T]) Enqueue(msg T) {
	c.inbox.Enqueue(msg)
}

// Dequeue takes the oldest message from the inbox. It returns the zero value
// if the inbox is empty.
func (c *Component[T]) Dequeue() T {
	return c.inbox.Dequeue()
}

// PeekQueue returns the oldest message of the inbox without removing it.
func (c *Component[T]) PeekQueue() (T, bool) {
	return c.inbox.Peek()
}

// FlushQueue drops every message in the inbox.
func (c *Component[T]) FlushQueue() {
	c.inbox.Flush()
}

// AcceptHook registers a hook on the component and on all of its connection
// buffers.
func (c *Component[T]) AcceptHook(hook sim.Hook) {
	c.HookableBase.AcceptHook(hook)
	c.Linkable.AcceptHook(hook)
}
