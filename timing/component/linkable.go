package component

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/buffer"
)

// ErrInvalidCapacity is returned when a connection is requested with a
// non-positive buffer capacity.
var ErrInvalidCapacity = errors.New("buffer capacity must be > 0")

// ErrUnknownConnection is returned when a connection ID was never assigned.
var ErrUnknownConnection = errors.New("unknown connection")

// Connection is one channel between the owning component and a peer. The
// request buffer carries messages from the peer to the owner, and the
// response buffer carries messages back.
type Connection[T any] struct {
	ID       int
	Request  *buffer.Buffer[T]
	Response *buffer.Buffer[T]
}

// Linkable is the connection registry of a component. All the buffers of a
// connection live on the component that accepted it; the initiating peer
// only keeps the connection ID.
type Linkable[T any] struct {
	name        string
	connections []*Connection[T]
	hooks       []sim.Hook
}

// NewLinkable creates an empty registry.
func NewLinkable[T any](name string) *Linkable[T] {
	return &Linkable[T]{name: name}
}

// Connect creates a new connection whose buffers hold bufferCapacity
// messages each, and returns its ID. IDs are assigned 0, 1, 2, ... in the
// order connections are made.
func (l *Linkable[T]) Connect(bufferCapacity int) (int, error) {
	if bufferCapacity <= 0 {
		return -1, fmt.Errorf("connect to %s: %w", l.name, ErrInvalidCapacity)
	}

	id := len(l.connections)
	conn := &Connection[T]{
		ID: id,
		Request: buffer.NewBuffer[T](
			fmt.Sprintf("%s.Conn[%d].ReqBuf", l.name, id), bufferCapacity),
		Response: buffer.NewBuffer[T](
			fmt.Sprintf("%s.Conn[%d].RspBuf", l.name, id), bufferCapacity),
	}

	for _, h := range l.hooks {
		conn.Request.AcceptHook(h)
		conn.Response.AcceptHook(h)
	}

	l.connections = append(l.connections, conn)

	return id, nil
}

// Connection returns the connection with the given ID.
func (l *Linkable[T]) Connection(id int) (*Connection[T], error) {
	if id < 0 || id >= len(l.connections) {
		return nil, fmt.Errorf("%s connection %d: %w",
			l.name, id, ErrUnknownConnection)
	}

	return l.connections[id], nil
}

// NumConnections returns how many connections have been made.
func (l *Linkable[T]) NumConnections() int {
	return len(l.connections)
}

// ConnectionIDs lists the assigned IDs in ascending order.
func (l *Linkable[T]) ConnectionIDs() []int {
	ids := make([]int, len(l.connections))
	for i, c := range l.connections {
		ids[i] = c.ID
	}

	return ids
}

// SendRequest is called by the peer to deliver a request on connection id.
// It returns false if the request buffer is full or the ID is unknown.
func (l *Linkable[T]) SendRequest(id int, msg T) bool {
	conn := l.lookup(id)
	if conn == nil {
		return false
	}

	return conn.Request.Enqueue(msg)
}

// ReceiveRequest takes the oldest request from connection id.
func (l *Linkable[T]) ReceiveRequest(id int) (T, bool) {
	conn := l.lookup(id)
	if conn == nil {
		var zero T
		return zero, false
	}

	return conn.Request.Dequeue()
}

// PeekRequest returns the oldest request on connection id without taking it.
func (l *Linkable[T]) PeekRequest(id int) (T, bool) {
	conn := l.lookup(id)
	if conn == nil {
		var zero T
		return zero, false
	}

	return conn.Request.Peek()
}

// SendResponse stores a response for the peer on connection id. It returns
// false if the response buffer is full or the ID is unknown.
func (l *Linkable[T]) SendResponse(id int, msg T) bool {
	conn := l.lookup(id)
	if conn == nil {
		return false
	}

	return conn.Response.Enqueue(msg)
}

// CanSendResponse returns true if a response on connection id would be
// accepted.
func (l *Linkable[T]) CanSendResponse(id int) bool {
	conn := l.lookup(id)

	return conn != nil && !conn.Response.IsFull()
}

// ReceiveResponse is called by the peer to collect a response from
// connection id.
func (l *Linkable[T]) ReceiveResponse(id int) (T, bool) {
	conn := l.lookup(id)
	if conn == nil {
		var zero T
		return zero, false
	}

	return conn.Response.Dequeue()
}

// AcceptHook registers a hook on every connection buffer, including the
// buffers of connections made later.
func (l *Linkable[T]) AcceptHook(hook sim.Hook) {
	l.hooks = append(l.hooks, hook)

	for _, c := range l.connections {
		c.Request.AcceptHook(hook)
		c.Response.AcceptHook(hook)
	}
}

func (l *Linkable[T]) lookup(id int) *Connection[T] {
	if id < 0 || id >= len(l.connections) {
		return nil
	}

	return l.connections[id]
}
