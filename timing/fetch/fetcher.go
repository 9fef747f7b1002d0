// Package fetch provides a front-end unit that drives a BTB through requests
// over a connection.
package fetch

import (
	"github.com/sarchlab/btbsim/timing/btb"
	"github.com/sarchlab/btbsim/timing/component"
)

// Port is what the fetcher needs from the unit it talks to.
type Port interface {
	SendMessage(msg btb.Msg, channelID int) bool
	RetrieveResponse(channelID int) (btb.Msg, bool)
}

// Stats holds statistics for the fetcher.
type Stats struct {
	// Sent is the number of requests accepted by the peer.
	Sent uint64
	// Received is the number of responses collected.
	Received uint64
	// Stalls is the number of cycles in which a request was refused.
	Stalls uint64
}

// Fetcher keeps a queue of requests for its peer and issues them in order.
type Fetcher struct {
	*component.Component[btb.Msg]

	peer       Port
	connID     int
	issueWidth int

	outstanding int
	responses   []btb.Msg
	onResponse  func(btb.Msg)

	stats Stats
}

// NewFetcher creates a fetcher that talks to peer on connection connID and
// issues at most one request per cycle.
func NewFetcher(name string, peer Port, connID int) *Fetcher {
	return &Fetcher{
		Component:  component.NewComponent[btb.Msg](name),
		peer:       peer,
		connID:     connID,
		issueWidth: 1,
	}
}

// SetIssueWidth sets how many requests may be sent per cycle.
func (f *Fetcher) SetIssueWidth(width int) {
	if width < 1 {
		width = 1
	}

	f.issueWidth = width
}

// SetResponseHandler registers a function called for every response, in the
// cycle it is collected.
func (f *Fetcher) SetResponseHandler(handler func(btb.Msg)) {
	f.onResponse = handler
}

// Issue queues a request. It is sent in a later cycle.
func (f *Fetcher) Issue(msg btb.Msg) {
	f.Enqueue(msg)
}

// Clock collects the responses that arrived and sends queued requests until
// the issue width is used up or the peer refuses one.
func (f *Fetcher) Clock() {
	f.collect()
	f.send()
}

func (f *Fetcher) collect() {
	for {
		rsp, ok := f.peer.RetrieveResponse(f.connID)
		if !ok {
			return
		}

		f.outstanding--
		f.stats.Received++
		f.responses = append(f.responses, rsp)

		if f.onResponse != nil {
			f.onResponse(rsp)
		}
	}
}

func (f *Fetcher) send() {
	for i := 0; i < f.issueWidth; i++ {
		msg, ok := f.PeekQueue()
		if !ok {
			return
		}

		if !f.peer.SendMessage(msg, f.connID) {
			f.stats.Stalls++
			return
		}

		f.Dequeue()
		f.outstanding++
		f.stats.Sent++
	}
}

// Responses returns a copy of every response collected so far, oldest first.
func (f *Fetcher) Responses() []btb.Msg {
	rsps := make([]btb.Msg, len(f.responses))
	copy(rsps, f.responses)

	return rsps
}

// Outstanding returns the number of requests sent but not answered.
func (f *Fetcher) Outstanding() int {
	return f.outstanding
}

// Done returns true when there is nothing left to send or wait for.
func (f *Fetcher) Done() bool {
	return f.IsQueueEmpty() && f.outstanding == 0
}

// Stats returns the fetcher statistics.
func (f *Fetcher) Stats() Stats {
	return f.stats
}
