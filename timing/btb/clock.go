package btb

// Clock serves the messages received since the last cycle.
//
// Messages put in the inbox with Enqueue are executed without a response.
// Then every connection is served in ID order: each request is executed
// and answered on the same connection. When a response buffer is full, the
// remaining requests of that connection stay buffered for a later cycle.
func (b *BranchTargetBuffer) Clock() {
	for !b.IsQueueEmpty() {
		b.handle(b.Dequeue())
	}

	for _, id := range b.ConnectionIDs() {
		b.serveConnection(id)
	}
}

func (b *BranchTargetBuffer) serveConnection(id int) {
	for b.CanSendResponse(id) {
		req, ok := b.PeekRequest(id)
		if !ok {
			return
		}

		b.SendResponse(id, b.handle(req))
		b.ReceiveRequest(id)
	}
}

func (b *BranchTargetBuffer) handle(req Msg) Msg {
	rsp := req.GenerateRsp()
	if rsp.Err != MsgErrNone {
		return rsp
	}

	if !b.allocated {
		rsp.Err = MsgErrNotAllocated
		return rsp
	}

	switch req.Kind {
	case MsgRegister:
		// The slice length always matches, so no error is possible.
		_ = b.RegisterNewBlock(req.FetchAddress, req.Targets[:b.numBanks])
	case MsgFetch:
		rsp.Status = b.FetchBTBEntry(req.FetchAddress)
		rsp.NextFetchBlock = b.nextFetchBlock
		copy(rsp.ValidBits[:], b.instructionValidBits)
	case MsgUpdate:
		_ = b.UpdateBlock(req.FetchAddress, req.Executed[:b.numBanks])
	}

	return rsp
}
