package fetch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/btbsim/timing/btb"
	"github.com/sarchlab/btbsim/timing/fetch"
)

var _ = Describe("Fetcher", func() {
	var (
		b *btb.BranchTargetBuffer
		f *fetch.Fetcher
	)

	build := func(capacity int) {
		b = btb.MakeBuilder().
			WithNumBanksBits(1).
			WithNumEntriesBits(4).
			WithConnectionBufferCapacity(capacity).
			Build("BTB")

		connID, err := b.ConnectToComponent(0)
		Expect(err).NotTo(HaveOccurred())

		f = fetch.NewFetcher("Fetcher", b, connID)
	}

	cycle := func() {
		f.Clock()
		b.Clock()
	}

	BeforeEach(func() {
		build(4)
	})

	It("should be done with nothing to issue", func() {
		Expect(f.Done()).To(BeTrue())
	})

	It("should send one request per cycle by default", func() {
		f.Issue(btb.NewRegisterMsg(0x10, []uint32{0x80, 0}))
		f.Issue(btb.NewFetchMsg(0x10))

		f.Clock()
		Expect(f.Stats().Sent).To(Equal(uint64(1)))
		Expect(f.QueueSize()).To(Equal(1))
		Expect(f.Done()).To(BeFalse())
	})

	It("should collect the responses in request order", func() {
		f.Issue(btb.NewRegisterMsg(0x10, []uint32{0x80, 0}))
		f.Issue(btb.NewFetchMsg(0x10))
		f.Issue(btb.NewFetchMsg(0x20))

		for i := 0; i < 10 && !f.Done(); i++ {
			cycle()
		}

		Expect(f.Done()).To(BeTrue())
		rsps := f.Responses()
		Expect(rsps).To(HaveLen(3))
		Expect(rsps[0].Kind).To(Equal(btb.MsgRegisterAck))
		Expect(rsps[1].Status).To(Equal(btb.Allocated))
		Expect(rsps[1].NextFetchBlock).To(Equal(uint32(0x80)))
		Expect(rsps[2].Status).To(Equal(btb.NotAllocated))
		Expect(rsps[2].NextFetchBlock).To(Equal(uint32(0x22)))
		Expect(f.Stats().Received).To(Equal(uint64(3)))
	})

	It("should return a copy of the responses", func() {
		f.Issue(btb.NewFetchMsg(0x10))

		for i := 0; i < 10 && !f.Done(); i++ {
			cycle()
		}

		rsps := f.Responses()
		Expect(rsps).To(HaveLen(1))
		rsps[0].NextFetchBlock = 0xdead

		Expect(f.Responses()[0].NextFetchBlock).To(Equal(uint32(0x12)))
	})

	It("should see a response one cycle after the request is served", func() {
		f.Issue(btb.NewFetchMsg(0))

		cycle()
		Expect(f.Responses()).To(BeEmpty())
		Expect(f.Outstanding()).To(Equal(1))

		f.Clock()
		Expect(f.Responses()).To(HaveLen(1))
		Expect(f.Outstanding()).To(Equal(0))
	})

	It("should retry when the peer is full", func() {
		build(1)
		f.SetIssueWidth(4)

		f.Issue(btb.NewFetchMsg(0))
		f.Issue(btb.NewFetchMsg(2))

		f.Clock()
		Expect(f.Stats().Sent).To(Equal(uint64(1)))
		Expect(f.Stats().Stalls).To(Equal(uint64(1)))

		for i := 0; i < 10 && !f.Done(); i++ {
			cycle()
		}

		Expect(f.Done()).To(BeTrue())
		Expect(f.Responses()).To(HaveLen(2))
		Expect(f.Responses()[1].FetchAddress).To(Equal(uint32(2)))
	})

	It("should call the response handler", func() {
		var seen []btb.MsgKind
		f.SetResponseHandler(func(rsp btb.Msg) {
			seen = append(seen, rsp.Kind)
		})

		f.Issue(btb.NewUpdateMsg(0, []bool{true, false}))
		for i := 0; i < 5 && !f.Done(); i++ {
			cycle()
		}

		Expect(seen).To(Equal([]btb.MsgKind{btb.MsgUpdateAck}))
	})
})
