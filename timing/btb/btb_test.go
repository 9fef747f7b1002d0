package btb_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/btb"
)

type recordingHook struct {
	positions []*sim.HookPos
	details   []interface{}
}

func (h *recordingHook) Func(ctx sim.HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
	h.details = append(h.details, ctx.Detail)
}

var _ = Describe("BranchTargetBuffer", func() {
	var b *btb.BranchTargetBuffer

	BeforeEach(func() {
		b = btb.NewBranchTargetBuffer("BTB")
		Expect(b.Allocate(2, 2)).To(Succeed())
	})

	Describe("Allocation", func() {
		It("should derive the counts from the bit widths", func() {
			Expect(b.IsAllocated()).To(BeTrue())
			Expect(b.NumBanksBits()).To(Equal(uint32(2)))
			Expect(b.NumEntriesBits()).To(Equal(uint32(2)))
			Expect(b.InterleavingFactor()).To(Equal(uint32(4)))
			Expect(b.EntriesPerBank()).To(Equal(uint32(4)))
			Expect(b.InstructionValidBits()).To(HaveLen(4))
		})

		It("should start with every entry invalid", func() {
			for bank := uint32(0); bank < 4; bank++ {
				for index := uint32(0); index < 4; index++ {
					Expect(b.Entry(bank, index).IsValid()).To(BeFalse())
				}
			}
		})

		It("should hand out copies of entries", func() {
			Expect(b.RegisterNewBlock(0x10, []uint32{1, 2, 3, 4})).To(Succeed())

			e := b.Entry(1, b.CalculateIndex(0x10))
			Expect(e.IsValid()).To(BeTrue())
			Expect(e.Tag()).To(Equal(uint32(0x4)))
			Expect(e.Target()).To(Equal(uint32(2)))

			e.Invalidate()
			e.UpdatePrediction(false)

			again := b.Entry(1, b.CalculateIndex(0x10))
			Expect(again.IsValid()).To(BeTrue())
			Expect(again.Counter()).To(Equal(btb.WeaklyTaken))
		})

		It("should refuse a second allocation", func() {
			err := b.Allocate(1, 1)
			Expect(errors.Is(err, btb.ErrAlreadyAllocated)).To(BeTrue())
			Expect(b.InterleavingFactor()).To(Equal(uint32(4)))
		})

		It("should refuse an oversized geometry", func() {
			other := btb.NewBranchTargetBuffer("Other")
			err := other.Allocate(btb.MaxBankBits+1, 2)
			Expect(errors.Is(err, btb.ErrInvalidGeometry)).To(BeTrue())
			Expect(other.IsAllocated()).To(BeFalse())
		})

		It("should miss before any registration", func() {
			other := btb.NewBranchTargetBuffer("Other")

			err := other.RegisterNewBlock(0, []uint32{1, 2, 3, 4})
			Expect(errors.Is(err, btb.ErrNotAllocated)).To(BeTrue())

			err = other.UpdateBlock(0, []bool{true, true, true, true})
			Expect(errors.Is(err, btb.ErrNotAllocated)).To(BeTrue())

			Expect(other.FetchBTBEntry(0)).To(Equal(btb.NotAllocated))
			Expect(other.InstructionValidBits()).To(BeEmpty())
		})
	})

	Describe("Lookup of an unknown block", func() {
		It("should fall through sequentially", func() {
			Expect(b.FetchBTBEntry(0x100)).To(Equal(btb.NotAllocated))
			Expect(b.InstructionValidBits()).To(Equal(
				[]bool{true, true, true, true}))
			Expect(b.NextFetchBlock()).To(Equal(uint32(0x104)))
		})
	})

	Describe("Register then fetch", func() {
		It("should hit and predict the first nonzero target", func() {
			Expect(b.RegisterNewBlock(0, []uint32{10, 20, 30, 40})).To(Succeed())

			Expect(b.FetchBTBEntry(0)).To(Equal(btb.Allocated))
			Expect(b.NextFetchBlock()).To(Equal(uint32(10)))
			Expect(b.InstructionValidBits()).To(Equal(
				[]bool{true, true, true, true}))
		})

		It("should skip banks with a zero target", func() {
			b.RegisterNewBlock(0, []uint32{0, 0, 30, 40})

			Expect(b.FetchBTBEntry(0)).To(Equal(btb.Allocated))
			Expect(b.NextFetchBlock()).To(Equal(uint32(30)))
		})

		It("should fall through when every target is zero", func() {
			b.RegisterNewBlock(8, []uint32{0, 0, 0, 0})

			Expect(b.FetchBTBEntry(8)).To(Equal(btb.Allocated))
			Expect(b.NextFetchBlock()).To(Equal(uint32(12)))
		})

		It("should store the tag and target in every bank", func() {
			b.RegisterNewBlock(0x24, []uint32{1, 2, 3, 4})

			index := b.CalculateIndex(0x24)
			tag := b.CalculateTag(0x24)
			for bank := uint32(0); bank < 4; bank++ {
				e := b.Entry(bank, index)
				Expect(e.IsValid()).To(BeTrue())
				Expect(e.Tag()).To(Equal(tag))
				Expect(e.Target()).To(Equal(bank + 1))
			}
		})

		It("should reject a target slice of the wrong length", func() {
			err := b.RegisterNewBlock(0, []uint32{1, 2})
			Expect(errors.Is(err, btb.ErrLengthMismatch)).To(BeTrue())
			Expect(b.FetchBTBEntry(0)).To(Equal(btb.NotAllocated))
		})
	})

	Describe("Training", func() {
		BeforeEach(func() {
			b.RegisterNewBlock(0, []uint32{10, 20, 30, 40})
		})

		It("should reflect the outcomes without touching tags and targets", func() {
			Expect(b.FetchBTBEntry(0)).To(Equal(btb.Allocated))

			Expect(b.UpdateBlock(0, []bool{true, true, false, false})).
				To(Succeed())

			Expect(b.FetchBTBEntry(0)).To(Equal(btb.Allocated))
			Expect(b.InstructionValidBits()).To(Equal(
				[]bool{true, true, false, false}))
			Expect(b.NextFetchBlock()).To(Equal(uint32(10)))

			for bank := uint32(0); bank < 4; bank++ {
				e := b.Entry(bank, 0)
				Expect(e.Tag()).To(Equal(uint32(0)))
				Expect(e.Target()).To(Equal((bank + 1) * 10))
			}
			Expect(b.Entry(0, 0).Counter()).To(Equal(btb.StronglyTaken))
			Expect(b.Entry(2, 0).Counter()).To(Equal(btb.WeaklyNotTaken))
		})

		It("should leave non-matching entries untouched", func() {
			Expect(b.UpdateBlock(0x10, []bool{false, false, false, false})).
				To(Succeed())

			b.FetchBTBEntry(0)
			Expect(b.InstructionValidBits()).To(Equal(
				[]bool{true, true, true, true}))
		})

		It("should not allocate on update", func() {
			b.UpdateBlock(0x40, []bool{true, true, true, true})

			Expect(b.FetchBTBEntry(0x40)).To(Equal(btb.NotAllocated))
		})

		It("should keep predictor state when a block is registered again", func() {
			b.UpdateBlock(0, []bool{false, false, false, false})
			b.UpdateBlock(0, []bool{false, false, false, false})

			b.RegisterNewBlock(0, []uint32{50, 60, 70, 80})
			b.FetchBTBEntry(0)

			Expect(b.InstructionValidBits()).To(Equal(
				[]bool{false, false, false, false}))
			Expect(b.NextFetchBlock()).To(Equal(uint32(50)))
		})

		It("should count correct and wrong predictions", func() {
			b.UpdateBlock(0, []bool{true, true, false, false})

			stats := b.Stats()
			Expect(stats.Correct).To(Equal(uint64(2)))
			Expect(stats.Mispredictions).To(Equal(uint64(2)))
			Expect(stats.Accuracy()).To(BeNumerically("==", 50))
		})

		It("should reject an outcome slice of the wrong length", func() {
			err := b.UpdateBlock(0, []bool{true})
			Expect(errors.Is(err, btb.ErrLengthMismatch)).To(BeTrue())
		})
	})

	Describe("Tag aliasing", func() {
		It("should overwrite a block that shares the index", func() {
			blockA := uint32(0x00)
			blockB := uint32(0x10)
			Expect(b.CalculateIndex(blockA)).To(Equal(b.CalculateIndex(blockB)))
			Expect(b.CalculateTag(blockA)).NotTo(Equal(b.CalculateTag(blockB)))

			b.RegisterNewBlock(blockA, []uint32{10, 20, 30, 40})
			b.RegisterNewBlock(blockB, []uint32{50, 60, 70, 80})

			Expect(b.FetchBTBEntry(blockA)).To(Equal(btb.NotAllocated))
			Expect(b.InstructionValidBits()).To(Equal(
				[]bool{true, true, true, true}))
			Expect(b.NextFetchBlock()).To(Equal(blockA + 4))

			Expect(b.FetchBTBEntry(blockB)).To(Equal(btb.Allocated))
			Expect(b.NextFetchBlock()).To(Equal(uint32(50)))
		})

		It("should treat addresses in the same fetch block as one entry", func() {
			b.RegisterNewBlock(0x20, []uint32{10, 20, 30, 40})

			Expect(b.FetchBTBEntry(0x23)).To(Equal(btb.Allocated))
			Expect(b.NextFetchBlock()).To(Equal(uint32(10)))
		})
	})

	Describe("Statistics", func() {
		It("should count lookups and hits", func() {
			b.RegisterNewBlock(0, []uint32{10, 20, 30, 40})
			b.FetchBTBEntry(0)
			b.FetchBTBEntry(0x100)

			Expect(b.TotalBranches()).To(Equal(uint64(2)))
			Expect(b.TotalHits()).To(Equal(uint64(1)))

			stats := b.Stats()
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.BankHits).To(Equal(uint64(4)))
			Expect(stats.BankMisses).To(Equal(uint64(4)))
			Expect(stats.Registrations).To(Equal(uint64(1)))
			Expect(stats.HitRate()).To(BeNumerically("==", 50))

			b.ResetStats()
			Expect(b.Stats()).To(Equal(btb.Stats{}))
		})

		It("should report zero rates without activity", func() {
			Expect(b.Stats().HitRate()).To(BeZero())
			Expect(b.Stats().Accuracy()).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("should invalidate every entry and keep the geometry", func() {
			b.RegisterNewBlock(0, []uint32{10, 20, 30, 40})
			b.UpdateBlock(0, []bool{false, false, false, false})

			b.Reset()

			Expect(b.InterleavingFactor()).To(Equal(uint32(4)))
			Expect(b.Entry(0, 0).IsValid()).To(BeFalse())
			Expect(b.Entry(0, 0).Counter()).To(Equal(btb.WeaklyTaken))
			Expect(b.FetchBTBEntry(0)).To(Equal(btb.NotAllocated))
		})
	})

	Describe("Hooks", func() {
		It("should invoke hooks for each operation", func() {
			hook := &recordingHook{}
			b.AcceptHook(hook)

			b.RegisterNewBlock(0, []uint32{10, 20, 30, 40})
			b.FetchBTBEntry(0)
			b.UpdateBlock(0, []bool{true, true, true, true})

			Expect(hook.positions).To(Equal([]*sim.HookPos{
				btb.HookPosRegister,
				btb.HookPosFetch,
				btb.HookPosUpdate,
			}))
		})

		It("should not share the caller's slices with hooks", func() {
			hook := &recordingHook{}
			b.AcceptHook(hook)

			targets := []uint32{10, 20, 30, 40}
			executed := []bool{true, false, true, false}
			b.RegisterNewBlock(0, targets)
			b.UpdateBlock(0, executed)

			targets[0] = 99
			executed[0] = false

			Expect(hook.details[0]).To(Equal([]uint32{10, 20, 30, 40}))
			Expect(hook.details[1]).To(Equal([]bool{true, false, true, false}))
		})
	})
})
