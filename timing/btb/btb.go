// Package btb models an interleaved Branch Target Buffer.
//
// The BTB is split into 2^numBanksBits banks. A bank is not an address
// region: it is a lane, one per instruction slot of a fetch block. A single
// (tag, index) pair computed from the fetch address therefore selects one
// entry in every bank, and one lookup yields a target and a taken/not-taken
// guess for every slot of the block. Each bank is direct mapped, and
// registering a block overwrites whatever the selected entries held.
package btb

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/component"
)

// Errors returned by the BTB operations.
var (
	ErrNotAllocated     = errors.New("btb is not allocated")
	ErrAlreadyAllocated = errors.New("btb is already allocated")
	ErrInvalidGeometry  = errors.New("invalid btb geometry")
	ErrLengthMismatch   = errors.New("slice length does not match the interleaving factor")
)

// Hook positions of the BTB operations. The hook item is the fetch address.
var (
	HookPosRegister = &sim.HookPos{Name: "BTB Register"}
	HookPosFetch    = &sim.HookPos{Name: "BTB Fetch"}
	HookPosUpdate   = &sim.HookPos{Name: "BTB Update"}
)

// Status is the result of a lookup.
type Status uint8

// Lookup results. Allocated means every bank held a valid entry for the
// fetch block.
const (
	NotAllocated Status = iota
	Allocated
)

func (s Status) String() string {
	if s == Allocated {
		return "Allocated"
	}

	return "NotAllocated"
}

// Stats holds statistics for the BTB.
type Stats struct {
	// Lookups is the number of FetchBTBEntry calls.
	Lookups uint64
	// Hits is the number of lookups that returned Allocated.
	Hits uint64
	// Misses is the number of lookups that returned NotAllocated.
	Misses uint64
	// BankHits counts banks that held a matching entry during a lookup.
	BankHits uint64
	// BankMisses counts banks that fell back to the sequential default.
	BankMisses uint64
	// Registrations is the number of RegisterNewBlock calls.
	Registrations uint64
	// Updates is the number of UpdateBlock calls.
	Updates uint64
	// Correct counts trained banks whose prediction matched the outcome.
	Correct uint64
	// Mispredictions counts trained banks whose prediction was wrong.
	Mispredictions uint64
}

// HitRate returns the block hit rate as a percentage.
func (s Stats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	total := s.Correct + s.Mispredictions
	if total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(total) * 100
}

// BranchTargetBuffer is the interleaved BTB. It can be driven by direct
// calls or, as a component, by Msg requests over connections.
type BranchTargetBuffer struct {
	*component.Component[Msg]

	allocated      bool
	numBanksBits   uint32
	numEntriesBits uint32
	numBanks       uint32
	entriesPerBank uint32

	// entries holds bank b, index i at b*entriesPerBank+i.
	entries              []Entry
	instructionValidBits []bool
	nextFetchBlock       uint32

	connectionBufferCapacity int

	stats Stats
}

// NewBranchTargetBuffer creates an unallocated BTB. Allocate must be called
// before any lookup.
func NewBranchTargetBuffer(name string) *BranchTargetBuffer {
	return &BranchTargetBuffer{
		Component:                component.NewComponent[Msg](name),
		connectionBufferCapacity: DefaultConfig().ConnectionBufferCapacity,
	}
}

// ConnectToComponent opens a connection for a peer and returns its ID. A
// non-positive bufferCapacity uses the configured capacity.
func (b *BranchTargetBuffer) ConnectToComponent(bufferCapacity int) (int, error) {
	if bufferCapacity <= 0 {
		bufferCapacity = b.connectionBufferCapacity
	}

	return b.Connect(bufferCapacity)
}

// Allocate sets up 2^numBanks banks of 2^numEntries entries each. Both
// arguments are bit widths.
func (b *BranchTargetBuffer) Allocate(numBanks, numEntries uint32) error {
	if b.allocated {
		return fmt.Errorf("%s: %w", b.Name(), ErrAlreadyAllocated)
	}

	if numBanks > MaxBankBits || numEntries > MaxEntryBits {
		return fmt.Errorf("%s: %w: %d bank bits, %d entry bits",
			b.Name(), ErrInvalidGeometry, numBanks, numEntries)
	}

	b.numBanksBits = numBanks
	b.numEntriesBits = numEntries
	b.numBanks = 1 << numBanks
	b.entriesPerBank = 1 << numEntries
	b.entries = make([]Entry, b.numBanks*b.entriesPerBank)
	b.instructionValidBits = make([]bool, b.numBanks)
	b.nextFetchBlock = 0
	b.stats = Stats{}

	for i := range b.entries {
		b.entries[i].Allocate()
	}

	b.allocated = true

	return nil
}

// IsAllocated returns true once Allocate has succeeded.
func (b *BranchTargetBuffer) IsAllocated() bool {
	return b.allocated
}

// NumBanksBits returns log2 of the number of banks.
func (b *BranchTargetBuffer) NumBanksBits() uint32 {
	return b.numBanksBits
}

// NumEntriesBits returns log2 of the number of entries per bank.
func (b *BranchTargetBuffer) NumEntriesBits() uint32 {
	return b.numEntriesBits
}

// InterleavingFactor returns the number of banks, which is also the number
// of instruction slots predicted per fetch.
func (b *BranchTargetBuffer) InterleavingFactor() uint32 {
	return b.numBanks
}

// EntriesPerBank returns the number of entries in each bank.
func (b *BranchTargetBuffer) EntriesPerBank() uint32 {
	return b.entriesPerBank
}

// CalculateTag drops the bits that select the slot within the fetch block.
func (b *BranchTargetBuffer) CalculateTag(addr uint32) uint32 {
	return addr >> b.numBanksBits
}

// CalculateIndex selects the entry within each bank.
func (b *BranchTargetBuffer) CalculateIndex(addr uint32) uint32 {
	return (addr >> b.numBanksBits) & (b.entriesPerBank - 1)
}

// Entry returns a copy of the entry at the given bank and index. Changing the
// copy does not change the BTB.
func (b *BranchTargetBuffer) Entry(bank, index uint32) Entry {
	return *b.entry(bank, index)
}

func (b *BranchTargetBuffer) entry(bank, index uint32) *Entry {
	return &b.entries[bank*b.entriesPerBank+index]
}

// RegisterNewBlock stores one target per bank for the fetch block at
// fetchAddress. The predictors of the overwritten entries keep their state.
func (b *BranchTargetBuffer) RegisterNewBlock(
	fetchAddress uint32,
	targets []uint32,
) error {
	if !b.allocated {
		return fmt.Errorf("%s register 0x%x: %w",
			b.Name(), fetchAddress, ErrNotAllocated)
	}

	if uint32(len(targets)) != b.numBanks {
		return fmt.Errorf("%s register 0x%x: %w: got %d targets, want %d",
			b.Name(), fetchAddress, ErrLengthMismatch, len(targets), b.numBanks)
	}

	tag := b.CalculateTag(fetchAddress)
	index := b.CalculateIndex(fetchAddress)

	for bank := uint32(0); bank < b.numBanks; bank++ {
		b.entry(bank, index).SetEntry(tag, targets[bank])
	}

	b.stats.Registrations++

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosRegister,
		Item:   fetchAddress,
		Detail: append([]uint32(nil), targets...),
	})

	return nil
}

// FetchBTBEntry looks up the fetch block at fetchAddress and recomputes the
// instruction valid bits and the next fetch block.
//
// A bank with a matching entry reports its prediction as its valid bit and
// offers its target as the next block; the lowest such bank with a nonzero
// target wins. A bank without a match assumes sequential execution and
// reports true. When no target is found, the next block is the sequential
// one, fetchAddress plus the interleaving factor.
func (b *BranchTargetBuffer) FetchBTBEntry(fetchAddress uint32) Status {
	if !b.allocated {
		return NotAllocated
	}

	tag := b.CalculateTag(fetchAddress)
	index := b.CalculateIndex(fetchAddress)

	status := Allocated
	nextBlock := fetchAddress + b.numBanks
	targetFound := false

	for bank := uint32(0); bank < b.numBanks; bank++ {
		e := b.entry(bank, index)

		if !e.Matches(tag) {
			b.instructionValidBits[bank] = true
			status = NotAllocated
			b.stats.BankMisses++

			continue
		}

		b.stats.BankHits++
		b.instructionValidBits[bank] = e.Prediction()

		if !targetFound && e.Target() != 0 {
			nextBlock = e.Target()
			targetFound = true
		}
	}

	b.nextFetchBlock = nextBlock

	b.stats.Lookups++
	if status == Allocated {
		b.stats.Hits++
	} else {
		b.stats.Misses++
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosFetch,
		Item:   fetchAddress,
		Detail: status,
	})

	return status
}

// UpdateBlock trains the predictor of every bank that holds a matching entry
// with the corresponding outcome. Banks without a match are left alone.
func (b *BranchTargetBuffer) UpdateBlock(
	fetchAddress uint32,
	executed []bool,
) error {
	if !b.allocated {
		return fmt.Errorf("%s update 0x%x: %w",
			b.Name(), fetchAddress, ErrNotAllocated)
	}

	if uint32(len(executed)) != b.numBanks {
		return fmt.Errorf("%s update 0x%x: %w: got %d outcomes, want %d",
			b.Name(), fetchAddress, ErrLengthMismatch, len(executed), b.numBanks)
	}

	tag := b.CalculateTag(fetchAddress)
	index := b.CalculateIndex(fetchAddress)

	for bank := uint32(0); bank < b.numBanks; bank++ {
		e := b.entry(bank, index)
		if !e.Matches(tag) {
			continue
		}

		if e.Prediction() == executed[bank] {
			b.stats.Correct++
		} else {
			b.stats.Mispredictions++
		}

		e.UpdatePrediction(executed[bank])
	}

	b.stats.Updates++

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosUpdate,
		Item:   fetchAddress,
		Detail: append([]bool(nil), executed...),
	})

	return nil
}

// NextFetchBlock returns the block predicted by the last lookup.
func (b *BranchTargetBuffer) NextFetchBlock() uint32 {
	return b.nextFetchBlock
}

// InstructionValidBits returns a copy of the valid bits computed by the last
// lookup, one per bank.
func (b *BranchTargetBuffer) InstructionValidBits() []bool {
	bits := make([]bool, len(b.instructionValidBits))
	copy(bits, b.instructionValidBits)

	return bits
}

// TotalBranches returns the number of lookups performed.
func (b *BranchTargetBuffer) TotalBranches() uint64 {
	return b.stats.Lookups
}

// TotalHits returns the number of lookups that found the whole block.
func (b *BranchTargetBuffer) TotalHits() uint64 {
	return b.stats.Hits
}

// Stats returns the BTB statistics.
func (b *BranchTargetBuffer) Stats() Stats {
	return b.stats
}

// ResetStats clears the statistics.
func (b *BranchTargetBuffer) ResetStats() {
	b.stats = Stats{}
}

// Reset invalidates every entry, resets every predictor and clears the
// lookup results and statistics. The geometry is kept.
func (b *BranchTargetBuffer) Reset() {
	for i := range b.entries {
		b.entries[i].Allocate()
	}

	for i := range b.instructionValidBits {
		b.instructionValidBits[i] = false
	}

	b.nextFetchBlock = 0
	b.stats = Stats{}
}
