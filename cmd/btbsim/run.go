package main

import (
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/btb"
	"github.com/sarchlab/btbsim/timing/driver"
	"github.com/sarchlab/btbsim/timing/fetch"
)

// LoopWorkload is a loop whose body spans Blocks consecutive fetch blocks.
// The last slot of the last block branches back to the first block; the
// branch falls through on the final iteration.
type LoopWorkload struct {
	Base       uint32
	Blocks     int
	Iterations int
}

// Issue queues the requests of the whole loop on the fetcher. On the first
// iteration every block is looked up, then registered, then trained; later
// iterations only look up and train.
func (w LoopWorkload) Issue(f *fetch.Fetcher, interleaving uint32) {
	for iter := 0; iter < w.Iterations; iter++ {
		lastIter := iter == w.Iterations-1

		for blk := 0; blk < w.Blocks; blk++ {
			addr := w.blockAddr(blk, interleaving)
			lastBlock := blk == w.Blocks-1

			f.Issue(btb.NewFetchMsg(addr))

			if iter == 0 {
				targets := make([]uint32, interleaving)
				if lastBlock {
					targets[interleaving-1] = w.Base
				}
				f.Issue(btb.NewRegisterMsg(addr, targets))
			}

			executed := make([]bool, interleaving)
			for slot := range executed {
				executed[slot] = true
			}
			if lastBlock && lastIter {
				executed[interleaving-1] = false
			}
			f.Issue(btb.NewUpdateMsg(addr, executed))
		}
	}
}

func (w LoopWorkload) blockAddr(blk int, interleaving uint32) uint32 {
	return w.Base + uint32(blk)*interleaving
}

// RunReport summarizes a run.
type RunReport struct {
	Config       btb.Config
	Cycles       uint64
	BTB          btb.Stats
	Fetch        fetch.Stats
	Redirections uint64
}

// Run simulates the workload on a BTB built from config. hook, if not nil,
// is attached to the BTB and its connection buffers.
func Run(
	config *btb.Config,
	workload LoopWorkload,
	maxCycles uint64,
	hook sim.Hook,
) (RunReport, error) {
	b := btb.MakeBuilder().WithConfig(config).Build("BTB")

	connID, err := b.ConnectToComponent(0)
	if err != nil {
		return RunReport{}, err
	}

	if hook != nil {
		b.AcceptHook(hook)
	}

	f := fetch.NewFetcher("Fetcher", b, connID)
	f.SetIssueWidth(config.ConnectionBufferCapacity)

	var redirections uint64
	f.SetResponseHandler(func(rsp btb.Msg) {
		if rsp.Kind == btb.MsgFetchRsp &&
			rsp.NextFetchBlock != rsp.FetchAddress+b.InterleavingFactor() {
			redirections++
		}
	})

	workload.Issue(f, b.InterleavingFactor())

	d := driver.NewDriver(1 * sim.GHz)
	d.Register(f, b)

	if _, err := d.RunUntil(f.Done, maxCycles); err != nil {
		return RunReport{}, fmt.Errorf("workload did not finish: %w", err)
	}

	return RunReport{
		Config:       *config,
		Cycles:       d.Cycles(),
		BTB:          b.Stats(),
		Fetch:        f.Stats(),
		Redirections: redirections,
	}, nil
}

// Print writes the report in a human readable form.
func (r RunReport) Print(w io.Writer) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "BTB: %d banks x %d entries\n",
		1<<r.Config.NumBanksBits, 1<<r.Config.NumEntriesBits)
	fmt.Fprintf(w, "Total Cycles: %d\n", r.Cycles)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Lookups:       %d\n", r.BTB.Lookups)
	fmt.Fprintf(w, "  Hits:        %d (%5.1f%%)\n", r.BTB.Hits, r.BTB.HitRate())
	fmt.Fprintf(w, "  Misses:      %d\n", r.BTB.Misses)
	fmt.Fprintf(w, "  Redirected:  %d\n", r.Redirections)
	fmt.Fprintf(w, "Registrations: %d\n", r.BTB.Registrations)
	fmt.Fprintf(w, "Updates:       %d\n", r.BTB.Updates)
	fmt.Fprintf(w, "  Accuracy:    %5.1f%%\n", r.BTB.Accuracy())
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Fetcher:\n")
	fmt.Fprintf(w, "  Sent:     %d\n", r.Fetch.Sent)
	fmt.Fprintf(w, "  Received: %d\n", r.Fetch.Received)
	fmt.Fprintf(w, "  Stalls:   %d\n", r.Fetch.Stalls)
}
