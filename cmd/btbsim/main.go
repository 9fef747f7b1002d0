// Package main provides the entry point for btbsim.
// btbsim runs a synthetic loop through an interleaved BTB, driven by a
// fetcher over a connection, and reports the predictor statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/btb"
	"github.com/sarchlab/btbsim/timing/component"
)

var (
	configPath = flag.String("config", "", "Path to BTB configuration JSON file")
	blocks     = flag.Int("blocks", 8, "Number of fetch blocks in the loop body")
	iterations = flag.Int("iterations", 100, "Number of loop iterations")
	maxCycles  = flag.Uint64("cycles", 1000000, "Maximum number of cycles to simulate")
	verbose    = flag.Bool("v", false, "Log every buffer and BTB event to stderr")
)

func main() {
	flag.Parse()

	config := btb.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = btb.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading BTB config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid BTB config: %v\n", err)
		os.Exit(1)
	}

	workload := LoopWorkload{
		Base:       0x1000,
		Blocks:     *blocks,
		Iterations: *iterations,
	}

	var hook sim.Hook
	if *verbose {
		hook = component.NewHookLogger(log.New(os.Stderr, "", 0))
	}

	report, err := Run(config, workload, *maxCycles, hook)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		os.Exit(1)
	}

	report.Print(os.Stdout)
}
