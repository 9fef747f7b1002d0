// Package driver advances simulated time for a set of clocked units.
// It runs the units on an Akita serial engine, clocking each of them once
// per cycle in the order they were registered.
package driver

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/btbsim/timing/component"
)

// ErrCycleLimit is returned when a run hits its cycle bound before its stop
// condition holds.
var ErrCycleLimit = errors.New("cycle limit reached")

// Stats holds statistics for the driver.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Units is the number of registered units.
	Units int
}

// Driver clocks registered units once per cycle.
type Driver struct {
	engine sim.Engine
	ticker *sim.TickingComponent

	units     []component.Clocked
	cycles    uint64
	remaining uint64
	stop      func() bool
}

// NewDriver creates a driver ticking at freq.
func NewDriver(freq sim.Freq) *Driver {
	d := &Driver{engine: sim.NewSerialEngine()}
	d.ticker = sim.NewTickingComponent("Driver", d.engine, freq, d)

	return d
}

// Register adds a unit. Units are clocked in registration order.
func (d *Driver) Register(units ...component.Clocked) {
	d.units = append(d.units, units...)
}

// Step clocks every unit once.
func (d *Driver) Step() {
	for _, u := range d.units {
		u.Clock()
	}

	d.cycles++
}

// Tick is called by the engine once per cycle while a run is in progress.
func (d *Driver) Tick() bool {
	if d.remaining == 0 {
		return false
	}

	d.Step()
	d.remaining--

	if d.stop != nil && d.stop() {
		d.remaining = 0
	}

	return d.remaining > 0
}

// RunCycles runs n cycles.
func (d *Driver) RunCycles(n uint64) error {
	if n == 0 {
		return nil
	}

	d.remaining = n
	d.stop = nil

	return d.run()
}

// RunUntil runs until done returns true, checking after every cycle, or
// until maxCycles cycles have passed. It returns the number of cycles run.
func (d *Driver) RunUntil(done func() bool, maxCycles uint64) (uint64, error) {
	if done() {
		return 0, nil
	}

	start := d.cycles
	d.remaining = maxCycles
	d.stop = done

	err := d.run()
	d.stop = nil
	ran := d.cycles - start

	if err != nil {
		return ran, err
	}

	if !done() {
		return ran, fmt.Errorf("stopped after %d cycles: %w", ran, ErrCycleLimit)
	}

	return ran, nil
}

func (d *Driver) run() error {
	if d.remaining == 0 {
		return nil
	}

	d.ticker.TickLater()

	if err := d.engine.Run(); err != nil {
		return fmt.Errorf("engine failed at cycle %d: %w", d.cycles, err)
	}

	return nil
}

// Cycles returns the number of cycles simulated so far.
func (d *Driver) Cycles() uint64 {
	return d.cycles
}

// Now returns the current simulated time.
func (d *Driver) Now() sim.VTimeInSec {
	return d.engine.CurrentTime()
}

// Stats returns the driver statistics.
func (d *Driver) Stats() Stats {
	return Stats{
		Cycles: d.cycles,
		Units:  len(d.units),
	}
}
