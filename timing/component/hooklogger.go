package component

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
)

// HookLogger writes every hook invocation it receives into a logger.
type HookLogger struct {
	sim.LogHookBase
}

// NewHookLogger returns a HookLogger that writes into logger.
func NewHookLogger(logger *log.Logger) *HookLogger {
	h := new(HookLogger)
	h.Logger = logger

	return h
}

// Func writes the hook position, the domain and the item.
func (h *HookLogger) Func(ctx sim.HookCtx) {
	domain := "?"
	if named, ok := ctx.Domain.(sim.Named); ok {
		domain = named.Name()
	}

	h.Logger.Printf("%s,%s,%+v\n", domain, ctx.Pos.Name, ctx.Item)
}
