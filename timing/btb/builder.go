package btb

import (
	"fmt"
)

// Builder can build BTBs.
type Builder struct {
	config Config
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{config: *DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(config *Config) Builder {
	b.config = *config
	return b
}

// WithNumBanksBits sets log2 of the number of banks.
func (b Builder) WithNumBanksBits(n uint32) Builder {
	b.config.NumBanksBits = n
	return b
}

// WithNumEntriesBits sets log2 of the number of entries per bank.
func (b Builder) WithNumEntriesBits(n uint32) Builder {
	b.config.NumEntriesBits = n
	return b
}

// WithConnectionBufferCapacity sets the size of the connection buffers
// created by ConnectToComponent when no capacity is given.
func (b Builder) WithConnectionBufferCapacity(n int) Builder {
	b.config.ConnectionBufferCapacity = n
	return b
}

// Config returns the configuration the builder will use.
func (b Builder) Config() Config {
	return b.config
}

// Build creates an allocated BTB. It panics if the configuration is invalid.
func (b Builder) Build(name string) *BranchTargetBuffer {
	if err := b.config.Validate(); err != nil {
		panic(fmt.Sprintf("btb %s: %v", name, err))
	}

	btb := NewBranchTargetBuffer(name)
	btb.connectionBufferCapacity = b.config.ConnectionBufferCapacity

	err := btb.Allocate(b.config.NumBanksBits, b.config.NumEntriesBits)
	if err != nil {
		panic(err)
	}

	return btb
}
