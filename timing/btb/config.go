package btb

import (
	"encoding/json"
	"fmt"
	"os"
)

// Geometry limits.
const (
	// MaxBankBits bounds the interleaving factor to 16 banks.
	MaxBankBits = 4
	// MaxEntryBits bounds a bank to 1M entries.
	MaxEntryBits = 20
)

// Config holds the geometry of a BTB and the size of its connection buffers.
type Config struct {
	// NumBanksBits is log2 of the number of banks (the interleaving factor).
	// Default: 2 (4 banks).
	NumBanksBits uint32 `json:"num_banks_bits"`

	// NumEntriesBits is log2 of the number of entries in each bank.
	// Default: 8 (256 entries).
	NumEntriesBits uint32 `json:"num_entries_bits"`

	// ConnectionBufferCapacity is the number of messages each request and
	// response buffer of a connection can hold. Default: 8.
	ConnectionBufferCapacity int `json:"connection_buffer_capacity"`
}

// DefaultConfig returns a 4-bank, 256-entry configuration.
func DefaultConfig() *Config {
	return &Config{
		NumBanksBits:             2,
		NumEntriesBits:           8,
		ConnectionBufferCapacity: 8,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read btb config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse btb config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize btb config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write btb config file: %w", err)
	}

	return nil
}

// Validate checks that the geometry is within limits.
func (c *Config) Validate() error {
	if c.NumBanksBits > MaxBankBits {
		return fmt.Errorf("num_banks_bits must be <= %d", MaxBankBits)
	}
	if c.NumEntriesBits > MaxEntryBits {
		return fmt.Errorf("num_entries_bits must be <= %d", MaxEntryBits)
	}
	if c.ConnectionBufferCapacity <= 0 {
		return fmt.Errorf("connection_buffer_capacity must be > 0")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
