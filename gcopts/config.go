// Package gcopts loads and validates collector configuration. Configurations
// are YAML documents with human-readable sizes:
//
//	heap-base: "0x10000"
//	young-size: 32KB
//	old-size: 128KB
//	tenure-threshold: 2
//	general-keepalive: false
//	trace: event
package gcopts

import (
	"fmt"
	"os"
	"strconv"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"

	"github.com/gengc-org/gengc/heap"
	"github.com/gengc-org/gengc/remset"
)

// Config describes a heap and its collection policy. Sizes are strings so
// configurations can say "64KB" instead of 65536; use YoungBytes, OldBytes
// and HeapBase for the parsed values.
type Config struct {
	HeapBase         string `yaml:"heap-base"`
	YoungSize        string `yaml:"young-size"`
	OldSize          string `yaml:"old-size"`
	TenureThreshold  uint8  `yaml:"tenure-threshold"`
	GeneralKeepAlive bool   `yaml:"general-keepalive"`
	Trace            string `yaml:"trace"`
}

// Default returns a small, valid configuration.
func Default() *Config {
	return &Config{
		HeapBase:        "0x10000",
		YoungSize:       "32KB",
		OldSize:         "128KB",
		TenureThreshold: 2,
		Trace:           "event",
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcopts: reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("gcopts: parsing %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a configuration document. Unknown keys are errors, so typos
// in option names do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the configuration can back a heap and card table.
func (c *Config) Validate() error {
	base, err := c.HeapBaseAddr()
	if err != nil {
		return err
	}
	young, err := c.YoungBytes()
	if err != nil {
		return err
	}
	old, err := c.OldBytes()
	if err != nil {
		return err
	}
	if young%(2*heap.WordBytes) != 0 {
		return fmt.Errorf("gcopts: young-size %s does not split into two word-aligned semispaces", c.YoungSize)
	}
	if old%heap.WordBytes != 0 {
		return fmt.Errorf("gcopts: old-size %s is not a whole number of words", c.OldSize)
	}
	// The old generation starts directly above the young one and must land
	// on a card boundary for the card table to cover it.
	if (uintptr(base)+young)%remset.CardBytes != 0 {
		return fmt.Errorf("gcopts: old generation start %#x is not card aligned", uintptr(base)+young)
	}
	if c.TenureThreshold > heap.MaxAge {
		return fmt.Errorf("gcopts: tenure-threshold %d exceeds the maximum object age %d", c.TenureThreshold, heap.MaxAge)
	}
	if _, err := c.TraceLevelName(); err != nil {
		return err
	}
	return nil
}

// HeapBaseAddr returns the parsed heap base address.
func (c *Config) HeapBaseAddr() (heap.Address, error) {
	v, err := strconv.ParseUint(c.HeapBase, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("gcopts: bad heap-base %q: %w", c.HeapBase, err)
	}
	a := heap.Address(v)
	if a == heap.NullAddress || !a.Aligned() {
		return 0, fmt.Errorf("gcopts: heap-base %q must be word aligned and non-null", c.HeapBase)
	}
	return a, nil
}

// YoungBytes returns the parsed young generation size.
func (c *Config) YoungBytes() (uintptr, error) {
	return parseSize("young-size", c.YoungSize)
}

// OldBytes returns the parsed old generation size.
func (c *Config) OldBytes() (uintptr, error) {
	return parseSize("old-size", c.OldSize)
}

// TraceLevelName returns the trace level string after checking it is one of
// the recognized names.
func (c *Config) TraceLevelName() (string, error) {
	switch c.Trace {
	case "", "off", "event", "debug":
		return c.Trace, nil
	}
	return "", fmt.Errorf("gcopts: unknown trace level %q", c.Trace)
}

// NewHeap builds the heap this configuration describes.
func (c *Config) NewHeap() (*heap.Heap, error) {
	base, err := c.HeapBaseAddr()
	if err != nil {
		return nil, err
	}
	young, err := c.YoungBytes()
	if err != nil {
		return nil, err
	}
	old, err := c.OldBytes()
	if err != nil {
		return nil, err
	}
	return heap.New(base, young, old), nil
}

func parseSize(name, value string) (uintptr, error) {
	if value == "" {
		return 0, fmt.Errorf("gcopts: %s is required", name)
	}
	sz, err := bytesize.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("gcopts: bad %s %q: %w", name, value, err)
	}
	if sz == 0 {
		return 0, fmt.Errorf("gcopts: %s must be positive", name)
	}
	return uintptr(sz), nil
}
