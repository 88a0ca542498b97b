package gcopts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gengc-org/gengc/heap"
)

func TestParseEmptyUsesDefaults(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty) failed: %v", err)
	}
	d := Default()
	if *c != *d {
		t.Errorf("Parse(empty) = %+v, want defaults %+v", c, d)
	}
}

func TestParseFullDocument(t *testing.T) {
	doc := []byte(`
heap-base: "0x20000"
young-size: 16KB
old-size: 64KB
tenure-threshold: 4
general-keepalive: true
trace: debug
`)
	c, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	base, err := c.HeapBaseAddr()
	if err != nil || base != 0x20000 {
		t.Errorf("HeapBaseAddr = %#x, %v; want 0x20000", base, err)
	}
	young, err := c.YoungBytes()
	if err != nil || young != 16*1024 {
		t.Errorf("YoungBytes = %d, %v; want 16384", young, err)
	}
	old, err := c.OldBytes()
	if err != nil || old != 64*1024 {
		t.Errorf("OldBytes = %d, %v; want 65536", old, err)
	}
	if c.TenureThreshold != 4 || !c.GeneralKeepAlive || c.Trace != "debug" {
		t.Errorf("policy fields = %+v, want tenure 4, general keep-alive, debug trace", c)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("tenure-treshold: 4\n")); err == nil {
		t.Error("misspelled option accepted silently")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"null base", func(c *Config) { c.HeapBase = "0x0" }},
		{"misaligned base", func(c *Config) { c.HeapBase = "0x10004" }},
		{"unparsable base", func(c *Config) { c.HeapBase = "lots" }},
		{"odd young size", func(c *Config) { c.YoungSize = "12B" }},
		{"empty young size", func(c *Config) { c.YoungSize = "" }},
		{"zero old size", func(c *Config) { c.OldSize = "0B" }},
		{"unparsable old size", func(c *Config) { c.OldSize = "many" }},
		{"old start off a card", func(c *Config) { c.YoungSize = "1040B" }},
		{"tenure too large", func(c *Config) { c.TenureThreshold = heap.MaxAge + 1 }},
		{"unknown trace level", func(c *Config) { c.Trace = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Errorf("Validate accepted %+v", c)
			}
		})
	}
}

func TestNewHeap(t *testing.T) {
	c := Default()
	h, err := c.NewHeap()
	if err != nil {
		t.Fatalf("NewHeap failed: %v", err)
	}
	if got := h.Young().Extent.Start; got != 0x10000 {
		t.Errorf("young generation starts at %#x, want 0x10000", got)
	}
	if got := h.Young().Extent.Size(); got != 32*1024 {
		t.Errorf("young generation size = %d, want 32768", got)
	}
	if got := h.Old().Extent.Size(); got != 128*1024 {
		t.Errorf("old generation size = %d, want 131072", got)
	}
	if h.Old().Extent.Start != h.YoungBoundary() {
		t.Error("old generation does not start at the young boundary")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gc.yaml")
	if err := os.WriteFile(path, []byte("young-size: 16KB\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.YoungSize != "16KB" {
		t.Errorf("YoungSize = %q, want 16KB", c.YoungSize)
	}
	if c.OldSize != Default().OldSize {
		t.Error("unset options should keep their defaults")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
