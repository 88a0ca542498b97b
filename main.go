// Command gengc runs a synthetic mutator workload against the generational
// collector and traces its minor collections. It exists to exercise the
// library end to end: allocation, mutator write barriers, weak-reference
// discovery and keep-alive processing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gengc-org/gengc/gcopts"
	"github.com/gengc-org/gengc/heap"
	"github.com/gengc-org/gengc/remset"
	"github.com/gengc-org/gengc/scavenge"
	"github.com/gengc-org/gengc/trace"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gengc [flags]")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "collector configuration file (YAML)")
	collections := flag.Int("collections", 3, "number of minor collections to run")
	objects := flag.Int("objects", 64, "young objects allocated between collections")
	flag.Usage = usage
	flag.Parse()

	if err := run(*configPath, *collections, *objects); err != nil {
		fmt.Fprintln(os.Stderr, "gengc:", err)
		os.Exit(1)
	}
}

func run(configPath string, collections, objects int) error {
	cfg := gcopts.Default()
	if configPath != "" {
		var err error
		cfg, err = gcopts.Load(configPath)
		if err != nil {
			return err
		}
	}

	h, err := cfg.NewHeap()
	if err != nil {
		return err
	}
	ct := remset.New(h.Old().Extent, h.Young().Extent)

	levelName, err := cfg.TraceLevelName()
	if err != nil {
		return err
	}
	level, err := trace.ParseLevel(levelName)
	if err != nil {
		return err
	}
	log := trace.Console(level)

	opts := scavenge.Options{
		TenureThreshold:  cfg.TenureThreshold,
		GeneralKeepAlive: cfg.GeneralKeepAlive,
		Log:              log,
	}

	// One root slot, one old object holding a young reference through the
	// mutator barrier, and one old slot holding a weak young reference
	// outside the barrier.
	rootObj := h.NewOld(heap.NullAddress)
	weakObj := h.NewOld(heap.NullAddress)
	if rootObj == heap.NullAddress || weakObj == heap.NullAddress {
		return fmt.Errorf("old generation too small for the workload")
	}
	rootSlot := h.FieldSlot(rootObj, 0)
	weakSlot := h.FieldSlot(weakObj, 0)

	for n := 0; n < collections; n++ {
		if err := mutate(h, ct, rootSlot, weakSlot, objects); err != nil {
			return err
		}

		weak := &scavenge.RefQueue{}
		weak.Discover(h.Mem, weakSlot)
		scavenge.Collect(h, ct, []heap.Address{rootSlot}, weak, opts)

		log.Debugf("heap after collection %d: young %d B used, old %d B used",
			n+1, h.YoungUsed(), h.OldUsed())
	}
	return nil
}

// mutate allocates a chain of young objects, anchors its head in the root
// slot through the mutator barrier, and points the weak slot at an object in
// the middle of the chain with a plain store.
func mutate(h *heap.Heap, ct *remset.CardTable, rootSlot, weakSlot heap.Address, objects int) error {
	head := heap.NullAddress
	for i := 0; i < objects; i++ {
		obj := h.NewYoung(head)
		if obj == heap.NullAddress {
			return fmt.Errorf("young generation too small for %d objects per cycle", objects)
		}
		head = obj
		if i == objects/2 {
			// Weak stores bypass the barrier; keep-alive processing is what
			// keeps this slot's card correct.
			h.Mem.Store(weakSlot, obj)
		}
	}
	ct.WriteRefField(h.Mem, rootSlot, head)
	return nil
}
