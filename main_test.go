package main

import (
	"testing"

	"github.com/esdalmaijer/MPyDev/pkg/config"
)

func TestComputePollInterval(t *testing.T) {
	// no outputs -> default tick
	if got := computePollInterval(nil); got != 1000 {
		t.Fatalf("empty: got %d want 1000", got)
	}

	entries := []*outputEntry{{IntervalMs: 500}, {IntervalMs: 250}}
	if got := computePollInterval(entries); got != 250 {
		t.Fatalf("smallest interval: got %d want 250", got)
	}

	// sub-10ms intervals are clamped
	entries = []*outputEntry{{IntervalMs: 1}}
	if got := computePollInterval(entries); got != 10 {
		t.Fatalf("clamped interval: got %d want 10", got)
	}
}

func TestInitOutputsSetsInterval(t *testing.T) {
	cfg := config.Config{Outputs: []config.OutputConfig{{Type: "console"}}}
	entries, err := initOutputs(&cfg, 123)
	if err != nil {
		t.Fatalf("initOutputs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries len: %d", len(entries))
	}
	if cfg.Outputs[0].IntervalMs != 123 {
		t.Fatalf("cfg output interval not set, got %d", cfg.Outputs[0].IntervalMs)
	}
	if entries[0].IntervalMs != 123 {
		t.Fatalf("entry interval not set, got %d", entries[0].IntervalMs)
	}
}

func TestInitOutputsUnknownType(t *testing.T) {
	cfg := config.Config{Outputs: []config.OutputConfig{{Type: "udp"}}}
	if _, err := initOutputs(&cfg, 1000); err == nil {
		t.Fatalf("unknown output type accepted")
	}
}
