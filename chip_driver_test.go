package main

import (
	"errors"
	"strings"
	"testing"
)

func TestChipTable_ResolveAndSize(t *testing.T) {
	table := NewChipTable()
	first := NewAY8910Driver(&spyPorts{})
	second := NewAY8910Driver(&spyPorts{})
	table.Register(CHIP_AY8910, false, first)
	table.Register(CHIP_AY8910, true, second)

	if table.Size() != 2 {
		t.Errorf("size: got %d, want 2", table.Size())
	}
	got, err := table.Resolve(CHIP_AY8910, false)
	if err != nil || got != ChipDriver(first) {
		t.Errorf("resolve first instance: got %v err=%v", got, err)
	}
	got, err = table.Resolve(CHIP_AY8910, true)
	if err != nil || got != ChipDriver(second) {
		t.Errorf("resolve second instance: got %v err=%v", got, err)
	}
}

func TestChipTable_ResolveUnregistered(t *testing.T) {
	table := NewChipTable()
	table.Register(CHIP_SN76489, false, NewSN76489Driver(&spyPorts{}, 0))

	_, err := table.Resolve(CHIP_YM2612, false)
	if !errors.Is(err, ErrUnsupportedChip) {
		t.Fatalf("expected ErrUnsupportedChip, got %v", err)
	}
	if !strings.Contains(err.Error(), "YM2612") {
		t.Errorf("error should name the chip: %v", err)
	}

	// Instance distinction: only the first is registered.
	_, err = table.Resolve(CHIP_SN76489, true)
	if !errors.Is(err, ErrUnsupportedChip) {
		t.Fatalf("second instance should be unregistered, got %v", err)
	}
	if !strings.Contains(err.Error(), "#2") {
		t.Errorf("error should name the instance: %v", err)
	}
}

func TestChipTable_ResetAll(t *testing.T) {
	snPorts := &spyPorts{}
	ayPorts := &spyPorts{}
	table := NewChipTable()
	table.Register(CHIP_SN76489, false, NewSN76489Driver(snPorts, 0))
	table.Register(CHIP_AY8910, false, NewAY8910Driver(ayPorts))

	if err := table.ResetAll(); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}
	if len(snPorts.records()) == 0 || len(ayPorts.records()) == 0 {
		t.Error("ResetAll must actuate every registered chip")
	}
}
