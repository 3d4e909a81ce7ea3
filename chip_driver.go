// chip_driver.go - Chip driver capability set and dispatch table.

package main

import "fmt"

// PortWriter is the externally supplied register/port actuation primitive.
// Writes are synchronous; a non-nil error means the chip stopped responding
// and is surfaced as ErrChipIO by the calling driver. Each driver instance
// owns an independent logical port namespace — bus arbitration between
// chips sharing a physical bus, if any, lives behind this interface.
type PortWriter interface {
	WritePort(port uint16, value uint8) error
}

// PortWriterFunc adapts a function to the PortWriter interface.
type PortWriterFunc func(port uint16, value uint8) error

func (f PortWriterFunc) WritePort(port uint16, value uint8) error {
	return f(port, value)
}

// discardPorts absorbs writes. Used for declared chips that have no
// hardware or synth behind them, so multi-chip files still pass strict
// load checks and keep exact timing.
var discardPorts = PortWriterFunc(func(uint16, uint8) error { return nil })

// ChipDriver translates decoded register writes into the actuation sequence
// for one chip instance, tracking chip-local quirks (register latches, bank
// selection, settle times). Drivers perform no musical timing: the
// scheduler owns the sample clock.
type ChipDriver interface {
	// WriteRegister performs one addressed write. bank selects the register
	// bank on dual-ported chips; single-port chips ignore reg or bank as
	// documented per driver.
	WriteRegister(bank uint8, reg uint8, value uint8) error
	// LoadDataBlock accepts a bulk payload (PCM samples, patch tables).
	// Untimed; drivers without bulk storage ignore it.
	LoadDataBlock(blockType uint8, payload []byte) error
	// Reset brings the chip to a silent, known state and invalidates any
	// tracked latch/bank state so the next write re-addresses from scratch.
	Reset() error
}

type chipKey struct {
	chip   ChipID
	second bool
}

// ChipTable maps (chip, instance) to its driver. Built once at load from
// the header's nonzero clock fields; immutable during playback.
type ChipTable struct {
	drivers map[chipKey]ChipDriver
}

func NewChipTable() *ChipTable {
	return &ChipTable{drivers: make(map[chipKey]ChipDriver)}
}

// Register installs a driver for one chip instance.
func (t *ChipTable) Register(chip ChipID, second bool, driver ChipDriver) {
	t.drivers[chipKey{chip, second}] = driver
}

// Resolve returns the driver for (chip, instance) or ErrUnsupportedChip.
func (t *ChipTable) Resolve(chip ChipID, second bool) (ChipDriver, error) {
	driver, ok := t.drivers[chipKey{chip, second}]
	if !ok {
		instance := "#1"
		if second {
			instance = "#2"
		}
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedChip, chip, instance)
	}
	return driver, nil
}

// ResetAll resets every registered driver. Called at load and on stop so no
// chip hangs on its last written frame.
func (t *ChipTable) ResetAll() error {
	var firstErr error
	for _, driver := range t.drivers {
		if err := driver.Reset(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size returns the number of registered chip instances.
func (t *ChipTable) Size() int {
	return len(t.drivers)
}
