// chip_fm.go - FM-synthesis chip drivers: YM2612, YM2413 and YMF262 (OPL3).

package main

import "fmt"

const (
	YM2612_REG_DAC    = 0x2A
	YM2612_REG_DACEN  = 0x2B
	YM2612_REG_KEYON  = 0x28
	DATA_BLOCK_YM2612 = 0x00 // uncompressed YM2612 PCM stream
)

// YM2612Driver drives the YM2612/YM3438 through its two register banks,
// each an address/data port pair. The chip latches the addressed register
// per bank; the driver skips the address cycle only when both the bank and
// the register match the previous write, and Reset invalidates the latch so
// loop re-entry always re-addresses.
//
// The driver also owns the PCM data bank: data block type 0 payloads are
// appended to it, 0xE0 seeks reposition the read pointer, and bank-sourced
// DAC writes (opcodes 0x80..0x8F) consume one byte per write.
type YM2612Driver struct {
	ports    PortWriter
	addrPort [2]uint16
	dataPort [2]uint16
	lastBank int
	lastReg  int

	pcm    []byte
	pcmPos int
}

func NewYM2612Driver(ports PortWriter) *YM2612Driver {
	return &YM2612Driver{
		ports:    ports,
		addrPort: [2]uint16{0xA0, 0xA2},
		dataPort: [2]uint16{0xA1, 0xA3},
		lastBank: -1,
		lastReg:  -1,
	}
}

func (d *YM2612Driver) WriteRegister(bank uint8, reg uint8, value uint8) error {
	if bank > 1 {
		return fmt.Errorf("%w: YM2612 has no bank %d", ErrChipIO, bank)
	}
	if int(bank) != d.lastBank || int(reg) != d.lastReg {
		if err := d.ports.WritePort(d.addrPort[bank], reg); err != nil {
			return fmt.Errorf("%w: YM2612 address port bank %d: %v", ErrChipIO, bank, err)
		}
		d.lastBank = int(bank)
		d.lastReg = int(reg)
	}
	if err := d.ports.WritePort(d.dataPort[bank], value); err != nil {
		return fmt.Errorf("%w: YM2612 data port bank %d: %v", ErrChipIO, bank, err)
	}
	return nil
}

func (d *YM2612Driver) LoadDataBlock(blockType uint8, payload []byte) error {
	if blockType != DATA_BLOCK_YM2612 {
		return nil
	}
	d.pcm = append(d.pcm, payload...)
	return nil
}

// WriteDACFromBank writes the next PCM bank byte to the DAC register.
// Reads past the bank end are no-ops: sloppy rips do this and the stream's
// timing must not be disturbed by it.
func (d *YM2612Driver) WriteDACFromBank() error {
	if d.pcmPos >= len(d.pcm) {
		return nil
	}
	value := d.pcm[d.pcmPos]
	d.pcmPos++
	return d.WriteRegister(0, YM2612_REG_DAC, value)
}

// SeekPCM repositions the data bank read pointer.
func (d *YM2612Driver) SeekPCM(offset uint32) {
	d.pcmPos = int(offset)
}

// Reset keys off all six channels, disables the DAC and LFO, and drops the
// address latch. The PCM bank survives reset; the read pointer rewinds.
func (d *YM2612Driver) Reset() error {
	d.lastBank = -1
	d.lastReg = -1
	d.pcmPos = 0
	for _, ch := range []uint8{0, 1, 2, 4, 5, 6} {
		if err := d.WriteRegister(0, YM2612_REG_KEYON, ch); err != nil {
			return err
		}
	}
	if err := d.WriteRegister(0, YM2612_REG_DACEN, 0x00); err != nil {
		return err
	}
	if err := d.WriteRegister(0, 0x22, 0x00); err != nil { // LFO off
		return err
	}
	d.lastBank = -1
	d.lastReg = -1
	return nil
}

// YM2413Driver drives the OPLL through a single address/data port pair.
type YM2413Driver struct {
	ports    PortWriter
	addrPort uint16
	dataPort uint16
	lastReg  int
}

func NewYM2413Driver(ports PortWriter) *YM2413Driver {
	return &YM2413Driver{
		ports:    ports,
		addrPort: 0xF0,
		dataPort: 0xF1,
		lastReg:  -1,
	}
}

func (d *YM2413Driver) WriteRegister(_ uint8, reg uint8, value uint8) error {
	if int(reg) != d.lastReg {
		if err := d.ports.WritePort(d.addrPort, reg); err != nil {
			return fmt.Errorf("%w: YM2413 address port: %v", ErrChipIO, err)
		}
		d.lastReg = int(reg)
	}
	if err := d.ports.WritePort(d.dataPort, value); err != nil {
		return fmt.Errorf("%w: YM2413 data port: %v", ErrChipIO, err)
	}
	return nil
}

func (d *YM2413Driver) LoadDataBlock(uint8, []byte) error {
	return nil
}

// Reset sets maximum attenuation on all nine channels and keys them off.
func (d *YM2413Driver) Reset() error {
	d.lastReg = -1
	for ch := uint8(0); ch < 9; ch++ {
		if err := d.WriteRegister(0, 0x20+ch, 0x00); err != nil { // key off
			return err
		}
		if err := d.WriteRegister(0, 0x30+ch, 0x0F); err != nil { // volume off
			return err
		}
	}
	d.lastReg = -1
	return nil
}

// YM2151Driver drives the OPM through a single address/data port pair.
type YM2151Driver struct {
	ports    PortWriter
	addrPort uint16
	dataPort uint16
	lastReg  int
}

func NewYM2151Driver(ports PortWriter) *YM2151Driver {
	return &YM2151Driver{
		ports:    ports,
		addrPort: 0xE0,
		dataPort: 0xE1,
		lastReg:  -1,
	}
}

func (d *YM2151Driver) WriteRegister(_ uint8, reg uint8, value uint8) error {
	if int(reg) != d.lastReg {
		if err := d.ports.WritePort(d.addrPort, reg); err != nil {
			return fmt.Errorf("%w: YM2151 address port: %v", ErrChipIO, err)
		}
		d.lastReg = int(reg)
	}
	if err := d.ports.WritePort(d.dataPort, value); err != nil {
		return fmt.Errorf("%w: YM2151 data port: %v", ErrChipIO, err)
	}
	return nil
}

func (d *YM2151Driver) LoadDataBlock(uint8, []byte) error {
	return nil
}

// Reset keys off all eight channels via the key-on register.
func (d *YM2151Driver) Reset() error {
	d.lastReg = -1
	for ch := uint8(0); ch < 8; ch++ {
		if err := d.WriteRegister(0, 0x08, ch); err != nil {
			return err
		}
	}
	d.lastReg = -1
	return nil
}

// YMF262Driver drives the OPL3 through its two address banks sharing one
// data port. Bank selection is an actuation (a write to the matching
// address port), so the driver re-issues it whenever the target bank
// differs from the tracked one and forgets it on Reset.
type YMF262Driver struct {
	ports    PortWriter
	addrPort [2]uint16
	dataPort uint16
	lastBank int
	lastReg  int
}

func NewYMF262Driver(ports PortWriter) *YMF262Driver {
	return &YMF262Driver{
		ports:    ports,
		addrPort: [2]uint16{0x388, 0x38A},
		dataPort: 0x389,
		lastBank: -1,
		lastReg:  -1,
	}
}

func (d *YMF262Driver) WriteRegister(bank uint8, reg uint8, value uint8) error {
	if bank > 1 {
		return fmt.Errorf("%w: YMF262 has no bank %d", ErrChipIO, bank)
	}
	if int(bank) != d.lastBank || int(reg) != d.lastReg {
		if err := d.ports.WritePort(d.addrPort[bank], reg); err != nil {
			return fmt.Errorf("%w: YMF262 address port bank %d: %v", ErrChipIO, bank, err)
		}
		d.lastBank = int(bank)
		d.lastReg = int(reg)
	}
	if err := d.ports.WritePort(d.dataPort, value); err != nil {
		return fmt.Errorf("%w: YMF262 data port: %v", ErrChipIO, err)
	}
	return nil
}

func (d *YMF262Driver) LoadDataBlock(uint8, []byte) error {
	return nil
}

// Reset keys off channels 0-8 in both banks and drops the address latch.
func (d *YMF262Driver) Reset() error {
	d.lastBank = -1
	d.lastReg = -1
	for bank := uint8(0); bank < 2; bank++ {
		for ch := uint8(0); ch < 9; ch++ {
			if err := d.WriteRegister(bank, 0xB0+ch, 0x00); err != nil {
				return err
			}
		}
	}
	d.lastBank = -1
	d.lastReg = -1
	return nil
}
