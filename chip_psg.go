// chip_psg.go - PSG-family chip drivers: SN76489 and AY-3-8910.

package main

import (
	"fmt"
	"time"
)

// SN76489 register banks as seen by the decoder. The chip itself has one
// write port; Game Gear stereo panning lives on a separate latch port.
const (
	SN_BANK_DATA   = 0
	SN_BANK_STEREO = 1
)

// SN76489Driver drives the TI SN76489 / Sega VDP PSG. The latch/data
// protocol is carried inside the written byte, so the driver passes values
// through unmodified. Real silicon needs roughly 32 chip clocks to settle
// after a write; when a clock rate is configured the driver inserts that
// micro-delay itself. It is chip-internal latency, not musical timing, so
// the scheduler's sample accounting never sees it.
type SN76489Driver struct {
	ports      PortWriter
	dataPort   uint16
	stereoPort uint16
	settle     time.Duration
}

func NewSN76489Driver(ports PortWriter, clockHz uint32) *SN76489Driver {
	d := &SN76489Driver{
		ports:      ports,
		dataPort:   0x7F,
		stereoPort: 0x06,
	}
	if clockHz > 0 {
		d.settle = time.Duration(32) * time.Second / time.Duration(clockHz)
	}
	return d
}

func (d *SN76489Driver) WriteRegister(bank uint8, _ uint8, value uint8) error {
	port := d.dataPort
	if bank == SN_BANK_STEREO {
		port = d.stereoPort
	}
	if err := d.ports.WritePort(port, value); err != nil {
		return fmt.Errorf("%w: SN76489 port 0x%02X: %v", ErrChipIO, port, err)
	}
	if d.settle > 0 {
		time.Sleep(d.settle)
	}
	return nil
}

func (d *SN76489Driver) LoadDataBlock(uint8, []byte) error {
	// No bulk storage on the PSG.
	return nil
}

// Reset silences all four channels (attenuation 15) and restores center
// panning on the stereo latch.
func (d *SN76489Driver) Reset() error {
	for _, b := range []uint8{0x9F, 0xBF, 0xDF, 0xFF} {
		if err := d.WriteRegister(SN_BANK_DATA, 0, b); err != nil {
			return err
		}
	}
	return d.WriteRegister(SN_BANK_STEREO, 0, 0xFF)
}

// AY8910Driver drives the AY-3-8910 / YM2149 through its address and data
// port pair. The chip latches the last selected register, so consecutive
// writes to the same register skip the address cycle. Reset drops the
// tracked latch: after a loop seek the next write re-addresses from
// scratch rather than trusting state from the previous pass.
type AY8910Driver struct {
	ports    PortWriter
	addrPort uint16
	dataPort uint16
	lastReg  int
}

func NewAY8910Driver(ports PortWriter) *AY8910Driver {
	return &AY8910Driver{
		ports:    ports,
		addrPort: 0xF4,
		dataPort: 0xF5,
		lastReg:  -1,
	}
}

func (d *AY8910Driver) WriteRegister(_ uint8, reg uint8, value uint8) error {
	if int(reg) != d.lastReg {
		if err := d.ports.WritePort(d.addrPort, reg); err != nil {
			return fmt.Errorf("%w: AY-3-8910 address port: %v", ErrChipIO, err)
		}
		d.lastReg = int(reg)
	}
	if err := d.ports.WritePort(d.dataPort, value); err != nil {
		return fmt.Errorf("%w: AY-3-8910 data port: %v", ErrChipIO, err)
	}
	return nil
}

func (d *AY8910Driver) LoadDataBlock(uint8, []byte) error {
	return nil
}

// Reset zeroes all fourteen registers and disables every mixer input.
func (d *AY8910Driver) Reset() error {
	d.lastReg = -1
	for reg := uint8(0); reg < 14; reg++ {
		value := uint8(0x00)
		if reg == 7 {
			value = 0x3F // mixer: all tone and noise inputs off
		}
		if err := d.WriteRegister(0, reg, value); err != nil {
			return err
		}
	}
	d.lastReg = -1
	return nil
}
