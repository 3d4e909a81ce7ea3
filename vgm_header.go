// vgm_header.go - Fixed-offset VGM header parsing.
//
// Layout quirks honored here:
//   - Data offset field (0x34) exists from v1.50; older files start at 0x40.
//   - Loop offset (0x1C) is relative to its own field; 0 and 0xFFFFFFFF both
//     mean "no loop".
//   - In v1.00/1.01 the YM2413 clock field doubled for YM2612 and YM2151.
//   - Bit 30 of a clock field marks a second instance of that chip; bit 31
//     carries variant flags (T6W28, YM2610B). Both are stripped from the
//     reported clock rate.

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const VGM_SAMPLE_RATE = 44100

const (
	VGM_CLOCK_DUAL = 0x40000000
	VGM_CLOCK_ALT  = 0x80000000
)

// ChipID identifies a sound chip family addressed by the command stream.
type ChipID uint8

const (
	CHIP_SN76489 ChipID = iota
	CHIP_AY8910
	CHIP_YM2413
	CHIP_YM2612
	CHIP_YM2151
	CHIP_YMF262
	CHIP_COUNT
)

func (c ChipID) String() string {
	switch c {
	case CHIP_SN76489:
		return "SN76489"
	case CHIP_AY8910:
		return "AY-3-8910"
	case CHIP_YM2413:
		return "YM2413"
	case CHIP_YM2612:
		return "YM2612"
	case CHIP_YM2151:
		return "YM2151"
	case CHIP_YMF262:
		return "YMF262"
	default:
		return fmt.Sprintf("chip(%d)", uint8(c))
	}
}

// VGMHeader is the decoded fixed-offset metadata block. Immutable after
// parseVGMHeader; playback only reads it.
type VGMHeader struct {
	Version      uint32
	TotalSamples uint64
	LoopSamples  uint64
	Rate         uint32

	// Absolute byte offsets into the file buffer.
	DataStart  uint32
	LoopOffset uint32 // 0 = no loop

	Clocks [CHIP_COUNT]uint32 // 0 = chip absent
	Dual   [CHIP_COUNT]bool   // second instance present
}

// HasLoop reports whether the header declares a loop point.
func (h *VGMHeader) HasLoop() bool {
	return h.LoopOffset != 0
}

// ChipPresent reports whether the given chip instance is declared by the
// header clock fields.
func (h *VGMHeader) ChipPresent(chip ChipID, second bool) bool {
	if chip >= CHIP_COUNT || h.Clocks[chip] == 0 {
		return false
	}
	if second {
		return h.Dual[chip]
	}
	return true
}

var vgmIdent = []byte("Vgm ")

// clockField reads a 32-bit header field, tolerating headers shorter than
// the newest layout. Fields beyond the file are absent chips, not errors.
func clockField(data []byte, offset int) uint32 {
	if len(data) < offset+4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4])
}

func parseVGMHeader(data []byte) (*VGMHeader, error) {
	if len(data) < 0x40 {
		return nil, fmt.Errorf("%w: file shorter than minimum header", ErrMalformedStream)
	}
	if !bytes.Equal(data[0:4], vgmIdent) {
		return nil, fmt.Errorf("%w: bad ident %q", ErrMalformedStream, data[0:4])
	}

	h := &VGMHeader{
		Version:      binary.LittleEndian.Uint32(data[0x08:0x0C]),
		TotalSamples: uint64(binary.LittleEndian.Uint32(data[0x18:0x1C])),
		LoopSamples:  uint64(binary.LittleEndian.Uint32(data[0x20:0x24])),
		Rate:         clockField(data, 0x24),
	}

	// Data stream start: relative field from v1.50, fixed 0x40 before.
	h.DataStart = 0x40
	if h.Version >= 0x150 {
		if rel := binary.LittleEndian.Uint32(data[0x34:0x38]); rel != 0 {
			h.DataStart = 0x34 + rel
		}
	}
	if h.DataStart >= uint32(len(data)) {
		return nil, fmt.Errorf("%w: data offset 0x%X beyond end of file", ErrMalformedStream, h.DataStart)
	}

	// Loop offset is relative to its own field at 0x1C.
	rawLoop := binary.LittleEndian.Uint32(data[0x1C:0x20])
	if rawLoop != 0 && rawLoop != 0xFFFFFFFF {
		h.LoopOffset = 0x1C + rawLoop
		if h.LoopOffset >= uint32(len(data)) {
			return nil, fmt.Errorf("%w: loop offset 0x%X beyond end of file", ErrMalformedStream, h.LoopOffset)
		}
		if h.LoopOffset < h.DataStart {
			return nil, fmt.Errorf("%w: loop offset 0x%X before data start 0x%X", ErrMalformedStream, h.LoopOffset, h.DataStart)
		}
	}

	raw := [CHIP_COUNT]uint32{
		CHIP_SN76489: clockField(data, 0x0C),
		CHIP_AY8910:  clockField(data, 0x74),
		CHIP_YM2413:  clockField(data, 0x10),
		CHIP_YM2612:  clockField(data, 0x2C),
		CHIP_YM2151:  clockField(data, 0x30),
		CHIP_YMF262:  clockField(data, 0x5C),
	}
	if h.Version < 0x110 {
		// v1.00/1.01 stored the YM2612/YM2151 clock in the YM2413 slot.
		raw[CHIP_YM2612] = raw[CHIP_YM2413]
		raw[CHIP_YM2151] = raw[CHIP_YM2413]
	}
	if h.Version < 0x151 {
		raw[CHIP_AY8910] = 0
		raw[CHIP_YMF262] = 0
	}
	for chip, clock := range raw {
		h.Clocks[chip] = clock &^ (VGM_CLOCK_DUAL | VGM_CLOCK_ALT)
		h.Dual[chip] = clock&VGM_CLOCK_DUAL != 0 && h.Clocks[chip] != 0
	}

	return h, nil
}
