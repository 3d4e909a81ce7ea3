// vgm_command.go - VGM opcode decoding.
//
// One opcode in, one Instruction out. Decoding is a pure function of the
// bytes at the cursor: no state is carried between calls. Unknown opcodes
// are a decode error, never a silent skip — skipping an opcode of unknown
// length would corrupt every wait that follows it.

package main

import "encoding/binary"

// CommandKind classifies a decoded instruction.
type CommandKind uint8

const (
	CmdChipWrite CommandKind = iota
	CmdWait
	CmdDataBlock
	CmdPCMSeek
	CmdLoopPoint // synthesized by the cursor, never decoded from a byte
	CmdEnd
)

// DataBlock describes a bulk payload embedded in the stream (PCM sample
// data, patch tables). Payload bytes are addressed out of the sequential
// instruction flow via the cursor's block directory.
type DataBlock struct {
	Type   uint8
	Offset uint32 // absolute offset of the payload in the file buffer
	Length uint32
}

// Instruction is one decoded, typed unit of the command stream. Constructed
// per decode and consumed immediately by the scheduler.
type Instruction struct {
	Kind   CommandKind
	Chip   ChipID
	Second bool  // second-instance flag
	Bank   uint8 // register bank / port selector for dual-port chips
	Reg    uint8
	Value  uint8
	Wait   uint32 // samples; also carried by DAC write-and-wait opcodes
	Block  DataBlock
	SeekTo uint32 // PCM data bank position for CmdPCMSeek

	// FromBank marks YM2612 DAC writes whose value comes from the loaded
	// data bank rather than the opcode payload (0x80..0x8F).
	FromBank bool
}

// opClass selects the decode routine for an opcode; opcodeInfo.length is the
// operand byte count after the opcode itself (data blocks add their payload
// on top).
type opClass uint8

const (
	opInvalid opClass = iota
	opEnd
	opWait16      // 0x61 nn nn
	opWaitFixed   // 0x62, 0x63
	opWaitNibble  // 0x70..0x7F
	opDACWait     // 0x80..0x8F
	opPortByte    // single-port chip write: SN76489 data / GG stereo
	opAYWrite     // 0xA0 aa dd, register bit 7 selects the second chip
	opBankedWrite // aa dd writes with chip/bank/instance from the table
	opDataBlock   // 0x67 0x66 tt ll ll ll ll
	opPCMSeek     // 0xE0 oo oo oo oo
)

type opcodeInfo struct {
	class  opClass
	length int // operand bytes
	chip   ChipID
	bank   uint8
	second bool
	wait   uint32 // samples for opWaitFixed
}

// opcodeTable drives the decoder. Near-identical fixed-size opcodes get a
// table row instead of a branch each, so adding a chip is one line.
var opcodeTable = [256]opcodeInfo{
	0x66: {class: opEnd},
	0x61: {class: opWait16, length: 2},
	0x62: {class: opWaitFixed, wait: 735}, // one 60 Hz frame
	0x63: {class: opWaitFixed, wait: 882}, // one 50 Hz frame

	0x50: {class: opPortByte, length: 1, chip: CHIP_SN76489, bank: SN_BANK_DATA},
	0x30: {class: opPortByte, length: 1, chip: CHIP_SN76489, bank: SN_BANK_DATA, second: true},
	0x4F: {class: opPortByte, length: 1, chip: CHIP_SN76489, bank: SN_BANK_STEREO},
	0x3F: {class: opPortByte, length: 1, chip: CHIP_SN76489, bank: SN_BANK_STEREO, second: true},

	0xA0: {class: opAYWrite, length: 2, chip: CHIP_AY8910},

	0x51: {class: opBankedWrite, length: 2, chip: CHIP_YM2413},
	0x52: {class: opBankedWrite, length: 2, chip: CHIP_YM2612, bank: 0},
	0x53: {class: opBankedWrite, length: 2, chip: CHIP_YM2612, bank: 1},
	0x54: {class: opBankedWrite, length: 2, chip: CHIP_YM2151},
	0x5E: {class: opBankedWrite, length: 2, chip: CHIP_YMF262, bank: 0},
	0x5F: {class: opBankedWrite, length: 2, chip: CHIP_YMF262, bank: 1},

	// 0xA1..0xAF mirror 0x51..0x5F for second chip instances.
	0xA1: {class: opBankedWrite, length: 2, chip: CHIP_YM2413, second: true},
	0xA2: {class: opBankedWrite, length: 2, chip: CHIP_YM2612, bank: 0, second: true},
	0xA3: {class: opBankedWrite, length: 2, chip: CHIP_YM2612, bank: 1, second: true},
	0xA4: {class: opBankedWrite, length: 2, chip: CHIP_YM2151, second: true},
	0xAE: {class: opBankedWrite, length: 2, chip: CHIP_YMF262, bank: 0, second: true},
	0xAF: {class: opBankedWrite, length: 2, chip: CHIP_YMF262, bank: 1, second: true},

	0x67: {class: opDataBlock, length: 6},
	0xE0: {class: opPCMSeek, length: 4},
}

func init() {
	for cmd := 0x70; cmd <= 0x7F; cmd++ {
		opcodeTable[cmd] = opcodeInfo{class: opWaitNibble}
	}
	for cmd := 0x80; cmd <= 0x8F; cmd++ {
		opcodeTable[cmd] = opcodeInfo{class: opDACWait}
	}
}

// decodeCommand decodes exactly one instruction at data[off] and returns it
// with the number of bytes consumed. Errors wrap ErrMalformedStream.
func decodeCommand(data []byte, off int) (Instruction, int, error) {
	if off >= len(data) {
		return Instruction{}, 0, streamErr("unterminated command stream at offset 0x%X", off)
	}
	cmd := data[off]
	info := opcodeTable[cmd]
	if info.class == opInvalid {
		return Instruction{}, 0, streamErr("unknown opcode 0x%02X at offset 0x%X", cmd, off)
	}
	if off+1+info.length > len(data) {
		return Instruction{}, 0, streamErr("truncated opcode 0x%02X at offset 0x%X", cmd, off)
	}
	operands := data[off+1 : off+1+info.length]
	consumed := 1 + info.length

	switch info.class {
	case opEnd:
		return Instruction{Kind: CmdEnd}, consumed, nil

	case opWait16:
		return Instruction{Kind: CmdWait, Wait: uint32(binary.LittleEndian.Uint16(operands))}, consumed, nil

	case opWaitFixed:
		return Instruction{Kind: CmdWait, Wait: info.wait}, consumed, nil

	case opWaitNibble:
		// 0x7n waits n+1 samples: a zero-sample wait has no opcode here.
		return Instruction{Kind: CmdWait, Wait: uint32(cmd&0x0F) + 1}, consumed, nil

	case opDACWait:
		// 0x8n: YM2612 DAC write from the data bank, then wait n samples.
		return Instruction{
			Kind:     CmdChipWrite,
			Chip:     CHIP_YM2612,
			Reg:      YM2612_REG_DAC,
			FromBank: true,
			Wait:     uint32(cmd & 0x0F),
		}, consumed, nil

	case opPortByte:
		return Instruction{
			Kind:   CmdChipWrite,
			Chip:   info.chip,
			Second: info.second,
			Bank:   info.bank,
			Value:  operands[0],
		}, consumed, nil

	case opAYWrite:
		// The AY command carries the instance in register bit 7.
		return Instruction{
			Kind:   CmdChipWrite,
			Chip:   CHIP_AY8910,
			Second: operands[0]&0x80 != 0,
			Reg:    operands[0] & 0x7F,
			Value:  operands[1],
		}, consumed, nil

	case opBankedWrite:
		return Instruction{
			Kind:   CmdChipWrite,
			Chip:   info.chip,
			Second: info.second,
			Bank:   info.bank,
			Reg:    operands[0],
			Value:  operands[1],
		}, consumed, nil

	case opDataBlock:
		if operands[0] != 0x66 {
			return Instruction{}, 0, streamErr("data block at offset 0x%X missing 0x66 marker", off)
		}
		length := binary.LittleEndian.Uint32(operands[2:6])
		payloadStart := off + consumed
		if payloadStart+int(length) > len(data) {
			return Instruction{}, 0, streamErr("data block at offset 0x%X truncated (%d payload bytes)", off, length)
		}
		return Instruction{
			Kind: CmdDataBlock,
			Block: DataBlock{
				Type:   operands[1],
				Offset: uint32(payloadStart),
				Length: length,
			},
		}, consumed + int(length), nil

	case opPCMSeek:
		return Instruction{
			Kind:   CmdPCMSeek,
			SeekTo: binary.LittleEndian.Uint32(operands),
		}, consumed, nil
	}

	return Instruction{}, 0, streamErr("unknown opcode 0x%02X at offset 0x%X", cmd, off)
}
