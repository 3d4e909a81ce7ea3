// vgm_test_helpers_test.go - Shared builders and spies for playback tests.

package main

import (
	"encoding/binary"
	"sync"
	"time"
)

// testDataStart is where the command stream begins in built test files
// (v1.50+ relative data offset).
const testDataStart = 0x100

// vgmOpts selects header fields for buildVGM. Zero clocks mean absent
// chips; loopCmd < 0 means no loop, otherwise it is the byte index within
// cmds that the loop re-enters at.
type vgmOpts struct {
	version      uint32
	totalSamples uint32
	loopSamples  uint32
	loopCmd      int
	snClock      uint32
	ayClock      uint32
	ym2413Clock  uint32
	ym2612Clock  uint32
	ym2151Clock  uint32
	ymf262Clock  uint32
}

// buildVGM assembles a complete VGM byte stream from header options and
// raw command bytes.
func buildVGM(opts vgmOpts, cmds []byte) []byte {
	header := make([]byte, testDataStart)
	copy(header[0:4], []byte("Vgm "))
	version := opts.version
	if version == 0 {
		version = 0x171
	}
	binary.LittleEndian.PutUint32(header[0x08:], version)
	binary.LittleEndian.PutUint32(header[0x0C:], opts.snClock)
	binary.LittleEndian.PutUint32(header[0x10:], opts.ym2413Clock)
	binary.LittleEndian.PutUint32(header[0x18:], opts.totalSamples)
	if opts.loopCmd >= 0 {
		binary.LittleEndian.PutUint32(header[0x1C:], uint32(testDataStart+opts.loopCmd)-0x1C)
	}
	binary.LittleEndian.PutUint32(header[0x20:], opts.loopSamples)
	binary.LittleEndian.PutUint32(header[0x2C:], opts.ym2612Clock)
	binary.LittleEndian.PutUint32(header[0x30:], opts.ym2151Clock)
	binary.LittleEndian.PutUint32(header[0x34:], testDataStart-0x34)
	binary.LittleEndian.PutUint32(header[0x5C:], opts.ymf262Clock)
	binary.LittleEndian.PutUint32(header[0x74:], opts.ayClock)
	return append(header, cmds...)
}

func noLoop(totalSamples uint32) vgmOpts {
	return vgmOpts{totalSamples: totalSamples, loopCmd: -1}
}

type portRecord struct {
	port  uint16
	value uint8
	at    time.Time
}

// spyPorts records every actuation with a timestamp.
type spyPorts struct {
	mu     sync.Mutex
	writes []portRecord
}

func (s *spyPorts) WritePort(port uint16, value uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, portRecord{port: port, value: value, at: time.Now()})
	return nil
}

func (s *spyPorts) records() []portRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]portRecord, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *spyPorts) values() []uint8 {
	var out []uint8
	for _, w := range s.records() {
		out = append(out, w.value)
	}
	return out
}
