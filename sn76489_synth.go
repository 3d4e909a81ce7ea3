// sn76489_synth.go - Emulated SN76489 used as the built-in actuation target.
//
// Three square-wave tone channels plus one LFSR noise channel, clocked at
// chipClock/16. Implements PortWriter so the SN76489 driver can actuate it
// exactly as it would real hardware: one data port for the latch/data
// protocol, one latch port for Game Gear stereo panning.

package main

import (
	"math"
	"sync"
)

const (
	SN_SYNTH_PORT_DATA   = 0x7F
	SN_SYNTH_PORT_STEREO = 0x06
)

// snVolumeTable maps 4-bit attenuation to linear amplitude; each step is
// roughly -2 dB, level 15 is silence.
var snVolumeTable [16]float32

func init() {
	for i := 0; i < 15; i++ {
		snVolumeTable[i] = float32(math.Pow(10, -2.0*float64(i)/20.0))
	}
}

type SN76489Synth struct {
	mu sync.Mutex

	toneReg [3]uint16
	toneCtr [3]uint16
	toneOut [3]bool

	noiseReg   uint8
	noiseCtr   uint16
	noiseShift uint16
	noiseFlip  bool
	noiseOut   bool

	volume  [4]uint8 // attenuation: 0 = max, 15 = off
	stereo  uint8    // GG panning latch; bit n = channel n right, bit n+4 left
	latchCh uint8
	latchT  uint8 // 0 = tone/noise, 1 = volume

	ticksPerSample float64 // chip ticks (clock/16) per output sample
	tickFrac       float64
	gain           float32
}

func NewSN76489Synth(clockHz uint32, sampleRate int) *SN76489Synth {
	s := &SN76489Synth{
		ticksPerSample: float64(clockHz) / 16.0 / float64(sampleRate),
		gain:           0.25,
		noiseShift:     0x8000,
		stereo:         0xFF,
	}
	for i := range s.volume {
		s.volume[i] = 0x0F
	}
	return s
}

// WritePort implements PortWriter.
func (s *SN76489Synth) WritePort(port uint16, value uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if port == SN_SYNTH_PORT_STEREO {
		s.stereo = value
		return nil
	}
	s.write(value)
	return nil
}

func (s *SN76489Synth) write(value uint8) {
	if value&0x80 != 0 {
		// Latch byte: 1 cc t dddd
		s.latchCh = (value >> 5) & 0x03
		s.latchT = (value >> 4) & 0x01
		data := value & 0x0F
		if s.latchT == 1 {
			s.volume[s.latchCh] = data
		} else if s.latchCh < 3 {
			s.toneReg[s.latchCh] = (s.toneReg[s.latchCh] & 0x3F0) | uint16(data)
		} else {
			s.noiseReg = data & 0x07
			s.noiseShift = 0x8000
		}
		return
	}
	// Data byte: 0 x dddddd
	data := value & 0x3F
	if s.latchT == 1 {
		s.volume[s.latchCh] = data & 0x0F
		return
	}
	if s.latchCh < 3 {
		s.toneReg[s.latchCh] = (s.toneReg[s.latchCh] & 0x0F) | (uint16(data) << 4)
	} else {
		s.noiseReg = data & 0x07
		s.noiseShift = 0x8000
	}
}

// tick advances the chip by one clock/16 step.
func (s *SN76489Synth) tick() {
	for i := 0; i < 3; i++ {
		if s.toneCtr[i] > 0 {
			s.toneCtr[i]--
			continue
		}
		reload := s.toneReg[i]
		if reload == 0 {
			reload = 1
		}
		s.toneCtr[i] = reload
		s.toneOut[i] = !s.toneOut[i]
	}

	if s.noiseCtr > 0 {
		s.noiseCtr--
		return
	}
	switch s.noiseReg & 0x03 {
	case 0:
		s.noiseCtr = 0x10
	case 1:
		s.noiseCtr = 0x20
	case 2:
		s.noiseCtr = 0x40
	case 3:
		if s.toneReg[2] == 0 {
			s.noiseCtr = 1
		} else {
			s.noiseCtr = s.toneReg[2]
		}
	}
	// The LFSR clocks at half the counter rate.
	s.noiseFlip = !s.noiseFlip
	if !s.noiseFlip {
		return
	}
	s.noiseOut = s.noiseShift&1 != 0
	var feedback uint16
	if s.noiseReg&0x04 != 0 {
		// White noise: parity of taps 0 and 3 (Sega variant).
		tapped := s.noiseShift & 0x0009
		tapped ^= tapped >> 8
		tapped ^= tapped >> 4
		tapped ^= tapped >> 2
		tapped ^= tapped >> 1
		feedback = (tapped & 1) << 15
	} else {
		feedback = (s.noiseShift & 1) << 15
	}
	s.noiseShift = (s.noiseShift >> 1) | feedback
}

// RenderFloat32 fills buf with mono samples, advancing the chip clock in
// step with the output rate.
func (s *SN76489Synth) RenderFloat32(buf []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n := range buf {
		s.tickFrac += s.ticksPerSample
		for s.tickFrac >= 1 {
			s.tickFrac--
			s.tick()
		}
		var sample float32
		for i := 0; i < 3; i++ {
			if s.toneOut[i] {
				sample += snVolumeTable[s.volume[i]]
			}
		}
		if s.noiseOut {
			sample += snVolumeTable[s.volume[3]]
		}
		buf[n] = sample * s.gain
	}
}

// SetGain adjusts output level; host-side audio config, not chip state.
func (s *SN76489Synth) SetGain(gain float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
}
