package main

import "testing"

func renderEnergy(s *SN76489Synth, samples int) float32 {
	buf := make([]float32, samples)
	s.RenderFloat32(buf)
	var energy float32
	for _, v := range buf {
		if v < 0 {
			v = -v
		}
		energy += v
	}
	return energy
}

func TestSN76489Synth_SilentAfterPowerOn(t *testing.T) {
	s := NewSN76489Synth(3579545, VGM_SAMPLE_RATE)
	if e := renderEnergy(s, 1024); e != 0 {
		t.Errorf("power-on output not silent: energy %f", e)
	}
}

func TestSN76489Synth_ToneAudibleAfterWrites(t *testing.T) {
	s := NewSN76489Synth(3579545, VGM_SAMPLE_RATE)

	// Channel 0: period 0xFE (~440Hz at 3.58MHz), attenuation 0.
	for _, b := range []uint8{0x8E, 0x0F, 0x90} {
		if err := s.WritePort(SN_SYNTH_PORT_DATA, b); err != nil {
			t.Fatalf("WritePort failed: %v", err)
		}
	}
	if e := renderEnergy(s, 4410); e == 0 {
		t.Error("keyed tone produced no output")
	}
}

func TestSN76489Synth_Attenuation15IsSilent(t *testing.T) {
	s := NewSN76489Synth(3579545, VGM_SAMPLE_RATE)
	for _, b := range []uint8{0x8E, 0x0F, 0x90} {
		if err := s.WritePort(SN_SYNTH_PORT_DATA, b); err != nil {
			t.Fatalf("WritePort failed: %v", err)
		}
	}
	if e := renderEnergy(s, 4410); e == 0 {
		t.Fatal("precondition: tone should be audible")
	}

	// Volume latch, channel 0, attenuation 15.
	if err := s.WritePort(SN_SYNTH_PORT_DATA, 0x9F); err != nil {
		t.Fatalf("WritePort failed: %v", err)
	}
	if e := renderEnergy(s, 4410); e != 0 {
		t.Errorf("attenuation 15 not silent: energy %f", e)
	}
}

func TestSN76489Synth_DataByteExtendsPeriod(t *testing.T) {
	s := NewSN76489Synth(3579545, VGM_SAMPLE_RATE)
	// Latch channel 0 tone low nibble, then data byte with the high bits.
	if err := s.WritePort(SN_SYNTH_PORT_DATA, 0x8E); err != nil {
		t.Fatalf("WritePort failed: %v", err)
	}
	if err := s.WritePort(SN_SYNTH_PORT_DATA, 0x3F); err != nil {
		t.Fatalf("WritePort failed: %v", err)
	}
	if s.toneReg[0] != 0x3FE {
		t.Errorf("tone period: got 0x%03X, want 0x3FE", s.toneReg[0])
	}
}

func TestSN76489Synth_NoiseRewriteResetsShifter(t *testing.T) {
	s := NewSN76489Synth(3579545, VGM_SAMPLE_RATE)
	if err := s.WritePort(SN_SYNTH_PORT_DATA, 0xE4); err != nil { // white noise
		t.Fatalf("WritePort failed: %v", err)
	}
	renderEnergy(s, 2048)
	if err := s.WritePort(SN_SYNTH_PORT_DATA, 0xE4); err != nil {
		t.Fatalf("WritePort failed: %v", err)
	}
	if s.noiseShift != 0x8000 {
		t.Errorf("shifter after noise rewrite: got 0x%04X, want 0x8000", s.noiseShift)
	}
}

func TestSN76489Synth_StereoLatch(t *testing.T) {
	s := NewSN76489Synth(3579545, VGM_SAMPLE_RATE)
	if err := s.WritePort(SN_SYNTH_PORT_STEREO, 0x21); err != nil {
		t.Fatalf("WritePort failed: %v", err)
	}
	if s.stereo != 0x21 {
		t.Errorf("stereo latch: got 0x%02X, want 0x21", s.stereo)
	}
}
