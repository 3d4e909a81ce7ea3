//go:build !headless

// audio_backend_oto.go - OTO v3 audio output for the built-in synth.

package main

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// AudioSink pulls samples from the synth and feeds the platform audio
// device. The oto player drives Read from its own goroutine; the synth
// serializes against driver writes internally.
type AudioSink struct {
	ctx     *oto.Context
	player  *oto.Player
	synth   *SN76489Synth
	buf     []float32
	mutex   sync.Mutex
	started bool
}

func NewAudioSink(synth *SN76489Synth, sampleRate int) (*AudioSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	sink := &AudioSink{
		ctx:   ctx,
		synth: synth,
		buf:   make([]float32, 4096),
	}
	sink.player = ctx.NewPlayer(sink)
	return sink, nil
}

func (a *AudioSink) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	if len(a.buf) < numSamples {
		a.buf = make([]float32, numSamples)
	}
	samples := a.buf[:numSamples]
	a.synth.RenderFloat32(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return numSamples * 4, nil
}

func (a *AudioSink) Start() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.started && a.player != nil {
		a.player.Play()
		a.started = true
	}
}

func (a *AudioSink) Close() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.player != nil {
		a.player.Close()
		a.player = nil
	}
	a.started = false
}
