//go:build headless

// audio_backend_headless.go - No-op audio sink for audio-less builds.

package main

type AudioSink struct {
	synth *SN76489Synth
}

func NewAudioSink(synth *SN76489Synth, sampleRate int) (*AudioSink, error) {
	return &AudioSink{synth: synth}, nil
}

func (a *AudioSink) Start() {}

func (a *AudioSink) Close() {}
