package main

import (
	"bytes"
	"errors"
	"testing"
)

func cursorFor(t *testing.T, opts vgmOpts, cmds []byte) *StreamCursor {
	t.Helper()
	data := buildVGM(opts, cmds)
	header, err := parseVGMHeader(data)
	if err != nil {
		t.Fatalf("parseVGMHeader failed: %v", err)
	}
	return newStreamCursor(data, header)
}

func TestStreamCursor_SequentialDecode(t *testing.T) {
	c := cursorFor(t, noLoop(735), []byte{
		0x50, 0x8F,
		0x62,
		0x66,
	})

	ins, err := c.nextInstruction()
	if err != nil || ins.Kind != CmdChipWrite || ins.Value != 0x8F {
		t.Fatalf("first instruction: %+v err=%v", ins, err)
	}
	ins, err = c.nextInstruction()
	if err != nil || ins.Kind != CmdWait || ins.Wait != 735 {
		t.Fatalf("second instruction: %+v err=%v", ins, err)
	}
	if c.atEnd() {
		t.Error("atEnd before the end opcode")
	}
	ins, err = c.nextInstruction()
	if err != nil || ins.Kind != CmdEnd {
		t.Fatalf("third instruction: %+v err=%v", ins, err)
	}
	if !c.atEnd() {
		t.Error("atEnd false after end opcode")
	}
}

func TestStreamCursor_PropagatesDecodeError(t *testing.T) {
	c := cursorFor(t, noLoop(0), []byte{0x65})
	if _, err := c.nextInstruction(); !errors.Is(err, ErrMalformedStream) {
		t.Fatalf("expected ErrMalformedStream, got %v", err)
	}
}

func TestStreamCursor_UnterminatedStream(t *testing.T) {
	c := cursorFor(t, noLoop(735), []byte{0x62})
	if _, err := c.nextInstruction(); err != nil {
		t.Fatalf("wait decode failed: %v", err)
	}
	if _, err := c.nextInstruction(); !errors.Is(err, ErrMalformedStream) {
		t.Fatalf("expected ErrMalformedStream past buffer end, got %v", err)
	}
}

func TestStreamCursor_LoopMarkerEmittedOnce(t *testing.T) {
	// Loop re-enters at the second wait. The marker appears exactly once,
	// at the moment the position first reaches the loop offset.
	c := cursorFor(t, vgmOpts{totalSamples: 1470, loopCmd: 1, loopSamples: 735}, []byte{
		0x62,
		0x62,
		0x66,
	})

	var kinds []CommandKind
	for i := 0; i < 4; i++ {
		ins, err := c.nextInstruction()
		if err != nil {
			t.Fatalf("instruction %d: %v", i, err)
		}
		kinds = append(kinds, ins.Kind)
	}
	want := []CommandKind{CmdWait, CmdLoopPoint, CmdWait, CmdEnd}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("instruction kinds: got %v, want %v", kinds, want)
		}
	}

	// After the loop seek the marker is not re-emitted.
	if err := c.seekToLoop(); err != nil {
		t.Fatalf("seekToLoop failed: %v", err)
	}
	ins, err := c.nextInstruction()
	if err != nil || ins.Kind != CmdWait {
		t.Fatalf("post-seek instruction: %+v err=%v", ins, err)
	}
}

func TestStreamCursor_SeekToLoopNoLoopDefined(t *testing.T) {
	c := cursorFor(t, noLoop(735), []byte{0x62, 0x66})
	if _, err := c.nextInstruction(); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	posBefore := c.pos

	err := c.seekToLoop()
	if !errors.Is(err, ErrNoLoopDefined) {
		t.Fatalf("expected ErrNoLoopDefined, got %v", err)
	}
	if c.pos != posBefore {
		t.Errorf("position changed on failed seek: 0x%X -> 0x%X", posBefore, c.pos)
	}
}

func TestStreamCursor_SeekToLoopClearsEnded(t *testing.T) {
	c := cursorFor(t, vgmOpts{totalSamples: 735, loopCmd: 0, loopSamples: 735}, []byte{0x62, 0x66})
	for !c.atEnd() {
		if _, err := c.nextInstruction(); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
	}
	if err := c.seekToLoop(); err != nil {
		t.Fatalf("seekToLoop failed: %v", err)
	}
	if c.atEnd() {
		t.Error("atEnd still true after loop seek")
	}
}

func TestStreamCursor_BlockDirectory(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	cmds := append([]byte{0x67, 0x66, 0x00, 0x04, 0x00, 0x00, 0x00}, payload...)
	cmds = append(cmds, 0x50, 0x8F, 0x66)
	c := cursorFor(t, noLoop(0), cmds)

	ins, err := c.nextInstruction()
	if err != nil || ins.Kind != CmdDataBlock {
		t.Fatalf("block decode: %+v err=%v", ins, err)
	}
	// The payload is consumed with the declaration; playback position moves
	// straight to the next command.
	ins, err = c.nextInstruction()
	if err != nil || ins.Kind != CmdChipWrite || ins.Value != 0x8F {
		t.Fatalf("instruction after block: %+v err=%v", ins, err)
	}

	dir := c.blockDirectory()
	if len(dir) != 1 {
		t.Fatalf("directory size: got %d, want 1", len(dir))
	}
	if !bytes.Equal(c.blockPayload(dir[0]), payload) {
		t.Errorf("payload: got % X, want % X", c.blockPayload(dir[0]), payload)
	}
}
