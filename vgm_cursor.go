// vgm_cursor.go - Read position and loop bookkeeping for the command stream.

package main

// StreamCursor owns the read position into the VGM byte buffer, the loop
// target derived from the header, and the data-block directory. It advances
// only under decoder control; chip drivers never touch it.
type StreamCursor struct {
	data       []byte
	pos        int
	dataStart  int
	loopOffset int // 0 = no loop
	loopSeen   bool
	ended      bool
	blocks     []DataBlock
}

func newStreamCursor(data []byte, header *VGMHeader) *StreamCursor {
	return &StreamCursor{
		data:       data,
		pos:        int(header.DataStart),
		dataStart:  int(header.DataStart),
		loopOffset: int(header.LoopOffset),
	}
}

// nextInstruction decodes one instruction at the current position and
// advances past it. When the position first crosses the header's loop
// offset a LoopPoint marker is emitted instead, so the scheduler can record
// the loop's sample position without any special casing in the decoder.
func (c *StreamCursor) nextInstruction() (Instruction, error) {
	if c.loopOffset != 0 && !c.loopSeen && c.pos == c.loopOffset {
		c.loopSeen = true
		return Instruction{Kind: CmdLoopPoint}, nil
	}

	ins, consumed, err := decodeCommand(c.data, c.pos)
	if err != nil {
		return Instruction{}, err
	}
	c.pos += consumed

	switch ins.Kind {
	case CmdDataBlock:
		// Payload offsets live in the block directory, resolved against the
		// file buffer; interleaved declarations never disturb playback
		// position because decodeCommand already consumed the payload.
		c.blocks = append(c.blocks, ins.Block)
	case CmdEnd:
		c.ended = true
	}
	return ins, nil
}

// seekToLoop repositions the cursor to the header loop offset. On failure
// the position is left unchanged.
func (c *StreamCursor) seekToLoop() error {
	if c.loopOffset == 0 {
		return ErrNoLoopDefined
	}
	if c.loopOffset >= len(c.data) {
		return streamErr("loop offset 0x%X beyond end of stream", c.loopOffset)
	}
	c.pos = c.loopOffset
	c.ended = false
	return nil
}

// atEnd reports whether the end-of-stream opcode was consumed or the buffer
// is exhausted.
func (c *StreamCursor) atEnd() bool {
	return c.ended || c.pos >= len(c.data)
}

// blockPayload returns the raw bytes of a recorded data block.
func (c *StreamCursor) blockPayload(b DataBlock) []byte {
	return c.data[b.Offset : b.Offset+b.Length]
}

// blockDirectory exposes the data blocks seen so far.
func (c *StreamCursor) blockDirectory() []DataBlock {
	return c.blocks
}
