// vgm_scheduler.go - Real-time decode/dispatch/wait loop.
//
// One sequential control flow: instructions execute in stream order, chip
// writes are synchronous, and the only suspension point is the wait step.
// Waits are timer-armed against absolute deadlines computed from the
// stream-start anchor plus total elapsed samples, so scheduling jitter
// never accumulates into drift. The invariant throughout: the sum of all
// executed wait sample counts equals the timing reference's elapsed value,
// to the sample.

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// PlayState is the scheduler lifecycle state.
type PlayState int32

const (
	StateIdle PlayState = iota
	StateLoading
	StatePlaying
	StateStopped
)

func (s PlayState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// TimingReference is the monotonic sample counter all waits consume
// against. Owned by one scheduler instance, never process-global, so
// independent playback sessions stay isolated.
type TimingReference struct {
	rate    int
	anchor  time.Time
	elapsed atomic.Uint64
}

func newTimingReference(rate int) *TimingReference {
	return &TimingReference{rate: rate}
}

func (t *TimingReference) start() {
	t.anchor = time.Now()
	t.elapsed.Store(0)
}

// advance consumes n samples and returns the wall-clock deadline at which
// the new elapsed count falls due.
func (t *TimingReference) advance(n uint64) time.Time {
	elapsed := t.elapsed.Add(n)
	whole := time.Duration(elapsed/uint64(t.rate)) * time.Second
	frac := time.Duration(elapsed%uint64(t.rate)) * time.Second / time.Duration(t.rate)
	return t.anchor.Add(whole + frac)
}

// ElapsedSamples returns the samples consumed since playback started.
func (t *TimingReference) ElapsedSamples() uint64 {
	return t.elapsed.Load()
}

// pcmBankDriver is implemented by drivers that own a streamed PCM data
// bank (YM2612). Bank-sourced DAC writes and seeks go through it.
type pcmBankDriver interface {
	WriteDACFromBank() error
	SeekPCM(offset uint32)
}

// SchedulerConfig selects the absent-chip policy and loop behavior.
type SchedulerConfig struct {
	// Strict fails playback on writes to unregistered chips. When false,
	// such writes become timing-neutral no-ops so the rest of a multi-chip
	// composition stays audible.
	Strict bool
	// LoopCount: 0 plays the stream once, n > 0 takes the loop n times,
	// negative loops forever.
	LoopCount int
}

// Scheduler drives playback of one loaded stream.
type Scheduler struct {
	cursor *StreamCursor
	table  *ChipTable
	timing *TimingReference
	cfg    SchedulerConfig

	state    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once

	loopsTaken int
	loopSample uint64 // sample position of the loop point marker
}

func NewScheduler(cursor *StreamCursor, table *ChipTable, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		cursor: cursor,
		table:  table,
		timing: newTimingReference(VGM_SAMPLE_RATE),
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
	s.state.Store(int32(StateIdle))
	return s
}

// State returns the current lifecycle state.
func (s *Scheduler) State() PlayState {
	return PlayState(s.state.Load())
}

// PositionSamples returns elapsed playback position in samples.
func (s *Scheduler) PositionSamples() uint64 {
	return s.timing.ElapsedSamples()
}

// LoopsTaken returns how many times the loop point has been re-entered.
func (s *Scheduler) LoopsTaken() int {
	return s.loopsTaken
}

// Stop requests termination. Honored at the next wait boundary at the
// latest; Run resets every registered chip before returning.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Run executes the stream to completion, loop exhaustion, stop request or
// error. It blocks the calling goroutine; the wait step is the only
// suspension point. Chips are reset on every exit path.
func (s *Scheduler) Run() error {
	s.state.Store(int32(StatePlaying))
	s.timing.start()
	err := s.run()
	if resetErr := s.table.ResetAll(); resetErr != nil && err == nil {
		err = resetErr
	}
	s.state.Store(int32(StateStopped))
	return err
}

func (s *Scheduler) run() error {
	for {
		select {
		case <-s.stopCh:
			return nil
		default:
		}

		ins, err := s.cursor.nextInstruction()
		if err != nil {
			return err
		}

		switch ins.Kind {
		case CmdChipWrite:
			if err := s.dispatchWrite(ins); err != nil {
				return err
			}
			// DAC opcodes fold a short wait into the write.
			if ins.Wait > 0 && !s.wait(uint64(ins.Wait)) {
				return nil
			}

		case CmdWait:
			// A zero-length wait is a no-op, not an error.
			if ins.Wait > 0 && !s.wait(uint64(ins.Wait)) {
				return nil
			}

		case CmdDataBlock:
			s.forwardDataBlock(ins.Block)

		case CmdPCMSeek:
			if driver, err := s.table.Resolve(CHIP_YM2612, false); err == nil {
				if bank, ok := driver.(pcmBankDriver); ok {
					bank.SeekPCM(ins.SeekTo)
				}
			}

		case CmdLoopPoint:
			// Marker only: record where the loop re-enters.
			s.loopSample = s.timing.ElapsedSamples()

		case CmdEnd:
			if !s.shouldLoop() {
				return nil
			}
			if err := s.cursor.seekToLoop(); err != nil {
				return err
			}
			s.loopsTaken++
		}
	}
}

func (s *Scheduler) shouldLoop() bool {
	if !s.cursor.atEnd() {
		return false
	}
	if s.cursor.loopOffset == 0 {
		return false
	}
	if s.cfg.LoopCount < 0 {
		return true
	}
	return s.loopsTaken < s.cfg.LoopCount
}

func (s *Scheduler) dispatchWrite(ins Instruction) error {
	driver, err := s.table.Resolve(ins.Chip, ins.Second)
	if err != nil {
		if s.cfg.Strict {
			return err
		}
		// Best effort: skip the actuation, keep the timing.
		return nil
	}
	if ins.FromBank {
		if bank, ok := driver.(pcmBankDriver); ok {
			return bank.WriteDACFromBank()
		}
		return nil
	}
	return driver.WriteRegister(ins.Bank, ins.Reg, ins.Value)
}

// forwardDataBlock routes a bulk payload to the chip family owning its
// block type. Unknown types stay recorded in the cursor's directory and are
// otherwise ignored; data blocks are untimed either way.
func (s *Scheduler) forwardDataBlock(block DataBlock) {
	chip, ok := dataBlockOwner(block.Type)
	if !ok {
		return
	}
	driver, err := s.table.Resolve(chip, false)
	if err != nil {
		return
	}
	// LoadDataBlock failures are not fatal: the payload is auxiliary and
	// timing is unaffected.
	_ = driver.LoadDataBlock(block.Type, s.cursor.blockPayload(block))
}

func dataBlockOwner(blockType uint8) (ChipID, bool) {
	switch blockType {
	case DATA_BLOCK_YM2612:
		return CHIP_YM2612, true
	default:
		return 0, false
	}
}

// wait suspends until the timing reference has advanced by n samples past
// the last resume point. Returns false if a stop request arrived first.
func (s *Scheduler) wait(n uint64) bool {
	deadline := s.timing.advance(n)
	delay := time.Until(deadline)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stopCh:
		return false
	}
}
