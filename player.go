// player.go - Host control surface for VGM playback.

package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
)

// PortFactory supplies the actuation target for one chip instance at load
// time. Returning nil declines the chip: strict loads then refuse the file,
// best-effort loads skip its writes.
type PortFactory func(chip ChipID, second bool) PortWriter

// DiscardPortFactory absorbs every chip's writes. Useful for validation
// and timing runs without hardware or a synth.
func DiscardPortFactory(ChipID, bool) PortWriter {
	return discardPorts
}

// PlayerConfig carries the load-time policy.
type PlayerConfig struct {
	Strict    bool
	LoopCount int // 0 once, n > 0 loop n times, negative forever
	Ports     PortFactory
}

// Player owns one playback session: the loaded stream, the dispatch table
// built from its header, and the scheduler goroutine.
type Player struct {
	mu     sync.Mutex
	cfg    PlayerConfig
	header *VGMHeader
	data   []byte
	table  *ChipTable
	sched  *Scheduler
	done   chan struct{}
	err    error
}

func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.Ports == nil {
		cfg.Ports = DiscardPortFactory
	}
	return &Player{cfg: cfg}
}

// Load reads and prepares a decompressed .vgm file. Compressed recordings
// are a different artifact; the archival utility produces the playable
// form.
func (p *Player) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.LoadData(data)
}

// LoadData prepares playback from an in-memory VGM byte stream: parses the
// header, builds the dispatch table from its nonzero clock fields, and
// resets every registered chip to a silent known state.
func (p *Player) LoadData(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil && p.sched.State() == StatePlaying {
		return fmt.Errorf("already playing")
	}

	if len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B {
		return streamErr("gzip-compressed input; decompress to .vgm first")
	}

	header, err := parseVGMHeader(data)
	if err != nil {
		return err
	}

	table := NewChipTable()
	for chip := ChipID(0); chip < CHIP_COUNT; chip++ {
		instances := []bool{false}
		if header.Dual[chip] {
			instances = append(instances, true)
		}
		for _, second := range instances {
			if !header.ChipPresent(chip, second) {
				continue
			}
			ports := p.cfg.Ports(chip, second)
			if ports == nil {
				if p.cfg.Strict {
					return fmt.Errorf("%w: %s declared by header but no port writer available", ErrUnsupportedChip, chip)
				}
				continue
			}
			table.Register(chip, second, newChipDriver(chip, header.Clocks[chip], ports))
		}
	}
	if err := table.ResetAll(); err != nil {
		return err
	}

	p.header = header
	p.data = data
	p.table = table
	p.sched = nil
	p.err = nil
	return nil
}

func newChipDriver(chip ChipID, clockHz uint32, ports PortWriter) ChipDriver {
	switch chip {
	case CHIP_SN76489:
		return NewSN76489Driver(ports, clockHz)
	case CHIP_AY8910:
		return NewAY8910Driver(ports)
	case CHIP_YM2413:
		return NewYM2413Driver(ports)
	case CHIP_YM2612:
		return NewYM2612Driver(ports)
	case CHIP_YM2151:
		return NewYM2151Driver(ports)
	case CHIP_YMF262:
		return NewYMF262Driver(ports)
	default:
		return nil
	}
}

// Play starts playback in its own goroutine. Safe to call again after the
// previous run stopped; the stream restarts from the beginning.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.header == nil {
		return fmt.Errorf("no file loaded")
	}
	if p.sched != nil && p.sched.State() == StatePlaying {
		return nil
	}

	cursor := newStreamCursor(p.data, p.header)
	p.sched = NewScheduler(cursor, p.table, SchedulerConfig{
		Strict:    p.cfg.Strict,
		LoopCount: p.cfg.LoopCount,
	})
	p.done = make(chan struct{})

	sched, done := p.sched, p.done
	go func() {
		defer close(done)
		if err := sched.Run(); err != nil {
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			if vgmDebugEnabled() {
				fmt.Fprintf(os.Stderr, "vgmplay: playback error: %v\n", err)
			}
		}
	}()
	return nil
}

// Stop requests termination and blocks until the scheduler has reset the
// chips and exited. Bounded latency: one wait interval at most.
func (p *Player) Stop() {
	p.mu.Lock()
	sched, done := p.sched, p.done
	p.mu.Unlock()
	if sched == nil {
		return
	}
	sched.Stop()
	if done != nil {
		<-done
	}
}

// Wait blocks until the current run finishes and returns its error.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// SetLoopMode changes the loop count for subsequent Play calls; the current
// run keeps the mode it started with.
func (p *Player) SetLoopMode(loopCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.LoopCount = loopCount
}

// IsPlaying reports whether the scheduler is in the Playing state.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched != nil && p.sched.State() == StatePlaying
}

// PositionSamples returns the elapsed playback position in samples.
func (p *Player) PositionSamples() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched == nil {
		return 0
	}
	return p.sched.PositionSamples()
}

// Header returns the parsed header of the loaded file, or nil.
func (p *Player) Header() *VGMHeader {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.header
}

// DurationSeconds returns the declared single-pass duration in seconds.
func (p *Player) DurationSeconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.header == nil {
		return 0
	}
	return float64(p.header.TotalSamples) / float64(VGM_SAMPLE_RATE)
}

// DurationText returns the single-pass duration formatted as m:ss.
func (p *Player) DurationText() string {
	secs := p.DurationSeconds()
	if secs <= 0 {
		return ""
	}
	mins := int(secs) / 60
	rem := int(math.Round(secs)) % 60
	return fmt.Sprintf("%d:%02d", mins, rem)
}

func vgmDebugEnabled() bool {
	value := strings.ToLower(os.Getenv("VGM_DEBUG"))
	return value == "1" || value == "true" || value == "yes"
}
