// main.go - Command-line front end for the VGM player.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	styleChip   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleErr    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] file.vgm\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	loopCount := flag.Int("loop", 0, "loop count: 0 = play once, -1 = loop forever")
	bestEffort := flag.Bool("best-effort", false, "skip writes to unsupported chips instead of failing")
	mute := flag.Bool("mute", false, "discard all chip writes (timing validation run)")
	gain := flag.Float64("gain", 0.25, "synth output gain")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	// The SN76489 gets the built-in synth; every other declared chip gets a
	// discard target so multi-chip files keep exact timing. A platform port
	// would swap real register I/O in here.
	var synth *SN76489Synth
	factory := func(chip ChipID, second bool) PortWriter {
		if *mute {
			return discardPorts
		}
		if chip == CHIP_SN76489 && !second {
			return synth
		}
		return discardPorts
	}

	player := NewPlayer(PlayerConfig{
		Strict:    !*bestEffort,
		LoopCount: *loopCount,
		Ports:     factory,
	})

	// Parse the header first so the synth can run at the recording's clock.
	data, err := os.ReadFile(path)
	if err != nil {
		fatal(err)
	}
	header, err := parseVGMHeader(data)
	if err != nil {
		fatal(err)
	}
	if header.Clocks[CHIP_SN76489] != 0 && !*mute {
		synth = NewSN76489Synth(header.Clocks[CHIP_SN76489], VGM_SAMPLE_RATE)
		synth.SetGain(float32(*gain))
	}

	if err := player.LoadData(data); err != nil {
		fatal(err)
	}

	var sink *AudioSink
	if synth != nil {
		sink, err = NewAudioSink(synth, VGM_SAMPLE_RATE)
		if err != nil {
			fatal(err)
		}
		sink.Start()
		defer sink.Close()
	}

	fmt.Println(styleTitle.Render("vgmplay"), styleStatus.Render(path))
	fmt.Printf("%s  %s\n", styleChip.Render(chipSummary(header)),
		styleStatus.Render(fmt.Sprintf("duration %s", player.DurationText())))

	if err := player.Play(); err != nil {
		fatal(err)
	}

	// Raw mode so a single q stops playback without waiting for Enter.
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, rawErr := term.MakeRaw(fd)
		if rawErr == nil {
			defer term.Restore(fd, oldState)
			go func() {
				buf := make([]byte, 1)
				for {
					n, readErr := os.Stdin.Read(buf)
					if readErr != nil {
						return
					}
					if n > 0 && (buf[0] == 'q' || buf[0] == 0x03 || buf[0] == 0x1B) {
						player.Stop()
						return
					}
				}
			}()
		}
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	done := make(chan error, 1)
	go func() { done <- player.Wait() }()
	for {
		select {
		case <-ticker.C:
			pos := player.PositionSamples()
			fmt.Printf("\r%s", styleStatus.Render(fmt.Sprintf("%s / %s  (q to stop)",
				sampleText(pos), player.DurationText())))
		case err := <-done:
			fmt.Println()
			if err != nil {
				fatal(err)
			}
			return
		}
	}
}

func chipSummary(header *VGMHeader) string {
	var chips []string
	for chip := ChipID(0); chip < CHIP_COUNT; chip++ {
		if header.Clocks[chip] == 0 {
			continue
		}
		name := chip.String()
		if header.Dual[chip] {
			name += " x2"
		}
		chips = append(chips, fmt.Sprintf("%s @ %d Hz", name, header.Clocks[chip]))
	}
	if len(chips) == 0 {
		return "no chips declared"
	}
	return strings.Join(chips, ", ")
}

func sampleText(samples uint64) string {
	secs := int(samples / VGM_SAMPLE_RATE)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, styleErr.Render("vgmplay:"), err)
	os.Exit(1)
}
