// errors.go - Playback error taxonomy.

package main

import (
	"errors"
	"fmt"
)

// Error categories surfaced by the parser, cursor, scheduler and drivers.
// Callers match with errors.Is; detail is carried by wrapping.
var (
	// ErrMalformedStream covers bad opcodes, truncated payloads, corrupt
	// header fields and loop offsets pointing outside the stream. Fatal for
	// the current load; no partial playback is attempted.
	ErrMalformedStream = errors.New("malformed VGM stream")

	// ErrNoLoopDefined is returned by loop seeks on files whose header
	// declares no loop point. Recoverable; callers stop instead of looping.
	ErrNoLoopDefined = errors.New("no loop defined")

	// ErrUnsupportedChip is returned when an instruction addresses a chip
	// instance that was not registered at load time (header clock zero or
	// no driver available). Fatal in strict mode, skipped in best-effort.
	ErrUnsupportedChip = errors.New("unsupported chip")

	// ErrChipIO wraps failures from the platform port-write primitive.
	// Always fatal: playback cannot stay correct with a dead chip.
	ErrChipIO = errors.New("chip I/O failure")
)

func streamErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedStream, fmt.Sprintf(format, args...))
}
