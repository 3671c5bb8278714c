package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/ttylabs/serialpcap/serial"
)

// FramePort is the slice of the serial port surface the assembler needs.
// Read must block for at most the configured inter-frame gap and signal an
// idle line with serial.ErrReadTimeout.
type FramePort interface {
	Read(buf []byte) (int, error)
	ControlLines() (serial.ControlLines, error)
}

// Assembler imposes event boundaries on a delimiter-free byte stream. It
// accumulates bytes until the line goes idle for one inter-frame gap or the
// accumulator reaches the maximum frame size, then finalizes the bytes into
// an Event.
type Assembler struct {
	port FramePort
	max  int
	buf  []byte
}

// NewAssembler returns an assembler reading from port. maxFrame bounds the
// event payload; values <= 0 select DefaultMaxFrameSize.
func NewAssembler(port FramePort, maxFrame int) *Assembler {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Assembler{
		port: port,
		max:  maxFrame,
		buf:  make([]byte, maxFrame),
	}
}

// MaxFrameSize returns the configured payload bound
func (a *Assembler) MaxFrameSize() int {
	return a.max
}

// Next returns the next event. It blocks for at most one inter-frame gap
// past the last received byte. An idle tick on a silent line yields an
// event with an empty payload and a fresh line snapshot, so callers get a
// cancellation point at least once per gap interval. A read error other
// than the idle timeout is fatal and terminates the assembler; bytes
// accumulated before the failure are discarded.
func (a *Assembler) Next() (Event, error) {
	filled := 0
	for {
		n, err := a.port.Read(a.buf[filled:])
		if n > 0 {
			filled += n
		}

		switch {
		case err == nil:
			if filled >= a.max {
				// Size-bound finalize, no idle wait
				return a.finalize(filled), nil
			}
		case errors.Is(err, serial.ErrReadTimeout):
			return a.finalize(filled), nil
		default:
			return Event{}, fmt.Errorf("serial read: %w", err)
		}
	}
}

// finalize snapshots the accumulator and current line state into an Event
func (a *Assembler) finalize(n int) Event {
	data := make([]byte, n)
	copy(data, a.buf[:n])

	lines, err := a.port.ControlLines()
	if err != nil {
		// Best effort: an unreadable snapshot reads as all-false
		lines = serial.ControlLines{}
	}

	return Event{
		Timestamp: time.Now(),
		Data:      data,
		Lines:     lines,
	}
}
