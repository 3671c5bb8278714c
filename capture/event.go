// Package capture turns a serial byte stream and its control-line
// transitions into discrete timestamped events and drives them through an
// encoder into a packet sink. Framing uses inter-character idle time: a
// configurable silent gap, not a delimiter, marks event boundaries.
package capture

import (
	"time"

	"github.com/ttylabs/serialpcap/serial"
)

// DefaultMaxFrameSize bounds the payload of a single event. An accumulator
// that fills up before the line goes idle is finalized immediately.
const DefaultMaxFrameSize = 1024

// Event is one captured unit: the bytes received between two idle gaps and
// the control-line snapshot taken when the frame was finalized. Events are
// created by the Assembler, encoded once and then discarded.
type Event struct {
	Timestamp time.Time
	Data      []byte
	Lines     serial.ControlLines
}

// Insignificant reports whether the event carries nothing new relative to
// the previously emitted line state: an empty payload and an unchanged
// snapshot. Such events exist because the assembler reports every idle
// tick; forwarding them would flood the sink with redundant notifications.
func (e Event) Insignificant(prev serial.ControlLines) bool {
	return len(e.Data) == 0 && e.Lines == prev
}
