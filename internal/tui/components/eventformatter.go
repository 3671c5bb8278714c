package components

import (
	"fmt"
	"strings"

	"github.com/ttylabs/serialpcap/serial"
)

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

// EventFormatter controls how frame payloads are rendered in the monitor
// table.
type EventFormatter struct {
	mode DisplayMode
}

func NewEventFormatter(showHex, showASCII bool) *EventFormatter {
	return &EventFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (ef *EventFormatter) GetDisplayMode() DisplayMode {
	return ef.mode
}

func (ef *EventFormatter) ToggleHex() {
	ef.mode.ShowHex = !ef.mode.ShowHex
}

func (ef *EventFormatter) ToggleASCII() {
	ef.mode.ShowASCII = !ef.mode.ShowASCII
}

func hexString(data []byte) string {
	return strings.ToUpper(fmt.Sprintf("% X", data))
}

func asciiString(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			// Replace non-printable characters with dots
			b.WriteByte('.')
		}
	}
	return b.String()
}

// FormatControlLines renders a line snapshot as the asserted line names in
// wire-bitmask order, or "-" when none are high.
func FormatControlLines(lines serial.ControlLines) string {
	var asserted []string
	if lines.CTS {
		asserted = append(asserted, "CTS")
	}
	if lines.DCD {
		asserted = append(asserted, "DCD")
	}
	if lines.DSR {
		asserted = append(asserted, "DSR")
	}
	if lines.RTS {
		asserted = append(asserted, "RTS")
	}
	if lines.DTR {
		asserted = append(asserted, "DTR")
	}
	if lines.RI {
		asserted = append(asserted, "RI")
	}
	if len(asserted) == 0 {
		return "-"
	}
	return strings.Join(asserted, " ")
}
