package serial

import "golang.org/x/sys/unix"

// ControlLines is a full snapshot of the RS-232 modem control lines.
// It is a plain value type compared by equality; lines the hardware cannot
// report read as false rather than being omitted.
type ControlLines struct {
	CTS bool // Clear To Send (input)
	DSR bool // Data Set Ready (input)
	RI  bool // Ring Indicator (input)
	DCD bool // Data Carrier Detect (input)
	RTS bool // Request To Send (output)
	DTR bool // Data Terminal Ready (output)
}

// Capabilities reports which optional control-line operations a port
// instance supports. Flags are computed once when the port is opened and
// never change afterwards.
type Capabilities struct {
	CanSetRI   bool // Ring Indicator drivable through a GPIO-backed output
	CanSetCD   bool // Carrier Detect drivable through a GPIO-backed output
	CanReadRTS bool // RTS read-back reflects real or tracked state
	CanReadDTR bool // DTR read-back reflects real or tracked state
}

// LineMask identifies which input lines to monitor for changes
type LineMask int

const (
	LineCTS LineMask = 1 << iota
	LineDSR
	LineRI
	LineDCD
)

// lineMaskToTIOCM converts a LineMask to unix TIOCM bits
func lineMaskToTIOCM(mask LineMask) int {
	var bits int
	if mask&LineCTS != 0 {
		bits |= unix.TIOCM_CTS
	}
	if mask&LineDSR != 0 {
		bits |= unix.TIOCM_DSR
	}
	if mask&LineRI != 0 {
		bits |= unix.TIOCM_RI
	}
	if mask&LineDCD != 0 {
		bits |= unix.TIOCM_CAR
	}
	return bits
}

// detectLineChanges compares old and new TIOCM states to determine what changed
func detectLineChanges(oldStatus, newStatus int) LineMask {
	var changed LineMask
	if (oldStatus&unix.TIOCM_CTS != 0) != (newStatus&unix.TIOCM_CTS != 0) {
		changed |= LineCTS
	}
	if (oldStatus&unix.TIOCM_DSR != 0) != (newStatus&unix.TIOCM_DSR != 0) {
		changed |= LineDSR
	}
	if (oldStatus&unix.TIOCM_RI != 0) != (newStatus&unix.TIOCM_RI != 0) {
		changed |= LineRI
	}
	if (oldStatus&unix.TIOCM_CAR != 0) != (newStatus&unix.TIOCM_CAR != 0) {
		changed |= LineDCD
	}
	return changed
}

// linesFromTIOCM builds a snapshot from a raw TIOCM status word
func linesFromTIOCM(status int) ControlLines {
	return ControlLines{
		CTS: status&unix.TIOCM_CTS != 0,
		DSR: status&unix.TIOCM_DSR != 0,
		RI:  status&unix.TIOCM_RI != 0,
		DCD: status&unix.TIOCM_CAR != 0,
		RTS: status&unix.TIOCM_RTS != 0,
		DTR: status&unix.TIOCM_DTR != 0,
	}
}
