package serial

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestLineMaskToTIOCM(t *testing.T) {
	tests := []struct {
		name string
		mask LineMask
		want int
	}{
		{"CTS only", LineCTS, unix.TIOCM_CTS},
		{"DSR only", LineDSR, unix.TIOCM_DSR},
		{"RI only", LineRI, unix.TIOCM_RI},
		{"DCD maps to CAR", LineDCD, unix.TIOCM_CAR},
		{"CTS and DCD", LineCTS | LineDCD, unix.TIOCM_CTS | unix.TIOCM_CAR},
		{"all inputs", LineCTS | LineDSR | LineRI | LineDCD, unix.TIOCM_CTS | unix.TIOCM_DSR | unix.TIOCM_RI | unix.TIOCM_CAR},
		{"empty mask", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lineMaskToTIOCM(tt.mask); got != tt.want {
				t.Errorf("lineMaskToTIOCM(%v) = 0x%x, want 0x%x", tt.mask, got, tt.want)
			}
		})
	}
}

func TestDetectLineChanges(t *testing.T) {
	tests := []struct {
		name      string
		oldStatus int
		newStatus int
		want      LineMask
	}{
		{"no change", unix.TIOCM_CTS, unix.TIOCM_CTS, 0},
		{"CTS asserted", 0, unix.TIOCM_CTS, LineCTS},
		{"CTS dropped", unix.TIOCM_CTS, 0, LineCTS},
		{"DSR asserted", 0, unix.TIOCM_DSR, LineDSR},
		{"RI asserted", 0, unix.TIOCM_RI, LineRI},
		{"DCD asserted via CAR bit", 0, unix.TIOCM_CAR, LineDCD},
		{"two lines swap", unix.TIOCM_CTS, unix.TIOCM_DSR, LineCTS | LineDSR},
		{"output lines ignored", 0, unix.TIOCM_RTS | unix.TIOCM_DTR, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectLineChanges(tt.oldStatus, tt.newStatus); got != tt.want {
				t.Errorf("detectLineChanges(0x%x, 0x%x) = %v, want %v", tt.oldStatus, tt.newStatus, got, tt.want)
			}
		})
	}
}

func TestLinesFromTIOCM(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ControlLines
	}{
		{"all clear", 0, ControlLines{}},
		{"CTS", unix.TIOCM_CTS, ControlLines{CTS: true}},
		{"DSR", unix.TIOCM_DSR, ControlLines{DSR: true}},
		{"RI", unix.TIOCM_RI, ControlLines{RI: true}},
		{"DCD from CAR bit", unix.TIOCM_CAR, ControlLines{DCD: true}},
		{"outputs", unix.TIOCM_RTS | unix.TIOCM_DTR, ControlLines{RTS: true, DTR: true}},
		{
			"everything asserted",
			unix.TIOCM_CTS | unix.TIOCM_DSR | unix.TIOCM_RI | unix.TIOCM_CAR | unix.TIOCM_RTS | unix.TIOCM_DTR,
			ControlLines{CTS: true, DSR: true, RI: true, DCD: true, RTS: true, DTR: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := linesFromTIOCM(tt.status); got != tt.want {
				t.Errorf("linesFromTIOCM(0x%x) = %+v, want %+v", tt.status, got, tt.want)
			}
		})
	}
}
