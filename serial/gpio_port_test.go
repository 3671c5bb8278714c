package serial

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakePort is an in-memory Port used to exercise wrappers without hardware.
// Error fields inject failures; call slices record what was driven.
type fakePort struct {
	lines  ControlLines
	caps   Capabilities
	closed bool

	closeErr error
	setErr   error
	rtsErr   error
	dtrErr   error

	setCalls []ControlLines
	rtsCalls []bool
	dtrCalls []bool
}

var _ Port = (*fakePort)(nil)

func (f *fakePort) Close() error {
	f.closed = true
	return f.closeErr
}

func (f *fakePort) Read(buf []byte) (int, error) {
	return 0, ErrReadTimeout
}

func (f *fakePort) Write(data []byte) (int, error) {
	return len(data), nil
}

func (f *fakePort) FlushInput() error {
	return nil
}

func (f *fakePort) ControlLines() (ControlLines, error) {
	return f.lines, nil
}

func (f *fakePort) SetControlLines(lines ControlLines) error {
	f.setCalls = append(f.setCalls, lines)
	return f.setErr
}

func (f *fakePort) SetRTS(state bool) error {
	f.rtsCalls = append(f.rtsCalls, state)
	if f.rtsErr != nil {
		return f.rtsErr
	}
	f.lines.RTS = state
	return nil
}

func (f *fakePort) SetDTR(state bool) error {
	f.dtrCalls = append(f.dtrCalls, state)
	if f.dtrErr != nil {
		return f.dtrErr
	}
	f.lines.DTR = state
	return nil
}

func (f *fakePort) SetRI(state bool) error {
	return ErrLineNotSupported
}

func (f *fakePort) SetCD(state bool) error {
	return ErrLineNotSupported
}

func (f *fakePort) Capabilities() Capabilities {
	return f.caps
}

func (f *fakePort) WaitForLineChange(mask LineMask, timeout time.Duration) (ControlLines, LineMask, error) {
	return ControlLines{}, 0, ErrLineWaitTimeout
}

func (f *fakePort) WaitForLineChangeContext(ctx context.Context, mask LineMask) (ControlLines, LineMask, error) {
	return ControlLines{}, 0, ErrLineWaitTimeout
}

// fakePin records output writes for the GPIO-backed line tests
type fakePin struct {
	values   []bool
	closed   bool
	setErr   error
	closeErr error
}

func (f *fakePin) SetValue(high bool) error {
	f.values = append(f.values, high)
	return f.setErr
}

func (f *fakePin) Close() error {
	f.closed = true
	return f.closeErr
}

func TestGpioPortCapabilities(t *testing.T) {
	tests := []struct {
		name   string
		riPin  OutputPin
		cdPin  OutputPin
		wantRI bool
		wantCD bool
	}{
		{"both pins", &fakePin{}, &fakePin{}, true, true},
		{"RI pin only", &fakePin{}, nil, true, false},
		{"CD pin only", nil, &fakePin{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGpioPort(&fakePort{}, tt.riPin, tt.cdPin)
			caps := g.Capabilities()
			if caps.CanSetRI != tt.wantRI {
				t.Errorf("CanSetRI = %v, want %v", caps.CanSetRI, tt.wantRI)
			}
			if caps.CanSetCD != tt.wantCD {
				t.Errorf("CanSetCD = %v, want %v", caps.CanSetCD, tt.wantCD)
			}
			if !caps.CanReadRTS || !caps.CanReadDTR {
				t.Errorf("Capabilities() = %+v, wrapper must answer RTS/DTR reads", caps)
			}
		})
	}
}

func TestGpioPortSetControlLines(t *testing.T) {
	inner := &fakePort{}
	ri := &fakePin{}
	cd := &fakePin{}
	g := newGpioPort(inner, ri, cd)

	err := g.SetControlLines(ControlLines{RTS: true, DTR: false, RI: true, DCD: true})
	if err != nil {
		t.Fatalf("SetControlLines() error = %v", err)
	}

	if len(inner.rtsCalls) != 1 || !inner.rtsCalls[0] {
		t.Errorf("RTS calls = %v, want [true]", inner.rtsCalls)
	}
	if len(inner.dtrCalls) != 1 || inner.dtrCalls[0] {
		t.Errorf("DTR calls = %v, want [false]", inner.dtrCalls)
	}
	if len(ri.values) != 1 || !ri.values[0] {
		t.Errorf("RI pin writes = %v, want [true]", ri.values)
	}
	if len(cd.values) != 1 || !cd.values[0] {
		t.Errorf("CD pin writes = %v, want [true]", cd.values)
	}
}

// TestGpioPortAuxiliaryPinFailure verifies a failing RI/CD pin never aborts
// the primary RTS/DTR result.
func TestGpioPortAuxiliaryPinFailure(t *testing.T) {
	inner := &fakePort{}
	ri := &fakePin{setErr: errors.New("gpio write failed")}
	g := newGpioPort(inner, ri, nil)

	if err := g.SetControlLines(ControlLines{RTS: true, RI: true}); err != nil {
		t.Errorf("SetControlLines() error = %v, want nil on auxiliary pin failure", err)
	}
	if len(inner.rtsCalls) != 1 {
		t.Errorf("RTS calls = %d, want 1", len(inner.rtsCalls))
	}
}

// TestGpioPortPrimaryLineFailure verifies an RTS failure escalates and stops
// the update before any auxiliary pin is touched.
func TestGpioPortPrimaryLineFailure(t *testing.T) {
	rtsErr := errors.New("ioctl failed")
	inner := &fakePort{rtsErr: rtsErr}
	ri := &fakePin{}
	g := newGpioPort(inner, ri, nil)

	err := g.SetControlLines(ControlLines{RTS: true, RI: true})
	if !errors.Is(err, rtsErr) {
		t.Fatalf("SetControlLines() error = %v, want wrapped %v", err, rtsErr)
	}
	if len(ri.values) != 0 {
		t.Errorf("RI pin writes = %v, want none after primary failure", ri.values)
	}
}

func TestGpioPortSetRISetCD(t *testing.T) {
	ri := &fakePin{}
	g := newGpioPort(&fakePort{}, ri, nil)

	if err := g.SetRI(true); err != nil {
		t.Fatalf("SetRI() error = %v", err)
	}
	if err := g.SetRI(false); err != nil {
		t.Fatalf("SetRI() error = %v", err)
	}
	if len(ri.values) != 2 || !ri.values[0] || ri.values[1] {
		t.Errorf("RI pin writes = %v, want [true false]", ri.values)
	}

	if err := g.SetCD(true); !errors.Is(err, ErrLineNotSupported) {
		t.Errorf("SetCD() without pin error = %v, want ErrLineNotSupported", err)
	}
}

func TestGpioPortClose(t *testing.T) {
	inner := &fakePort{}
	ri := &fakePin{}
	cd := &fakePin{}
	g := newGpioPort(inner, ri, cd)

	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !ri.closed || !cd.closed {
		t.Error("expected both pins closed")
	}
	if !inner.closed {
		t.Error("expected inner port closed")
	}
}

func TestGpioPortCloseErrorPrecedence(t *testing.T) {
	innerErr := errors.New("inner close failed")
	pinErr := errors.New("pin close failed")

	tests := []struct {
		name     string
		innerErr error
		pinErr   error
		want     error
	}{
		{"inner error wins", innerErr, pinErr, innerErr},
		{"pin error surfaces when inner succeeds", nil, pinErr, pinErr},
		{"all clean", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &fakePort{closeErr: tt.innerErr}
			ri := &fakePin{closeErr: tt.pinErr}
			g := newGpioPort(inner, ri, nil)
			if err := g.Close(); !errors.Is(err, tt.want) {
				t.Errorf("Close() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGpioPortForwardsReads(t *testing.T) {
	inner := &fakePort{lines: ControlLines{CTS: true, RI: true}}
	g := newGpioPort(inner, &fakePin{}, nil)

	lines, err := g.ControlLines()
	if err != nil {
		t.Fatalf("ControlLines() error = %v", err)
	}
	if lines != inner.lines {
		t.Errorf("ControlLines() = %+v, want %+v", lines, inner.lines)
	}
}
