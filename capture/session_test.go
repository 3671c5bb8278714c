package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttylabs/serialpcap/serial"
)

// errScriptDone terminates session tests deterministically: the script's
// final step fails the read, so Run can never spin on an idle line.
var errScriptDone = errors.New("script done")

// memSink records encoded packets in memory
type memSink struct {
	packets  [][]byte
	stamps   []time.Time
	flushes  int
	writeErr error
}

func (m *memSink) WritePacket(ts time.Time, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.packets = append(m.packets, data)
	m.stamps = append(m.stamps, ts)
	return nil
}

func (m *memSink) Flush() error {
	m.flushes++
	return nil
}

// recordingEncoder passes payloads through unchanged and remembers the
// events it saw
type recordingEncoder struct {
	events []Event
	err    error
}

func (r *recordingEncoder) Encode(ev Event) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.events = append(r.events, ev)
	return ev.Data, nil
}

// reflectDst is a minimal reflection destination. The embedded interface
// panics on anything but SetControlLines, which is all a reflector uses.
type reflectDst struct {
	serial.Port
	calls  []serial.ControlLines
	setErr error
}

func (r *reflectDst) SetControlLines(lines serial.ControlLines) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.calls = append(r.calls, lines)
	return nil
}

// TestSessionSuppressesIdleEvents verifies idle ticks with unchanged lines
// never reach the sink while data events pass through, and that the
// counters track forwarded events only.
func TestSessionSuppressesIdleEvents(t *testing.T) {
	port := &scriptPort{
		steps: []readStep{
			{data: []byte("hello")},
			{err: serial.ErrReadTimeout},
			{err: serial.ErrReadTimeout},
			{err: serial.ErrReadTimeout},
			{data: []byte("world")},
			{err: serial.ErrReadTimeout},
			{err: errScriptDone},
		},
	}
	sink := &memSink{}
	sess := NewSession(NewAssembler(port, 0), &recordingEncoder{}, sink)

	if err := sess.Run(context.Background()); !errors.Is(err, errScriptDone) {
		t.Fatalf("Run() error = %v, want %v", err, errScriptDone)
	}

	if len(sink.packets) != 2 {
		t.Fatalf("sink received %d packets, want 2", len(sink.packets))
	}
	if string(sink.packets[0]) != "hello" || string(sink.packets[1]) != "world" {
		t.Errorf("packets = %q, %q, want hello, world", sink.packets[0], sink.packets[1])
	}
	if sess.Events() != 2 {
		t.Errorf("Events() = %d, want 2", sess.Events())
	}
	if sess.Bytes() != 10 {
		t.Errorf("Bytes() = %d, want 10", sess.Bytes())
	}
	if sink.flushes == 0 {
		t.Error("sink never flushed on exit")
	}
}

// TestSessionForwardsLineChanges verifies an empty event whose line state
// differs from the last forwarded one is a real notification, not noise.
func TestSessionForwardsLineChanges(t *testing.T) {
	ctsHigh := serial.ControlLines{CTS: true}
	port := &scriptPort{
		steps: []readStep{
			{err: serial.ErrReadTimeout},
			{err: serial.ErrReadTimeout, lines: &ctsHigh},
			{err: serial.ErrReadTimeout},
			{err: errScriptDone},
		},
	}
	sink := &memSink{}
	enc := &recordingEncoder{}
	sess := NewSession(NewAssembler(port, 0), enc, sink)

	if err := sess.Run(context.Background()); !errors.Is(err, errScriptDone) {
		t.Fatalf("Run() error = %v, want %v", err, errScriptDone)
	}

	if len(enc.events) != 1 {
		t.Fatalf("encoder saw %d events, want 1", len(enc.events))
	}
	if enc.events[0].Lines != ctsHigh {
		t.Errorf("forwarded lines = %+v, want %+v", enc.events[0].Lines, ctsHigh)
	}
	if len(enc.events[0].Data) != 0 {
		t.Errorf("forwarded payload = %d bytes, want 0", len(enc.events[0].Data))
	}
	if sess.Events() != 1 || sess.Bytes() != 0 {
		t.Errorf("Events()/Bytes() = %d/%d, want 1/0", sess.Events(), sess.Bytes())
	}
}

// TestSessionReflectsSuppressedEvents verifies line mirroring runs for
// every captured snapshot, including events the sink never sees.
func TestSessionReflectsSuppressedEvents(t *testing.T) {
	rtsHigh := serial.ControlLines{RTS: true}
	port := &scriptPort{
		steps: []readStep{
			{err: serial.ErrReadTimeout},
			{err: serial.ErrReadTimeout},
			{data: []byte("B"), lines: &rtsHigh},
			{err: serial.ErrReadTimeout},
			{err: errScriptDone},
		},
	}
	dst := &reflectDst{}
	sink := &memSink{}
	sess := NewSession(NewAssembler(port, 0), &recordingEncoder{}, sink,
		WithReflector(serial.NewReflector(dst)),
	)

	if err := sess.Run(context.Background()); !errors.Is(err, errScriptDone) {
		t.Fatalf("Run() error = %v, want %v", err, errScriptDone)
	}

	// First idle tick establishes the all-low state, the dedup absorbs the
	// second, the data event drives RTS.
	want := []serial.ControlLines{{}, {RTS: true}}
	if len(dst.calls) != len(want) {
		t.Fatalf("destination driven %d times, want %d", len(dst.calls), len(want))
	}
	for i, lines := range want {
		if dst.calls[i] != lines {
			t.Errorf("drive %d = %+v, want %+v", i, dst.calls[i], lines)
		}
	}
	if len(sink.packets) != 1 {
		t.Errorf("sink received %d packets, want 1", len(sink.packets))
	}
}

func TestSessionReflectorFailureIsFatal(t *testing.T) {
	setErr := errors.New("mirror port gone")
	port := &scriptPort{
		steps: []readStep{{data: []byte("A")}},
	}
	sink := &memSink{}
	sess := NewSession(NewAssembler(port, 0), &recordingEncoder{}, sink,
		WithReflector(serial.NewReflector(&reflectDst{setErr: setErr})),
	)

	if err := sess.Run(context.Background()); !errors.Is(err, setErr) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, setErr)
	}
	if len(sink.packets) != 0 {
		t.Errorf("sink received %d packets after fatal reflection, want 0", len(sink.packets))
	}
	if sink.flushes == 0 {
		t.Error("sink never flushed on fatal exit")
	}
}

func TestSessionSinkFailureIsFatal(t *testing.T) {
	writeErr := errors.New("disk full")
	port := &scriptPort{
		steps: []readStep{{data: []byte("A")}},
	}
	sink := &memSink{writeErr: writeErr}
	sess := NewSession(NewAssembler(port, 0), &recordingEncoder{}, sink)

	if err := sess.Run(context.Background()); !errors.Is(err, writeErr) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, writeErr)
	}
	if sess.Events() != 0 {
		t.Errorf("Events() = %d, want 0 after failed write", sess.Events())
	}
}

func TestSessionEncoderFailureIsFatal(t *testing.T) {
	encErr := errors.New("unencodable event")
	port := &scriptPort{
		steps: []readStep{{data: []byte("A")}},
	}
	sink := &memSink{}
	sess := NewSession(NewAssembler(port, 0), &recordingEncoder{err: encErr}, sink)

	if err := sess.Run(context.Background()); !errors.Is(err, encErr) {
		t.Fatalf("Run() error = %v, want %v", err, encErr)
	}
	if len(sink.packets) != 0 {
		t.Errorf("sink received %d packets, want 0", len(sink.packets))
	}
}

// TestSessionCancellation verifies cancellation lands between events, exits
// cleanly and flushes. The trailing error step is a backstop: it only gets
// read if cancellation failed to stop the loop.
func TestSessionCancellation(t *testing.T) {
	steps := []readStep{
		{data: []byte("X")},
	}
	for i := 0; i < 8; i++ {
		steps = append(steps, readStep{err: serial.ErrReadTimeout})
	}
	steps = append(steps, readStep{err: errScriptDone})
	port := &scriptPort{steps: steps}

	ctx, cancel := context.WithCancel(context.Background())
	sink := &memSink{}
	sess := NewSession(NewAssembler(port, 0), &recordingEncoder{}, sink,
		WithObserver(func(Event) { cancel() }),
	)

	if err := sess.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil on cancellation", err)
	}
	if len(sink.packets) != 1 {
		t.Errorf("sink received %d packets, want 1", len(sink.packets))
	}
	if sink.flushes == 0 {
		t.Error("sink never flushed on cancellation")
	}
}
