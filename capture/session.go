package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ttylabs/serialpcap/serial"
)

// Sink receives encoded events. The pcap container writer implements this;
// tests substitute an in-memory recorder.
type Sink interface {
	WritePacket(ts time.Time, data []byte) error
	Flush() error
}

// Encoder serializes one event into the byte layout the sink stores
type Encoder interface {
	Encode(ev Event) ([]byte, error)
}

// Session is a single capture run: one port feeding one sink. The session
// exclusively owns its assembler, encoder, sink and optional reflector for
// its whole lifetime; nothing else may touch them while Run executes.
type Session struct {
	asm       *Assembler
	enc       Encoder
	sink      Sink
	reflector *serial.Reflector
	onEvent   func(Event)
	log       *slog.Logger

	last   serial.ControlLines
	events uint64
	bytes  uint64
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithReflector mirrors every captured line snapshot onto another port,
// including snapshots of suppressed events
func WithReflector(r *serial.Reflector) SessionOption {
	return func(s *Session) {
		s.reflector = r
	}
}

// WithObserver calls fn for every forwarded event, after it reached the
// sink. fn runs on the session goroutine and must not block.
func WithObserver(fn func(Event)) SessionOption {
	return func(s *Session) {
		s.onEvent = fn
	}
}

// WithLogger sets the session logger
func WithLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession wires an assembler, encoder and sink into a capture loop
func NewSession(asm *Assembler, enc Encoder, sink Sink, opts ...SessionOption) *Session {
	s := &Session{
		asm:  asm,
		enc:  enc,
		sink: sink,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the capture loop until ctx is cancelled or a fatal error
// occurs. Cancellation is checked between events, never inside an
// accumulation, so shutdown cannot corrupt a frame in progress; the
// assembler's idle ticks guarantee the check runs at least once per gap
// interval on a silent line. On both exits the sink is flushed; a fatal
// error is returned with its cause, cancellation returns nil.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return nil
		default:
		}

		ev, err := s.asm.Next()
		if err != nil {
			s.flush()
			return err
		}

		if s.reflector != nil {
			if err := s.reflector.Reflect(ev.Lines); err != nil {
				s.flush()
				return fmt.Errorf("line reflection: %w", err)
			}
		}

		if ev.Insignificant(s.last) {
			continue
		}

		encoded, err := s.enc.Encode(ev)
		if err != nil {
			s.flush()
			return err
		}

		if err := s.sink.WritePacket(ev.Timestamp, encoded); err != nil {
			s.flush()
			return fmt.Errorf("sink write: %w", err)
		}

		s.last = ev.Lines
		s.events++
		s.bytes += uint64(len(ev.Data))
		s.log.Debug("event captured",
			"payload_bytes", len(ev.Data),
			"total_events", s.events,
		)

		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}
}

func (s *Session) flush() {
	if err := s.sink.Flush(); err != nil {
		s.log.Warn("sink flush failed", "error", err)
	}
}

// Events returns the number of forwarded events. Valid once Run returned.
func (s *Session) Events() uint64 {
	return s.events
}

// Bytes returns the payload byte total of forwarded events. Valid once Run
// returned.
func (s *Session) Bytes() uint64 {
	return s.bytes
}
