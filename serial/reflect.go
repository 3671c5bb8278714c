package serial

// Mirror derives the output state to drive onto a reflection destination
// from a source snapshot. The destination's RTS and DTR outputs carry the
// source's RTS and DTR; across the null-modem cross wiring the device
// attached to the destination therefore observes them as CTS and DSR.
// RI and DCD pass through unchanged and only take effect on destinations
// with GPIO-backed outputs for them. CTS and DSR are inputs on the
// destination and are never driven.
func Mirror(src ControlLines) ControlLines {
	return ControlLines{
		RTS: src.RTS,
		DTR: src.DTR,
		RI:  src.RI,
		DCD: src.DCD,
	}
}

// Reflector replays one port's captured line state onto another port,
// emulating a null-modem connection for the device attached there.
type Reflector struct {
	dst  Port
	last *ControlLines
}

// NewReflector returns a reflector driving dst
func NewReflector(dst Port) *Reflector {
	return &Reflector{dst: dst}
}

// Reflect drives the destination outputs from a source snapshot. Writes are
// only issued when the derived state differs from the last driven one, so
// calling this once per captured event is cheap. Failures on RTS/DTR are
// returned; failures on the auxiliary RI/DCD outputs are absorbed by the
// destination port per its capability flags.
func (r *Reflector) Reflect(src ControlLines) error {
	want := Mirror(src)
	if r.last != nil && *r.last == want {
		return nil
	}
	if err := r.dst.SetControlLines(want); err != nil {
		return err
	}
	r.last = &want
	return nil
}
