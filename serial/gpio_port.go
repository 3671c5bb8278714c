package serial

import (
	"context"
	"fmt"
	"time"
)

// gpioPort augments an inner port with GPIO-backed outputs for the lines a
// UART cannot drive (Ring Indicator, Carrier Detect). Everything else is
// forwarded to the inner port unchanged; the override surface is limited to
// the control-line operations.
type gpioPort struct {
	inner Port
	riPin OutputPin
	cdPin OutputPin
	caps  Capabilities
}

var _ Port = (*gpioPort)(nil)

// newGpioPort wraps inner with up to two auxiliary output pins. Capability
// flags are fixed here: the wrapper always answers RTS/DTR reads because the
// inner port tracks commanded state, and RI/DCD become drivable when the
// matching pin is present.
func newGpioPort(inner Port, riPin, cdPin OutputPin) *gpioPort {
	caps := inner.Capabilities()
	caps.CanSetRI = riPin != nil
	caps.CanSetCD = cdPin != nil
	caps.CanReadRTS = true
	caps.CanReadDTR = true
	return &gpioPort{
		inner: inner,
		riPin: riPin,
		cdPin: cdPin,
		caps:  caps,
	}
}

// Close closes the auxiliary pins and then the inner port
func (g *gpioPort) Close() error {
	var pinErr error
	if g.riPin != nil {
		pinErr = g.riPin.Close()
	}
	if g.cdPin != nil {
		if err := g.cdPin.Close(); err != nil && pinErr == nil {
			pinErr = err
		}
	}

	if err := g.inner.Close(); err != nil {
		return err
	}
	return pinErr
}

func (g *gpioPort) Read(buf []byte) (int, error) {
	return g.inner.Read(buf)
}

func (g *gpioPort) Write(data []byte) (int, error) {
	return g.inner.Write(data)
}

func (g *gpioPort) FlushInput() error {
	return g.inner.FlushInput()
}

func (g *gpioPort) ControlLines() (ControlLines, error) {
	return g.inner.ControlLines()
}

// SetControlLines drives RTS/DTR through the inner port and RI/DCD through
// the auxiliary pins. Primary-line failures are returned; pin failures are
// swallowed so a flaky auxiliary line cannot abort the primary result.
func (g *gpioPort) SetControlLines(lines ControlLines) error {
	if err := g.inner.SetRTS(lines.RTS); err != nil {
		return fmt.Errorf("drive RTS: %w", err)
	}
	if err := g.inner.SetDTR(lines.DTR); err != nil {
		return fmt.Errorf("drive DTR: %w", err)
	}
	if g.caps.CanSetRI {
		// Auxiliary line, non-fatal
		_ = g.riPin.SetValue(lines.RI)
	}
	if g.caps.CanSetCD {
		// Auxiliary line, non-fatal
		_ = g.cdPin.SetValue(lines.DCD)
	}
	return nil
}

func (g *gpioPort) SetRTS(state bool) error {
	return g.inner.SetRTS(state)
}

func (g *gpioPort) SetDTR(state bool) error {
	return g.inner.SetDTR(state)
}

// SetRI drives the Ring Indicator output pin
func (g *gpioPort) SetRI(state bool) error {
	if g.riPin == nil {
		return ErrLineNotSupported
	}
	return g.riPin.SetValue(state)
}

// SetCD drives the Carrier Detect output pin
func (g *gpioPort) SetCD(state bool) error {
	if g.cdPin == nil {
		return ErrLineNotSupported
	}
	return g.cdPin.SetValue(state)
}

func (g *gpioPort) Capabilities() Capabilities {
	return g.caps
}

func (g *gpioPort) WaitForLineChange(mask LineMask, timeout time.Duration) (ControlLines, LineMask, error) {
	return g.inner.WaitForLineChange(mask, timeout)
}

func (g *gpioPort) WaitForLineChangeContext(ctx context.Context, mask LineMask) (ControlLines, LineMask, error) {
	return g.inner.WaitForLineChangeContext(ctx, mask)
}
