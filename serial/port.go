package serial

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Port represents a serial channel with byte I/O and control-line access
type Port interface {
	Close() error
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	FlushInput() error

	// Control line access and capability reporting
	ControlLines() (ControlLines, error)
	SetControlLines(lines ControlLines) error
	SetRTS(state bool) error
	SetDTR(state bool) error
	SetRI(state bool) error
	SetCD(state bool) error
	Capabilities() Capabilities
	WaitForLineChange(mask LineMask, timeout time.Duration) (ControlLines, LineMask, error)
	WaitForLineChangeContext(ctx context.Context, mask LineMask) (ControlLines, LineMask, error)
}

// port is the basic implementation of the Port interface over a termios fd
type port struct {
	mu     sync.RWMutex
	fd     int
	config Config
	caps   Capabilities
	closed bool

	// Last commanded output states. Used to answer RTS/DTR reads when the
	// hardware cannot report them.
	lastRTS *bool
	lastDTR *bool
}

// Ensure port implements Port interface at compile time
var _ Port = (*port)(nil)

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// getModemStatus retrieves the raw TIOCM status word
func getModemStatus(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCMGET)
}

// setModemBit asserts or clears a single TIOCM bit
func setModemBit(fd int, bit int, state bool) error {
	if state {
		return unix.IoctlSetInt(fd, unix.TIOCMBIS, bit)
	}
	return unix.IoctlSetInt(fd, unix.TIOCMBIC, bit)
}

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	// Apply default configuration
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		switch err {
		case unix.ENOENT:
			return nil, ErrDeviceNotFound
		case unix.EACCES:
			return nil, ErrPermissionDenied
		case unix.EBUSY:
			return nil, ErrDeviceInUse
		}
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}

	// Take exclusive ownership so a second open gets EBUSY. Best effort on
	// drivers that do not implement it.
	_ = unix.IoctlSetInt(fd, unix.TIOCEXCL, 0)

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// O_NONBLOCK was only needed so open cannot hang on a modem line; with
	// CLOCAL set the fd can go back to blocking mode.
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to clear O_NONBLOCK: %w", err)
	}

	p := &port{
		fd:     fd,
		config: config,
	}

	// Probe modem-line support once. Ports whose driver answers TIOCMGET can
	// report RTS/DTR back; the others fall back to the tracked state.
	if _, err := getModemStatus(fd); err == nil {
		p.caps.CanReadRTS = true
		p.caps.CanReadDTR = true
	}

	// Apply initial signal states if configured
	if config.InitialRTS != nil {
		if err := setModemBit(fd, unix.TIOCM_RTS, *config.InitialRTS); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set initial RTS: %w", err)
		}
		p.lastRTS = config.InitialRTS
	}
	if config.InitialDTR != nil {
		if err := setModemBit(fd, unix.TIOCM_DTR, *config.InitialDTR); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set initial DTR: %w", err)
		}
		p.lastDTR = config.InitialDTR
	}

	if config.RIPin != nil || config.CDPin != nil {
		return newGpioPort(p, config.RIPin, config.CDPin), nil
	}
	return p, nil
}

// configurePort configures the serial port for raw byte capture
func configurePort(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	// Raw mode: no input, output or line processing
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Cflag = unix.CREAD | unix.CLOCAL

	// Data bits
	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	// Stop bits
	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	// Parity
	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	case ParityMark:
		termios.Cflag |= unix.PARENB | unix.CMSPAR | unix.PARODD
	case ParitySpace:
		termios.Cflag |= unix.PARENB | unix.CMSPAR
	}

	// Timing is handled by poll in Read, so the driver queue never blocks
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baudRate
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}

	return nil
}

// Close closes the serial port
func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	err := unix.Close(p.fd)
	p.closed = true
	return err
}

// Read reads data from the serial port. It blocks for at most the configured
// read timeout; if no byte arrives in that window it returns ErrReadTimeout
// with a zero count. Any other error is a transport failure.
func (p *port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	timeoutMs := int(p.config.ReadTimeout / time.Millisecond)
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			return 0, ErrReadTimeout
		}
		break
	}

	revents := fds[0].Revents
	if revents&unix.POLLIN == 0 {
		if revents&unix.POLLHUP != 0 {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("serial device error: revents 0x%x", revents)
	}

	for {
		n, err := unix.Read(p.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes data to the serial port
func (p *port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	written := 0
	for written < len(data) {
		n, err := unix.Write(p.fd, data[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// FlushInput discards any unread input data
func (p *port) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIFLUSH)
}

// ControlLines returns a full snapshot of all six control lines.
// Input lines come from the driver; RTS/DTR come from the driver when it
// reports them and from the last commanded state otherwise. Lines that
// cannot be determined read as false.
func (p *port) ControlLines() (ControlLines, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ControlLines{}, ErrPortClosed
	}

	status, err := getModemStatus(p.fd)
	if err != nil {
		// No modem-line support on this driver: substitute tracked state
		if err == unix.ENOTTY || err == unix.EINVAL {
			return p.shadowLines(), nil
		}
		return ControlLines{}, err
	}

	lines := linesFromTIOCM(status)
	if !p.caps.CanReadRTS {
		lines.RTS = p.lastRTS != nil && *p.lastRTS
	}
	if !p.caps.CanReadDTR {
		lines.DTR = p.lastDTR != nil && *p.lastDTR
	}
	return lines, nil
}

// shadowLines builds a snapshot purely from tracked output state
func (p *port) shadowLines() ControlLines {
	return ControlLines{
		RTS: p.lastRTS != nil && *p.lastRTS,
		DTR: p.lastDTR != nil && *p.lastDTR,
	}
}

// SetControlLines drives the output lines to match the given state.
// RTS and DTR failures are returned; RI and DCD are skipped on the basic
// port variant, which has no backing for them.
func (p *port) SetControlLines(lines ControlLines) error {
	if err := p.SetRTS(lines.RTS); err != nil {
		return fmt.Errorf("drive RTS: %w", err)
	}
	if err := p.SetDTR(lines.DTR); err != nil {
		return fmt.Errorf("drive DTR: %w", err)
	}
	return nil
}

// SetRTS sets the RTS signal state
func (p *port) SetRTS(state bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	if err := setModemBit(p.fd, unix.TIOCM_RTS, state); err != nil {
		return err
	}
	p.lastRTS = &state
	return nil
}

// SetDTR sets the DTR signal state
func (p *port) SetDTR(state bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	if err := setModemBit(p.fd, unix.TIOCM_DTR, state); err != nil {
		return err
	}
	p.lastDTR = &state
	return nil
}

// SetRI reports ErrLineNotSupported: a UART cannot drive Ring Indicator.
// Use a GPIO-augmented port for RI output.
func (p *port) SetRI(state bool) error {
	return ErrLineNotSupported
}

// SetCD reports ErrLineNotSupported: a UART cannot drive Carrier Detect.
// Use a GPIO-augmented port for DCD output.
func (p *port) SetCD(state bool) error {
	return ErrLineNotSupported
}

// Capabilities returns the immutable capability flags computed at open
func (p *port) Capabilities() Capabilities {
	return p.caps
}

// WaitForLineChange blocks until any monitored input line changes state.
// Returns the new snapshot and which line(s) changed.
func (p *port) WaitForLineChange(mask LineMask, timeout time.Duration) (ControlLines, LineMask, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	resultCh, err := p.startLineWait(mask)
	if err != nil {
		return ControlLines{}, 0, err
	}

	select {
	case result := <-resultCh:
		return result.lines, result.changed, result.err
	case <-timer.C:
		return ControlLines{}, 0, ErrLineWaitTimeout
	}
}

// WaitForLineChangeContext waits with context cancellation support
func (p *port) WaitForLineChangeContext(ctx context.Context, mask LineMask) (ControlLines, LineMask, error) {
	resultCh, err := p.startLineWait(mask)
	if err != nil {
		return ControlLines{}, 0, err
	}

	select {
	case result := <-resultCh:
		return result.lines, result.changed, result.err
	case <-ctx.Done():
		return ControlLines{}, 0, ctx.Err()
	}
}

type lineWaitResult struct {
	lines   ControlLines
	changed LineMask
	err     error
}

// startLineWait launches a TIOCMIWAIT wait in the background. The returned
// channel receives exactly one result. The wait itself cannot be interrupted;
// abandoned waiters finish on the next line transition or when the fd closes.
func (p *port) startLineWait(mask LineMask) (<-chan lineWaitResult, error) {
	if mask == 0 {
		return nil, ErrInvalidLineMask
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPortClosed
	}
	fd := p.fd
	p.mu.RUnlock()

	oldStatus, err := getModemStatus(fd)
	if err != nil {
		return nil, err
	}

	tiocmBits := lineMaskToTIOCM(mask)
	resultCh := make(chan lineWaitResult, 1)

	go func() {
		if err := unix.IoctlSetInt(fd, unix.TIOCMIWAIT, tiocmBits); err != nil {
			resultCh <- lineWaitResult{err: err}
			return
		}

		newStatus, err := getModemStatus(fd)
		if err != nil {
			resultCh <- lineWaitResult{err: err}
			return
		}

		resultCh <- lineWaitResult{
			lines:   linesFromTIOCM(newStatus),
			changed: detectLineChanges(oldStatus, newStatus),
		}
	}()

	return resultCh, nil
}
