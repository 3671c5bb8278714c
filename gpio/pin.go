// Package gpio drives single output lines through the Linux GPIO
// character-device interface (/dev/gpiochipN). It implements the output-pin
// contract the serial package uses for GPIO-backed control lines.
package gpio

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// gpioV2LineFlagOutput is GPIO_V2_LINE_FLAG_OUTPUT from <linux/gpio.h>
// (_BITULL(3)); golang.org/x/sys/unix exports the GPIO v2 ioctls and
// structs but not the gpio_v2_line_flag enum values.
const gpioV2LineFlagOutput = 0x8

// Pin is a single requested GPIO output line
type Pin struct {
	mu     sync.Mutex
	fd     int
	chip   string
	offset uint32
	closed bool
}

// ParsePinSpec splits a "chip:line" pin specification, e.g. "gpiochip0:17"
// or "/dev/gpiochip1:4"
func ParsePinSpec(spec string) (chip string, line uint32, err error) {
	idx := strings.LastIndex(spec, ":")
	if idx <= 0 || idx == len(spec)-1 {
		return "", 0, fmt.Errorf("invalid GPIO pin spec %q, want chip:line", spec)
	}

	chip = spec[:idx]
	n, err := strconv.ParseUint(spec[idx+1:], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GPIO line number in %q: %w", spec, err)
	}
	return chip, uint32(n), nil
}

// OpenOutput requests a single line on the given chip as an output. The
// consumer label shows up in gpioinfo so operators can see who holds the
// line. The line starts low; call SetValue to drive it.
func OpenOutput(chip string, line uint32, consumer string) (*Pin, error) {
	path := chip
	if !strings.HasPrefix(path, "/dev/") {
		path = "/dev/" + path
	}

	chipFd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %s: %w", path, err)
	}
	defer unix.Close(chipFd)

	var req unix.GPIOV2LineRequest
	req.Offsets[0] = line
	req.Num_lines = 1
	req.Config.Flags = gpioV2LineFlagOutput
	copy(req.Consumer[:len(req.Consumer)-1], consumer)

	if err := ioctl(chipFd, unix.GPIO_V2_GET_LINE_IOCTL, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("failed to request line %d on %s: %w", line, path, err)
	}

	p := &Pin{
		fd:     int(req.Fd),
		chip:   path,
		offset: line,
	}

	if err := p.SetValue(false); err != nil {
		unix.Close(p.fd)
		return nil, err
	}
	return p, nil
}

// SetValue drives the line high or low
func (p *Pin) SetValue(high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("GPIO line %s:%d is closed", p.chip, p.offset)
	}

	values := unix.GPIOV2LineValues{Mask: 1}
	if high {
		values.Bits = 1
	}

	if err := ioctl(p.fd, unix.GPIO_V2_LINE_SET_VALUES_IOCTL, unsafe.Pointer(&values)); err != nil {
		return fmt.Errorf("failed to set %s:%d: %w", p.chip, p.offset, err)
	}
	return nil
}

// Close releases the line back to the kernel
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.fd)
}

// String identifies the pin in logs, e.g. "/dev/gpiochip0:17"
func (p *Pin) String() string {
	return fmt.Sprintf("%s:%d", p.chip, p.offset)
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
