package serial

import (
	"strings"
	"time"
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// String returns the canonical lowercase name of the parity mode
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return "unknown"
	}
}

// ParseParity converts a user-supplied parity name to a Parity value.
// Single-letter forms (n, o, e, m, s) are accepted.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	case "m", "mark":
		return ParityMark, nil
	case "s", "space":
		return ParitySpace, nil
	default:
		return ParityNone, ErrInvalidConfig
	}
}

// OutputPin is a single digital output used to drive control lines the UART
// itself cannot, typically a GPIO line wired to RI or DCD on the far side.
type OutputPin interface {
	SetValue(high bool) error
	Close() error
}

// Config holds the configuration for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	ReadTimeout time.Duration // idle bound for Read; the inter-frame gap during capture

	// Initial output line states applied at open. Nil leaves the line as
	// the driver set it.
	InitialRTS *bool
	InitialDTR *bool

	// Auxiliary outputs for lines the UART cannot drive. Setting either
	// selects the GPIO-augmented port variant. Pins are owned by the port
	// and closed with it.
	RIPin OutputPin
	CDPin OutputPin
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
// The read timeout matches the default inter-frame gap used for capture.
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		ReadTimeout: 10 * time.Millisecond,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithReadTimeout sets the idle bound for Read. Reads that see no data for
// this long return ErrReadTimeout. Granularity is one millisecond.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < time.Millisecond {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithInitialRTS sets the RTS line state applied when the port is opened
func WithInitialRTS(state bool) Option {
	return func(c *Config) error {
		c.InitialRTS = &state
		return nil
	}
}

// WithInitialDTR sets the DTR line state applied when the port is opened
func WithInitialDTR(state bool) Option {
	return func(c *Config) error {
		c.InitialDTR = &state
		return nil
	}
}

// WithRIPin attaches a GPIO-backed output for the Ring Indicator line
func WithRIPin(pin OutputPin) Option {
	return func(c *Config) error {
		if pin == nil {
			return ErrInvalidConfig
		}
		c.RIPin = pin
		return nil
	}
}

// WithCDPin attaches a GPIO-backed output for the Carrier Detect line
func WithCDPin(pin OutputPin) Option {
	return func(c *Config) error {
		if pin == nil {
			return ErrInvalidConfig
		}
		c.CDPin = pin
		return nil
	}
}
