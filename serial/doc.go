// Package serial provides byte I/O and control-line access for Linux serial
// ports, built for wire-level capture of RS-232-class traffic.
//
// Beyond plain reads and writes, the package exposes the full set of modem
// control lines (RTS, CTS, DTR, DSR, DCD, RI) as a uniform snapshot type,
// supports GPIO-backed outputs for the lines a UART cannot drive, and can
// replay one port's line state onto another to emulate a null-modem
// connection.
//
// # Basic Usage
//
// Open a serial port with default configuration (115200 8N1):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	buffer := make([]byte, 256)
//	n, err := port.Read(buffer)
//
// Read blocks for at most the configured read timeout and returns
// ErrReadTimeout when the line stays idle, which is what idle-gap framing
// builds on:
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithStopBits(2),
//	    serial.WithReadTimeout(10*time.Millisecond),
//	)
//
// # Control Lines
//
// ControlLines is a full six-line snapshot; SetControlLines drives the
// output lines with the documented failure policy (RTS/DTR escalate, RI/DCD
// degrade):
//
//	lines, err := port.ControlLines()
//	fmt.Printf("CTS=%v DSR=%v DCD=%v RI=%v\n",
//	    lines.CTS, lines.DSR, lines.DCD, lines.RI)
//
//	err = port.SetRTS(true)
//	err = port.SetDTR(false)
//
//	// Wait for input line changes (event-driven)
//	lines, changed, err := port.WaitForLineChange(
//	    serial.LineDSR|serial.LineDCD,
//	    5*time.Second,
//	)
//
// Capabilities reports what a port instance can actually do. The flags are
// computed once at open and never change:
//
//	caps := port.Capabilities()
//	if caps.CanSetRI {
//	    err = port.SetRI(true)
//	}
//
// # GPIO-Augmented Ports
//
// A UART cannot drive Ring Indicator or Carrier Detect. Attaching output
// pins at open selects a port variant that can:
//
//	port, err := serial.Open("/dev/ttyUSB1",
//	    serial.WithRIPin(riPin),
//	    serial.WithCDPin(cdPin),
//	)
//
// # Line Reflection
//
// A Reflector replays captured line state onto a second port, so the device
// attached there sees the same signal environment as the original peer:
//
//	mirror := serial.NewReflector(dstPort)
//	err := mirror.Reflect(capturedLines)
//
// # Port Discovery
//
// List available serial ports and get USB device metadata:
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # USB Device Management
//
// Reset hung USB adapters programmatically:
//
//	err := serial.ResetUSBDevice("/dev/ttyUSB0")
//	err = serial.ResetUSBDeviceBySerial("FT123456")
//
// Requires the usbreset utility from usbutils and root/sudo permissions.
//
// # Error Handling
//
// The package provides specific error types for robust error handling:
//
//	var (
//	    ErrReadTimeout          // Line idle for the configured timeout
//	    ErrPortClosed           // Port already closed
//	    ErrLineNotSupported     // No backing for the requested output line
//	    ErrUSBInfoNotAvailable  // USB metadata unavailable
//	    ErrUSBResetNotAvailable // usbreset utility not found
//	    // ... and more
//	)
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, serial.ErrReadTimeout) {
//	    // Idle gap, not a transport failure
//	}
//
// # Default Configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 10ms
package serial
