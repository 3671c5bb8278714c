/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gopacket/gopacket/layers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ttylabs/serialpcap/capture"
	"github.com/ttylabs/serialpcap/encap"
	"github.com/ttylabs/serialpcap/gpio"
	"github.com/ttylabs/serialpcap/pcapout"
	"github.com/ttylabs/serialpcap/serial"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port>",
	Short: "Capture serial traffic to a pcap file",
	Long: `Capture serial traffic from a port into a pcap file.

Incoming bytes are grouped into frames by idle-gap detection: a frame ends
when the line stays quiet for the gap duration or when it reaches the
maximum frame size. Each frame becomes one pcap packet, stamped with the
control-line states sampled at the end of the frame.

By default the output file is named after the port with a timestamp suffix
(e.g. ttyUSB0-20260825-143000.pcap). Use --pipe to stream packets into a
named pipe for live dissection instead.

With --reflect, the control lines of the captured port are mirrored onto a
second port for downstream equipment: the observed RTS drives the mirror
port's RTS (seen as CTS through a null-modem cable) and DTR drives DTR
(seen as DSR). RI and CD have no TIOCM outputs, so mirroring them needs
--reflect-ri-gpio / --reflect-cd-gpio pins wired into the mirror cable.

Example usage:
  serialpcap capture /dev/ttyUSB0
  serialpcap capture /dev/ttyUSB0 --baud 9600 --parity e --stopbits 2
  serialpcap capture /dev/ttyUSB0 --link-type RTAC_SERIAL -o plant-floor
  serialpcap capture /dev/ttyUSB0 --pipe /tmp/serial.pcap
  serialpcap capture /dev/ttyUSB0 --reflect /dev/ttyUSB1 --reflect-ri-gpio gpiochip0:17`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		opts, err := captureOptionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := runCapture(portPath, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	captureCmd.Flags().Int("databits", 8, "Data bits: 5, 6, 7, 8")
	captureCmd.Flags().StringP("parity", "y", "n", "Parity: n, o, e, m, s")
	captureCmd.Flags().IntP("stopbits", "p", 1, "Stop bits: 1, 2")
	captureCmd.Flags().DurationP("gap", "g", 10*time.Millisecond, "Idle gap that terminates a frame")
	captureCmd.Flags().String("link-type", "USER0", "pcap link type (see 'serialpcap formats')")
	captureCmd.Flags().Bool("force-raw", false, "Write payload bytes as-is regardless of link type")
	captureCmd.Flags().StringP("output", "o", "", "Output file prefix (default: port base name)")
	captureCmd.Flags().String("pipe", "", "Write to a named pipe at this exact path instead of a file")
	captureCmd.Flags().String("reflect", "", "Mirror control lines onto this port")
	captureCmd.Flags().String("reflect-ri-gpio", "", "GPIO pin (chip:line) driving the mirrored RI line")
	captureCmd.Flags().String("reflect-cd-gpio", "", "GPIO pin (chip:line) driving the mirrored CD line")
	captureCmd.Flags().String("rts", "", "Initial RTS level on the captured port: high, low")
	captureCmd.Flags().String("dtr", "", "Initial DTR level on the captured port: high, low")

	_ = viper.BindPFlag("capture.baud", captureCmd.Flags().Lookup("baud"))
	_ = viper.BindPFlag("capture.databits", captureCmd.Flags().Lookup("databits"))
	_ = viper.BindPFlag("capture.parity", captureCmd.Flags().Lookup("parity"))
	_ = viper.BindPFlag("capture.stopbits", captureCmd.Flags().Lookup("stopbits"))
	_ = viper.BindPFlag("capture.gap", captureCmd.Flags().Lookup("gap"))
	_ = viper.BindPFlag("capture.link-type", captureCmd.Flags().Lookup("link-type"))
}

// captureOptions carries the parsed capture configuration from the CLI
// surface into runCapture.
type captureOptions struct {
	baudRate int
	dataBits int
	stopBits int
	parity   serial.Parity
	gap      time.Duration

	linkType layers.LinkType
	forceRaw bool

	output string
	pipe   string

	reflectPort string
	riPinSpec   string
	cdPinSpec   string

	initialRTS *bool
	initialDTR *bool
}

func captureOptionsFromFlags(cmd *cobra.Command) (captureOptions, error) {
	var opts captureOptions

	// Port tunables come through viper so a config file can set site-wide
	// defaults; one-shot flags are read directly.
	opts.baudRate = viper.GetInt("capture.baud")
	opts.dataBits = viper.GetInt("capture.databits")
	opts.stopBits = viper.GetInt("capture.stopbits")
	opts.gap = viper.GetDuration("capture.gap")

	parity, err := serial.ParseParity(viper.GetString("capture.parity"))
	if err != nil {
		return opts, err
	}
	opts.parity = parity

	linkType, err := encap.ParseLinkType(viper.GetString("capture.link-type"))
	if err != nil {
		return opts, err
	}
	opts.linkType = linkType

	opts.forceRaw, _ = cmd.Flags().GetBool("force-raw")
	opts.output, _ = cmd.Flags().GetString("output")
	opts.pipe, _ = cmd.Flags().GetString("pipe")
	opts.reflectPort, _ = cmd.Flags().GetString("reflect")
	opts.riPinSpec, _ = cmd.Flags().GetString("reflect-ri-gpio")
	opts.cdPinSpec, _ = cmd.Flags().GetString("reflect-cd-gpio")

	if opts.output != "" && opts.pipe != "" {
		return opts, fmt.Errorf("--output and --pipe are mutually exclusive")
	}
	if opts.reflectPort == "" && (opts.riPinSpec != "" || opts.cdPinSpec != "") {
		return opts, fmt.Errorf("--reflect-ri-gpio/--reflect-cd-gpio require --reflect")
	}

	if arg, _ := cmd.Flags().GetString("rts"); arg != "" {
		state, err := parseSignalState(arg)
		if err != nil {
			return opts, err
		}
		opts.initialRTS = &state
	}
	if arg, _ := cmd.Flags().GetString("dtr"); arg != "" {
		state, err := parseSignalState(arg)
		if err != nil {
			return opts, err
		}
		opts.initialDTR = &state
	}

	return opts, nil
}

func runCapture(portPath string, opts captureOptions) error {
	portOpts := []serial.Option{
		serial.WithBaudRate(opts.baudRate),
		serial.WithDataBits(opts.dataBits),
		serial.WithStopBits(opts.stopBits),
		serial.WithParity(opts.parity),
		serial.WithReadTimeout(opts.gap),
	}
	if opts.initialRTS != nil {
		portOpts = append(portOpts, serial.WithInitialRTS(*opts.initialRTS))
	}
	if opts.initialDTR != nil {
		portOpts = append(portOpts, serial.WithInitialDTR(*opts.initialDTR))
	}

	enc := newEncoder(opts.linkType, opts.forceRaw)
	if _, ok := enc.Format(); !ok {
		return fmt.Errorf("link type %s has no frame encapsulation (use --force-raw to write payload bytes as-is)",
			encap.LinkTypeName(opts.linkType))
	}

	port, err := serial.Open(portPath, portOpts...)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	// Drop whatever accumulated in the kernel buffer before we started
	if err := port.FlushInput(); err != nil {
		return fmt.Errorf("failed to flush port: %w", err)
	}

	sessionOpts := []capture.SessionOption{
		capture.WithLogger(slog.Default()),
	}

	if opts.reflectPort != "" {
		mirror, err := openMirrorPort(opts)
		if err != nil {
			return err
		}
		defer mirror.Close()
		sessionOpts = append(sessionOpts, capture.WithReflector(serial.NewReflector(mirror)))
	}

	sink, err := openSink(portPath, opts)
	if err != nil {
		return err
	}
	defer sink.Close()

	asm := capture.NewAssembler(port, capture.DefaultMaxFrameSize)
	session := capture.NewSession(asm, enc, sink, sessionOpts...)

	// Setup signal handling for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "Capturing from %s to %s (%s)\n", portPath, sink.Path(), encap.LinkTypeName(opts.linkType))
	if opts.reflectPort != "" {
		fmt.Fprintf(os.Stderr, "Mirroring control lines onto %s\n", opts.reflectPort)
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	startTime := time.Now()
	runErr := session.Run(ctx)

	duration := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d frames, %d bytes in %v\n",
		session.Events(), session.Bytes(), duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Output written to %s\n", sink.Path())

	if runErr != nil {
		return fmt.Errorf("capture failed: %w", runErr)
	}
	return nil
}

func newEncoder(linkType layers.LinkType, forceRaw bool) *encap.Encoder {
	if forceRaw {
		return encap.NewRawEncoder(linkType)
	}
	return encap.NewEncoder(linkType)
}

// openMirrorPort opens the reflection target, attaching GPIO pins for the
// RI and CD lines when pin specs were given.
func openMirrorPort(opts captureOptions) (serial.Port, error) {
	mirrorOpts := []serial.Option{
		serial.WithBaudRate(opts.baudRate),
		serial.WithDataBits(opts.dataBits),
		serial.WithStopBits(opts.stopBits),
		serial.WithParity(opts.parity),
	}

	if opts.riPinSpec != "" {
		pin, err := openPin(opts.riPinSpec, "serialpcap-ri")
		if err != nil {
			return nil, fmt.Errorf("failed to open RI pin: %w", err)
		}
		mirrorOpts = append(mirrorOpts, serial.WithRIPin(pin))
	}
	if opts.cdPinSpec != "" {
		pin, err := openPin(opts.cdPinSpec, "serialpcap-cd")
		if err != nil {
			return nil, fmt.Errorf("failed to open CD pin: %w", err)
		}
		mirrorOpts = append(mirrorOpts, serial.WithCDPin(pin))
	}

	mirror, err := serial.Open(opts.reflectPort, mirrorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror port: %w", err)
	}
	return mirror, nil
}

func openPin(spec, consumer string) (*gpio.Pin, error) {
	chip, line, err := gpio.ParsePinSpec(spec)
	if err != nil {
		return nil, err
	}
	return gpio.OpenOutput(chip, line, consumer)
}

func openSink(portPath string, opts captureOptions) (*pcapout.Writer, error) {
	if opts.pipe != "" {
		sink, err := pcapout.CreatePipe(opts.pipe, opts.linkType, pcapout.DefaultSnapLen)
		if err != nil {
			return nil, fmt.Errorf("failed to open pipe: %w", err)
		}
		return sink, nil
	}

	prefix := opts.output
	if prefix == "" {
		prefix = filepath.Base(portPath)
	}
	sink, err := pcapout.Create(pcapout.OutputPath(prefix, time.Now()), opts.linkType, pcapout.DefaultSnapLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return sink, nil
}
