/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ttylabs/serialpcap/serial"
)

var (
	watchLines   []string
	watchTimeout time.Duration
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals <port>",
	Short: "Display or watch modem control line states",
	Long: `Display the current state of all modem control lines.

With --watch, block on line transitions and report each change as it
happens until interrupted (Ctrl+C).

Examples:
  serialpcap signals /dev/ttyUSB0
  serialpcap signals /dev/ttyUSB0 --watch
  serialpcap signals /dev/ttyUSB0 --watch --lines cts,dsr
  serialpcap signals /dev/ttyUSB0 --watch --lines dcd --timeout 30s

Line meanings:
  CTS - Clear To Send (input)
  DSR - Data Set Ready (input)
  RI  - Ring Indicator (input)
  DCD - Data Carrier Detect (input)
  RTS - Request To Send (output)
  DTR - Data Terminal Ready (output)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		watch, _ := cmd.Flags().GetBool("watch")

		port, err := serial.Open(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		lines, err := port.ControlLines()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading control lines: %v\n", err)
			os.Exit(1)
		}

		if !watch {
			printLineSnapshot(portPath, lines)
			return
		}

		mask, err := parseLineMask(watchLines)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing lines: %v\n", err)
			os.Exit(1)
		}

		if err := watchLineChanges(port, portPath, lines, mask); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().BoolP("watch", "w", false, "Watch for line changes instead of a one-shot snapshot")
	signalsCmd.Flags().StringSliceVarP(&watchLines, "lines", "l", []string{"cts", "dsr", "ri", "dcd"},
		"Lines to watch (comma-separated: cts,dsr,ri,dcd)")
	signalsCmd.Flags().DurationVarP(&watchTimeout, "timeout", "t", 0,
		"Timeout for each wait operation (0 = no timeout)")
}

func watchLineChanges(port serial.Port, portPath string, initial serial.ControlLines, mask serial.LineMask) error {
	// Setup signal handler for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	fmt.Printf("Watching lines on %s (%s)\n", portPath, strings.Join(watchLines, ", "))
	fmt.Println("Press Ctrl+C to stop")
	printLineState("Initial", initial, mask)

	for {
		var lines serial.ControlLines
		var changed serial.LineMask
		var err error

		if watchTimeout > 0 {
			timeoutCtx, timeoutCancel := context.WithTimeout(ctx, watchTimeout)
			lines, changed, err = port.WaitForLineChangeContext(timeoutCtx, mask)
			timeoutCancel()
		} else {
			lines, changed, err = port.WaitForLineChangeContext(ctx, mask)
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, serial.ErrLineWaitTimeout) || errors.Is(err, context.DeadlineExceeded) {
				fmt.Printf("[%s] Timeout - no line changes\n", time.Now().Format("15:04:05"))
				continue
			}
			return fmt.Errorf("waiting for line change: %w", err)
		}

		printLineState("Change detected", lines, changed)
	}
}

func parseLineMask(names []string) (serial.LineMask, error) {
	if len(names) == 0 {
		return serial.LineCTS | serial.LineDSR | serial.LineRI | serial.LineDCD, nil
	}

	var mask serial.LineMask
	for _, name := range names {
		switch strings.ToLower(name) {
		case "cts":
			mask |= serial.LineCTS
		case "dsr":
			mask |= serial.LineDSR
		case "ri":
			mask |= serial.LineRI
		case "dcd":
			mask |= serial.LineDCD
		default:
			return 0, fmt.Errorf("unknown line: %s (valid: cts, dsr, ri, dcd)", name)
		}
	}
	return mask, nil
}

func printLineSnapshot(portPath string, lines serial.ControlLines) {
	fmt.Printf("Control Lines for %s:\n\n", portPath)
	fmt.Printf("  CTS (Clear To Send):       %s\n", formatSignalState(lines.CTS))
	fmt.Printf("  DSR (Data Set Ready):      %s\n", formatSignalState(lines.DSR))
	fmt.Printf("  RI  (Ring Indicator):      %s\n", formatSignalState(lines.RI))
	fmt.Printf("  DCD (Data Carrier Detect): %s\n", formatSignalState(lines.DCD))
	fmt.Printf("  RTS (Request To Send):     %s\n", formatSignalState(lines.RTS))
	fmt.Printf("  DTR (Data Terminal Ready): %s\n", formatSignalState(lines.DTR))
}

func printLineState(prefix string, lines serial.ControlLines, mask serial.LineMask) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] %s:\n", timestamp, prefix)
	if mask&serial.LineCTS != 0 {
		fmt.Printf("  CTS: %s\n", formatSignalState(lines.CTS))
	}
	if mask&serial.LineDSR != 0 {
		fmt.Printf("  DSR: %s\n", formatSignalState(lines.DSR))
	}
	if mask&serial.LineRI != 0 {
		fmt.Printf("  RI:  %s\n", formatSignalState(lines.RI))
	}
	if mask&serial.LineDCD != 0 {
		fmt.Printf("  DCD: %s\n", formatSignalState(lines.DCD))
	}
	fmt.Println()
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}
