/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ttylabs/serialpcap/serial"
)

// dtrCmd represents the dtr command
var dtrCmd = &cobra.Command{
	Use:   "dtr <port> <state>",
	Short: "Control DTR (Data Terminal Ready) line",
	Long: `Manually set the DTR (Data Terminal Ready) line state.

The DTR line indicates that the terminal is ready for communication.

Examples:
  serialpcap dtr /dev/ttyUSB0 high
  serialpcap dtr /dev/ttyUSB0 low
  serialpcap dtr /dev/ttyUSB0 on
  serialpcap dtr /dev/ttyUSB0 off

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		stateArg := args[1]

		state, err := parseSignalState(stateArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		port, err := serial.Open(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		err = port.SetDTR(state)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error setting DTR: %v\n", err)
			os.Exit(1)
		}

		// Verify the state was set
		lines, err := port.ControlLines()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not verify DTR state: %v\n", err)
			lines.DTR = state
		}

		fmt.Printf("DTR set to %s on %s\n", formatSignalState(lines.DTR), portPath)
	},
}

func init() {
	rootCmd.AddCommand(dtrCmd)
}
