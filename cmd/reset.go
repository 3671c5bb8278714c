/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ttylabs/serialpcap/serial"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <port>",
	Short: "Reset a USB serial device",
	Long: `Perform a USB-level reset on the device behind a serial port. Recovers
adapters that stopped responding mid-capture without unplugging them.

The device re-enumerates after the reset, so its port path may change
(/dev/ttyUSB0 can come back as /dev/ttyUSB1). Identify devices by serial
number when that matters; --wait polls until the device is back.

Requires the usbreset utility (usbutils package) and permissions to talk
to the USB device, typically root.

Examples:
  sudo serialpcap reset /dev/ttyUSB0
  sudo serialpcap reset --serial NC7ILXW1 --wait 10s`,
	Args: func(cmd *cobra.Command, args []string) error {
		bySerial, _ := cmd.Flags().GetString("serial")
		if bySerial == "" && len(args) != 1 {
			return errors.New("requires a port path argument or --serial")
		}
		if bySerial != "" && len(args) > 0 {
			return errors.New("port path and --serial are mutually exclusive")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReset(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			switch {
			case errors.Is(err, serial.ErrUSBResetNotAvailable):
				fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			case errors.Is(err, serial.ErrUSBInfoNotAvailable):
				fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
			}
			os.Exit(1)
		}
	},
}

func runReset(cmd *cobra.Command, args []string) error {
	bySerial, _ := cmd.Flags().GetString("serial")
	wait, _ := cmd.Flags().GetDuration("wait")

	var err error
	if bySerial != "" {
		fmt.Printf("Resetting USB device with serial %s\n", bySerial)
		err = serial.ResetUSBDeviceBySerial(bySerial)
	} else {
		fmt.Printf("Resetting USB device behind %s\n", args[0])
		err = serial.ResetUSBDevice(args[0])
	}
	if err != nil {
		return err
	}

	fmt.Println("Reset issued; the device re-enumerates and its port path may change")
	if wait <= 0 {
		fmt.Println("Run 'serialpcap list --table' to find it again")
		return nil
	}

	path, err := waitForDevice(bySerial, args, wait)
	if err != nil {
		return err
	}
	fmt.Printf("Device is back: %s\n", path)
	return nil
}

// waitForDevice polls for the device to finish re-enumerating. A serial
// number survives a path change; a plain path only matches if the device
// comes back under the same name.
func waitForDevice(bySerial string, args []string, wait time.Duration) (string, error) {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if bySerial != "" {
			if path := findPortBySerial(bySerial); path != "" {
				return path, nil
			}
		} else if _, err := os.Stat(args[0]); err == nil {
			return args[0], nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return "", fmt.Errorf("device did not reappear within %v", wait)
}

// findPortBySerial scans the known ports for a matching USB serial number
func findPortBySerial(serialNumber string) string {
	ports, err := serial.ListPorts()
	if err != nil {
		return ""
	}
	for _, path := range ports {
		info, err := serial.GetPortInfo(path)
		if err != nil {
			continue
		}
		if info.SerialNumber == serialNumber {
			return path
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial", "s", "", "Reset device by serial number")
	resetCmd.Flags().Duration("wait", 0, "Poll until the device reappears (0 disables)")
}
