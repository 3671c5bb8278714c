/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/ttylabs/serialpcap/serial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port: the device identity,
USB metadata extracted from sysfs, and whether the invoking user has the
access needed to capture from it.

Examples:
  serialpcap info /dev/ttyUSB0
  serialpcap info /dev/ttyACM0`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Port Information: %s\n\n", info.Path)
		fmt.Printf("  Name:          %s\n", info.Name)
		fmt.Printf("  Description:   %s\n", info.Description)
		fmt.Printf("  Access:        %s\n", describeAccess(info.Path))
		fmt.Printf("  Output prefix: %s\n", filepath.Base(info.Path))

		usbFields := []struct {
			label string
			value string
		}{
			{"Vendor ID", info.VendorID},
			{"Product ID", info.ProductID},
			{"Serial", info.SerialNumber},
			{"Interface", info.InterfaceNumber},
			{"Bus", info.BusNumber},
			{"Device", info.DeviceNumber},
			{"Manufacturer", info.Manufacturer},
			{"Product", info.Product},
		}

		present := false
		for _, f := range usbFields {
			if f.value != "" {
				present = true
				break
			}
		}
		if !present {
			return
		}

		fmt.Println("\nUSB Device Information:")
		for _, f := range usbFields {
			if f.value != "" {
				fmt.Printf("  %-13s %s\n", f.label+":", f.value)
			}
		}
	},
}

// describeAccess reports whether the invoking user could open the port for
// capture. Capture needs both directions: reads for data, writes for
// control-line changes.
func describeAccess(path string) string {
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Sprintf("no read/write access (%v)", err)
	}
	return "read/write"
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
