/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ttylabs/serialpcap/serial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List the serial ports a capture could attach to.

The scan covers USB serial adapters (ttyUSB*), USB CDC/ACM devices
(ttyACM*), standard UARTs (ttyS*) and the common SoC-specific ports
(ttyAMA*, ttymxc*, ttySAC*, ttyTHS*, ttyO*). Virtual terminals and
pseudo-terminals are excluded.

The plain listing prints one path per line for scripting; --table adds
USB identity columns.`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports = filterPorts(ports, filterType)
		if len(ports) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(ports)
			return
		}
		for _, port := range ports {
			fmt.Println(port)
		}
	},
}

// portClass couples a /dev name prefix with the type label shown in the
// table and the --filter group it belongs to. Order matters: ttySAC must
// classify before the bare ttyS prefix.
type portClass struct {
	prefix string
	label  string
	filter string
}

var portClasses = []portClass{
	{"ttyusb", "USB Serial", "usb"},
	{"ttyacm", "USB CDC/ACM", "usb"},
	{"ttyama", "ARM Serial", "arm"},
	{"ttymxc", "i.MX Serial", ""},
	{"ttysac", "Samsung Serial", ""},
	{"ttyths", "Tegra Serial", ""},
	{"ttyo", "OMAP Serial", ""},
	{"ttys", "Standard Serial", "standard"},
}

func classify(name string) portClass {
	name = strings.ToLower(name)
	for _, c := range portClasses {
		if strings.HasPrefix(name, c.prefix) {
			return c
		}
	}
	return portClass{label: "Serial Port"}
}

// filterPorts keeps the ports whose class matches the requested group
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		if classify(filepath.Base(port)).filter == filterType {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

// renderTable renders the port list in a styled static table format
func renderTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)
	cellStyle := lipgloss.NewStyle().PaddingRight(2)

	fmt.Println(headerStyle.Render(tableRow("Port", "Type", "VID:PID", "Serial", "Description")))

	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			fmt.Println(cellStyle.Render(tableRow(port, "Unknown", "", "", fmt.Sprintf("Error: %v", err))))
			continue
		}
		fmt.Println(cellStyle.Render(tableRow(
			info.Name,
			classify(info.Name).label,
			usbID(info),
			info.SerialNumber,
			info.Description,
		)))
	}
}

// tableRow lays out the five list columns with fixed widths
func tableRow(port, portType, vidpid, serialNo, desc string) string {
	return fmt.Sprintf("%-15s %-16s %-10s %-14s %-30s", port, portType, vidpid, serialNo, desc)
}

// usbID renders the vendor:product pair, empty for non-USB ports
func usbID(info *serial.PortInfo) string {
	if info.VendorID == "" || info.ProductID == "" {
		return ""
	}
	return info.VendorID + ":" + info.ProductID
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}
