package serial

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ListPorts returns a list of available serial ports on the system.
// Filters for communication-capable devices and excludes virtual terminals.
func ListPorts() ([]string, error) {
	var ports []string

	devDir := "/dev"
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	// Regular expressions for different types of serial devices
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
		regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
		regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
	}

	// Exclude patterns for virtual terminals and other non-serial devices
	excludePatterns := []*regexp.Regexp{
		regexp.MustCompile(`^tty\d+$`),  // Virtual terminals (tty1, tty2, etc.)
		regexp.MustCompile(`^console$`), // Console
		regexp.MustCompile(`^ptmx$`),    // Pseudo-terminal multiplexer
		regexp.MustCompile(`^pty.*$`),   // Pseudo-terminals
		regexp.MustCompile(`^pts/.*$`),  // Pseudo-terminal slaves
	}

	for _, entry := range entries {
		name := entry.Name()

		excluded := false
		for _, excludePattern := range excludePatterns {
			if excludePattern.MatchString(name) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		matched := false
		for _, pattern := range patterns {
			if pattern.MatchString(name) {
				matched = true
				break
			}
		}

		if matched {
			fullPath := filepath.Join(devDir, name)

			// Verify it's a character device (not a directory or regular file)
			if isCharacterDevice(fullPath) {
				ports = append(ports, fullPath)
			}
		}
	}

	// Sort the ports for consistent ordering
	sort.Strings(ports)

	return ports, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	mode := info.Mode()
	return mode&os.ModeCharDevice != 0
}

// PortInfo describes a serial port and, for USB adapters, the metadata
// extracted from sysfs
type PortInfo struct {
	Name            string
	Path            string
	Description     string
	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)

	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}

	// USB metadata is only present for USB-attached adapters
	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(info)
	}

	return info, nil
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}

// readSysfsFile reads a single sysfs attribute, trimmed. Missing or
// unreadable attributes yield an empty string.
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// enrichUSBInfo fills the USB fields of info from the running system's sysfs
func enrichUSBInfo(info *PortInfo) {
	enrichUSBInfoFrom("/sys", info)
}

// enrichUSBInfoFrom resolves /sys/class/tty/<name>/device and walks up the
// device tree until it finds the USB interface directory (the one carrying
// bInterfaceNumber); its parent is the USB device itself. ttyUSB ports have
// an extra usb-serial level below the interface, ttyACM ports do not, so
// the walk handles both layouts. All failures leave the fields empty.
func enrichUSBInfoFrom(sysfsRoot string, info *PortInfo) {
	deviceLink := filepath.Join(sysfsRoot, "class", "tty", info.Name, "device")
	resolved, err := filepath.EvalSymlinks(deviceLink)
	if err != nil {
		return
	}

	dir := resolved
	for depth := 0; depth < 4 && dir != "/" && dir != "."; depth++ {
		ifaceAttr := filepath.Join(dir, "bInterfaceNumber")
		if _, err := os.Stat(ifaceAttr); err == nil {
			info.InterfaceNumber = readSysfsFile(ifaceAttr)

			usbDevice := filepath.Dir(dir)
			info.VendorID = readSysfsFile(filepath.Join(usbDevice, "idVendor"))
			info.ProductID = readSysfsFile(filepath.Join(usbDevice, "idProduct"))
			info.SerialNumber = readSysfsFile(filepath.Join(usbDevice, "serial"))
			info.Manufacturer = readSysfsFile(filepath.Join(usbDevice, "manufacturer"))
			info.Product = readSysfsFile(filepath.Join(usbDevice, "product"))
			info.BusNumber = readSysfsFile(filepath.Join(usbDevice, "busnum"))
			info.DeviceNumber = readSysfsFile(filepath.Join(usbDevice, "devnum"))
			return
		}
		dir = filepath.Dir(dir)
	}
}
