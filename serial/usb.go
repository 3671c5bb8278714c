package serial

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ResetUSBDevice performs a USB-level reset of the device behind a port.
// This can recover adapters that are hung or unresponsive without physically
// unplugging them. The device re-enumerates afterwards, so the port path may
// change.
//
// Requires the usbreset utility (usbutils package) and permissions to talk
// to the USB device, typically root.
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	usbPath, err := formatUSBPath(info.BusNumber, info.DeviceNumber)
	if err != nil {
		return fmt.Errorf("bad USB location for %s: %w", portPath, err)
	}

	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	// Give the device time to re-enumerate before the caller reopens it
	time.Sleep(2 * time.Second)

	return nil
}

// ResetUSBDeviceBySerial resets a USB device identified by its serial number.
// Useful when port paths change across reboots or several adapters are
// connected.
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// IsUSBResetAvailable checks if the usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}

// formatUSBPath builds the zero-padded BBB/DDD argument usbreset expects
// from sysfs busnum/devnum values
func formatUSBPath(bus, device string) (string, error) {
	busNum, err := strconv.Atoi(bus)
	if err != nil {
		return "", fmt.Errorf("bus number %q: %w", bus, err)
	}
	devNum, err := strconv.Atoi(device)
	if err != nil {
		return "", fmt.Errorf("device number %q: %w", device, err)
	}
	return fmt.Sprintf("%03d/%03d", busNum, devNum), nil
}
