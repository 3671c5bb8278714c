package serial

import (
	"errors"
	"testing"
)

func TestFormatUSBPath(t *testing.T) {
	tests := []struct {
		name    string
		bus     string
		device  string
		want    string
		wantErr bool
	}{
		{"single digits", "1", "4", "001/004", false},
		{"mixed widths", "12", "113", "012/113", false},
		{"already padded", "001", "004", "001/004", false},
		{"non-numeric bus", "x", "4", "", true},
		{"non-numeric device", "1", "x", "", true},
		{"empty bus", "", "4", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatUSBPath(tt.bus, tt.device)
			if (err != nil) != tt.wantErr {
				t.Fatalf("formatUSBPath(%q, %q) error = %v, wantErr %v", tt.bus, tt.device, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("formatUSBPath(%q, %q) = %q, want %q", tt.bus, tt.device, got, tt.want)
			}
		})
	}
}

func TestResetUSBDeviceMissingPort(t *testing.T) {
	if err := ResetUSBDevice("/dev/serialpcap-missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("ResetUSBDevice() error = %v, want ErrDeviceNotFound", err)
	}
}
