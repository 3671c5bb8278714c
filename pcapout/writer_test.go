package pcapout

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopacket/gopacket/pcapgo"

	"github.com/ttylabs/serialpcap/encap"
)

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 22, 33, 0, time.UTC)

	tests := []struct {
		prefix string
		want   string
	}{
		{"ttyUSB0", "ttyUSB0-20260825-142233.pcap"},
		{"bench-rig", "bench-rig-20260825-142233.pcap"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.prefix, now); got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

// TestWriterRoundTrip writes a capture file and reads it back with the
// pcapgo reader, checking the link-type tag, payloads and timestamps
// survive intact.
func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.pcap")

	w, err := Create(path, encap.LinkTypeUser0, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}

	packets := [][]byte{
		[]byte("first frame"),
		{0x00, 0xFF, 0x7E},
	}
	base := time.Date(2026, 8, 25, 9, 0, 0, 250000000, time.UTC)
	for i, data := range packets {
		if err := w.WritePacket(base.Add(time.Duration(i)*time.Second), data); err != nil {
			t.Fatalf("WritePacket(%d) error = %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen capture: %v", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if r.LinkType() != encap.LinkTypeUser0 {
		t.Errorf("container link type = %d, want %d", r.LinkType(), encap.LinkTypeUser0)
	}

	for i, want := range packets {
		data, ci, err := r.ReadPacketData()
		if err != nil {
			t.Fatalf("ReadPacketData(%d) error = %v", i, err)
		}
		if !bytes.Equal(data, want) {
			t.Errorf("packet %d = % X, want % X", i, data, want)
		}
		wantTS := base.Add(time.Duration(i) * time.Second)
		if !ci.Timestamp.Equal(wantTS) {
			t.Errorf("packet %d timestamp = %v, want %v", i, ci.Timestamp, wantTS)
		}
		if ci.CaptureLength != len(want) || ci.Length != len(want) {
			t.Errorf("packet %d lengths = %d/%d, want %d", i, ci.CaptureLength, ci.Length, len(want))
		}
	}
}

// TestWriterFlushDurability verifies flushed packets are on disk while the
// writer is still open, which is what makes mid-capture files readable.
func TestWriterFlushDurability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.pcap")

	w, err := Create(path, encap.LinkTypeRTACSerial, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer w.Close()

	payload := []byte("durable")
	if err := w.WritePacket(time.Now(), payload); err != nil {
		t.Fatalf("WritePacket() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen capture: %v", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	data, _, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("ReadPacketData() error = %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("packet = %q, want %q", data, payload)
	}
}
