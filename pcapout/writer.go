// Package pcapout writes encoded capture events into a pcap container,
// either a timestamped file on disk or a named pipe feeding a live consumer
// such as wireshark.
package pcapout

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"golang.org/x/sys/unix"
)

// DefaultSnapLen is used when no snap length is configured. Matches the
// classic pcap default.
const DefaultSnapLen = 65535

// Writer is a pcap container sink. Writes are buffered for file
// destinations and flushed per packet for pipes, where a consumer is
// waiting on the other end.
type Writer struct {
	f           *os.File
	bw          *bufio.Writer
	pw          *pcapgo.Writer
	path        string
	pipe        bool
	createdPipe bool
}

// OutputPath derives the timestamped file name used for file sinks, e.g.
// "ttyUSB0-20260825-142233.pcap"
func OutputPath(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.pcap", prefix, now.Format("20060102-150405"))
}

// Create opens path as a regular capture file and writes the container
// header. The link-type tag must match the encapsulation the encoder
// applies, or downstream tooling will misdecode the packets.
func Create(path string, link layers.LinkType, snaplen uint32) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	return newWriter(f, path, false, false, link, snaplen)
}

// CreatePipe opens path as a named pipe sink, creating the FIFO if it does
// not exist yet. Opening blocks until a reader attaches to the other end.
// A FIFO created here is removed again on Close.
func CreatePipe(path string, link layers.LinkType, snaplen uint32) (*Writer, error) {
	created := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := unix.Mkfifo(path, 0o644); err != nil {
			return nil, fmt.Errorf("failed to create pipe %s: %w", path, err)
		}
		created = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if created {
			os.Remove(path)
		}
		return nil, fmt.Errorf("failed to open pipe %s: %w", path, err)
	}
	return newWriter(f, path, true, created, link, snaplen)
}

func newWriter(f *os.File, path string, pipe, createdPipe bool, link layers.LinkType, snaplen uint32) (*Writer, error) {
	if snaplen == 0 {
		snaplen = DefaultSnapLen
	}

	bw := bufio.NewWriter(f)
	pw := pcapgo.NewWriter(bw)
	if err := pw.WriteFileHeader(snaplen, link); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	w := &Writer{
		f:           f,
		bw:          bw,
		pw:          pw,
		path:        path,
		pipe:        pipe,
		createdPipe: createdPipe,
	}
	if pipe {
		if err := w.Flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Path returns the destination path
func (w *Writer) Path() string {
	return w.path
}

// WritePacket appends one packet with microsecond timestamp resolution
func (w *Writer) WritePacket(ts time.Time, data []byte) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := w.pw.WritePacket(ci, data); err != nil {
		return err
	}
	if w.pipe {
		// Live consumers should not wait on the buffer
		return w.bw.Flush()
	}
	return nil
}

// Flush pushes buffered packets to the destination
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close flushes, closes the destination and removes a FIFO this writer
// created
func (w *Writer) Close() error {
	flushErr := w.bw.Flush()
	closeErr := w.f.Close()
	if w.createdPipe {
		os.Remove(w.path)
	}
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
