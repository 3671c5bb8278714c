package models

import (
	"context"
	"sync"

	"github.com/ttylabs/serialpcap/serial"
)

type ConnectionStatusMsg struct {
	Connected bool
	Error     error
}

// CaptureModel holds the shared state behind the monitor TUI: the port,
// connection status and running frame counters.
type CaptureModel struct {
	// Serial connection
	port     serial.Port
	portPath string

	// State
	connected bool
	err       error
	ready     bool

	// Counters
	frames uint64
	bytes  uint64

	// Cancellation and synchronization
	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex
}

func NewCaptureModel(portPath string) *CaptureModel {
	ctx, cancel := context.WithCancel(context.Background())

	return &CaptureModel{
		portPath: portPath,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (m *CaptureModel) GetPort() serial.Port {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.port
}

func (m *CaptureModel) SetPort(port serial.Port) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.port = port
}

func (m *CaptureModel) GetPortPath() string {
	return m.portPath
}

func (m *CaptureModel) IsConnected() bool {
	return m.connected
}

func (m *CaptureModel) SetConnected(connected bool) {
	m.connected = connected
}

func (m *CaptureModel) GetError() error {
	return m.err
}

func (m *CaptureModel) SetError(err error) {
	m.err = err
}

func (m *CaptureModel) IsReady() bool {
	return m.ready
}

func (m *CaptureModel) SetReady(ready bool) {
	m.ready = ready
}

// RecordFrame updates the counters for one captured frame
func (m *CaptureModel) RecordFrame(payloadBytes int) {
	m.frames++
	m.bytes += uint64(payloadBytes)
}

func (m *CaptureModel) Frames() uint64 {
	return m.frames
}

func (m *CaptureModel) Bytes() uint64 {
	return m.bytes
}

func (m *CaptureModel) ResetCounters() {
	m.frames = 0
	m.bytes = 0
}

func (m *CaptureModel) GetContext() context.Context {
	return m.ctx
}

func (m *CaptureModel) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *CaptureModel) Cleanup() {
	// Cancel context to stop the reader goroutine
	if m.cancel != nil {
		m.cancel()
	}

	// Close port safely
	m.mu.Lock()
	if m.port != nil {
		m.port.Close()
		m.port = nil
	}
	m.mu.Unlock()
}
