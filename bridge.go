//go:build linux

package serial

import (
	"log/slog"
	"sync"
)

// Status codes for callers that only understand integers.
const (
	StatusOK     = 0
	StatusFailed = -1
)

// StatusCode maps err to StatusOK or StatusFailed.
func StatusCode(err error) int {
	if err != nil {
		return StatusFailed
	}
	return StatusOK
}

// WriteStatus maps a Write result to the byte count, or StatusFailed on error.
func WriteStatus(n int, err error) int {
	if err != nil {
		return StatusFailed
	}
	return n
}

// Adapter drives at most one port at a time through a fixed four-call surface:
// Open, Close, Write and Read. It is safe for concurrent use.
type Adapter struct {
	mu   sync.RWMutex
	port *Port
	base Config
}

// NewAdapter returns a closed Adapter. Device and BaudRate in base are ignored;
// every other field is applied to each port the adapter opens.
func NewAdapter(base Config) *Adapter {
	if base.Logger == nil {
		base.Logger = slog.Default()
	}
	return &Adapter{base: base}
}

// Open opens path at baud. It fails with ErrAlreadyOpen if a port is already
// open; the existing port is left untouched.
func (a *Adapter) Open(path string, baud int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port != nil {
		a.base.Logger.Error("port already open", "module", "serial", "device", a.port.Device(), "requested", path)
		return ErrAlreadyOpen
	}

	cfg := a.base
	cfg.Device = path
	cfg.BaudRate = baud
	p, err := Open(cfg)
	if err != nil {
		return err
	}
	a.port = p
	return nil
}

// Close closes the current port, or fails with ErrClosed if none is open.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port == nil {
		return ErrClosed
	}
	p := a.port
	a.port = nil
	return p.Close()
}

// Write forwards to Port.Write, or fails with ErrClosed if no port is open.
func (a *Adapter) Write(b []byte) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.port == nil {
		a.base.Logger.Error("port not opened", "module", "serial")
		return 0, ErrClosed
	}
	return a.port.Write(b)
}

// Read forwards to Port.Read, or fails with ErrClosed if no port is open.
func (a *Adapter) Read(maxSize int) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.port == nil {
		a.base.Logger.Error("port not opened", "module", "serial")
		return nil, ErrClosed
	}
	return a.port.Read(maxSize)
}

// IsOpen reports whether a port is currently open.
func (a *Adapter) IsOpen() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.port != nil
}

// Port returns the currently open port, or nil.
func (a *Adapter) Port() *Port {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.port
}
