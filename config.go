package serial

import (
	"log/slog"
	"time"
)

const (
	// DefaultReadTimeout bounds every Read when Config.ReadTimeout is zero.
	DefaultReadTimeout = 100 * time.Millisecond

	// DefaultDelimiter frames lines for WriteLine and ReadLinesLoop.
	DefaultDelimiter = "\r\n"

	// MaxReadSize caps the buffer a single Read may allocate.
	MaxReadSize = 64 * 1024

	// ReadChunkSize is the buffer size ReadLoop asks for on each Read.
	ReadChunkSize = 1024

	// MaxLineSize is the longest line ReadLinesLoop will buffer before dropping it.
	MaxLineSize = 8 * 1024
)

// Config holds configuration parameters for opening a serial port.
// Framing is always 8N1 without flow control and cannot be changed.
type Config struct {
	Device   string
	BaudRate int

	// StrictBaudRate makes Open fail with ErrUnsupportedBaudRate instead of
	// silently falling back to DefaultBaudRate.
	StrictBaudRate bool

	// ReadTimeout is how long a Read waits for the first byte. It is programmed
	// into VTIME, so it is rounded up to a multiple of 100ms and capped at 25.5s.
	ReadTimeout time.Duration

	Delimiter string // default "\r\n"

	Logger  *slog.Logger
	Metrics *Metrics
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// resolveBaudRate applies the fallback policy. fellBack is true when the
// requested rate was replaced by DefaultBaudRate.
func (c Config) resolveBaudRate() (rate BaudRate, fellBack bool, err error) {
	if c.StrictBaudRate {
		rate, err = ParseBaudRate(c.BaudRate)
		return rate, false, err
	}
	rate, ok := BaudRateOrDefault(c.BaudRate)
	return rate, !ok, nil
}

// vtime converts a read timeout into termios deciseconds.
func vtime(d time.Duration) uint8 {
	ds := (d + 100*time.Millisecond - 1) / (100 * time.Millisecond)
	switch {
	case ds < 1:
		return 1
	case ds > 255:
		return 255
	}
	return uint8(ds)
}
