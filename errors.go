package serial

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrClosed              = errors.New("serial: port closed")
	ErrAlreadyOpen         = errors.New("serial: port already open")
	ErrMissingDevice       = errors.New("serial: missing device path")
	ErrUnsupportedBaudRate = errors.New("serial: unsupported baud rate")
	ErrInvalidSize         = errors.New("serial: invalid read size")

	// ErrNoData means the read timeout elapsed without a single byte arriving.
	ErrNoData = errors.New("serial: no data within read timeout")
	// ErrWouldBlock means the descriptor reported EAGAIN/EWOULDBLOCK.
	ErrWouldBlock = errors.New("serial: read would block")
	// ErrHangup means the other end went away: the PTY master closed or the
	// adapter was unplugged. It wraps io.EOF.
	ErrHangup = fmt.Errorf("serial: device hung up: %w", io.EOF)

	ErrInvalidPortName = errors.New("serial: invalid port name")
	ErrNotCharDevice   = errors.New("serial: not a character device")
)

// IsTransient reports whether err only means "nothing to read right now".
// Callers typically retry on transient errors and abort on anything else.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrWouldBlock)
}
