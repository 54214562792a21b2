//go:build linux

package serial

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// Port is an open serial device configured for raw 8N1.
// It is safe for concurrent use by multiple goroutines: reads and writes may
// overlap, Close waits for both to finish.
type Port struct {
	mu   sync.RWMutex
	fd   int
	open atomic.Bool

	id        string
	device    string
	baud      BaudRate
	timeout   time.Duration
	delimiter string

	log     *slog.Logger
	metrics *Metrics
}

// Open opens the device named in cfg and programs it for raw 8N1 at the
// requested baud rate. A failed Open never leaves a descriptor behind.
func Open(cfg Config) (*Port, error) {
	cfg = cfg.withDefaults()
	if cfg.Device == "" {
		return nil, ErrMissingDevice
	}

	id := uuid.NewString()
	log := cfg.Logger.With("module", "serial", "device", cfg.Device, "session", id)

	rate, fellBack, err := cfg.resolveBaudRate()
	if err != nil {
		log.Error("cannot open port", "error", err)
		cfg.Metrics.opened(cfg.Device, err)
		return nil, err
	}
	if fellBack {
		log.Warn("unsupported baud rate, falling back", "requested", cfg.BaudRate, "baud", rate)
	}

	fd, err := sysOpen(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		log.Error("cannot open port", "error", err)
		cfg.Metrics.opened(cfg.Device, err)
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}

	if err := configure(fd, rate, vtime(cfg.ReadTimeout)); err != nil {
		err = closeAfterError(fd, err)
		log.Error("cannot configure port", "error", err)
		cfg.Metrics.opened(cfg.Device, err)
		return nil, err
	}

	p := &Port{
		fd:        fd,
		id:        id,
		device:    cfg.Device,
		baud:      rate,
		timeout:   time.Duration(vtime(cfg.ReadTimeout)) * 100 * time.Millisecond,
		delimiter: cfg.Delimiter,
		log:       log,
		metrics:   cfg.Metrics,
	}
	p.open.Store(true)
	cfg.Metrics.opened(cfg.Device, nil)
	log.Info("serial port opened", "baud", rate, "read_timeout", p.timeout)
	return p, nil
}

func configure(fd int, rate BaudRate, timeout uint8) error {
	t, err := getTermios(fd)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	configureRaw(t, rate, timeout)

	if err := setTermios(fd, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}

	// The device was opened non-blocking so open(2) could not hang on carrier
	// detect. Reads must block for VTIME to take effect.
	if err := setNonblock(fd, false); err != nil {
		return fmt.Errorf("set blocking: %w", err)
	}
	return nil
}

func closeAfterError(fd int, err error) error {
	if cerr := sysClose(fd); cerr != nil {
		return errors.Join(err, fmt.Errorf("close: %w", cerr))
	}
	return err
}

// Close releases the descriptor. Closing an already closed port returns ErrClosed.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open.Load() {
		return ErrClosed
	}
	p.open.Store(false)
	p.metrics.closed(p.device)

	fd := p.fd
	p.fd = -1
	if err := sysClose(fd); err != nil {
		p.log.Error("close error", "error", err)
		return fmt.Errorf("close: %w", err)
	}
	p.log.Info("serial port closed")
	return nil
}

// Write hands b to the driver in a single write(2) and returns how many bytes
// it accepted, which may be fewer than len(b). Nothing is retried.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.open.Load() {
		return 0, ErrClosed
	}
	if len(b) == 0 {
		return 0, nil
	}

	n, err := sysWrite(p.fd, b)
	if err != nil {
		p.log.Error("write error", "error", err)
		p.metrics.failed(p.device, "write")
		return 0, fmt.Errorf("write: %w", err)
	}
	p.metrics.wrote(p.device, n)
	return n, nil
}

// Read performs one read(2) of up to maxSize bytes, waiting at most the read
// timeout for the first byte. It returns ErrNoData if the timeout elapsed with
// nothing received and ErrWouldBlock if the driver reported EAGAIN; both
// satisfy IsTransient. A device that hung up yields ErrHangup.
func (p *Port) Read(maxSize int) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.open.Load() {
		return nil, ErrClosed
	}
	if maxSize <= 0 || maxSize > MaxReadSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrInvalidSize, maxSize, MaxReadSize)
	}

	buf := make([]byte, maxSize)
	n, err := sysRead(p.fd, buf)
	if err != nil {
		// EWOULDBLOCK == EAGAIN on Linux.
		if errors.Is(err, unix.EAGAIN) {
			p.metrics.read(p.device, 0)
			return nil, fmt.Errorf("%w: %w", ErrWouldBlock, err)
		}
		p.log.Error("read error", "error", err)
		p.metrics.failed(p.device, "read")
		return nil, fmt.Errorf("read: %w", err)
	}
	if n <= 0 {
		// A hung-up tty also reads 0 bytes, but without waiting for VTIME.
		if p.hungUp() {
			p.log.Error("device hung up")
			p.metrics.failed(p.device, "read")
			return nil, ErrHangup
		}
		p.metrics.read(p.device, 0)
		return nil, ErrNoData
	}

	p.metrics.read(p.device, n)
	return buf[:n], nil
}

func (p *Port) hungUp() bool {
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := sysPoll(fds, 0)
	if err != nil || n == 0 {
		return false
	}
	return fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0
}

// Attributes returns the line settings currently programmed on the device.
func (p *Port) Attributes() (*unix.Termios, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.open.Load() {
		return nil, ErrClosed
	}
	t, err := getTermios(p.fd)
	if err != nil {
		return nil, fmt.Errorf("get termios: %w", err)
	}
	return t, nil
}

// IsOpen reports whether Close has not been called yet.
func (p *Port) IsOpen() bool { return p.open.Load() }

func (p *Port) Device() string             { return p.device }
func (p *Port) BaudRate() BaudRate         { return p.baud }
func (p *Port) ReadTimeout() time.Duration { return p.timeout }

// ID is a random session identifier attached to every log line of this port.
func (p *Port) ID() string { return p.id }
