// Package terminal runs an interactive send/receive session against a serial
// port, printing every transfer as a timestamped TX or RX line.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	serial "github.com/luhtfiimanal/go-serialport"
	"github.com/luhtfiimanal/go-serialport/internal/hexfmt"
)

// Port is the part of *serial.Port a session needs.
type Port interface {
	Write(b []byte) (int, error)
	Read(maxSize int) ([]byte, error)
}

// Session commands typed on their own line.
const (
	CmdHex  = ":hex"
	CmdText = ":text"
	CmdQuit = ":quit"
)

// TimestampLayout formats the time prefix of every TX and RX line.
const TimestampLayout = "15:04:05.000"

// Render shows b as hex pairs, or as printable text with other bytes as [XX].
func Render(b []byte, hex bool) string {
	if hex {
		return hexfmt.Format(b)
	}
	return hexfmt.Printable(b)
}

// Encode turns a typed line into the bytes to send.
func Encode(line string, hex bool) ([]byte, error) {
	if hex {
		return hexfmt.Parse(line)
	}
	return []byte(line), nil
}

type Session struct {
	Port Port
	In   io.Reader
	Out  io.Writer
	Hex  bool

	Now    func() time.Time
	Logger *slog.Logger

	mu  sync.Mutex
	hex bool
	tx  *color.Color
	rx  *color.Color
}

func (s *Session) setup() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With("module", "terminal")
	s.hex = s.Hex
	s.tx = color.New(color.FgGreen)
	s.rx = color.New(color.FgCyan)
}

// Run reads lines from In until EOF, :quit or ctx is done, sending each line
// to the port, while a background loop prints whatever the port receives.
func (s *Session) Run(ctx context.Context) error {
	s.setup()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	readErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		err := s.receive(ctx)
		if err != nil {
			cancel()
		}
		readErr <- err
	}()

	inputErr := s.input(ctx)
	cancel()
	wg.Wait()

	if err := <-readErr; err != nil {
		return err
	}
	return inputErr
}

func (s *Session) input(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	// The scanner stays blocked in In.Read after ctx is done until In returns.
	// For os.Stdin that is process exit; callers that care close In.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := s.handleLine(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// handleLine reports whether the session should end.
func (s *Session) handleLine(line string) (bool, error) {
	switch strings.TrimSpace(line) {
	case CmdQuit:
		return true, nil
	case CmdHex:
		s.setHex(true)
		s.notice("hex mode")
		return false, nil
	case CmdText:
		s.setHex(false)
		s.notice("text mode")
		return false, nil
	case "":
		return false, nil
	}

	data, err := Encode(line, s.isHex())
	if err != nil {
		s.notice(fmt.Sprintf("not sent: %v", err))
		return false, nil
	}

	n, err := s.Port.Write(data)
	if err != nil {
		if errors.Is(err, serial.ErrClosed) {
			return true, err
		}
		s.notice(fmt.Sprintf("write failed: %v", err))
		s.Logger.Warn("write failed", "error", err)
		return false, nil
	}
	s.print(s.tx, "TX", Render(data[:n], s.isHex()))
	return false, nil
}

func (s *Session) receive(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		data, err := s.Port.Read(serial.ReadChunkSize)
		switch {
		case err == nil:
			s.print(s.rx, "RX", Render(data, s.isHex()))
		case serial.IsTransient(err):
		case errors.Is(err, serial.ErrClosed):
			return nil
		default:
			s.Logger.Error("read failed", "error", err)
			s.notice(fmt.Sprintf("read failed: %v", err))
			return err
		}
	}
}

func (s *Session) print(c *color.Color, dir, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.Out, "[%s] %s %s\n", s.Now().Format(TimestampLayout), c.Sprint(dir+":"), body)
}

func (s *Session) notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.Out, "-- %s\n", msg)
}

func (s *Session) setHex(on bool) {
	s.mu.Lock()
	s.hex = on
	s.mu.Unlock()
}

func (s *Session) isHex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hex
}
