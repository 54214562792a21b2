package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	serial "github.com/luhtfiimanal/go-serialport"
)

type fakePort struct {
	mu       sync.Mutex
	written  [][]byte
	incoming chan []byte
	readErr  error
	writeErr error
}

func newFakePort() *fakePort {
	return &fakePort{incoming: make(chan []byte, 8)}
}

func (f *fakePort) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakePort) Read(int) ([]byte, error) {
	f.mu.Lock()
	err := f.readErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	select {
	case b := <-f.incoming:
		return b, nil
	case <-time.After(10 * time.Millisecond):
		return nil, serial.ErrNoData
	}
}

func (f *fakePort) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	port *fakePort
	in   *io.PipeWriter
	out  *syncBuffer
	done chan error
}

func startSession(t *testing.T, hex bool) *harness {
	t.Helper()
	color.NoColor = true

	pr, pw := io.Pipe()
	h := &harness{
		port: newFakePort(),
		in:   pw,
		out:  &syncBuffer{},
		done: make(chan error, 1),
	}
	s := &Session{
		Port: h.port,
		In:   pr,
		Out:  h.out,
		Hex:  hex,
		Now:  func() time.Time { return time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC) },
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = pw.Close()
	})
	go func() { h.done <- s.Run(ctx) }()
	return h
}

func (h *harness) typeLine(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(h.in, line+"\n")
	require.NoError(t, err)
}

func (h *harness) waitOutput(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), want)
	}, time.Second, 5*time.Millisecond, "output %q never contained %q", h.out.String(), want)
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(time.Second):
		t.Fatal("session did not finish")
		return nil
	}
}

func TestSession_TextMode(t *testing.T) {
	h := startSession(t, false)

	h.typeLine(t, "hello")
	h.waitOutput(t, "[12:00:00.000] TX: hello\n")
	require.Equal(t, [][]byte{[]byte("hello")}, h.port.sent())

	h.port.incoming <- []byte("OK\r\n")
	h.waitOutput(t, "[12:00:00.000] RX: OK[0D][0A]\n")

	h.typeLine(t, CmdQuit)
	require.NoError(t, h.wait(t))
}

func TestSession_HexMode(t *testing.T) {
	h := startSession(t, true)

	h.typeLine(t, "55 aa 01")
	h.waitOutput(t, "TX: 55 AA 01\n")
	require.Equal(t, [][]byte{{0x55, 0xAA, 0x01}}, h.port.sent())

	h.port.incoming <- []byte{0x01, 0xFF}
	h.waitOutput(t, "RX: 01 FF\n")

	h.typeLine(t, "5")
	h.waitOutput(t, "-- not sent: hex: odd number of digits")
	require.Len(t, h.port.sent(), 1)

	h.typeLine(t, CmdQuit)
	require.NoError(t, h.wait(t))
}

func TestSession_SwitchModes(t *testing.T) {
	h := startSession(t, false)

	h.typeLine(t, CmdHex)
	h.waitOutput(t, "-- hex mode")
	h.typeLine(t, "0d0a")
	h.waitOutput(t, "TX: 0D 0A\n")

	h.typeLine(t, CmdText)
	h.waitOutput(t, "-- text mode")
	h.typeLine(t, "0d0a")
	h.waitOutput(t, "TX: 0d0a\n")

	require.Equal(t, [][]byte{{0x0D, 0x0A}, []byte("0d0a")}, h.port.sent())

	require.NoError(t, h.in.Close())
	require.NoError(t, h.wait(t))
}

func TestSession_ReadErrorEndsSession(t *testing.T) {
	h := startSession(t, false)

	boom := errors.New("device unplugged")
	h.port.mu.Lock()
	h.port.readErr = boom
	h.port.mu.Unlock()

	require.ErrorIs(t, h.wait(t), boom)
}

func TestSession_HangupEndsSession(t *testing.T) {
	h := startSession(t, false)

	h.port.mu.Lock()
	h.port.readErr = serial.ErrHangup
	h.port.mu.Unlock()

	require.ErrorIs(t, h.wait(t), serial.ErrHangup)
	require.Contains(t, h.out.String(), "-- read failed: serial: device hung up")
}

func TestSession_WriteOnClosedPort(t *testing.T) {
	h := startSession(t, false)

	h.port.mu.Lock()
	h.port.writeErr = serial.ErrClosed
	h.port.mu.Unlock()

	h.typeLine(t, "hello")
	require.ErrorIs(t, h.wait(t), serial.ErrClosed)
}

func TestSession_WriteFailureIsReported(t *testing.T) {
	h := startSession(t, false)

	h.port.mu.Lock()
	h.port.writeErr = errors.New("EIO")
	h.port.mu.Unlock()

	h.typeLine(t, "hello")
	h.waitOutput(t, "-- write failed: EIO")

	h.typeLine(t, CmdQuit)
	require.NoError(t, h.wait(t))
}
