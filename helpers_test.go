//go:build linux

package serial

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openPTY returns the master side of a fresh PTY pair and the slave's path.
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })
	return master, slave.Name()
}

func openTestPort(t *testing.T, device string, baud int) *Port {
	t.Helper()
	p, err := Open(Config{Device: device, BaudRate: baud, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// readN keeps reading until n bytes arrived or the deadline passed.
func readN(t *testing.T, p *Port, n int, deadline time.Duration) []byte {
	t.Helper()
	var got []byte
	stop := time.Now().Add(deadline)
	for len(got) < n && time.Now().Before(stop) {
		data, err := p.Read(n - len(got))
		if IsTransient(err) {
			continue
		}
		require.NoError(t, err)
		got = append(got, data...)
	}
	return got
}

// readFromMaster reads once from the PTY master in the background.
func readFromMaster(master *os.File, size int) <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		buf := make([]byte, size)
		n, err := master.Read(buf)
		if err != nil {
			close(ch)
			return
		}
		ch <- buf[:n]
	}()
	return ch
}

type syscallCounts struct {
	open, close, read, write atomic.Int32
}

// countSyscalls wraps the syscall seams with counters for the rest of the test.
func countSyscalls(t *testing.T) *syscallCounts {
	t.Helper()
	c := &syscallCounts{}

	origOpen, origClose, origRead, origWrite := sysOpen, sysClose, sysRead, sysWrite
	sysOpen = func(path string, mode int, perm uint32) (int, error) {
		c.open.Add(1)
		return origOpen(path, mode, perm)
	}
	sysClose = func(fd int) error {
		c.close.Add(1)
		return origClose(fd)
	}
	sysRead = func(fd int, p []byte) (int, error) {
		c.read.Add(1)
		return origRead(fd, p)
	}
	sysWrite = func(fd int, p []byte) (int, error) {
		c.write.Add(1)
		return origWrite(fd, p)
	}
	t.Cleanup(func() {
		sysOpen, sysClose, sysRead, sysWrite = origOpen, origClose, origRead, origWrite
	})
	return c
}

func stubSetTermios(t *testing.T, fn func(int, *unix.Termios) error) {
	t.Helper()
	orig := setTermios
	setTermios = fn
	t.Cleanup(func() { setTermios = orig })
}
