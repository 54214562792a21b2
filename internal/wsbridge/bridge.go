// Package wsbridge exposes an open serial port to a single WebSocket client.
// Bytes received from the port are sent as binary messages and every message
// from the client is written to the port.
package wsbridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	serial "github.com/luhtfiimanal/go-serialport"
)

// Port is the part of *serial.Port the bridge needs.
type Port interface {
	Write(b []byte) (int, error)
	Read(maxSize int) ([]byte, error)
}

const writeWait = 5 * time.Second

type Bridge struct {
	port     Port
	log      *slog.Logger
	upgrader websocket.Upgrader
	busy     atomic.Bool
}

// New returns a bridge for port. Cross-origin policy is left to the
// surrounding handler, so every origin is accepted here.
func New(port Port, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		port: port,
		log:  logger.With("module", "wsbridge"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  serial.ReadChunkSize,
			WriteBufferSize: serial.ReadChunkSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and bridges it until either side goes away.
// A second client gets 409 Conflict while the first is connected.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.busy.CompareAndSwap(false, true) {
		http.Error(w, "serial port already in use", http.StatusConflict)
		return
	}
	defer b.busy.Store(false)

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	log := b.log.With("remote", r.RemoteAddr)
	log.Info("client connected")
	defer log.Info("client disconnected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := b.pump(ctx, conn); err != nil {
			log.Warn("port to websocket stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		// unblocks ReadMessage below
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", "error", err)
			}
			break
		}
		if err := writeAll(b.port, msg); err != nil {
			log.Error("serial write failed", "error", err)
			break
		}
	}

	cancel()
	wg.Wait()
}

// pump forwards port reads to conn until ctx is done or either side fails.
func (b *Bridge) pump(ctx context.Context, conn *websocket.Conn) error {
	for ctx.Err() == nil {
		data, err := b.port.Read(serial.ReadChunkSize)
		switch {
		case err == nil:
		case serial.IsTransient(err):
			continue
		case errors.Is(err, serial.ErrClosed):
			closeWith(conn, websocket.CloseGoingAway, "serial port closed")
			return nil
		case errors.Is(err, serial.ErrHangup):
			closeWith(conn, websocket.CloseGoingAway, "serial device hung up")
			return err
		default:
			closeWith(conn, websocket.CloseInternalServerErr, "serial read failed")
			return err
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return err
		}
	}
	return nil
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
}

func writeAll(p Port, b []byte) error {
	for len(b) > 0 {
		n, err := p.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
