package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/go-serialport"
	"github.com/luhtfiimanal/go-serialport/internal/telemetry"
	"github.com/luhtfiimanal/go-serialport/internal/wsbridge"
)

var (
	serveFlags  portFlags
	serveListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "expose a serial port over WebSocket",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	prom, err := telemetry.InitPrometheus()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = prom.Shutdown(context.Background()) }()

	metrics, err := serial.NewMetrics(prom.Meter("serialterm"))
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	pc := serveFlags.portConfig()
	pc.Metrics = metrics
	p, err := serial.Open(pc)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil && !errors.Is(err, serial.ErrClosed) {
			slog.Warn("close failed", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", wsbridge.New(p, slog.Default()))
	mux.Handle("/metrics", prom.Handler())

	addr := cfg.Listen
	if serveListen != "" {
		addr = serveListen
	}
	// Listen first to fail fast if the address is taken
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           cors.Default().Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	out := cmd.OutOrStdout()
	_, _ = green.Fprint(out, "  ➜ ")
	fmt.Fprintf(out, "%s @ %s on ", p.Device(), p.BaudRate())
	_, _ = cyan.Fprintf(out, "ws://%s/ws\n", listener.Addr())

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	// websocket handlers are hijacked and not tracked by Shutdown; closing the
	// port ends them.
	_ = p.Close()
	return srv.Shutdown(shutdownCtx)
}
