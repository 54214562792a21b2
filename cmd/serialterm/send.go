package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/go-serialport"
	"github.com/luhtfiimanal/go-serialport/internal/terminal"
)

var (
	sendFlags portFlags
	sendWait  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <data>",
	Short: "write once, then print replies for a while",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func init() {
	sendFlags.register(sendCmd)
	sendCmd.Flags().DurationVar(&sendWait, "wait", 500*time.Millisecond, "how long to collect replies")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	hex := sendFlags.hexMode()
	data, err := terminal.Encode(args[0], hex)
	if err != nil {
		return err
	}

	p, err := serial.Open(sendFlags.portConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	tx := color.New(color.FgGreen)
	rx := color.New(color.FgCyan)

	for rest := data; len(rest) > 0; {
		n, err := p.Write(rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s] %s %s\n", time.Now().Format(terminal.TimestampLayout), tx.Sprint("TX:"), terminal.Render(rest[:n], hex))
		rest = rest[n:]
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	deadline := time.Now().Add(sendWait)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		reply, err := p.Read(serial.ReadChunkSize)
		switch {
		case err == nil:
			fmt.Fprintf(out, "[%s] %s %s\n", time.Now().Format(terminal.TimestampLayout), rx.Sprint("RX:"), terminal.Render(reply, hex))
		case serial.IsTransient(err):
		case errors.Is(err, serial.ErrClosed):
			return nil
		default:
			return err
		}
	}
	return nil
}
