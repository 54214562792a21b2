package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/go-serialport"
	"github.com/luhtfiimanal/go-serialport/internal/terminal"
)

var termFlags portFlags

var termCmd = &cobra.Command{
	Use:   "term",
	Short: "interactive session: type lines to send, see what comes back",
	Args:  cobra.NoArgs,
	RunE:  runTerm,
}

func init() {
	termFlags.register(termCmd)
	rootCmd.AddCommand(termCmd)
}

func runTerm(cmd *cobra.Command, args []string) error {
	p, err := serial.Open(termFlags.portConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "%s @ %s", p.Device(), p.BaudRate())
	fmt.Fprintf(out, "  (%s switches to hex, %s to text, %s exits)\n",
		terminal.CmdHex, terminal.CmdText, terminal.CmdQuit)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s := &terminal.Session{
		Port:   p,
		In:     os.Stdin,
		Out:    out,
		Hex:    termFlags.hexMode(),
		Logger: slog.Default(),
	}
	return s.Run(ctx)
}
