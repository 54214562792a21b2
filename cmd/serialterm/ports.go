package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/go-serialport"
	"github.com/luhtfiimanal/go-serialport/internal/config"
)

var watchPorts bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "list configured and discovered serial ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

func init() {
	portsCmd.Flags().BoolVarP(&watchPorts, "watch", "w", false, "keep printing the list as ports come and go")
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !watchPorts {
		discovered, err := serial.ListPorts()
		if err != nil {
			slog.Warn("port discovery failed", "error", err)
		}
		printPorts(out, cfg, discovered)
		return nil
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	for discovered := range serial.WatchPorts(ctx, slog.Default()) {
		fmt.Fprintf(out, "\n%s\n", time.Now().Format(time.TimeOnly))
		printPorts(out, cfg, discovered)
	}
	return nil
}

// printPorts lists the configured ports first, then anything else discovered.
func printPorts(w io.Writer, c config.Config, discovered []string) {
	tbl := table.New("Port", "Label", "Status", "USB").WithWriter(w)

	seen := make(map[string]bool)
	for _, p := range c.Ports {
		seen[p.Path] = true
		addPortRow(tbl, serial.Describe(p.Path), p.Label)
	}
	for _, path := range discovered {
		if seen[path] {
			continue
		}
		addPortRow(tbl, serial.Describe(path), "")
	}

	tbl.Print()
}

func addPortRow(tbl table.Table, info serial.PortInfo, label string) {
	status := "available"
	if !info.Available {
		status = "unavailable"
		if info.Err != nil {
			status = info.Err.Error()
		}
	}

	usb := ""
	if info.USB != nil {
		usb = fmt.Sprintf("%04x:%04x %s %s", info.USB.VendorID, info.USB.ProductID, info.USB.Manufacturer, info.USB.Product)
	}

	tbl.AddRow(info.Path, label, status, usb)
}
