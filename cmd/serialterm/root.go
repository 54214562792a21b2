package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/go-serialport"
	"github.com/luhtfiimanal/go-serialport/internal/config"
	"github.com/luhtfiimanal/go-serialport/internal/logging"
)

var (
	configPath string
	logLevel   string
	noColor    bool

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:          "serialterm",
	Short:        "talk to serial devices",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.ApplyEnv(os.Getenv); err != nil {
			return err
		}

		levelName := loaded.LogLevel
		if cmd.Flags().Changed("log-level") {
			levelName = logLevel
		}
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		if noColor {
			color.NoColor = true
		}
		logging.Setup(os.Stderr, logging.Options{Level: level, NoColor: noColor})

		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// portFlags are shared by every command that opens a port. Unset flags fall
// back to the config file.
type portFlags struct {
	device string
	baud   int
	strict bool
	hex    bool
}

func (f *portFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.device, "device", "d", "", "serial device (default from config)")
	cmd.Flags().IntVarP(&f.baud, "baud", "b", 0, "baud rate: 9600, 19200, 38400, 57600 or 115200 (default from config)")
	cmd.Flags().BoolVar(&f.strict, "strict-baud", false, "fail instead of falling back to 9600 on an unsupported rate")
	cmd.Flags().BoolVar(&f.hex, "hex", false, "send and show data as hex")
}

func (f *portFlags) portConfig() serial.Config {
	c := serial.Config{
		Device:         cfg.Device,
		BaudRate:       cfg.BaudRate,
		StrictBaudRate: cfg.StrictBaudRate || f.strict,
		ReadTimeout:    cfg.ReadTimeout,
	}
	if f.device != "" {
		c.Device = f.device
	}
	if f.baud != 0 {
		c.BaudRate = f.baud
	}
	return c
}

func (f *portFlags) hexMode() bool {
	return f.hex || cfg.Hex
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
