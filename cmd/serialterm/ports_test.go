package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/go-serialport/internal/config"
)

func TestPrintPorts_ConfiguredFirstWithoutDuplicates(t *testing.T) {
	c := config.Config{Ports: []config.PortEntry{
		{Path: "/dev/ttyDoesNotExist5", Label: "LED light controller"},
		{Path: "/dev/ttyDoesNotExist11", Label: "scanner"},
	}}

	var buf bytes.Buffer
	printPorts(&buf, c, []string{"/dev/ttyDoesNotExist11", "/dev/ttyDoesNotExistUSB0"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "Port")
	require.Contains(t, lines[1], "/dev/ttyDoesNotExist5")
	require.Contains(t, lines[1], "LED light controller")
	require.Contains(t, lines[1], "no such file or directory")
	require.Contains(t, lines[2], "scanner")
	require.Contains(t, lines[3], "/dev/ttyDoesNotExistUSB0")
}

func TestPortFlags_FallBackToConfig(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = config.Default()
	cfg.ReadTimeout = 200 * time.Millisecond

	var f portFlags
	pc := f.portConfig()
	require.Equal(t, "/dev/ttyS5", pc.Device)
	require.Equal(t, 9600, pc.BaudRate)
	require.Equal(t, 200*time.Millisecond, pc.ReadTimeout)
	require.False(t, pc.StrictBaudRate)
	require.False(t, f.hexMode())

	f = portFlags{device: "/dev/ttyS11", baud: 115200, strict: true, hex: true}
	pc = f.portConfig()
	require.Equal(t, "/dev/ttyS11", pc.Device)
	require.Equal(t, 115200, pc.BaudRate)
	require.True(t, pc.StrictBaudRate)
	require.True(t, f.hexMode())
}
