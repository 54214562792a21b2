//go:build linux

package serial

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	gobug "go.bug.st/serial"
	"golang.org/x/sys/unix"
)

// allow tests to override external dependencies
var (
	listPorts = gobug.GetPortsList
	devDir    = "/dev"
	sysfsTTY  = "/sys/class/tty"
)

// USBInfo describes the USB device behind a tty, if there is one.
type USBInfo struct {
	VendorID     uint32
	ProductID    uint32
	Manufacturer string
	Product      string
	SerialNumber string
}

// PortInfo is what Describe knows about a device node.
type PortInfo struct {
	Name      string
	Path      string
	Available bool
	Err       error // why the port is unavailable
	USB       *USBInfo
}

// ListPorts returns the serial device paths present on the system, sorted.
func ListPorts() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

func isValidPortPattern(path string) bool {
	for _, prefix := range []string{"/dev/tty", "/dev/pts/", "/dev/cu"} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return true
		}
	}
	return false
}

// CheckPort reports whether path names a serial character device this
// process may open for reading and writing.
func CheckPort(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q contains path traversal", ErrInvalidPortName, path)
	}
	if !isValidPortPattern(path) {
		return fmt.Errorf("%w: %q does not look like a serial device", ErrInvalidPortName, path)
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return fmt.Errorf("%w: %s", ErrNotCharDevice, path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("access %s: %w", path, err)
	}
	return nil
}

// Describe checks availability of path and, for USB adapters, reads the
// vendor and product descriptors from sysfs.
func Describe(path string) PortInfo {
	info := PortInfo{
		Name: filepath.Base(path),
		Path: path,
	}
	info.Err = CheckPort(path)
	info.Available = info.Err == nil

	resolved, err := filepath.EvalSymlinks(filepath.Join(sysfsTTY, info.Name, "device"))
	if err != nil {
		return info // no device symlink → virtual TTY
	}
	info.USB = readUSBInfo(resolved)
	return info
}

// readUSBInfo walks up from the tty device sysfs path to the USB device
// directory (the one containing idVendor).
func readUSBInfo(resolved string) *USBInfo {
	for dir := resolved; dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err != nil {
			continue
		}
		return &USBInfo{
			VendorID:     readHexFile(filepath.Join(dir, "idVendor")),
			ProductID:    readHexFile(filepath.Join(dir, "idProduct")),
			Manufacturer: readStringFile(filepath.Join(dir, "manufacturer")),
			Product:      readStringFile(filepath.Join(dir, "product")),
			SerialNumber: readStringFile(filepath.Join(dir, "serial")),
		}
	}
	return nil
}

func readStringFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readHexFile(path string) uint32 {
	s := readStringFile(path)
	if s == "" {
		return 0
	}
	var val uint32
	_, _ = fmt.Sscanf(s, "%x", &val)
	return val
}

// WatchPorts sends a ListPorts snapshot immediately and again whenever a tty
// node is created or removed. The channel is closed when ctx is done or the
// watcher fails; if watching cannot start, only the initial snapshot is sent.
func WatchPorts(ctx context.Context, logger *slog.Logger) <-chan []string {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "serial")
	ch := make(chan []string, 1)

	snapshot := func() bool {
		ports, err := ListPorts()
		if err != nil {
			logger.Error("cannot list serial ports", "error", err)
			return true
		}
		select {
		case ch <- ports:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(ch)

		// Watch before the initial scan so nothing plugged in between is missed.
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Error("failed to create fsnotify watcher", "error", err)
			snapshot()
			return
		}
		defer func() { _ = watcher.Close() }()

		if err := watcher.Add(devDir); err != nil {
			logger.Error("failed to watch device directory", "dir", devDir, "error", err)
			snapshot()
			return
		}

		if !snapshot() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasPrefix(filepath.Base(event.Name), "tty") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				if !snapshot() {
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("fsnotify error", "error", err)
			}
		}
	}()

	return ch
}
