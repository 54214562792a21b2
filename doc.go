// Package serial provides minimal, Linux-only access to UART devices through
// raw termios, designed for talking to embedded peripherals such as LED
// controllers and barcode scanners hanging off /dev/ttyS* nodes.
//
// A port is always configured the same way: raw 8N1, no hardware or software
// flow control, no newline translation, and reads that return whatever is
// available after waiting at most the configured read timeout (100ms unless
// set otherwise). Only the baud rate is negotiable, and only within
// SupportedBaudRates.
//
// Features:
//   - Explicit *Port handles; no package-level state
//   - One write(2) per Write, one read(2) per Read
//   - Distinct results for "nothing arrived yet" (ErrNoData) and real errors
//   - Line-based helpers with a custom delimiter (default: \r\n)
//   - Port discovery and hotplug watching
//   - OpenTelemetry counters for opens, bytes and errors
//   - PTY-based tests
//
// This package does **not** support Windows.
//
// Example usage:
//
//	port, err := serial.Open(serial.Config{
//	    Device:   "/dev/ttyS5",
//	    BaudRate: 9600,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	if _, err := port.Write([]byte{0x55, 0xAA, 0x01}); err != nil {
//	    log.Println("write failed:", err)
//	}
//
//	data, err := port.Read(1024)
//	switch {
//	case serial.IsTransient(err):
//	    // nothing within the timeout, try again later
//	case err != nil:
//	    log.Println("read failed:", err)
//	default:
//	    fmt.Printf("received % X\n", data)
//	}
//
// For callers that want exactly one port at a time behind a fixed surface,
// Adapter wraps Open/Close/Write/Read and maps errors to 0/-1 status codes.
package serial
