package serial

import (
	"fmt"
	"strconv"
)

// BaudRate is one of the line speeds the adapter knows how to program.
type BaudRate int

const (
	Baud9600   BaudRate = 9600
	Baud19200  BaudRate = 19200
	Baud38400  BaudRate = 38400
	Baud57600  BaudRate = 57600
	Baud115200 BaudRate = 115200
)

// DefaultBaudRate is used when a caller asks for a rate outside SupportedBaudRates
// and Config.StrictBaudRate is not set.
const DefaultBaudRate = Baud9600

// SupportedBaudRates lists every rate in ascending order.
var SupportedBaudRates = []BaudRate{Baud9600, Baud19200, Baud38400, Baud57600, Baud115200}

// Int returns the rate as a plain int.
func (b BaudRate) Int() int {
	return int(b)
}

func (b BaudRate) String() string {
	return strconv.Itoa(int(b))
}

// Valid reports whether b is in SupportedBaudRates.
func (b BaudRate) Valid() bool {
	for _, r := range SupportedBaudRates {
		if r == b {
			return true
		}
	}
	return false
}

// ParseBaudRate converts n into a BaudRate, failing with ErrUnsupportedBaudRate
// for anything not in SupportedBaudRates.
func ParseBaudRate(n int) (BaudRate, error) {
	b := BaudRate(n)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d (supported: %v)", ErrUnsupportedBaudRate, n, SupportedBaudRates)
	}
	return b, nil
}

// BaudRateOrDefault returns n as a BaudRate, or DefaultBaudRate if n is unsupported.
// The second result is false when the fallback was taken.
func BaudRateOrDefault(n int) (BaudRate, bool) {
	b, err := ParseBaudRate(n)
	if err != nil {
		return DefaultBaudRate, false
	}
	return b, true
}
