//go:build linux

package serial

import "golang.org/x/sys/unix"

// ibshift is the offset of the input-speed field (CIBAUD) inside c_cflag.
const ibshift = 16

// Syscall seams, swapped out by tests.
var (
	sysOpen  = unix.Open
	sysClose = unix.Close
	sysRead  = unix.Read
	sysWrite = unix.Write

	getTermios = func(fd int) (*unix.Termios, error) {
		return unix.IoctlGetTermios(fd, unix.TCGETS)
	}
	// TCSETS applies the settings immediately, like tcsetattr(TCSANOW).
	setTermios = func(fd int, t *unix.Termios) error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, t)
	}
	setNonblock = unix.SetNonblock
	sysPoll     = unix.Poll
)

func (b BaudRate) speed() uint32 {
	switch b {
	case Baud19200:
		return unix.B19200
	case Baud38400:
		return unix.B38400
	case Baud57600:
		return unix.B57600
	case Baud115200:
		return unix.B115200
	default:
		return unix.B9600
	}
}

func baudFromSpeed(speed uint32) (BaudRate, bool) {
	for _, b := range SupportedBaudRates {
		if b.speed() == speed {
			return b, true
		}
	}
	return 0, false
}

// configureRaw rewrites t for raw 8N1 at rate with the given VTIME.
func configureRaw(t *unix.Termios, rate BaudRate, timeout uint8) {
	// Speed: output in CBAUD, CIBAUD zeroed so input follows output.
	t.Cflag &^= unix.CBAUD | unix.CIBAUD
	t.Cflag |= rate.speed()

	// 8N1
	t.Cflag &^= unix.PARENB | unix.CSTOPB | unix.CSIZE
	t.Cflag |= unix.CS8
	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Cflag &^= unix.CRTSCTS

	// Raw input
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ISIG
	t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL

	// Raw output
	t.Oflag &^= unix.OPOST

	// Return whatever is there after at most VTIME deciseconds, even nothing.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = timeout
}

// OutputSpeed decodes the output baud rate programmed in t.
func OutputSpeed(t *unix.Termios) (BaudRate, bool) {
	return baudFromSpeed(t.Cflag & unix.CBAUD)
}

// InputSpeed decodes the input baud rate programmed in t. A zero CIBAUD field
// means the input speed follows the output speed.
func InputSpeed(t *unix.Termios) (BaudRate, bool) {
	in := (t.Cflag & unix.CIBAUD) >> ibshift
	if in == 0 {
		return OutputSpeed(t)
	}
	return baudFromSpeed(in)
}
