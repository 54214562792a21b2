package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseBaudRate(t *testing.T) {
	for _, rate := range SupportedBaudRates {
		got, err := ParseBaudRate(rate.Int())
		require.NoError(t, err)
		require.Equal(t, rate, got)
		require.True(t, got.Valid())
	}

	for _, n := range []int{0, -9600, 1200, 4800, 230400, 12345} {
		_, err := ParseBaudRate(n)
		require.ErrorIs(t, err, ErrUnsupportedBaudRate, "rate %d", n)
	}
}

func TestBaudRateOrDefault(t *testing.T) {
	got, ok := BaudRateOrDefault(57600)
	require.True(t, ok)
	require.Equal(t, Baud57600, got)

	got, ok = BaudRateOrDefault(230400)
	require.False(t, ok)
	require.Equal(t, Baud9600, got)
}

func TestConfig_ResolveBaudRate(t *testing.T) {
	rate, fellBack, err := Config{BaudRate: 38400}.resolveBaudRate()
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Equal(t, Baud38400, rate)

	rate, fellBack, err = Config{BaudRate: 1}.resolveBaudRate()
	require.NoError(t, err)
	require.True(t, fellBack)
	require.Equal(t, DefaultBaudRate, rate)

	_, _, err = Config{BaudRate: 1, StrictBaudRate: true}.resolveBaudRate()
	require.ErrorIs(t, err, ErrUnsupportedBaudRate)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	require.Equal(t, "\r\n", cfg.Delimiter)
	require.NotNil(t, cfg.Logger)
}

func TestVtime(t *testing.T) {
	cases := map[time.Duration]uint8{
		time.Millisecond:         1,
		100 * time.Millisecond:   1,
		101 * time.Millisecond:   2,
		250 * time.Millisecond:   3,
		time.Second:              10,
		25500 * time.Millisecond: 255,
		time.Minute:              255,
	}
	for d, want := range cases {
		require.Equal(t, want, vtime(d), "timeout %v", d)
	}
}
