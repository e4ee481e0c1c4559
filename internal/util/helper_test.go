package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendRadix(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		value       uint64
		radix       uint64
		width       int
		expected    string
	}{
		{"decimal offset", 100, 10, 6, "000100"},
		{"hex offset", 0x1F, 16, 6, "00001F"},
		{"octal offset", 15, 8, 6, "000017"},
		{"hex word", 0x0401, 16, 4, "0401"},
		{"truncated", 0x12345, 16, 4, "2345"},
	}

	for _, tt := range tests {
		require.Equal(tt.expected, string(AppendRadix(nil, tt.value, tt.radix, tt.width)), tt.description)
	}

	require.Equal("X00FF", string(AppendHex([]byte("X"), 0xFF, 4)))
}

func TestHexRoundTrip(t *testing.T) {
	require := require.New(t)

	payloads := [][]byte{
		{},
		{0x00},
		{0x01, 0x00, 0x02, 0x00, 0x03},
		{0xDE, 0xAD, 0xBE, 0xEF, 0x7F, 0x80},
	}
	for _, p := range payloads {
		encoded := EncodeHex(nil, p)
		require.Len(encoded, len(p)*2)

		decoded, err := DecodeHex(encoded)
		require.NoError(err)
		require.Equal(p, decoded)
	}

	require.Equal("DEADBEEF", string(EncodeHex(nil, []byte{0xDE, 0xAD, 0xBE, 0xEF})))

	_, err := DecodeHex([]byte("0G"))
	require.Error(err)
}

func TestParseHex(t *testing.T) {
	require := require.New(t)

	v, err := ParseHex([]byte("4031"))
	require.NoError(err)
	require.Equal(uint64(0x4031), v)

	v, err = ParseHex([]byte("c05c"))
	require.NoError(err)
	require.Equal(uint64(0xC05C), v)

	_, err = ParseHex(nil)
	require.Error(err)

	_, err = ParseHex([]byte("12Z4"))
	require.Error(err)
}

func TestCloneSlice(t *testing.T) {
	require := require.New(t)

	src := []byte{1, 2, 3}
	clone := CloneSlice(src, 0)
	clone[0] = 9
	require.Equal([]byte{1, 2, 3}, src)

	require.Equal([]byte{1, 2, 3, 0}, CloneSlice(src, 4))
}
