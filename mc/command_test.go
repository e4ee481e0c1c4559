package mc

import (
	"testing"

	"github.com/arloliu/go-melsec/device"
	"github.com/stretchr/testify/require"
)

func TestBuildReadWords(t *testing.T) {
	require := require.New(t)

	d100 := device.MustParse("D100", 3)

	tests := []struct {
		description string
		format      Format
		expected    []byte
	}{
		{
			description: "binary",
			format:      Binary,
			expected:    []byte{0x01, 0x04, 0x00, 0x00, 0x64, 0x00, 0x00, 0xA8, 0x03, 0x00},
		},
		{
			description: "ascii",
			format:      ASCII,
			expected:    []byte("04010000D*0001000003"),
		},
		{
			description: "r-binary",
			format:      RBinary,
			expected:    []byte{0x01, 0x04, 0x02, 0x00, 0x64, 0x00, 0x00, 0x00, 0xA8, 0x00, 0x03, 0x00},
		},
		{
			description: "r-ascii",
			format:      RASCII,
			expected:    []byte("04010002D***000001000003"),
		},
	}

	for _, tt := range tests {
		cmd, err := BuildReadWords(tt.format, d100, 3)
		require.NoError(err, tt.description)
		require.Equal(tt.expected, cmd, tt.description)
	}
}

func TestBuildReadBits_DeviceRadix(t *testing.T) {
	require := require.New(t)

	cmd, err := BuildReadBits(Binary, device.MustParse("X17", 1), 20)
	require.NoError(err)
	require.Equal([]byte{0x01, 0x04, 0x01, 0x00, 0x0F, 0x00, 0x00, 0x9C, 0x14, 0x00}, cmd)

	cmd, err = BuildReadBits(ASCII, device.MustParse("X17", 1), 20)
	require.NoError(err)
	require.Equal("04010001X*0000170014", string(cmd))

	cmd, err = BuildReadBits(ASCII, device.MustParse("B1F", 1), 1)
	require.NoError(err)
	require.Equal("04010001B*00001F0001", string(cmd))

	cmd, err = BuildReadBits(RASCII, device.MustParse("SM400", 1), 2)
	require.NoError(err)
	require.Equal("04010003SM**000004000002", string(cmd))
}

func TestBuildReadWords_OffsetRange(t *testing.T) {
	require := require.New(t)

	addr := device.MustParse("D16777216", 1)
	_, err := BuildReadWords(Binary, addr, 1)
	require.ErrorIs(err, ErrOffsetRange)

	_, err = BuildReadWords(ASCII, device.MustParse("D1000000", 1), 1)
	require.ErrorIs(err, ErrOffsetRange)

	cmd, err := BuildReadWords(RBinary, addr, 1)
	require.NoError(err)
	require.Equal([]byte{0x00, 0x00, 0x00, 0x01}, cmd[4:8])

	_, err = BuildReadWords(Binary, device.MustParse("D0", 1), 0)
	require.ErrorIs(err, ErrEmptyRequest)

	_, err = BuildReadWords(Format(9), device.MustParse("D0", 1), 1)
	require.ErrorIs(err, ErrUnknownFormat)
}

func TestBuildWriteWords(t *testing.T) {
	require := require.New(t)

	d100 := device.MustParse("D100", 0)

	cmd, err := BuildWriteWords(Binary, d100, []byte{0x34, 0x12, 0x78, 0x56})
	require.NoError(err)
	require.Equal([]byte{
		0x01, 0x14, 0x00, 0x00, 0x64, 0x00, 0x00, 0xA8, 0x02, 0x00,
		0x34, 0x12, 0x78, 0x56,
	}, cmd)

	cmd, err = BuildWriteWords(ASCII, d100, []byte{0x34, 0x12, 0x78, 0x56})
	require.NoError(err)
	require.Equal("14010000D*0001000002"+"1234"+"5678", string(cmd))

	// odd payloads are padded to whole words
	cmd, err = BuildWriteWords(Binary, d100, []byte{0x01, 0x02, 0x03})
	require.NoError(err)
	require.Equal([]byte{0x02, 0x00, 0x01, 0x02, 0x03, 0x00}, cmd[8:])
}

func TestBuildWriteBits_OnePointPerUnit(t *testing.T) {
	require := require.New(t)

	m100 := device.MustParse("M100", 0)
	bits := []bool{true, false, true, true, false}

	cmd, err := BuildWriteBits(Binary, m100, bits)
	require.NoError(err)
	require.Equal([]byte{
		0x01, 0x14, 0x01, 0x00, 0x64, 0x00, 0x00, 0x90, 0x05, 0x00,
		0x01, 0x00, 0x01, 0x01, 0x00,
	}, cmd)

	cmd, err = BuildWriteBits(ASCII, m100, bits)
	require.NoError(err)
	require.Equal("14010001M*0001000005"+"10110", string(cmd))

	_, err = BuildWriteBits(Binary, m100, nil)
	require.ErrorIs(err, ErrEmptyRequest)
}

func TestBuildReadRandom(t *testing.T) {
	require := require.New(t)

	addrs := []device.Address{
		device.MustParse("D100", 1),
		device.MustParse("M16", 1),
		device.MustParse("W1F", 1),
	}

	cmd, err := BuildReadRandom(Binary, addrs)
	require.NoError(err)
	require.Equal([]byte{
		0x03, 0x04, 0x00, 0x00, 0x03, 0x00,
		0x64, 0x00, 0x00, 0xA8,
		0x10, 0x00, 0x00, 0x90,
		0x1F, 0x00, 0x00, 0xB4,
	}, cmd)

	cmd, err = BuildReadRandom(ASCII, addrs)
	require.NoError(err)
	require.Equal("04030000"+"0300"+"D*000100"+"M*000016"+"W*00001F", string(cmd))

	cmd, err = BuildReadRandom(RBinary, addrs[:1])
	require.NoError(err)
	require.Equal([]byte{0x03, 0x04, 0x02, 0x00, 0x01, 0x00, 0x64, 0x00, 0x00, 0x00, 0xA8, 0x00}, cmd)

	_, err = BuildReadRandom(Binary, nil)
	require.ErrorIs(err, ErrEmptyRequest)

	_, err = BuildReadRandom(Binary, make([]device.Address, 256))
	require.ErrorIs(err, ErrTooManyPoints)
}

func TestBuildReadRandomBlocks(t *testing.T) {
	require := require.New(t)

	addrs := []device.Address{device.MustParse("D100", 0), device.MustParse("W10", 0)}

	cmd, err := BuildReadRandomBlocks(Binary, addrs, []uint16{2, 5})
	require.NoError(err)
	require.Equal([]byte{
		0x06, 0x04, 0x00, 0x00, 0x02, 0x00,
		0x64, 0x00, 0x00, 0xA8, 0x02, 0x00,
		0x10, 0x00, 0x00, 0xB4, 0x05, 0x00,
	}, cmd)

	cmd, err = BuildReadRandomBlocks(ASCII, addrs, []uint16{2, 5})
	require.NoError(err)
	require.Equal("04060000"+"0200"+"D*0001000002"+"W*0000100005", string(cmd))

	_, err = BuildReadRandomBlocks(Binary, []device.Address{device.MustParse("M0", 0)}, []uint16{1})
	require.ErrorIs(err, ErrWordDeviceOnly)

	_, err = BuildReadRandomBlocks(Binary, addrs, []uint16{1})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestBuildReadExtend(t *testing.T) {
	require := require.New(t)

	cmd, err := BuildReadExtend(Binary, 0x03E0, device.MustParse("D10", 0), 4, false)
	require.NoError(err)
	require.Equal([]byte{
		0x01, 0x04, 0x80, 0x00,
		0x00, 0x00,
		0x0A, 0x00, 0x00, 0xA8,
		0x00, 0x00,
		0xE0, 0x03,
		0xF9,
		0x04, 0x00,
	}, cmd)

	cmd, err = BuildReadExtend(ASCII, 0x03E0, device.MustParse("M0", 0), 1, true)
	require.NoError(err)
	require.Equal("04010081"+"0000"+"M*000000"+"0000"+"03E0"+"F9"+"0001", string(cmd))
}

func TestBuildReadMemoryAndSmartModule(t *testing.T) {
	require := require.New(t)

	cmd, err := BuildReadMemory(Binary, 0x78, 2)
	require.NoError(err)
	require.Equal([]byte{0x13, 0x06, 0x00, 0x00, 0x78, 0x00, 0x00, 0x00, 0x02, 0x00}, cmd)

	cmd, err = BuildReadMemory(ASCII, 0x78, 2)
	require.NoError(err)
	require.Equal("06130000"+"00000078"+"0002", string(cmd))

	cmd, err = BuildReadSmartModule(Binary, 0x0002, 0x10, 8)
	require.NoError(err)
	require.Equal([]byte{0x01, 0x06, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x08, 0x00, 0x02, 0x00}, cmd)
}

func TestBuildReadTags(t *testing.T) {
	require := require.New(t)

	cmd, err := BuildReadTags(Binary, []string{"AB"}, []uint16{1})
	require.NoError(err)
	require.Equal([]byte{
		0x1A, 0x04, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 'A', 0x00, 'B', 0x00,
		0x01, 0x00, 0x02, 0x00,
	}, cmd)

	_, err = BuildReadTags(ASCII, []string{"AB"}, []uint16{1})
	require.ErrorIs(err, ErrUnsupportedFormat)

	_, err = BuildReadTags(Binary, []string{"A", "B"}, []uint16{1})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestBuildRemoteOperations(t *testing.T) {
	require := require.New(t)

	cmd, err := BuildRemoteRun(Binary, false)
	require.NoError(err)
	require.Equal([]byte{0x01, 0x10, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, cmd)

	cmd, err = BuildRemoteRun(ASCII, true)
	require.NoError(err)
	require.Equal("10010000000300"+"00", string(cmd))

	cmd, err = BuildRemoteStop(Binary)
	require.NoError(err)
	require.Equal([]byte{0x02, 0x10, 0x00, 0x00, 0x01, 0x00}, cmd)

	cmd, err = BuildRemoteReset(ASCII)
	require.NoError(err)
	require.Equal("100600000001", string(cmd))

	cmd, err = BuildReadCPUModel(Binary)
	require.NoError(err)
	require.Equal([]byte{0x01, 0x01, 0x00, 0x00}, cmd)
}
