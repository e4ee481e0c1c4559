package mc

import (
	"testing"

	"github.com/arloliu/go-melsec/device"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_RoundTrip(t *testing.T) {
	require := require.New(t)

	route := Route{Network: 3, Station: 7, IO: 0x03FF, Unit: 1, Watchdog: 4}
	for _, f := range []Format{Binary, ASCII, RBinary, RASCII} {
		cmd, err := BuildWriteWords(f, device.MustParse("W1F", 0), []byte{0x34, 0x12, 0x00, 0x80})
		require.NoError(err)

		req, err := ParseRequest(f, Pack(f, cmd, route))
		require.NoError(err, f.String())
		require.Equal(route, req.Route)
		require.Equal(CmdBatchWrite, req.Command)
		require.Equal(subcommand(f, false), req.Subcommand)
		require.Equal(f, req.Format())

		r := req.Reader()
		typ, offset := r.Device()
		n := r.U16()
		data := r.Words(int(n))
		require.NoError(r.Err())
		require.Equal("W", typ.Name)
		require.Equal(uint32(0x1F), offset)
		require.Equal(uint16(2), n)
		require.Equal([]byte{0x34, 0x12, 0x00, 0x80}, data)
		require.Zero(r.Remaining())
	}
}

func TestParseRequest_Bits(t *testing.T) {
	require := require.New(t)

	bits := []bool{true, false, true}
	for _, f := range []Format{Binary, ASCII} {
		cmd, err := BuildWriteBits(f, device.MustParse("X17", 0), bits)
		require.NoError(err)

		req, err := ParseRequest(f, Pack(f, cmd, DefaultRoute()))
		require.NoError(err)
		r := req.Reader()
		typ, offset := r.Device()
		n := r.U16()
		require.Equal("X", typ.Name)
		require.Equal(uint32(15), offset)
		require.Equal(bits, r.Bits(int(n)))
		require.NoError(r.Err())
	}
}

func TestParseRequest_Errors(t *testing.T) {
	require := require.New(t)

	_, err := ParseRequest(Binary, []byte{0x50, 0x00})
	require.ErrorIs(err, ErrFrameTooShort)

	frame := Pack(Binary, []byte{0x01, 0x04, 0x00, 0x00}, DefaultRoute())
	frame[0] = 0xD0
	_, err = ParseRequest(Binary, frame)
	require.ErrorIs(err, ErrFrameSubheader)

	frame = Pack(Binary, []byte{0x01, 0x04, 0x00, 0x00}, DefaultRoute())
	req, err := ParseRequest(Binary, frame)
	require.NoError(err)
	r := req.Reader()
	r.Device()
	require.ErrorIs(r.Err(), ErrFramePayload)
}
