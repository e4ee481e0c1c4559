package mcnet

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/mc"
	"github.com/arloliu/go-melsec/mcsim"
)

func TestClient_Read(t *testing.T) {
	require := require.New(t)

	for _, f := range allFormats {
		client, sim := newSimClient(t, f)
		require.NoError(sim.SetWords("D100", 1, 2, 3))

		data, err := client.Read("D100", 3)
		require.NoError(err, f.String())
		require.Equal([]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}, data, f.String())
		require.Equal(uint64(1), sim.Requests(), f.String())
	}
}

func TestClient_Read_Errors(t *testing.T) {
	client, sim := newSimClient(t, mc.Binary)

	tests := []struct {
		description string
		address     string
		length      uint16
		expectedErr error
	}{
		{description: "unknown device", address: "QQ100", length: 1, expectedErr: device.ErrUnknownDevice},
		{description: "malformed offset", address: "D1X", length: 1, expectedErr: device.ErrMalformedOffset},
		{description: "bit index on word read", address: "D100.3", length: 1, expectedErr: ErrUnexpectedBitIndex},
		{description: "zero length", address: "D100", length: 0, expectedErr: mc.ErrEmptyRequest},
		{description: "offset too large for binary frame", address: "ZR16777216", length: 1, expectedErr: mc.ErrOffsetRange},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			data, err := client.Read(tt.address, tt.length)
			require.ErrorIs(err, tt.expectedErr)
			require.Nil(data)
		})
	}

	require.Zero(t, sim.Requests())
}

func TestClient_Read_Segmentation(t *testing.T) {
	tests := []struct {
		description string
		format      mc.Format
		words       uint16
		frames      uint64
	}{
		{description: "binary exactly one frame", format: mc.Binary, words: 950, frames: 1},
		{description: "binary one word over", format: mc.Binary, words: 951, frames: 2},
		{description: "binary three frames", format: mc.Binary, words: 2000, frames: 3},
		{description: "ascii exactly one frame", format: mc.ASCII, words: 460, frames: 1},
		{description: "ascii five frames", format: mc.ASCII, words: 2000, frames: 5},
		{description: "r-binary two frames", format: mc.RBinary, words: 1900, frames: 2},
		{description: "r-ascii two frames", format: mc.RASCII, words: 461, frames: 2},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			client, sim := newSimClient(t, tt.format)

			values := make([]uint16, tt.words)
			expected := make([]byte, 0, int(tt.words)*2)
			for i := range values {
				values[i] = uint16(i*7 + 1) //nolint:gosec // test data
				expected = append(expected, byte(values[i]), byte(values[i]>>8))
			}
			require.NoError(sim.SetWords("D0", values...))

			data, err := client.Read("D0", tt.words)
			require.NoError(err)
			require.Equal(expected, data)
			require.Equal(tt.frames, sim.Requests())
		})
	}
}

func TestClient_Read_BitDeviceWords(t *testing.T) {
	require := require.New(t)

	client, sim := newSimClient(t, mc.Binary)
	require.NoError(sim.SetBits("M0", true))
	require.NoError(sim.SetBits("M16", false, true))

	// the cursor of a bit device advances by 16 points per word
	data, err := client.Read("M0", 2)
	require.NoError(err)
	require.Equal([]byte{0x01, 0x00, 0x02, 0x00}, data)
}

func TestClient_Read_BitDeviceSegmentation(t *testing.T) {
	tests := []struct {
		description string
		format      mc.Format
		words       uint16
		frames      uint64
	}{
		{description: "binary", format: mc.Binary, words: 1000, frames: 2},
		{description: "ascii", format: mc.ASCII, words: 500, frames: 2},
		{description: "r-binary", format: mc.RBinary, words: 1900, frames: 2},
		{description: "r-ascii", format: mc.RASCII, words: 921, frames: 3},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			client, sim := newSimClient(t, tt.format)

			points := int(tt.words) * 16
			values := make([]bool, points)
			expected := make([]byte, int(tt.words)*2)
			for i := range values {
				values[i] = i%3 == 0 || i%7 == 0
				if values[i] {
					expected[i/8] |= 1 << (i % 8)
				}
			}
			require.NoError(sim.SetBits("M0", values...))

			// each word spans 16 points, so later frames start at M(16*done)
			data, err := client.Read("M0", tt.words)
			require.NoError(err)
			require.Equal(expected, data)
			require.Equal(tt.frames, sim.Requests())
		})
	}
}

func TestClient_ReadBits_SplitEquivalence(t *testing.T) {
	tests := []struct {
		description string
		format      mc.Format
		points      uint16
		split       uint16
	}{
		{description: "binary halves", format: mc.Binary, points: 16000, split: 8000},
		{description: "binary unaligned split", format: mc.Binary, points: 16000, split: 7995},
		{description: "ascii halves", format: mc.ASCII, points: 8000, split: 4000},
		{description: "r-binary halves", format: mc.RBinary, points: 16000, split: 8000},
		{description: "r-ascii unaligned split", format: mc.RASCII, points: 8000, split: 4011},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			client, sim := newSimClient(t, tt.format)

			values := make([]bool, tt.points)
			for i := range values {
				values[i] = i%5 == 0 || i%11 == 3
			}
			require.NoError(sim.SetBits("M0", values...))

			rest := fmt.Sprintf("M%d", tt.split)

			whole, err := client.ReadBits("M0", tt.points)
			require.NoError(err)
			require.Equal(values, whole)

			head, err := client.ReadBits("M0", tt.split)
			require.NoError(err)
			tail, err := client.ReadBits(rest, tt.points-tt.split)
			require.NoError(err)
			require.Equal(whole, append(head, tail...))

			whole, err = client.ReadBitUnits("M0", tt.points)
			require.NoError(err)
			require.Equal(values, whole)

			head, err = client.ReadBitUnits("M0", tt.split)
			require.NoError(err)
			tail, err = client.ReadBitUnits(rest, tt.points-tt.split)
			require.NoError(err)
			require.Equal(whole, append(head, tail...))
		})
	}
}

func TestClient_Read_PayloadTooLong(t *testing.T) {
	require := require.New(t)

	ex := &scripted{format: mc.Binary, payloads: [][]byte{{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}}}
	client, err := NewClient(ex)
	require.NoError(err)

	_, err = client.Read("D100", 2)
	require.ErrorIs(err, mc.ErrFramePayload)
	require.Equal(ClassLink, Classify(err))
}

func TestClient_Read_AbortsOnFirstError(t *testing.T) {
	require := require.New(t)

	frames := 0
	client, sim := newSimClient(t, mc.Binary, mcsim.WithFault(func(*mc.Request) uint16 {
		frames++
		if frames == 2 {
			return 0x4031
		}
		return 0
	}))

	data, err := client.Read("D0", 2000)
	require.Nil(data)

	var perr *mc.ProtocolError
	require.ErrorAs(err, &perr)
	require.Equal(uint16(0x4031), perr.Code)
	require.Equal(mc.KindDeviceOutOfRange, perr.Kind)
	require.Equal(ClassDevice, Classify(err))
	require.Equal(uint64(2), sim.Requests())
}

func TestClient_ReadBits(t *testing.T) {
	require := require.New(t)

	for _, f := range allFormats {
		client, sim := newSimClient(t, f)
		require.NoError(sim.SetWords("D100", 0b1010_0000))
		require.NoError(sim.SetBits("M3", true, false, true))

		bits, err := client.ReadBits("D100.5", 3)
		require.NoError(err, f.String())
		require.Equal([]bool{true, false, true}, bits, f.String())

		bits, err = client.ReadBits("M0", 6)
		require.NoError(err, f.String())
		require.Equal([]bool{false, false, false, true, false, true}, bits, f.String())
	}
}

func TestClient_ReadBits_ShortPayload(t *testing.T) {
	require := require.New(t)

	ex := &scripted{format: mc.Binary, payloads: [][]byte{{0xFF, 0x0F, 0x05}}}
	client, err := NewClient(ex)
	require.NoError(err)

	bits, err := client.ReadBits("M100", 20)
	require.NoError(err)
	require.Len(bits, 20)

	expected := []bool{
		true, true, true, true, true, true, true, true,
		true, true, true, true, false, false, false, false,
		true, false, true, false,
	}
	require.Equal(expected, bits)

	// one word read of two words
	require.Len(ex.requests, 1)
	req, err := mc.ParseRequest(mc.Binary, ex.requests[0])
	require.NoError(err)
	require.Equal(mc.CmdBatchRead, req.Command)
	require.Equal(mc.SubWord, req.Subcommand)
	r := req.Reader()
	typ, offset := r.Device()
	require.Equal("M", typ.Name)
	require.Equal(uint32(100), offset)
	require.Equal(uint16(2), r.U16())
}

func TestClient_ReadBits_PayloadTooShort(t *testing.T) {
	require := require.New(t)

	ex := &scripted{format: mc.Binary, payloads: [][]byte{{0xFF, 0x0F}}}
	client, err := NewClient(ex)
	require.NoError(err)

	_, err = client.ReadBits("M100", 20)
	require.ErrorIs(err, mc.ErrFramePayload)
	require.Equal(ClassLink, Classify(err))
}

func TestClient_ReadBitUnits(t *testing.T) {
	tests := []struct {
		description string
		format      mc.Format
		points      uint16
		frames      uint64
	}{
		{description: "binary one frame", format: mc.Binary, points: 7168, frames: 1},
		{description: "binary two frames", format: mc.Binary, points: 7169, frames: 2},
		{description: "ascii one frame", format: mc.ASCII, points: 3584, frames: 1},
		{description: "ascii two frames", format: mc.ASCII, points: 3585, frames: 2},
		{description: "r-ascii odd count", format: mc.RASCII, points: 5, frames: 1},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			client, sim := newSimClient(t, tt.format)

			values := make([]bool, tt.points)
			for i := range values {
				values[i] = i%3 == 0
			}
			require.NoError(sim.SetBits("B0", values...))

			bits, err := client.ReadBitUnits("B0", tt.points)
			require.NoError(err)
			require.Equal(values, bits)
			require.Equal(tt.frames, sim.Requests())
		})
	}
}

func TestClient_ReadBitUnits_WordDevice(t *testing.T) {
	require := require.New(t)

	client, sim := newSimClient(t, mc.Binary)

	_, err := client.ReadBitUnits("D0", 4)
	require.ErrorIs(err, ErrBitDeviceOnly)
	require.Equal(ClassAddress, Classify(err))
	require.Zero(sim.Requests())
}

func TestClient_Write(t *testing.T) {
	require := require.New(t)

	for _, f := range allFormats {
		client, sim := newSimClient(t, f)

		require.NoError(client.Write("W10", []byte{0x34, 0x12, 0x78}), f.String())

		words, err := sim.Words("W10", 2)
		require.NoError(err)
		require.Equal([]uint16{0x1234, 0x0078}, words, f.String())
	}
}

func TestClient_Write_Segmentation(t *testing.T) {
	require := require.New(t)

	for _, f := range allFormats {
		client, sim := newSimClient(t, f)

		words := int(f.MaxWords())*2 + 1
		data := make([]byte, words*2)
		for i := range data {
			data[i] = byte(i)
		}

		require.NoError(client.Write("D1000", data), f.String())
		require.Equal(uint64(3), sim.Requests(), f.String())

		back, err := client.Read("D1000", uint16(words)) //nolint:gosec // test data
		require.NoError(err)
		require.Equal(data, back, f.String())
	}
}

func TestClient_Write_Errors(t *testing.T) {
	require := require.New(t)

	client, sim := newSimClient(t, mc.Binary)

	require.ErrorIs(client.Write("D0", nil), mc.ErrEmptyRequest)
	require.ErrorIs(client.Write("D0.1", []byte{1, 0}), ErrUnexpectedBitIndex)
	require.ErrorIs(client.Write("?0", []byte{1, 0}), device.ErrUnknownDevice)
	require.Zero(sim.Requests())
}

func TestClient_WriteBits(t *testing.T) {
	require := require.New(t)

	for _, f := range allFormats {
		client, sim := newSimClient(t, f)

		values := make([]bool, int(f.MaxBits())+10)
		for i := range values {
			values[i] = i%5 == 1
		}

		require.NoError(client.WriteBits("L0", values), f.String())
		require.Equal(uint64(2), sim.Requests(), f.String())

		got, err := sim.Bits("L0", len(values))
		require.NoError(err)
		require.Equal(values, got, f.String())
	}
}

func TestClient_WriteBits_WordBit(t *testing.T) {
	require := require.New(t)

	for _, f := range allFormats {
		client, sim := newSimClient(t, f)
		require.NoError(sim.SetWords("D99", 0xAAAA, 0x0000, 0xFFFF, 0x5555))

		require.NoError(client.WriteBits("D100.5", []bool{true}), f.String())
		require.NoError(client.WriteBits("D101.0", []bool{false, false}), f.String())

		words, err := sim.Words("D99", 4)
		require.NoError(err)
		require.Equal([]uint16{0xAAAA, 0x0020, 0xFFFC, 0x5555}, words, f.String())

		// a bit range crossing a word boundary updates both words
		require.NoError(client.WriteBits("D100.15", []bool{true, true}), f.String())
		words, err = sim.Words("D100", 2)
		require.NoError(err)
		require.Equal([]uint16{0x8020, 0xFFFD}, words, f.String())
	}
}

func TestClient_Context(t *testing.T) {
	require := require.New(t)

	client, sim := newSimClient(t, mc.Binary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ReadContext(ctx, "D0", 1)
	require.ErrorIs(err, context.Canceled)
	require.Equal(ClassLink, Classify(err))
	require.Zero(sim.Requests())
}
