package mcnet

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/go-melsec/mc"
)

// Typed accessors over Read and Write. Devices store words little-endian and
// 32-bit values as two consecutive words, low word first.

// ReadUint16s reads count words starting at address.
func (c *Client) ReadUint16s(ctx context.Context, address string, count uint16) ([]uint16, error) {
	data, err := c.ReadContext(ctx, address, count)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(data[i*2:])
	}

	return out, nil
}

// ReadInt16s reads count signed words starting at address.
func (c *Client) ReadInt16s(ctx context.Context, address string, count uint16) ([]int16, error) {
	words, err := c.ReadUint16s(ctx, address, count)
	if err != nil {
		return nil, err
	}

	out := make([]int16, len(words))
	for i, w := range words {
		out[i] = int16(w) //nolint:gosec // two's complement reinterpretation
	}

	return out, nil
}

// ReadUint32s reads count double words starting at address.
func (c *Client) ReadUint32s(ctx context.Context, address string, count uint16) ([]uint32, error) {
	if count > math.MaxUint16/2 {
		return nil, fmt.Errorf("%w: %d double words", mc.ErrTooManyPoints, count)
	}

	data, err := c.ReadContext(ctx, address, count*2)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	return out, nil
}

// ReadFloat32s reads count IEEE 754 single precision values starting at address.
func (c *Client) ReadFloat32s(ctx context.Context, address string, count uint16) ([]float32, error) {
	dwords, err := c.ReadUint32s(ctx, address, count)
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(dwords))
	for i, v := range dwords {
		out[i] = math.Float32frombits(v)
	}

	return out, nil
}

// ReadString reads size bytes starting at address and returns them as a
// string cut at the first NUL. size must be in 1..131070.
func (c *Client) ReadString(ctx context.Context, address string, size int) (string, error) {
	if size <= 0 {
		return "", mc.ErrEmptyRequest
	}
	if size > 2*math.MaxUint16 {
		return "", fmt.Errorf("%w: %d bytes", mc.ErrTooManyPoints, size)
	}

	data, err := c.ReadContext(ctx, address, uint16((size+1)/2)) //nolint:gosec // bounded above
	if err != nil {
		return "", err
	}

	s := string(data[:size])
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}

	return s, nil
}

// WriteUint16s writes words starting at address.
func (c *Client) WriteUint16s(ctx context.Context, address string, values []uint16) error {
	data := make([]byte, 0, len(values)*2)
	for _, v := range values {
		data = binary.LittleEndian.AppendUint16(data, v)
	}

	return c.WriteContext(ctx, address, data)
}

// WriteUint32s writes double words starting at address.
func (c *Client) WriteUint32s(ctx context.Context, address string, values []uint32) error {
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		data = binary.LittleEndian.AppendUint32(data, v)
	}

	return c.WriteContext(ctx, address, data)
}

// WriteFloat32s writes IEEE 754 single precision values starting at address.
func (c *Client) WriteFloat32s(ctx context.Context, address string, values []float32) error {
	dwords := make([]uint32, len(values))
	for i, v := range values {
		dwords[i] = math.Float32bits(v)
	}

	return c.WriteUint32s(ctx, address, dwords)
}

// WriteString writes s starting at address, padded with a NUL to whole words.
func (c *Client) WriteString(ctx context.Context, address string, s string) error {
	return c.WriteContext(ctx, address, []byte(s))
}
