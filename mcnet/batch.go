package mcnet

import (
	"context"
	"fmt"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/mc"
)

// Read reads length words starting at address and returns them in device
// byte order (two little-endian bytes per word). Bit devices return 16
// points per word.
func (c *Client) Read(address string, length uint16) ([]byte, error) {
	return c.ReadContext(context.Background(), address, length)
}

// ReadContext is Read with a context.
func (c *Client) ReadContext(ctx context.Context, address string, length uint16) ([]byte, error) {
	addr, err := device.Parse(address, length)
	if err != nil {
		return nil, err
	}
	if addr.HasBit() {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedBitIndex, address)
	}

	return c.readWords(ctx, addr, length, func(_ int, n uint16) int { return int(n) * 2 })
}

// ReadBits reads length points starting at address through word access.
//
// Bit devices are read 16 points per word. Word devices are unpacked least
// significant bit first; a bit-indexed address such as "D100.5" starts at
// that bit.
func (c *Client) ReadBits(address string, length uint16) ([]bool, error) {
	return c.ReadBitsContext(context.Background(), address, length)
}

// ReadBitsContext is ReadBits with a context.
func (c *Client) ReadBitsContext(ctx context.Context, address string, length uint16) ([]bool, error) {
	addr, err := device.Parse(address, length)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, mc.ErrEmptyRequest
	}

	return c.readBits(ctx, addr)
}

func (c *Client) readBits(ctx context.Context, addr device.Address) ([]bool, error) {
	bit := 0
	if addr.HasBit() {
		bit = addr.BitIndex
	}
	total := bit + int(addr.Length)
	words := uint16((total + 15) / 16) //nolint:gosec // at most 4097 words

	base := addr
	base.BitIndex = device.NoBit

	// only the bits actually requested must be present in the payload
	data, err := c.readWords(ctx, base, words, func(done int, n uint16) int {
		need := min(total-done*16, int(n)*16)
		return (need + 7) / 8
	})
	if err != nil {
		return nil, err
	}

	bits := mc.UnpackBits(data)

	return bits[bit:total], nil
}

// readWords reads words starting at addr in frames of at most MaxWords words.
// need reports how many payload bytes a segment must at least carry, given the
// words completed so far and the words in the segment.
func (c *Client) readWords(ctx context.Context, addr device.Address, words uint16, need func(done int, n uint16) int) ([]byte, error) {
	if words == 0 {
		return nil, mc.ErrEmptyRequest
	}

	limit := c.cfg.format.MaxWords()
	out := make([]byte, 0, int(words)*2)
	cursor := addr

	for done := uint16(0); done < words; {
		n := min(words-done, limit)

		cmd, err := mc.BuildReadWords(c.cfg.format, cursor, n)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, cursor)
		}

		payload, err := c.roundTrip(ctx, cmd)
		if err != nil {
			return nil, err
		}

		data, err := mc.ExtractWords(c.cfg.format, payload)
		if err != nil {
			return nil, err
		}

		if want := need(int(done), n); len(data) < want || len(data) > int(n)*2 {
			return nil, &mc.FrameError{
				Err:    mc.ErrFramePayload,
				Detail: fmt.Sprintf("%s: got %d bytes, want %d..%d", cursor, len(data), want, int(n)*2),
			}
		}

		c.logger.Debug("mcnet: read segment", "address", cursor.String(), "words", n)

		out = append(out, data...)
		done += n
		cursor = cursor.Advance(uint32(n) * step(cursor))
	}

	return out, nil
}

// ReadBitUnits reads length points of a bit device with bit-unit access, in
// frames of at most MaxBits points.
func (c *Client) ReadBitUnits(address string, length uint16) ([]bool, error) {
	return c.ReadBitUnitsContext(context.Background(), address, length)
}

// ReadBitUnitsContext is ReadBitUnits with a context.
func (c *Client) ReadBitUnitsContext(ctx context.Context, address string, length uint16) ([]bool, error) {
	addr, err := device.Parse(address, length)
	if err != nil {
		return nil, err
	}
	if !addr.Device.IsBit() {
		return nil, fmt.Errorf("%w: %s", ErrBitDeviceOnly, address)
	}
	if length == 0 {
		return nil, mc.ErrEmptyRequest
	}

	limit := c.cfg.format.MaxBits()
	out := make([]bool, 0, length)
	cursor := addr

	for done := uint16(0); done < length; {
		n := min(length-done, limit)

		cmd, err := mc.BuildReadBits(c.cfg.format, cursor, n)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, cursor)
		}

		payload, err := c.roundTrip(ctx, cmd)
		if err != nil {
			return nil, err
		}

		bits, err := mc.ExtractBits(c.cfg.format, payload, int(n))
		if err != nil {
			return nil, err
		}

		c.logger.Debug("mcnet: read bit segment", "address", cursor.String(), "points", n)

		out = append(out, bits...)
		done += n
		cursor = cursor.Advance(uint32(n))
	}

	return out, nil
}

// Write writes data, given in device byte order, starting at address. An odd
// trailing byte is padded with zero to a whole word.
func (c *Client) Write(address string, data []byte) error {
	return c.WriteContext(context.Background(), address, data)
}

// WriteContext is Write with a context.
func (c *Client) WriteContext(ctx context.Context, address string, data []byte) error {
	if len(data) == 0 {
		return mc.ErrEmptyRequest
	}

	addr, err := device.Parse(address, uint16((len(data)+1)/2)) //nolint:gosec // checked in writeWords
	if err != nil {
		return err
	}
	if addr.HasBit() {
		return fmt.Errorf("%w: %s", ErrUnexpectedBitIndex, address)
	}

	return c.writeWords(ctx, addr, data)
}

func (c *Client) writeWords(ctx context.Context, addr device.Address, data []byte) error {
	if len(data)%2 != 0 {
		padded := make([]byte, len(data)+1)
		copy(padded, data)
		data = padded
	}

	words := len(data) / 2
	if words > 0xFFFF {
		return fmt.Errorf("%w: %d words", mc.ErrTooManyPoints, words)
	}

	limit := int(c.cfg.format.MaxWords())
	cursor := addr

	for done := 0; done < words; {
		n := min(words-done, limit)

		cmd, err := mc.BuildWriteWords(c.cfg.format, cursor, data[done*2:(done+n)*2])
		if err != nil {
			return fmt.Errorf("%w: %s", err, cursor)
		}

		if _, err := c.roundTrip(ctx, cmd); err != nil {
			return err
		}

		c.logger.Debug("mcnet: write segment", "address", cursor.String(), "words", n)

		done += n
		cursor = cursor.Advance(uint32(n) * step(cursor)) //nolint:gosec // n <= MaxWords
	}

	return nil
}

// WriteBits writes points starting at address.
//
// Bit devices are written with bit-unit access in frames of at most MaxBits
// points. Word devices, including bit-indexed addresses such as "D100.5", are
// updated by reading the covering words, changing the addressed bits and
// writing the words back; the other bits of those words keep their values.
func (c *Client) WriteBits(address string, values []bool) error {
	return c.WriteBitsContext(context.Background(), address, values)
}

// WriteBitsContext is WriteBits with a context.
func (c *Client) WriteBitsContext(ctx context.Context, address string, values []bool) error {
	if len(values) == 0 {
		return mc.ErrEmptyRequest
	}
	if len(values) > 0xFFFF {
		return fmt.Errorf("%w: %d points", mc.ErrTooManyPoints, len(values))
	}

	addr, err := device.Parse(address, uint16(len(values))) //nolint:gosec // checked above
	if err != nil {
		return err
	}

	if !addr.Device.IsBit() {
		return c.updateWordBits(ctx, addr, values)
	}

	limit := int(c.cfg.format.MaxBits())
	cursor := addr

	for done := 0; done < len(values); {
		n := min(len(values)-done, limit)

		cmd, err := mc.BuildWriteBits(c.cfg.format, cursor, values[done:done+n])
		if err != nil {
			return fmt.Errorf("%w: %s", err, cursor)
		}

		if _, err := c.roundTrip(ctx, cmd); err != nil {
			return err
		}

		c.logger.Debug("mcnet: write bit segment", "address", cursor.String(), "points", n)

		done += n
		cursor = cursor.Advance(uint32(n)) //nolint:gosec // n <= MaxBits
	}

	return nil
}

// updateWordBits performs the read-modify-write of bits inside word devices.
func (c *Client) updateWordBits(ctx context.Context, addr device.Address, values []bool) error {
	bit := 0
	if addr.HasBit() {
		bit = addr.BitIndex
	}

	base := addr
	base.BitIndex = device.NoBit
	words := uint16((bit + len(values) + 15) / 16) //nolint:gosec // at most 4097 words

	data, err := c.readWords(ctx, base, words, func(_ int, n uint16) int { return int(n) * 2 })
	if err != nil {
		return err
	}

	bits := mc.UnpackBits(data)
	copy(bits[bit:], values)

	return c.writeWords(ctx, base, mc.PackBits(bits))
}
