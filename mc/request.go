package mc

import (
	"bytes"
	"encoding/binary"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/internal/util"
)

// Request is a parsed 3E request frame, as seen by a device.
type Request struct {
	Route      Route
	Command    uint16
	Subcommand uint16
	format     Format
	body       []byte
}

// ParseRequest validates a request frame and decodes its header, command and
// subcommand. The remaining request data is read through Request.Reader.
func ParseRequest(f Format, frame []byte) (*Request, error) {
	if f.IsASCII() {
		if len(frame) < ASCIIHeaderSize+8 {
			return nil, frameErrorf(ErrFrameTooShort, "got %d bytes", len(frame))
		}
		if !bytes.EqualFold(frame[0:4], []byte("5000")) {
			return nil, frameErrorf(ErrFrameSubheader, "%q", frame[0:4])
		}
		fields, err := hexFields(frame, 4, 2, 2, 4, 2, 4, 4, 4, 4)
		if err != nil {
			return nil, err
		}
		if declared, actual := int(fields[4]), len(frame)-asciiPrefixSize; declared != actual {
			return nil, frameErrorf(ErrFrameLength, "declared %d, received %d", declared, actual)
		}

		return &Request{
			Route: Route{
				Network:  uint8(fields[0]),
				Station:  uint8(fields[1]),
				IO:       uint16(fields[2]),
				Unit:     uint8(fields[3]),
				Watchdog: uint16(fields[5]),
			},
			Command:    uint16(fields[6]),
			Subcommand: uint16(fields[7]),
			format:     f,
			body:       frame[ASCIIHeaderSize+8:],
		}, nil
	}

	if len(frame) < BinaryHeaderSize+4 {
		return nil, frameErrorf(ErrFrameTooShort, "got %d bytes", len(frame))
	}
	if sub := binary.BigEndian.Uint16(frame[0:2]); sub != requestSubheader {
		return nil, frameErrorf(ErrFrameSubheader, "0x%04X", sub)
	}
	declared := int(binary.LittleEndian.Uint16(frame[binaryLengthOffset:binaryPrefixSize]))
	if actual := len(frame) - binaryPrefixSize; declared != actual {
		return nil, frameErrorf(ErrFrameLength, "declared %d, received %d", declared, actual)
	}

	return &Request{
		Route: Route{
			Network:  frame[2],
			Station:  frame[3],
			IO:       binary.LittleEndian.Uint16(frame[4:6]),
			Unit:     frame[6],
			Watchdog: binary.LittleEndian.Uint16(frame[9:11]),
		},
		Command:    binary.LittleEndian.Uint16(frame[11:13]),
		Subcommand: binary.LittleEndian.Uint16(frame[13:15]),
		format:     f,
		body:       frame[BinaryHeaderSize+4:],
	}, nil
}

// Format returns the wire format the request was parsed with.
func (r *Request) Format() Format { return r.format }

// Reader returns a reader over the request data following the subcommand.
func (r *Request) Reader() *Reader {
	return &Reader{f: r.format, buf: r.body}
}

// Reader decodes request fields in the encoding of one format. The first
// decoding error sticks; check Err after reading.
type Reader struct {
	f   Format
	buf []byte
	err error
}

// Err returns the first decoding error.
func (r *Reader) Err() error { return r.err }

// Remaining returns how many raw bytes are left.
func (r *Reader) Remaining() int { return len(r.buf) }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = frameErrorf(ErrFramePayload, "need %d bytes, %d left", n, len(r.buf))
		return nil
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]

	return out
}

func (r *Reader) number(size int) uint64 {
	if r.f.IsASCII() {
		b := r.take(size * 2)
		if b == nil {
			return 0
		}
		v, err := util.ParseHex(b)
		if err != nil {
			r.err = frameErrorf(ErrFrameEncoding, "field %q", b)
			return 0
		}

		return v
	}

	b := r.take(size)
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v
}

// U8 reads a one byte field.
func (r *Reader) U8() uint8 { return uint8(r.number(1)) }

// U16 reads a two byte field.
func (r *Reader) U16() uint16 { return uint16(r.number(2)) }

// U32 reads a four byte field.
func (r *Reader) U32() uint32 { return uint32(r.number(4)) }

// Device reads a device specification.
func (r *Reader) Device() (*device.Type, uint32) {
	var (
		typ    *device.Type
		ok     bool
		offset uint32
	)

	switch r.f {
	case Binary:
		b := r.take(4)
		if b == nil {
			return nil, 0
		}
		offset = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		typ, ok = device.LookupCode(uint16(b[3]))
	case RBinary:
		offset = r.U32()
		typ, ok = device.LookupCode(r.U16())
	case ASCII, RASCII:
		nameLen, digits := 2, 6
		if r.f == RASCII {
			nameLen, digits = 4, 8
		}
		name := r.take(nameLen)
		num := r.take(digits)
		if r.err != nil {
			return nil, 0
		}
		typ, ok = device.LookupASCII(string(name))
		if ok {
			v, err := parseRadix(num, typ.Radix)
			if err != nil {
				r.err = frameErrorf(ErrFrameEncoding, "device number %q", num)
				return nil, 0
			}
			offset = v
		}
	}

	if r.err != nil {
		return nil, 0
	}
	if !ok {
		r.err = frameErrorf(ErrFrameEncoding, "unknown device code")
		return nil, 0
	}

	return typ, offset
}

// Words reads n words of write data and returns them in device byte order.
func (r *Reader) Words(n int) []byte {
	size := n * 2
	if r.f.IsASCII() {
		size = n * 4
	}
	b := r.take(size)
	if b == nil {
		return nil
	}
	data, err := ExtractWords(r.f, b)
	if err != nil {
		r.err = err
		return nil
	}

	return util.CloneSlice(data, 0)
}

// Bits reads n points of bit-unit write data.
func (r *Reader) Bits(n int) []bool {
	b := r.take(n)
	if b == nil {
		return nil
	}
	bits, err := decodeBitWrite(r.f, b)
	if err != nil {
		r.err = err
		return nil
	}

	return bits
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) []byte {
	return util.CloneSlice(r.take(n), 0)
}

func parseRadix(b []byte, radix int) (uint32, error) {
	var v uint64
	for _, c := range b {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		default:
			return 0, ErrFrameEncoding
		}
		if d >= radix {
			return 0, ErrFrameEncoding
		}
		v = v*uint64(radix) + uint64(d)
	}

	return uint32(v), nil //nolint:gosec // at most 8 digits
}
