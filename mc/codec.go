package mc

import (
	"encoding/binary"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/internal/util"
)

// fieldWriter appends numeric fields in the encoding of one format. Every
// binary field of n bytes becomes 2n hex characters in ASCII formats.
type fieldWriter struct {
	f   Format
	buf []byte
}

func newFieldWriter(f Format, capacity int) *fieldWriter {
	if f.IsASCII() {
		capacity *= 2
	}

	return &fieldWriter{f: f, buf: make([]byte, 0, capacity)}
}

func (w *fieldWriter) u8(v uint8) {
	if w.f.IsASCII() {
		w.buf = util.AppendHex(w.buf, uint64(v), 2)
		return
	}
	w.buf = append(w.buf, v)
}

func (w *fieldWriter) u16(v uint16) {
	if w.f.IsASCII() {
		w.buf = util.AppendHex(w.buf, uint64(v), 4)
		return
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *fieldWriter) u32(v uint32) {
	if w.f.IsASCII() {
		w.buf = util.AppendHex(w.buf, uint64(v), 8)
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *fieldWriter) head(command uint16, sub uint16) {
	w.u16(command)
	w.u16(sub)
}

// device appends a device specification: number and code in binary
// formats, mnemonic and number digits in the device radix in ASCII formats.
func (w *fieldWriter) device(typ *device.Type, offset uint32) error {
	switch w.f {
	case Binary:
		if offset > 0xFFFFFF {
			return ErrOffsetRange
		}
		w.buf = append(w.buf, byte(offset), byte(offset>>8), byte(offset>>16), byte(typ.Code))
	case RBinary:
		w.buf = binary.LittleEndian.AppendUint32(w.buf, offset)
		w.buf = binary.LittleEndian.AppendUint16(w.buf, typ.Code)
	case ASCII:
		if !fitsDigits(offset, typ.Radix, 6) {
			return ErrOffsetRange
		}
		w.buf = append(w.buf, typ.ASCII...)
		w.buf = util.AppendRadix(w.buf, uint64(offset), uint64(typ.Radix), 6)
	case RASCII:
		if !fitsDigits(offset, typ.Radix, 8) {
			return ErrOffsetRange
		}
		w.buf = append(w.buf, typ.RASCII()...)
		w.buf = util.AppendRadix(w.buf, uint64(offset), uint64(typ.Radix), 8)
	default:
		return ErrUnknownFormat
	}

	return nil
}

func (w *fieldWriter) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func fitsDigits(v uint32, radix int, digits int) bool {
	limit := uint64(1)
	for d := 0; d < digits; d++ {
		limit *= uint64(radix)
	}

	return uint64(v) < limit
}

// EncodeWords renders word data held in device byte order (little-endian
// words) for the wire. Binary formats pass it through. ASCII formats write
// each word as four hex digits, most significant first. An odd trailing byte
// is padded to a whole word.
func EncodeWords(f Format, data []byte) []byte {
	if len(data)%2 != 0 {
		data = append(util.CloneSlice(data, 0), 0)
	}

	if !f.IsASCII() {
		return util.CloneSlice(data, 0)
	}

	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); i += 2 {
		out = util.EncodeHex(out, []byte{data[i+1], data[i]})
	}

	return out
}

// ExtractWords decodes a word payload back to device byte order. Binary
// payloads are returned unchanged; ASCII payloads are un-hexed, halving
// their length.
func ExtractWords(f Format, payload []byte) ([]byte, error) {
	if !f.IsASCII() {
		return payload, nil
	}

	if len(payload)%4 != 0 {
		return nil, frameErrorf(ErrFrameEncoding, "ascii word payload of %d characters", len(payload))
	}

	raw, err := util.DecodeHex(payload)
	if err != nil {
		return nil, &FrameError{Err: ErrFrameEncoding, Detail: err.Error()}
	}

	for i := 0; i < len(raw); i += 2 {
		raw[i], raw[i+1] = raw[i+1], raw[i]
	}

	return raw, nil
}

// EncodeBits renders bit-unit data for a response: two points per byte
// (high nibble first) in binary formats, one '0'/'1' character per point in
// ASCII formats.
func EncodeBits(f Format, bits []bool) []byte {
	if f.IsASCII() {
		return encodeBitChars(bits)
	}

	out := make([]byte, (len(bits)+1)/2)
	for i, b := range bits {
		if !b {
			continue
		}
		if i%2 == 0 {
			out[i/2] |= 0x10
		} else {
			out[i/2] |= 0x01
		}
	}

	return out
}

// ExtractBits expands a bit-unit response payload into n booleans.
func ExtractBits(f Format, payload []byte, n int) ([]bool, error) {
	if f.IsASCII() {
		if len(payload) < n {
			return nil, frameErrorf(ErrFramePayload, "got %d points, want %d", len(payload), n)
		}

		return decodeBitChars(payload[:n])
	}

	if len(payload)*2 < n {
		return nil, frameErrorf(ErrFramePayload, "got %d points, want %d", len(payload)*2, n)
	}

	out := make([]bool, n)
	for i := range out {
		b := payload[i/2]
		if i%2 == 0 {
			out[i] = b&0x10 != 0
		} else {
			out[i] = b&0x01 != 0
		}
	}

	return out, nil
}

// encodeBitWrite renders bit-unit write data: one byte per point in binary
// formats, one character per point in ASCII formats.
func encodeBitWrite(f Format, bits []bool) []byte {
	if f.IsASCII() {
		return encodeBitChars(bits)
	}

	out := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			out[i] = 0x01
		}
	}

	return out
}

// decodeBitWrite is the inverse of encodeBitWrite.
func decodeBitWrite(f Format, data []byte) ([]bool, error) {
	if f.IsASCII() {
		return decodeBitChars(data)
	}

	out := make([]bool, len(data))
	for i, b := range data {
		switch b {
		case 0x00:
		case 0x01:
			out[i] = true
		default:
			return nil, frameErrorf(ErrFrameEncoding, "bit value 0x%02X", b)
		}
	}

	return out, nil
}

func encodeBitChars(bits []bool) []byte {
	out := make([]byte, len(bits))
	for i, b := range bits {
		out[i] = '0'
		if b {
			out[i] = '1'
		}
	}

	return out
}

func decodeBitChars(data []byte) ([]bool, error) {
	out := make([]bool, len(data))
	for i, c := range data {
		switch c {
		case '0':
		case '1':
			out[i] = true
		default:
			return nil, frameErrorf(ErrFrameEncoding, "bit character %q", c)
		}
	}

	return out, nil
}

// UnpackBits expands words in device byte order into booleans, least
// significant bit of each byte first. This is how word reads of bit devices
// and bit-indexed word addresses are turned into points.
func UnpackBits(data []byte) []bool {
	out := make([]bool, len(data)*8)
	for i := range out {
		out[i] = data[i/8]&(1<<(i%8)) != 0
	}

	return out
}

// PackBits is the inverse of UnpackBits; the result is padded to whole words.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+15)/16*2)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (i % 8)
		}
	}

	return out
}
