package mc

import (
	"bytes"
	"encoding/binary"

	"github.com/arloliu/go-melsec/internal/util"
)

// Subheaders of 3E frames.
const (
	requestSubheader  uint16 = 0x5000
	responseSubheader uint16 = 0xD000
)

// Header sizes. The length field counts every byte that follows it,
// starting with the watchdog timer in requests and the end code in responses.
const (
	BinaryHeaderSize = 11 // subheader .. watchdog timer
	ASCIIHeaderSize  = 22

	binaryLengthOffset = 7
	asciiLengthOffset  = 14
	binaryPrefixSize   = 9 // bytes up to and including the length field
	asciiPrefixSize    = 18

	binaryEndCodeSize = 2
	asciiEndCodeSize  = 4
)

// DefaultWatchdog is the CPU monitoring timer in units of 250 ms.
const DefaultWatchdog uint16 = 0x000A

// Route holds the header fields that route a request to its target station.
type Route struct {
	// Network is the network number, 0 for the local network.
	Network uint8
	// Station is the PLC (station) number, 0xFF for the connected station.
	Station uint8
	// IO is the request destination module I/O number, 0x03FF for the CPU.
	IO uint16
	// Unit is the request destination module station number.
	Unit uint8
	// Watchdog is the CPU monitoring timer in units of 250 ms; 0 waits forever.
	Watchdog uint16
}

// DefaultRoute addresses the CPU of the directly connected station.
func DefaultRoute() Route {
	return Route{
		Network:  0,
		Station:  0xFF,
		IO:       0x03FF,
		Unit:     0,
		Watchdog: DefaultWatchdog,
	}
}

// Pack wraps command bytes in a 3E request frame. The length field is always
// computed from the command, never taken from the caller.
func Pack(f Format, command []byte, route Route) []byte {
	bodyLen := len(command) + 2 // watchdog timer + command
	if f.IsASCII() {
		bodyLen = len(command) + 4

		buf := make([]byte, 0, ASCIIHeaderSize+len(command))
		buf = util.AppendHex(buf, uint64(requestSubheader), 4)
		buf = util.AppendHex(buf, uint64(route.Network), 2)
		buf = util.AppendHex(buf, uint64(route.Station), 2)
		buf = util.AppendHex(buf, uint64(route.IO), 4)
		buf = util.AppendHex(buf, uint64(route.Unit), 2)
		buf = util.AppendHex(buf, uint64(bodyLen), 4) //nolint:gosec // frames are far below 64 KiB
		buf = util.AppendHex(buf, uint64(route.Watchdog), 4)

		return append(buf, command...)
	}

	buf := make([]byte, 0, BinaryHeaderSize+len(command))
	buf = binary.BigEndian.AppendUint16(buf, requestSubheader)
	buf = append(buf, route.Network, route.Station)
	buf = binary.LittleEndian.AppendUint16(buf, route.IO)
	buf = append(buf, route.Unit)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(bodyLen)) //nolint:gosec // frames are far below 64 KiB
	buf = binary.LittleEndian.AppendUint16(buf, route.Watchdog)

	return append(buf, command...)
}

// Response is a parsed response frame. Code zero means success; Payload holds
// the response data on success and the error information otherwise.
type Response struct {
	Route   Route
	Code    uint16
	Payload []byte
}

// OK reports whether the device accepted the request.
func (r Response) OK() bool { return r.Code == 0 }

// ParseResponse validates the framing of a response and splits it into end
// code and payload. Only framing problems are reported as errors; a non-zero
// end code is returned in Response.Code.
func ParseResponse(f Format, frame []byte) (Response, error) {
	if f.IsASCII() {
		return parseASCIIResponse(frame)
	}

	return parseBinaryResponse(frame)
}

func parseBinaryResponse(frame []byte) (Response, error) {
	if len(frame) < binaryPrefixSize+binaryEndCodeSize {
		return Response{}, frameErrorf(ErrFrameTooShort, "got %d bytes, want at least %d",
			len(frame), binaryPrefixSize+binaryEndCodeSize)
	}

	if sub := binary.BigEndian.Uint16(frame[0:2]); sub != responseSubheader {
		return Response{}, frameErrorf(ErrFrameSubheader, "0x%04X", sub)
	}

	declared := int(binary.LittleEndian.Uint16(frame[binaryLengthOffset:binaryPrefixSize]))
	if actual := len(frame) - binaryPrefixSize; declared != actual {
		return Response{}, frameErrorf(ErrFrameLength, "declared %d, received %d", declared, actual)
	}

	return Response{
		Route: Route{
			Network: frame[2],
			Station: frame[3],
			IO:      binary.LittleEndian.Uint16(frame[4:6]),
			Unit:    frame[6],
		},
		Code:    binary.LittleEndian.Uint16(frame[binaryPrefixSize : binaryPrefixSize+binaryEndCodeSize]),
		Payload: frame[binaryPrefixSize+binaryEndCodeSize:],
	}, nil
}

func parseASCIIResponse(frame []byte) (Response, error) {
	if len(frame) < asciiPrefixSize+asciiEndCodeSize {
		return Response{}, frameErrorf(ErrFrameTooShort, "got %d bytes, want at least %d",
			len(frame), asciiPrefixSize+asciiEndCodeSize)
	}

	if !bytes.EqualFold(frame[0:4], []byte("D000")) {
		return Response{}, frameErrorf(ErrFrameSubheader, "%q", frame[0:4])
	}

	fields, err := hexFields(frame, 4, 2, 2, 4, 2, 4, 4)
	if err != nil {
		return Response{}, err
	}

	declared := int(fields[4])
	if actual := len(frame) - asciiPrefixSize; declared != actual {
		return Response{}, frameErrorf(ErrFrameLength, "declared %d, received %d", declared, actual)
	}

	return Response{
		Route: Route{
			Network: uint8(fields[0]),
			Station: uint8(fields[1]),
			IO:      uint16(fields[2]),
			Unit:    uint8(fields[3]),
		},
		Code:    uint16(fields[5]),
		Payload: frame[asciiPrefixSize+asciiEndCodeSize:],
	}, nil
}

// hexFields parses consecutive hex text fields of the given widths starting at offset.
func hexFields(frame []byte, offset int, widths ...int) ([]uint64, error) {
	out := make([]uint64, len(widths))
	for i, width := range widths {
		if offset+width > len(frame) {
			return nil, frameErrorf(ErrFrameTooShort, "field %d at offset %d", i, offset)
		}
		v, err := util.ParseHex(frame[offset : offset+width])
		if err != nil {
			return nil, frameErrorf(ErrFrameEncoding, "field %q at offset %d", frame[offset:offset+width], offset)
		}
		out[i] = v
		offset += width
	}

	return out, nil
}

// Check validates a response frame and maps a non-zero end code to a
// *ProtocolError described by the built-in catalog.
func Check(f Format, frame []byte) error {
	resp, err := ParseResponse(f, frame)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return NewProtocolError(resp.Code, nil)
	}

	return nil
}

// PackResponse builds a 3E response frame. payload must already be encoded
// for the format.
func PackResponse(f Format, route Route, code uint16, payload []byte) []byte {
	if f.IsASCII() {
		buf := make([]byte, 0, asciiPrefixSize+asciiEndCodeSize+len(payload))
		buf = util.AppendHex(buf, uint64(responseSubheader), 4)
		buf = util.AppendHex(buf, uint64(route.Network), 2)
		buf = util.AppendHex(buf, uint64(route.Station), 2)
		buf = util.AppendHex(buf, uint64(route.IO), 4)
		buf = util.AppendHex(buf, uint64(route.Unit), 2)
		buf = util.AppendHex(buf, uint64(asciiEndCodeSize+len(payload)), 4) //nolint:gosec // bounded
		buf = util.AppendHex(buf, uint64(code), 4)

		return append(buf, payload...)
	}

	buf := make([]byte, 0, binaryPrefixSize+binaryEndCodeSize+len(payload))
	buf = binary.BigEndian.AppendUint16(buf, responseSubheader)
	buf = append(buf, route.Network, route.Station)
	buf = binary.LittleEndian.AppendUint16(buf, route.IO)
	buf = append(buf, route.Unit)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(binaryEndCodeSize+len(payload))) //nolint:gosec // bounded
	buf = binary.LittleEndian.AppendUint16(buf, code)

	return append(buf, payload...)
}

// FrameLength inspects the fixed prefix of a request or response frame and
// returns the total frame length it announces. It lets a stream transport cut
// exactly one frame out of the byte stream.
func FrameLength(f Format, prefix []byte) (int, error) {
	if f.IsASCII() {
		if len(prefix) < asciiPrefixSize {
			return 0, frameErrorf(ErrFrameTooShort, "need %d prefix bytes, got %d", asciiPrefixSize, len(prefix))
		}
		v, err := util.ParseHex(prefix[asciiLengthOffset:asciiPrefixSize])
		if err != nil {
			return 0, frameErrorf(ErrFrameEncoding, "length field %q", prefix[asciiLengthOffset:asciiPrefixSize])
		}

		return asciiPrefixSize + int(v), nil
	}

	if len(prefix) < binaryPrefixSize {
		return 0, frameErrorf(ErrFrameTooShort, "need %d prefix bytes, got %d", binaryPrefixSize, len(prefix))
	}

	return binaryPrefixSize + int(binary.LittleEndian.Uint16(prefix[binaryLengthOffset:binaryPrefixSize])), nil
}

// PrefixSize returns how many bytes FrameLength needs.
func PrefixSize(f Format) int {
	if f.IsASCII() {
		return asciiPrefixSize
	}

	return binaryPrefixSize
}
