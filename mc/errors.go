package mc

import (
	"errors"
	"fmt"
)

// Local request errors, raised before anything is sent.
var (
	// ErrUnknownFormat indicates a format name or value outside the four wire variants.
	ErrUnknownFormat = errors.New("mc: unknown wire format")

	// ErrOffsetRange indicates a device number that does not fit the frame's device field.
	ErrOffsetRange = errors.New("mc: device number does not fit the frame")

	// ErrWordDeviceOnly indicates a bit device passed to an operation that accepts word devices only.
	ErrWordDeviceOnly = errors.New("mc: operation accepts word devices only")

	// ErrUnsupportedFormat indicates a command that has no encoding in the selected format.
	ErrUnsupportedFormat = errors.New("mc: command not supported by wire format")

	// ErrEmptyRequest indicates a request without any element to transfer.
	ErrEmptyRequest = errors.New("mc: empty request")

	// ErrTooManyPoints indicates a point count that does not fit its frame field.
	ErrTooManyPoints = errors.New("mc: point count does not fit the frame")

	// ErrLengthMismatch indicates parallel argument slices of different lengths.
	ErrLengthMismatch = errors.New("mc: argument length mismatch")
)

// Framing errors, wrapped in *FrameError.
var (
	// ErrFrameTooShort indicates a frame shorter than its fixed header.
	ErrFrameTooShort = errors.New("mc: frame too short")

	// ErrFrameLength indicates a declared length that disagrees with the bytes received.
	ErrFrameLength = errors.New("mc: frame length mismatch")

	// ErrFrameSubheader indicates an unexpected subheader.
	ErrFrameSubheader = errors.New("mc: unexpected subheader")

	// ErrFrameEncoding indicates text that is not valid hex, or a payload of impossible size.
	ErrFrameEncoding = errors.New("mc: malformed frame encoding")

	// ErrFramePayload indicates a payload that carries fewer elements than requested.
	ErrFramePayload = errors.New("mc: payload shorter than requested")
)

// FrameError reports a response that could not be taken apart. It points at
// the transport or the peer's framing, not at a condition reported by the
// device.
type FrameError struct {
	Err    error
	Detail string
}

func (e *FrameError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}

	return e.Err.Error() + ": " + e.Detail
}

func (e *FrameError) Unwrap() error { return e.Err }

func frameErrorf(err error, format string, args ...any) *FrameError {
	return &FrameError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Kind classifies device-reported end codes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDeviceNotFound
	KindDeviceOutOfRange
	KindPointsOutOfRange
	KindUnsupportedCommand
	KindDataLength
	KindDataCode
	KindASCIIConversion
	KindExtensionNotAllowed
	KindCPURejected
	KindRemotePassword
	KindRouting
)

var kindNames = [...]string{
	KindUnknown:             "unknown",
	KindDeviceNotFound:      "device not found",
	KindDeviceOutOfRange:    "device out of range",
	KindPointsOutOfRange:    "points out of range",
	KindUnsupportedCommand:  "unsupported command",
	KindDataLength:          "data length",
	KindDataCode:            "data code",
	KindASCIIConversion:     "ascii conversion",
	KindExtensionNotAllowed: "extension not allowed",
	KindCPURejected:         "cpu rejected",
	KindRemotePassword:      "remote password",
	KindRouting:             "routing",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ProtocolError is a failure reported by the device through a non-zero end
// code. Codes missing from the catalog keep KindUnknown; they are still valid
// failure reports.
type ProtocolError struct {
	Code        uint16
	Kind        Kind
	Description string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mc: end code 0x%04X (%s): %s", e.Code, e.Kind, e.Description)
}

// Is matches another *ProtocolError with the same code, so callers can write
// errors.Is(err, &mc.ProtocolError{Code: 0x4031}).
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Code == e.Code
}

// Catalog returns the human-readable text for an end code.
type Catalog func(code uint16) (string, bool)

// NewProtocolError maps an end code to a ProtocolError. catalog may be nil,
// in which case the built-in catalog is used.
func NewProtocolError(code uint16, catalog Catalog) *ProtocolError {
	if catalog == nil {
		catalog = DefaultCatalog
	}

	desc, ok := catalog(code)
	if !ok {
		desc = unknownDescription
	}

	return &ProtocolError{
		Code:        code,
		Kind:        KindOf(code),
		Description: desc,
	}
}
