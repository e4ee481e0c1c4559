package mcnet

import (
	"errors"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/mc"
)

// ErrorClass tells which party has to act on an error.
type ErrorClass uint8

const (
	// ClassNone is the class of a nil error.
	ClassNone ErrorClass = iota
	// ClassAddress: the request was malformed; fix the address or arguments.
	ClassAddress
	// ClassDevice: the device rejected the request; check the PLC configuration.
	ClassDevice
	// ClassLink: the link or framing failed; check cabling, timeouts and the peer.
	ClassLink
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassAddress:
		return "address"
	case ClassDevice:
		return "device"
	default:
		return "link"
	}
}

// Classify sorts an error returned by a Client operation.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var addrErr *device.AddressError
	if errors.As(err, &addrErr) {
		return ClassAddress
	}

	var protoErr *mc.ProtocolError
	if errors.As(err, &protoErr) {
		return ClassDevice
	}

	var frameErr *mc.FrameError
	if errors.As(err, &frameErr) {
		return ClassLink
	}

	for _, local := range []error{
		mc.ErrEmptyRequest, mc.ErrLengthMismatch, mc.ErrOffsetRange, mc.ErrWordDeviceOnly,
		mc.ErrUnsupportedFormat, mc.ErrTooManyPoints, mc.ErrUnknownFormat,
		ErrBitDeviceOnly, ErrUnexpectedBitIndex,
	} {
		if errors.Is(err, local) {
			return ClassAddress
		}
	}

	return ClassLink
}
