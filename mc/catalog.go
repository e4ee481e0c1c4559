package mc

const unknownDescription = "unknown error"

type endCode struct {
	kind Kind
	desc string
}

var endCodes = map[uint16]endCode{
	0x4010: {KindCPURejected, "operation cannot be executed while the CPU is running"},
	0x4013: {KindCPURejected, "remote operation rejected in the current CPU state"},
	0x4030: {KindDeviceNotFound, "the specified device does not exist"},
	0x4031: {KindDeviceOutOfRange, "the specified device number is out of range"},
	0x4A00: {KindRouting, "the specified station cannot be reached"},
	0x4A01: {KindRouting, "the network number is not set in the routing parameters"},
	0xC050: {KindASCIIConversion, "received ASCII code cannot be converted to binary"},
	0xC051: {KindPointsOutOfRange, "bit device read/write points out of range"},
	0xC052: {KindPointsOutOfRange, "word device read/write points out of range"},
	0xC053: {KindPointsOutOfRange, "random bit access points out of range"},
	0xC054: {KindPointsOutOfRange, "random word access points out of range"},
	0xC056: {KindDeviceOutOfRange, "read/write request exceeds the maximum device number"},
	0xC058: {KindDataLength, "request data length does not match the character count"},
	0xC059: {KindUnsupportedCommand, "command or subcommand not supported by the CPU"},
	0xC05B: {KindCPURejected, "the CPU cannot access the specified device"},
	0xC05C: {KindUnsupportedCommand, "request content is invalid for the device"},
	0xC05F: {KindCPURejected, "request cannot be executed on the target CPU"},
	0xC060: {KindDataLength, "invalid bit device data in request"},
	0xC061: {KindDataLength, "request data length does not match the number of points"},
	0xC06F: {KindDataCode, "request data code differs from the configured data code (ASCII/binary)"},
	0xC070: {KindExtensionNotAllowed, "device memory extension cannot be specified for the target station"},
	0xC0B5: {KindCPURejected, "the CPU cannot handle the specified data"},
	0xC200: {KindRemotePassword, "remote password mismatch"},
	0xC201: {KindRemotePassword, "the port is locked by a remote password"},
	0xC204: {KindRemotePassword, "the port was unlocked by a different device"},
}

// DefaultCatalog is the built-in end code catalog.
func DefaultCatalog(code uint16) (string, bool) {
	if e, ok := endCodes[code]; ok {
		return e.desc, true
	}

	return "", false
}

// Describe returns the catalog text for code, or "unknown error".
func Describe(code uint16) string {
	if desc, ok := DefaultCatalog(code); ok {
		return desc
	}

	return unknownDescription
}

// KindOf classifies an end code. Codes outside the catalog are KindUnknown.
func KindOf(code uint16) Kind {
	if e, ok := endCodes[code]; ok {
		return e.kind
	}

	return KindUnknown
}
