// Package mc implements the wire codec of the MELSEC communication protocol
// (MC protocol / SLMP) using 3E frames.
//
// The same logical command can be put on the wire in four variants:
//
//   - Binary:  Q/L series, little-endian numeric fields.
//   - ASCII:   Q/L series, every numeric field rendered as upper-case hex text.
//   - RBinary: iQ-R series binary, 4-byte device numbers and 2-byte device codes.
//   - RASCII:  iQ-R series ASCII, 8-digit device numbers and 4-character device names.
//
// The package is split along the life of one request:
//
//   - Build* functions turn a device.Address into command bytes.
//   - Pack wraps command bytes into a request frame with routing header.
//   - ParseResponse and Check validate a response frame and map end codes to errors.
//   - ExtractWords and ExtractBits decode response payloads.
//
// ParseRequest and PackResponse implement the opposite direction and are used
// by device simulators.
//
// All functions are pure and keep no state between calls, so they are safe for
// concurrent use.
package mc
