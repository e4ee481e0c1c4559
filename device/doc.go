// Package device models the MELSEC device address space used by the MC protocol.
//
// A device is a named class of PLC memory (D = data register, M = internal
// relay, X = input, ...). Each class has a numeric code used by binary frames,
// a mnemonic used by ASCII frames, the radix its device numbers are written in,
// and whether it is addressed per bit or per word.
//
// Addresses are written as:
//
//	<Mnemonic><Offset>[.<BitIndex>]
//
// for example "D100", "X17" (octal, device number 15), "W1F" (hex) or
// "D100.5" (bit 5 of data register D100). Parse turns such a string into an
// immutable Address; the device table itself is read-only.
package device
