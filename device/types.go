package device

import "strings"

// Unit tells whether a device stores one bit or one 16-bit word per device number.
type Unit uint8

const (
	// WordUnit devices store a 16-bit word per device number.
	WordUnit Unit = iota
	// BitUnit devices store a single bit per device number.
	BitUnit
)

func (u Unit) String() string {
	if u == BitUnit {
		return "bit"
	}

	return "word"
}

// Type describes one device class. Values of Type live in a static table and
// are never modified.
type Type struct {
	// Name is the mnemonic used in address strings, e.g. "D" or "SM".
	Name string
	// Code is the binary device code. Q/L frames use its low byte, R frames both bytes.
	Code uint16
	// ASCII is the 2-character mnemonic used by Q/L ASCII frames, e.g. "D*".
	ASCII string
	// Radix is the base device numbers are written in: 8, 10 or 16.
	Radix int
	// Unit is the addressing unit of the device.
	Unit Unit
}

// IsBit reports whether the device is bit addressed.
func (t *Type) IsBit() bool { return t.Unit == BitUnit }

// RASCII returns the 4-character mnemonic used by R-series ASCII frames, e.g. "D***".
func (t *Type) RASCII() string {
	return t.Name + strings.Repeat("*", 4-len(t.Name))
}

func (t *Type) String() string { return t.Name }

// table is ordered so that two-letter mnemonics are found before any
// single-letter mnemonic sharing their first letter.
var table = [...]Type{
	{Name: "SM", Code: 0x91, ASCII: "SM", Radix: 10, Unit: BitUnit},
	{Name: "SD", Code: 0xA9, ASCII: "SD", Radix: 10, Unit: WordUnit},
	{Name: "SB", Code: 0xA1, ASCII: "SB", Radix: 16, Unit: BitUnit},
	{Name: "SW", Code: 0xB5, ASCII: "SW", Radix: 16, Unit: WordUnit},
	{Name: "SS", Code: 0xC7, ASCII: "SS", Radix: 10, Unit: BitUnit},
	{Name: "SC", Code: 0xC6, ASCII: "SC", Radix: 10, Unit: BitUnit},
	{Name: "SN", Code: 0xC8, ASCII: "SN", Radix: 10, Unit: WordUnit},
	{Name: "TS", Code: 0xC1, ASCII: "TS", Radix: 10, Unit: BitUnit},
	{Name: "TC", Code: 0xC0, ASCII: "TC", Radix: 10, Unit: BitUnit},
	{Name: "TN", Code: 0xC2, ASCII: "TN", Radix: 10, Unit: WordUnit},
	{Name: "CS", Code: 0xC4, ASCII: "CS", Radix: 10, Unit: BitUnit},
	{Name: "CC", Code: 0xC3, ASCII: "CC", Radix: 10, Unit: BitUnit},
	{Name: "CN", Code: 0xC5, ASCII: "CN", Radix: 10, Unit: WordUnit},
	{Name: "DX", Code: 0xA2, ASCII: "DX", Radix: 16, Unit: BitUnit},
	{Name: "DY", Code: 0xA3, ASCII: "DY", Radix: 16, Unit: BitUnit},
	{Name: "ZR", Code: 0xB0, ASCII: "ZR", Radix: 16, Unit: WordUnit},
	{Name: "LZ", Code: 0x62, ASCII: "LZ", Radix: 10, Unit: WordUnit},
	{Name: "X", Code: 0x9C, ASCII: "X*", Radix: 8, Unit: BitUnit},
	{Name: "Y", Code: 0x9D, ASCII: "Y*", Radix: 8, Unit: BitUnit},
	{Name: "M", Code: 0x90, ASCII: "M*", Radix: 10, Unit: BitUnit},
	{Name: "L", Code: 0x92, ASCII: "L*", Radix: 10, Unit: BitUnit},
	{Name: "F", Code: 0x93, ASCII: "F*", Radix: 10, Unit: BitUnit},
	{Name: "V", Code: 0x94, ASCII: "V*", Radix: 10, Unit: BitUnit},
	{Name: "B", Code: 0xA0, ASCII: "B*", Radix: 16, Unit: BitUnit},
	{Name: "S", Code: 0x98, ASCII: "S*", Radix: 10, Unit: BitUnit},
	{Name: "D", Code: 0xA8, ASCII: "D*", Radix: 10, Unit: WordUnit},
	{Name: "W", Code: 0xB4, ASCII: "W*", Radix: 16, Unit: WordUnit},
	{Name: "R", Code: 0xAF, ASCII: "R*", Radix: 10, Unit: WordUnit},
	{Name: "Z", Code: 0xCC, ASCII: "Z*", Radix: 10, Unit: WordUnit},
}

// Types returns every known device type in lookup order.
func Types() []*Type {
	out := make([]*Type, len(table))
	for i := range table {
		out[i] = &table[i]
	}

	return out
}

// Lookup returns the device type with exactly the given mnemonic.
func Lookup(name string) (*Type, bool) {
	name = strings.ToUpper(name)
	for i := range table {
		if table[i].Name == name {
			return &table[i], true
		}
	}

	return nil, false
}

// LookupCode returns the device type with the given binary device code.
func LookupCode(code uint16) (*Type, bool) {
	for i := range table {
		if table[i].Code == code {
			return &table[i], true
		}
	}

	return nil, false
}

// LookupASCII returns the device type for a Q/L (2 chars) or R (4 chars) ASCII mnemonic.
func LookupASCII(mnemonic string) (*Type, bool) {
	name := strings.TrimRight(strings.ToUpper(mnemonic), "*")

	return Lookup(name)
}

// matchPrefix finds the longest mnemonic that prefixes s. s must be upper case.
func matchPrefix(s string) (*Type, bool) {
	for i := range table {
		if strings.HasPrefix(s, table[i].Name) {
			return &table[i], true
		}
	}

	return nil, false
}
