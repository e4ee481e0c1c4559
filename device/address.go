package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxBitIndex is the highest bit of a 16-bit word.
const MaxBitIndex = 15

// NoBit marks an Address without a bit index.
const NoBit = -1

var (
	// ErrUnknownDevice indicates the address does not start with a known device mnemonic.
	ErrUnknownDevice = errors.New("device: unknown device")

	// ErrMalformedOffset indicates the device number does not parse in the device radix.
	ErrMalformedOffset = errors.New("device: malformed offset")

	// ErrBitIndexOutOfRange indicates a bit index outside [0, 15].
	ErrBitIndexOutOfRange = errors.New("device: bit index out of range [0, 15]")
)

// AddressError reports a problem with a caller supplied address string. It is
// raised before any I/O takes place.
type AddressError struct {
	Address string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Address)
}

func (e *AddressError) Unwrap() error { return e.Err }

// Address is a parsed device address. It is a value type: methods that move
// the address return a new Address.
type Address struct {
	Device *Type
	// Offset is the device number in device-local units.
	Offset uint32
	// Length is the element count requested by the caller.
	Length uint16
	// BitIndex is the bit inside the word at Offset, or NoBit.
	BitIndex int
}

// Parse parses an address string such as "D100", "X1F" or "D100.5" and binds
// it to the requested element count.
//
// A bit index on a bit device selects the device number Offset+BitIndex, so
// "M100.5" is the same address as "M105".
func Parse(address string, length uint16) (Address, error) {
	s := strings.ToUpper(strings.TrimSpace(address))

	bitIndex := NoBit
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		bit, err := strconv.Atoi(s[dot+1:])
		if err != nil {
			return Address{}, &AddressError{Address: address, Err: ErrMalformedOffset}
		}
		if bit < 0 || bit > MaxBitIndex {
			return Address{}, &AddressError{Address: address, Err: ErrBitIndexOutOfRange}
		}
		bitIndex = bit
		s = s[:dot]
	}

	typ, ok := matchPrefix(s)
	if !ok {
		return Address{}, &AddressError{Address: address, Err: ErrUnknownDevice}
	}

	digits := s[len(typ.Name):]
	if digits == "" {
		return Address{}, &AddressError{Address: address, Err: ErrMalformedOffset}
	}
	offset, err := strconv.ParseUint(digits, typ.Radix, 32)
	if err != nil {
		return Address{}, &AddressError{Address: address, Err: ErrMalformedOffset}
	}

	addr := Address{
		Device:   typ,
		Offset:   uint32(offset),
		Length:   length,
		BitIndex: bitIndex,
	}
	if typ.IsBit() && bitIndex != NoBit {
		addr.Offset += uint32(bitIndex)
		addr.BitIndex = NoBit
	}

	return addr, nil
}

// MustParse is like Parse but panics on error. It is meant for constants in tests and examples.
func MustParse(address string, length uint16) Address {
	addr, err := Parse(address, length)
	if err != nil {
		panic(err)
	}

	return addr
}

// Format renders a device number in the device's radix, the inverse of Parse.
func Format(t *Type, offset uint32) string {
	return t.Name + strings.ToUpper(strconv.FormatUint(uint64(offset), t.Radix))
}

// HasBit reports whether the address selects a bit inside a word device.
func (a Address) HasBit() bool { return a.BitIndex != NoBit }

// WordLength returns the number of words covering the requested elements.
// For a bit-indexed address that is ceil((BitIndex + Length) / 16).
func (a Address) WordLength() uint16 {
	if !a.HasBit() {
		return a.Length
	}

	return uint16((a.BitIndex + int(a.Length) + 15) / 16) //nolint:gosec // bounded by Length
}

// WithLength returns a copy of the address bound to a different element count.
func (a Address) WithLength(n uint16) Address {
	a.Length = n
	return a
}

// Advance returns a copy of the address moved n device numbers forward.
func (a Address) Advance(n uint32) Address {
	a.Offset += n
	return a
}

func (a Address) String() string {
	if a.Device == nil {
		return ""
	}
	s := Format(a.Device, a.Offset)
	if a.HasBit() {
		s += "." + strconv.Itoa(a.BitIndex)
	}

	return s
}
