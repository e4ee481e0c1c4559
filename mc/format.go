package mc

import (
	"fmt"
	"strings"
)

// Format selects one of the four wire encodings of an MC 3E frame.
type Format uint8

const (
	// Binary is the Q/L series binary encoding.
	Binary Format = iota
	// ASCII is the Q/L series ASCII encoding.
	ASCII
	// RBinary is the iQ-R series binary encoding.
	RBinary
	// RASCII is the iQ-R series ASCII encoding.
	RASCII
)

// Per-frame element ceilings. They come from the vendor reference manuals and
// are not derived from the frame layout.
const (
	MaxBinaryWords uint16 = 950
	MaxASCIIWords  uint16 = 460
	MaxBinaryBits  uint16 = 7168
	MaxASCIIBits   uint16 = 3584
)

// IsASCII reports whether numeric fields are rendered as hex text.
func (f Format) IsASCII() bool { return f == ASCII || f == RASCII }

// IsRSeries reports whether the iQ-R device specification layout is used.
func (f Format) IsRSeries() bool { return f == RBinary || f == RASCII }

// Valid reports whether f is one of the four known formats.
func (f Format) Valid() bool { return f <= RASCII }

// MaxWords returns how many words a single batch read or write may carry.
func (f Format) MaxWords() uint16 {
	if f.IsASCII() {
		return MaxASCIIWords
	}

	return MaxBinaryWords
}

// MaxBits returns how many bit points a single bit-unit read or write may carry.
func (f Format) MaxBits() uint16 {
	if f.IsASCII() {
		return MaxASCIIBits
	}

	return MaxBinaryBits
}

func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	case RBinary:
		return "r-binary"
	case RASCII:
		return "r-ascii"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat converts a format name as printed by Format.String.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary", "bin", "":
		return Binary, nil
	case "ascii":
		return ASCII, nil
	case "r-binary", "rbinary", "r-bin":
		return RBinary, nil
	case "r-ascii", "rascii":
		return RASCII, nil
	default:
		return Binary, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}
