// Package util holds small codecs shared by the MC frame builders, parsers and
// the device simulator.
package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

const upperHexDigits = "0123456789ABCDEF"

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// AppendHex appends v as exactly width upper-case hex digits, most significant
// digit first. Higher digits that do not fit are truncated.
func AppendHex(dst []byte, v uint64, width int) []byte {
	return AppendRadix(dst, v, 16, width)
}

// AppendRadix appends v rendered in radix (2..16) as exactly width digits,
// zero padded on the left.
func AppendRadix(dst []byte, v uint64, radix uint64, width int) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, width)...)
	for i := len(dst) - 1; i >= start; i-- {
		dst[i] = upperHexDigits[v%radix]
		v /= radix
	}

	return dst
}

// ParseHex parses upper or lower case hex digits into an unsigned value.
func ParseHex(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("empty hex field")
	}

	return strconv.ParseUint(string(b), 16, 64)
}

// EncodeHex appends the upper-case hex text of every byte of src.
func EncodeHex(dst []byte, src []byte) []byte {
	for _, b := range src {
		dst = append(dst, upperHexDigits[b>>4], upperHexDigits[b&0x0F])
	}

	return dst
}

// DecodeHex decodes hex text, halving its length.
func DecodeHex(src []byte) ([]byte, error) {
	out := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(out, src); err != nil {
		return nil, err
	}

	return out, nil
}
