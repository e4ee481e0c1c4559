package mc

import (
	"fmt"

	"github.com/arloliu/go-melsec/device"
	"golang.org/x/text/encoding/unicode"
)

// Command codes of the MC protocol.
const (
	CmdBatchRead       uint16 = 0x0401
	CmdBatchWrite      uint16 = 0x1401
	CmdRandomRead      uint16 = 0x0403
	CmdBlockRead       uint16 = 0x0406
	CmdTagRead         uint16 = 0x041A
	CmdMemoryRead      uint16 = 0x0613
	CmdSmartModuleRead uint16 = 0x0601
	CmdRemoteRun       uint16 = 0x1001
	CmdRemoteStop      uint16 = 0x1002
	CmdRemoteReset     uint16 = 0x1006
	CmdReadCPUModel    uint16 = 0x0101
)

// Subcommands. The R-series variants of word and bit access add 2.
const (
	SubWord       uint16 = 0x0000
	SubBit        uint16 = 0x0001
	SubRWord      uint16 = 0x0002
	SubRBit       uint16 = 0x0003
	SubExtendWord uint16 = 0x0080
	SubExtendBit  uint16 = 0x0081
)

// extendMarker precedes the element count of an extended device specification.
const extendMarker = 0xF9

// Remote RUN modes.
const (
	runNormal uint16 = 0x0001
	runForce  uint16 = 0x0003
)

func subcommand(f Format, bit bool) uint16 {
	sub := SubWord
	if bit {
		sub = SubBit
	}
	if f.IsRSeries() {
		sub += 2
	}

	return sub
}

func checkFormat(f Format) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}

	return nil
}

// BuildReadWords builds a batch read of n words starting at addr. For bit
// devices each word carries 16 consecutive points.
func BuildReadWords(f Format, addr device.Address, n uint16) ([]byte, error) {
	return buildBatchRead(f, addr, n, false)
}

// BuildReadBits builds a bit-unit batch read of n points starting at addr.
func BuildReadBits(f Format, addr device.Address, n uint16) ([]byte, error) {
	return buildBatchRead(f, addr, n, true)
}

func buildBatchRead(f Format, addr device.Address, n uint16, bit bool) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyRequest
	}

	w := newFieldWriter(f, 12)
	w.head(CmdBatchRead, subcommand(f, bit))
	if err := w.device(addr.Device, addr.Offset); err != nil {
		return nil, err
	}
	w.u16(n)

	return w.buf, nil
}

// BuildWriteWords builds a batch write of data, given in device byte order.
// An odd trailing byte is padded with zero to a whole word.
func BuildWriteWords(f Format, addr device.Address, data []byte) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyRequest
	}

	words := (len(data) + 1) / 2
	payload := EncodeWords(f, data)

	w := newFieldWriter(f, 12+len(payload))
	w.head(CmdBatchWrite, subcommand(f, false))
	if err := w.device(addr.Device, addr.Offset); err != nil {
		return nil, err
	}
	w.u16(uint16(words)) //nolint:gosec // bounded by the segmentation caps
	w.raw(payload)

	return w.buf, nil
}

// BuildWriteBits builds a bit-unit batch write. Every point occupies one byte
// (binary) or one character (ASCII); points are not packed.
func BuildWriteBits(f Format, addr device.Address, bits []bool) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if len(bits) == 0 {
		return nil, ErrEmptyRequest
	}

	w := newFieldWriter(f, 12+len(bits))
	w.head(CmdBatchWrite, subcommand(f, true))
	if err := w.device(addr.Device, addr.Offset); err != nil {
		return nil, err
	}
	w.u16(uint16(len(bits))) //nolint:gosec // bounded by the segmentation caps
	w.raw(encodeBitWrite(f, bits))

	return w.buf, nil
}

// BuildReadRandom builds a random read of one word per address. Bit devices
// return the word of 16 points starting at the address. Device family limits
// on the number of addresses are left to the device to enforce.
func BuildReadRandom(f Format, addrs []device.Address) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, ErrEmptyRequest
	}
	if len(addrs) > 0xFF {
		return nil, fmt.Errorf("%w: %d addresses in one random read", ErrTooManyPoints, len(addrs))
	}

	w := newFieldWriter(f, 6+len(addrs)*6)
	w.head(CmdRandomRead, subcommand(f, false))
	w.u8(uint8(len(addrs))) // word access points
	w.u8(0)                 // double word access points
	for _, addr := range addrs {
		if err := w.device(addr.Device, addr.Offset); err != nil {
			return nil, fmt.Errorf("%w: %s", err, addr)
		}
	}

	return w.buf, nil
}

// BuildReadRandomBlocks builds a multiple-block read: lengths[i] words
// starting at addrs[i]. Only word devices are accepted.
func BuildReadRandomBlocks(f Format, addrs []device.Address, lengths []uint16) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, ErrEmptyRequest
	}
	if len(addrs) != len(lengths) {
		return nil, fmt.Errorf("%w: %d addresses, %d lengths", ErrLengthMismatch, len(addrs), len(lengths))
	}
	if len(addrs) > 0xFF {
		return nil, fmt.Errorf("%w: %d blocks in one block read", ErrTooManyPoints, len(addrs))
	}

	w := newFieldWriter(f, 6+len(addrs)*8)
	w.head(CmdBlockRead, subcommand(f, false))
	w.u8(uint8(len(addrs))) // word device blocks
	w.u8(0)                 // bit device blocks
	for i, addr := range addrs {
		if addr.Device.IsBit() {
			return nil, fmt.Errorf("%w: %s", ErrWordDeviceOnly, addr)
		}
		if lengths[i] == 0 {
			return nil, fmt.Errorf("%w: block %s", ErrEmptyRequest, addr)
		}
		if err := w.device(addr.Device, addr.Offset); err != nil {
			return nil, fmt.Errorf("%w: %s", err, addr)
		}
		w.u16(lengths[i])
	}

	return w.buf, nil
}

// BuildReadExtend builds a batch read with an extended device specification,
// addressing device memory of the module selected by extend (for example the
// buffer memory of an intelligent module, U3E0\G10 style access).
func BuildReadExtend(f Format, extend uint16, addr device.Address, n uint16, bit bool) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyRequest
	}

	sub := SubExtendWord
	if bit {
		sub = SubExtendBit
	}

	w := newFieldWriter(f, 20)
	w.head(CmdBatchRead, sub)
	w.u16(0) // extension specification modification
	if err := w.device(addr.Device, addr.Offset); err != nil {
		return nil, err
	}
	w.u16(0) // direct memory specification
	w.u16(extend)
	w.u8(extendMarker)
	w.u16(n)

	return w.buf, nil
}

// BuildReadMemory builds a read of n words of CPU buffer memory at address.
func BuildReadMemory(f Format, address uint32, n uint16) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyRequest
	}

	w := newFieldWriter(f, 10)
	w.head(CmdMemoryRead, 0)
	w.u32(address)
	w.u16(n)

	return w.buf, nil
}

// BuildReadSmartModule builds a read of n bytes of intelligent function
// module buffer memory. module is the start I/O number divided by 16.
func BuildReadSmartModule(f Format, module uint16, address uint32, n uint16) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyRequest
	}

	w := newFieldWriter(f, 12)
	w.head(CmdSmartModuleRead, 0)
	w.u32(address)
	w.u16(n)
	w.u16(module)

	return w.buf, nil
}

// BuildReadTags builds a label (tag) read. Each label name is sent as
// UTF-16LE and lengths[i] is the number of words to read for it. Only
// binary formats define this command.
func BuildReadTags(f Format, tags []string, lengths []uint16) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	if f.IsASCII() {
		return nil, fmt.Errorf("%w: tag read in %s", ErrUnsupportedFormat, f)
	}
	if len(tags) == 0 {
		return nil, ErrEmptyRequest
	}
	if len(tags) != len(lengths) {
		return nil, fmt.Errorf("%w: %d tags, %d lengths", ErrLengthMismatch, len(tags), len(lengths))
	}

	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	w := newFieldWriter(f, 8+len(tags)*32)
	w.head(CmdTagRead, 0)
	w.u16(uint16(len(tags))) //nolint:gosec // bounded by the check above
	w.u16(0)                 // abbreviation points
	for i, tag := range tags {
		name, err := enc.Bytes([]byte(tag))
		if err != nil {
			return nil, fmt.Errorf("mc: encode tag %q: %w", tag, err)
		}
		w.u16(uint16(len(name) / 2)) //nolint:gosec // tag names are short
		w.raw(name)
		w.u16(0x0001) // read data unit: words
		w.u16(lengths[i] * 2)
	}

	return w.buf, nil
}

// BuildRemoteRun builds a remote RUN request. force executes it even when
// another device holds the CPU in STOP.
func BuildRemoteRun(f Format, force bool) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}

	mode := runNormal
	if force {
		mode = runForce
	}

	w := newFieldWriter(f, 8)
	w.head(CmdRemoteRun, 0)
	w.u16(mode)
	w.u8(0) // clear mode: do not clear devices
	w.u8(0)

	return w.buf, nil
}

// BuildRemoteStop builds a remote STOP request.
func BuildRemoteStop(f Format) ([]byte, error) {
	return buildRemote(f, CmdRemoteStop)
}

// BuildRemoteReset builds a remote RESET request.
func BuildRemoteReset(f Format) ([]byte, error) {
	return buildRemote(f, CmdRemoteReset)
}

func buildRemote(f Format, command uint16) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}

	w := newFieldWriter(f, 6)
	w.head(command, 0)
	w.u16(0x0001)

	return w.buf, nil
}

// BuildReadCPUModel builds a CPU model name read.
func BuildReadCPUModel(f Format) ([]byte, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}

	w := newFieldWriter(f, 4)
	w.head(CmdReadCPUModel, 0)

	return w.buf, nil
}
