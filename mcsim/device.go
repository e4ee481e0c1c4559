package mcsim

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
)

// space separates the memories of a device.
type space uint8

const (
	spaceDevice   space = iota // CPU devices
	spaceExtended              // devices of modules reached by extended specification
	spaceBuffer                // CPU buffer memory
	spaceSmart                 // intelligent function module buffer memory, in bytes
)

type cell struct {
	space  space
	module uint16
	code   uint16
	offset uint32
}

// Device is a simulated PLC CPU. It is safe for concurrent use; a single
// request is not atomic with respect to concurrent writers.
type Device struct {
	cfg    *deviceConfig
	logger logger.Logger

	words *xsync.MapOf[cell, uint16]
	bits  *xsync.MapOf[cell, bool]
	bytes *xsync.MapOf[cell, byte]
	tags  *xsync.MapOf[string, []byte]

	stopped  atomic.Bool
	requests atomic.Uint64
}

// New creates a Device with zeroed memory in RUN state.
func New(opts ...Option) (*Device, error) {
	cfg := newDeviceConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return &Device{
		cfg:    cfg,
		logger: cfg.logger.With("component", "mcsim", "format", cfg.format.String()),
		words:  xsync.NewMapOf[cell, uint16](),
		bits:   xsync.NewMapOf[cell, bool](),
		bytes:  xsync.NewMapOf[cell, byte](),
		tags:   xsync.NewMapOf[string, []byte](),
	}, nil
}

// Format returns the wire format the device speaks.
func (d *Device) Format() mc.Format { return d.cfg.format }

// Running reports whether the CPU is in RUN state.
func (d *Device) Running() bool { return !d.stopped.Load() }

// Requests returns the number of request frames handled so far.
func (d *Device) Requests() uint64 { return d.requests.Load() }

func (d *Device) size(typ *device.Type) uint32 {
	if size, ok := d.cfg.sizes[typ.Code]; ok {
		return size
	}

	return DefaultDeviceSize
}

// inRange reports whether points device numbers starting at offset exist.
func (d *Device) inRange(typ *device.Type, offset uint32, points uint32) bool {
	size := d.size(typ)
	return offset < size && points <= size-offset
}

// word returns the word at offset. For bit devices it is the 16 points
// starting at offset, least significant bit first.
func (d *Device) word(sp space, module uint16, typ *device.Type, offset uint32) uint16 {
	if !typ.IsBit() {
		v, _ := d.words.Load(cell{space: sp, module: module, code: typ.Code, offset: offset})
		return v
	}

	var v uint16
	for i := uint32(0); i < 16; i++ {
		if on, _ := d.bits.Load(cell{space: sp, module: module, code: typ.Code, offset: offset + i}); on {
			v |= 1 << i
		}
	}

	return v
}

func (d *Device) setWord(sp space, module uint16, typ *device.Type, offset uint32, v uint16) {
	if !typ.IsBit() {
		d.words.Store(cell{space: sp, module: module, code: typ.Code, offset: offset}, v)
		return
	}

	for i := uint32(0); i < 16; i++ {
		d.bits.Store(cell{space: sp, module: module, code: typ.Code, offset: offset + i}, v&(1<<i) != 0)
	}
}

func (d *Device) point(typ *device.Type, offset uint32) bool {
	on, _ := d.bits.Load(cell{code: typ.Code, offset: offset})
	return on
}

func (d *Device) setPoint(typ *device.Type, offset uint32, on bool) {
	d.bits.Store(cell{code: typ.Code, offset: offset}, on)
}

// readWords returns n words in device byte order.
func (d *Device) readWords(sp space, module uint16, typ *device.Type, offset uint32, n int) []byte {
	step := stepOf(typ)
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		v := d.word(sp, module, typ, offset+uint32(i)*step) //nolint:gosec // n is a protocol point count
		out = append(out, byte(v), byte(v>>8))
	}

	return out
}

func (d *Device) writeWords(typ *device.Type, offset uint32, data []byte) {
	step := stepOf(typ)
	for i := 0; i+1 < len(data); i += 2 {
		d.setWord(spaceDevice, 0, typ, offset+uint32(i/2)*step, uint16(data[i])|uint16(data[i+1])<<8) //nolint:gosec // bounded by data
	}
}

// SetWords stores values starting at address, a word address such as "D100"
// or a bit device address such as "M0" taking 16 points per word.
func (d *Device) SetWords(address string, values ...uint16) error {
	addr, err := d.parse(address)
	if err != nil {
		return err
	}

	for i, v := range values {
		d.setWord(spaceDevice, 0, addr.Device, addr.Offset+uint32(i)*stepOf(addr.Device), v) //nolint:gosec // test data
	}

	return nil
}

// Words returns n words starting at address.
func (d *Device) Words(address string, n int) ([]uint16, error) {
	addr, err := d.parse(address)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, n)
	for i := range out {
		out[i] = d.word(spaceDevice, 0, addr.Device, addr.Offset+uint32(i)*stepOf(addr.Device)) //nolint:gosec // test data
	}

	return out, nil
}

// SetBits stores points of a bit device starting at address.
func (d *Device) SetBits(address string, values ...bool) error {
	addr, err := d.parseBit(address)
	if err != nil {
		return err
	}

	for i, on := range values {
		d.setPoint(addr.Device, addr.Offset+uint32(i), on) //nolint:gosec // test data
	}

	return nil
}

// Bits returns n points of a bit device starting at address.
func (d *Device) Bits(address string, n int) ([]bool, error) {
	addr, err := d.parseBit(address)
	if err != nil {
		return nil, err
	}

	out := make([]bool, n)
	for i := range out {
		out[i] = d.point(addr.Device, addr.Offset+uint32(i)) //nolint:gosec // test data
	}

	return out, nil
}

// SetExtended stores words in the device memory of the module selected by
// extend, as read by extended device specification.
func (d *Device) SetExtended(extend uint16, address string, values ...uint16) error {
	addr, err := d.parse(address)
	if err != nil {
		return err
	}

	for i, v := range values {
		d.setWord(spaceExtended, extend, addr.Device, addr.Offset+uint32(i)*stepOf(addr.Device), v) //nolint:gosec // test data
	}

	return nil
}

// SetBufferMemory stores words of CPU buffer memory starting at address.
func (d *Device) SetBufferMemory(address uint32, values ...uint16) {
	for i, v := range values {
		d.words.Store(cell{space: spaceBuffer, offset: address + uint32(i)}, v) //nolint:gosec // test data
	}
}

// SetModuleMemory stores bytes of intelligent function module buffer memory.
func (d *Device) SetModuleMemory(module uint16, address uint32, data []byte) {
	for i, b := range data {
		d.bytes.Store(cell{space: spaceSmart, module: module, offset: address + uint32(i)}, b) //nolint:gosec // test data
	}
}

// SetTag stores the value of a label in device byte order.
func (d *Device) SetTag(name string, data []byte) {
	d.tags.Store(name, append([]byte(nil), data...))
}

func (d *Device) parse(address string) (device.Address, error) {
	addr, err := device.Parse(address, 1)
	if err != nil {
		return device.Address{}, err
	}
	if addr.HasBit() {
		return device.Address{}, fmt.Errorf("mcsim: bit index not allowed in %q", address)
	}

	return addr, nil
}

func (d *Device) parseBit(address string) (device.Address, error) {
	addr, err := device.Parse(address, 1)
	if err != nil {
		return device.Address{}, err
	}
	if !addr.Device.IsBit() {
		return device.Address{}, fmt.Errorf("mcsim: %q is not a bit device", address)
	}

	return addr, nil
}

func stepOf(typ *device.Type) uint32 {
	if typ.IsBit() {
		return 16
	}

	return 1
}
