package mcsim

import (
	"encoding/binary"
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/internal/util"
	"github.com/arloliu/go-melsec/mc"
)

// End codes returned by the simulated CPU.
const (
	codeStateRejected uint16 = 0x4013
	codeNoDevice      uint16 = 0x4030
	codeOutOfRange    uint16 = 0x4031
	codeASCII         uint16 = 0xC050
	codeBitPoints     uint16 = 0xC051
	codeWordPoints    uint16 = 0xC052
	codeRandomPoints  uint16 = 0xC054
	codeUnsupported   uint16 = 0xC059
	codeNoAccess      uint16 = 0xC05B
	codeInvalid       uint16 = 0xC05C
	codeDataLength    uint16 = 0xC061
)

const (
	runNormal uint16 = 0x0001
	runForce  uint16 = 0x0003

	extendMarker = 0xF9
	tagTypeWord  = 0x02
)

// Exchange handles one request frame and returns the response frame. Device
// faults are answered with an end code; Exchange itself never fails.
func (d *Device) Exchange(frame []byte) ([]byte, error) {
	d.requests.Add(1)
	f := d.cfg.format

	req, err := mc.ParseRequest(f, frame)
	if err != nil {
		d.logger.Warn("mcsim: malformed request", "error", err, "len", len(frame))

		code := codeInvalid
		if f.IsASCII() && errors.Is(err, mc.ErrFrameEncoding) {
			code = codeASCII
		}

		return mc.PackResponse(f, mc.DefaultRoute(), code, nil), nil
	}

	payload, code := d.handle(req)
	if code != 0 {
		d.logger.Debug("mcsim: request rejected",
			"command", req.Command, "subcommand", req.Subcommand, "code", code)
		payload = d.errorInfo(req)
	}

	return mc.PackResponse(f, req.Route, code, payload), nil
}

// errorInfo is the data of an error response: the route and the command of
// the rejected request.
func (d *Device) errorInfo(req *mc.Request) []byte {
	if d.cfg.format.IsASCII() {
		buf := make([]byte, 0, 18)
		buf = util.AppendHex(buf, uint64(req.Route.Network), 2)
		buf = util.AppendHex(buf, uint64(req.Route.Station), 2)
		buf = util.AppendHex(buf, uint64(req.Route.IO), 4)
		buf = util.AppendHex(buf, uint64(req.Route.Unit), 2)
		buf = util.AppendHex(buf, uint64(req.Command), 4)

		return util.AppendHex(buf, uint64(req.Subcommand), 4)
	}

	buf := make([]byte, 0, 9)
	buf = append(buf, req.Route.Network, req.Route.Station)
	buf = binary.LittleEndian.AppendUint16(buf, req.Route.IO)
	buf = append(buf, req.Route.Unit)
	buf = binary.LittleEndian.AppendUint16(buf, req.Command)

	return binary.LittleEndian.AppendUint16(buf, req.Subcommand)
}

func (d *Device) handle(req *mc.Request) ([]byte, uint16) {
	if d.cfg.fault != nil {
		if code := d.cfg.fault(req); code != 0 {
			return nil, code
		}
	}

	r := req.Reader()

	switch req.Command {
	case mc.CmdBatchRead:
		switch req.Subcommand {
		case mc.SubExtendWord:
			return d.readExtended(r)
		case mc.SubExtendBit:
			return nil, codeUnsupported
		}
		bit, ok := d.unit(req.Subcommand)
		if !ok {
			return nil, codeUnsupported
		}
		if bit {
			return d.readBits(r)
		}

		return d.readWordsCmd(r)

	case mc.CmdBatchWrite:
		bit, ok := d.unit(req.Subcommand)
		if !ok {
			return nil, codeUnsupported
		}
		if bit {
			return nil, d.writeBits(r)
		}

		return nil, d.writeWordsCmd(r)

	case mc.CmdRandomRead:
		return d.readRandom(r)
	case mc.CmdBlockRead:
		return d.readBlocks(r)
	case mc.CmdMemoryRead:
		return d.readBufferMemory(r)
	case mc.CmdSmartModuleRead:
		return d.readModuleMemory(r)
	case mc.CmdTagRead:
		return d.readTags(r)
	case mc.CmdRemoteRun:
		return nil, d.remoteRun(r)
	case mc.CmdRemoteStop:
		return nil, d.remoteStop(r)
	case mc.CmdRemoteReset:
		return nil, d.remoteReset(r)
	case mc.CmdReadCPUModel:
		return d.cpuModel(r)
	}

	return nil, codeUnsupported
}

// unit maps a batch access subcommand to bit or word units. Q-series formats
// use 0/1, R-series formats 2/3.
func (d *Device) unit(sub uint16) (bit bool, ok bool) {
	base := mc.SubWord
	if d.cfg.format.IsRSeries() {
		base = mc.SubRWord
	}

	switch sub {
	case base:
		return false, true
	case base + 1:
		return true, true
	}

	return false, false
}

// done reports the end code for a request whose fields could not be decoded
// or that carries trailing data.
func (d *Device) done(r *mc.Reader) uint16 {
	if err := r.Err(); err != nil {
		if d.cfg.format.IsASCII() && errors.Is(err, mc.ErrFrameEncoding) {
			return codeASCII
		}

		return codeDataLength
	}
	if r.Remaining() != 0 {
		return codeDataLength
	}

	return 0
}

func (d *Device) readWordsCmd(r *mc.Reader) ([]byte, uint16) {
	typ, offset := r.Device()
	n := r.U16()
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if n == 0 || n > d.cfg.format.MaxWords() {
		return nil, codeWordPoints
	}
	if !d.inRange(typ, offset, uint32(n)*stepOf(typ)) {
		return nil, codeOutOfRange
	}

	return mc.EncodeWords(d.cfg.format, d.readWords(spaceDevice, 0, typ, offset, int(n))), 0
}

func (d *Device) readBits(r *mc.Reader) ([]byte, uint16) {
	typ, offset := r.Device()
	n := r.U16()
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if !typ.IsBit() {
		return nil, codeNoAccess
	}
	if n == 0 || n > d.cfg.format.MaxBits() {
		return nil, codeBitPoints
	}
	if !d.inRange(typ, offset, uint32(n)) {
		return nil, codeOutOfRange
	}

	points := make([]bool, n)
	for i := range points {
		points[i] = d.point(typ, offset+uint32(i)) //nolint:gosec // n <= MaxBits
	}

	return mc.EncodeBits(d.cfg.format, points), 0
}

func (d *Device) writeWordsCmd(r *mc.Reader) uint16 {
	typ, offset := r.Device()
	n := r.U16()
	data := r.Words(int(n))
	if code := d.done(r); code != 0 {
		return code
	}
	if n == 0 || n > d.cfg.format.MaxWords() {
		return codeWordPoints
	}
	if !d.inRange(typ, offset, uint32(n)*stepOf(typ)) {
		return codeOutOfRange
	}

	d.writeWords(typ, offset, data)

	return 0
}

func (d *Device) writeBits(r *mc.Reader) uint16 {
	typ, offset := r.Device()
	n := r.U16()
	values := r.Bits(int(n))
	if code := d.done(r); code != 0 {
		return code
	}
	if !typ.IsBit() {
		return codeNoAccess
	}
	if n == 0 || n > d.cfg.format.MaxBits() {
		return codeBitPoints
	}
	if !d.inRange(typ, offset, uint32(n)) {
		return codeOutOfRange
	}

	for i, on := range values {
		d.setPoint(typ, offset+uint32(i), on) //nolint:gosec // n <= MaxBits
	}

	return 0
}

func (d *Device) readRandom(r *mc.Reader) ([]byte, uint16) {
	words := int(r.U8())
	dwords := int(r.U8())
	if r.Err() == nil && dwords != 0 {
		return nil, codeUnsupported
	}

	type point struct {
		typ    *device.Type
		offset uint32
	}
	points := make([]point, 0, words)
	for i := 0; i < words && r.Err() == nil; i++ {
		typ, offset := r.Device()
		points = append(points, point{typ, offset})
	}
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if words == 0 || words > int(d.cfg.format.MaxWords()) {
		return nil, codeRandomPoints
	}

	out := make([]byte, 0, words*2)
	for _, p := range points {
		if !d.inRange(p.typ, p.offset, stepOf(p.typ)) {
			return nil, codeOutOfRange
		}
		out = append(out, d.readWords(spaceDevice, 0, p.typ, p.offset, 1)...)
	}

	return mc.EncodeWords(d.cfg.format, out), 0
}

func (d *Device) readBlocks(r *mc.Reader) ([]byte, uint16) {
	wordBlocks := int(r.U8())
	bitBlocks := int(r.U8())

	type block struct {
		typ    *device.Type
		offset uint32
		n      uint16
	}
	blocks := make([]block, 0, wordBlocks+bitBlocks)
	for i := 0; i < wordBlocks+bitBlocks && r.Err() == nil; i++ {
		typ, offset := r.Device()
		n := r.U16()
		blocks = append(blocks, block{typ, offset, n})
	}
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if len(blocks) == 0 {
		return nil, codeRandomPoints
	}

	total := 0
	for i, b := range blocks {
		if b.typ.IsBit() != (i >= wordBlocks) {
			return nil, codeInvalid
		}
		if b.n == 0 {
			return nil, codeRandomPoints
		}
		total += int(b.n)
	}
	if total > int(d.cfg.format.MaxWords()) {
		return nil, codeRandomPoints
	}

	out := make([]byte, 0, total*2)
	for _, b := range blocks {
		if !d.inRange(b.typ, b.offset, uint32(b.n)*stepOf(b.typ)) {
			return nil, codeOutOfRange
		}
		out = append(out, d.readWords(spaceDevice, 0, b.typ, b.offset, int(b.n))...)
	}

	return mc.EncodeWords(d.cfg.format, out), 0
}

func (d *Device) readExtended(r *mc.Reader) ([]byte, uint16) {
	_ = r.U16() // extension specification modification
	typ, offset := r.Device()
	_ = r.U16() // direct memory specification
	extend := r.U16()
	marker := r.U8()
	n := r.U16()
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if marker != extendMarker {
		return nil, codeInvalid
	}
	if n == 0 || n > d.cfg.format.MaxWords() {
		return nil, codeWordPoints
	}
	if !d.inRange(typ, offset, uint32(n)*stepOf(typ)) {
		return nil, codeOutOfRange
	}

	return mc.EncodeWords(d.cfg.format, d.readWords(spaceExtended, extend, typ, offset, int(n))), 0
}

func (d *Device) readBufferMemory(r *mc.Reader) ([]byte, uint16) {
	address := r.U32()
	n := r.U16()
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if n == 0 || n > d.cfg.format.MaxWords() {
		return nil, codeWordPoints
	}

	out := make([]byte, 0, int(n)*2)
	for i := uint32(0); i < uint32(n); i++ {
		v, _ := d.words.Load(cell{space: spaceBuffer, offset: address + i})
		out = append(out, byte(v), byte(v>>8))
	}

	return mc.EncodeWords(d.cfg.format, out), 0
}

func (d *Device) readModuleMemory(r *mc.Reader) ([]byte, uint16) {
	address := r.U32()
	n := r.U16()
	module := r.U16()
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if n == 0 || n%2 != 0 || n/2 > d.cfg.format.MaxWords() {
		return nil, codeDataLength
	}

	out := make([]byte, n)
	for i := range out {
		out[i], _ = d.bytes.Load(cell{space: spaceSmart, module: module, offset: address + uint32(i)}) //nolint:gosec // n is small
	}

	return mc.EncodeWords(d.cfg.format, out), 0
}

func (d *Device) readTags(r *mc.Reader) ([]byte, uint16) {
	if d.cfg.format.IsASCII() {
		return nil, codeUnsupported
	}

	count := int(r.U16())
	_ = r.U16() // abbreviation points

	type request struct {
		name string
		size int
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	reqs := make([]request, 0, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		chars := int(r.U16())
		raw := r.Bytes(chars * 2)
		_ = r.U16() // read data unit
		size := int(r.U16())
		if r.Err() != nil {
			break
		}
		name, err := dec.Bytes(raw)
		if err != nil {
			return nil, codeInvalid
		}
		reqs = append(reqs, request{name: string(name), size: size})
	}
	if code := d.done(r); code != 0 {
		return nil, code
	}
	if count == 0 {
		return nil, codeRandomPoints
	}

	out := binary.LittleEndian.AppendUint16(nil, uint16(count)) //nolint:gosec // decoded from a 16-bit field
	for _, req := range reqs {
		value, ok := d.tags.Load(req.name)
		if !ok {
			return nil, codeNoDevice
		}
		data := make([]byte, req.size)
		copy(data, value)

		out = append(out, tagTypeWord, 0)
		out = binary.LittleEndian.AppendUint16(out, uint16(req.size)) //nolint:gosec // decoded from a 16-bit field
		out = append(out, data...)
	}

	return out, 0
}

func (d *Device) remoteRun(r *mc.Reader) uint16 {
	mode := r.U16()
	_ = r.U8() // clear mode
	_ = r.U8()
	if code := d.done(r); code != 0 {
		return code
	}
	if mode != runNormal && mode != runForce {
		return codeInvalid
	}

	d.stopped.Store(false)
	d.logger.Info("mcsim: remote RUN", "force", mode == runForce)

	return 0
}

func (d *Device) remoteStop(r *mc.Reader) uint16 {
	mode := r.U16()
	if code := d.done(r); code != 0 {
		return code
	}
	if mode != 0x0001 {
		return codeInvalid
	}

	d.stopped.Store(true)
	d.logger.Info("mcsim: remote STOP")

	return 0
}

func (d *Device) remoteReset(r *mc.Reader) uint16 {
	_ = r.U16()
	if code := d.done(r); code != 0 {
		return code
	}
	if d.Running() {
		return codeStateRejected
	}

	d.logger.Info("mcsim: remote RESET")

	return 0
}

func (d *Device) cpuModel(r *mc.Reader) ([]byte, uint16) {
	if code := d.done(r); code != 0 {
		return nil, code
	}

	name := d.cfg.model + strings.Repeat(" ", 16-len(d.cfg.model))
	if d.cfg.format.IsASCII() {
		return util.AppendHex([]byte(name), uint64(d.cfg.modelCode), 4), 0
	}

	return binary.LittleEndian.AppendUint16([]byte(name), d.cfg.modelCode), 0
}
