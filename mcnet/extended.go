package mcnet

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/mc"
)

// cpuModelNameSize is the width of the model name in a CPU model response.
const cpuModelNameSize = 16

// ReadExtend reads length words at address inside the module selected by
// extend, such as intelligent module buffer memory (U3E0\G10 style access).
func (c *Client) ReadExtend(extend uint16, address string, length uint16) ([]byte, error) {
	return c.ReadExtendContext(context.Background(), extend, address, length)
}

// ReadExtendContext is ReadExtend with a context.
func (c *Client) ReadExtendContext(ctx context.Context, extend uint16, address string, length uint16) ([]byte, error) {
	addr, err := device.Parse(address, length)
	if err != nil {
		return nil, err
	}
	if addr.HasBit() {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedBitIndex, address)
	}
	if length > c.cfg.format.MaxWords() {
		return nil, fmt.Errorf("%w: %d words in one extended read", mc.ErrTooManyPoints, length)
	}

	cmd, err := mc.BuildReadExtend(c.cfg.format, extend, addr, length, false)
	if err != nil {
		return nil, err
	}

	return c.readPayloadWords(ctx, cmd, int(length))
}

// ReadMemory reads length words of CPU buffer memory starting at address.
func (c *Client) ReadMemory(address uint32, length uint16) ([]byte, error) {
	return c.ReadMemoryContext(context.Background(), address, length)
}

// ReadMemoryContext is ReadMemory with a context.
func (c *Client) ReadMemoryContext(ctx context.Context, address uint32, length uint16) ([]byte, error) {
	if length > c.cfg.format.MaxWords() {
		return nil, fmt.Errorf("%w: %d words in one memory read", mc.ErrTooManyPoints, length)
	}

	cmd, err := mc.BuildReadMemory(c.cfg.format, address, length)
	if err != nil {
		return nil, err
	}

	return c.readPayloadWords(ctx, cmd, int(length))
}

// ReadSmartModule reads length bytes of buffer memory of the intelligent
// function module whose start I/O number divided by 16 is module. length
// must be even.
func (c *Client) ReadSmartModule(module uint16, address uint32, length uint16) ([]byte, error) {
	return c.ReadSmartModuleContext(context.Background(), module, address, length)
}

// ReadSmartModuleContext is ReadSmartModule with a context.
func (c *Client) ReadSmartModuleContext(ctx context.Context, module uint16, address uint32, length uint16) ([]byte, error) {
	if length%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d", mc.ErrLengthMismatch, length)
	}

	cmd, err := mc.BuildReadSmartModule(c.cfg.format, module, address, length)
	if err != nil {
		return nil, err
	}

	return c.readPayloadWords(ctx, cmd, int(length)/2)
}

// readPayloadWords runs a single-frame word read and checks the word count.
func (c *Client) readPayloadWords(ctx context.Context, cmd []byte, words int) ([]byte, error) {
	payload, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}

	data, err := mc.ExtractWords(c.cfg.format, payload)
	if err != nil {
		return nil, err
	}
	if len(data) < words*2 {
		return nil, &mc.FrameError{
			Err:    mc.ErrFramePayload,
			Detail: fmt.Sprintf("got %d bytes, want %d", len(data), words*2),
		}
	}

	return data[:words*2], nil
}

// ReadTags reads lengths[i] words of the label named tags[i] for every tag in
// one request and returns the data of each tag in request order. Only binary
// formats support label access.
func (c *Client) ReadTags(tags []string, lengths []uint16) ([][]byte, error) {
	return c.ReadTagsContext(context.Background(), tags, lengths)
}

// ReadTagsContext is ReadTags with a context.
func (c *Client) ReadTagsContext(ctx context.Context, tags []string, lengths []uint16) ([][]byte, error) {
	cmd, err := mc.BuildReadTags(c.cfg.format, tags, lengths)
	if err != nil {
		return nil, err
	}

	payload, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return splitTagData(payload, len(tags))
}

// splitTagData splits a label read response: a point count followed by, for
// each label, a data type byte, a spare byte, a byte length and the data.
func splitTagData(payload []byte, n int) ([][]byte, error) {
	if len(payload) < 2 {
		return nil, &mc.FrameError{Err: mc.ErrFramePayload, Detail: "missing tag count"}
	}
	if count := int(binary.LittleEndian.Uint16(payload)); count != n {
		return nil, &mc.FrameError{
			Err:    mc.ErrFramePayload,
			Detail: fmt.Sprintf("got %d tags, want %d", count, n),
		}
	}

	out := make([][]byte, 0, n)
	rest := payload[2:]
	for i := 0; i < n; i++ {
		if len(rest) < 4 {
			return nil, &mc.FrameError{Err: mc.ErrFramePayload, Detail: fmt.Sprintf("tag %d header truncated", i)}
		}
		size := int(binary.LittleEndian.Uint16(rest[2:]))
		rest = rest[4:]
		if len(rest) < size {
			return nil, &mc.FrameError{Err: mc.ErrFramePayload, Detail: fmt.Sprintf("tag %d data truncated", i)}
		}
		out = append(out, rest[:size:size])
		rest = rest[size:]
	}

	return out, nil
}

// RemoteRun switches the CPU to RUN. force runs it even when another device
// holds the CPU in STOP.
func (c *Client) RemoteRun(force bool) error {
	return c.RemoteRunContext(context.Background(), force)
}

// RemoteRunContext is RemoteRun with a context.
func (c *Client) RemoteRunContext(ctx context.Context, force bool) error {
	return c.command(ctx, "run", func(f mc.Format) ([]byte, error) { return mc.BuildRemoteRun(f, force) })
}

// RemoteStop switches the CPU to STOP.
func (c *Client) RemoteStop() error {
	return c.RemoteStopContext(context.Background())
}

// RemoteStopContext is RemoteStop with a context.
func (c *Client) RemoteStopContext(ctx context.Context) error {
	return c.command(ctx, "stop", mc.BuildRemoteStop)
}

// RemoteReset resets the CPU. The CPU must be in STOP, and a device that
// resets immediately may never answer.
func (c *Client) RemoteReset() error {
	return c.RemoteResetContext(context.Background())
}

// RemoteResetContext is RemoteReset with a context.
func (c *Client) RemoteResetContext(ctx context.Context) error {
	return c.command(ctx, "reset", mc.BuildRemoteReset)
}

func (c *Client) command(ctx context.Context, name string, build func(mc.Format) ([]byte, error)) error {
	cmd, err := build(c.cfg.format)
	if err != nil {
		return err
	}

	if _, err := c.roundTrip(ctx, cmd); err != nil {
		return err
	}
	c.logger.Info("mcnet: remote operation done", "operation", name)

	return nil
}

// ReadCPUModel returns the model name reported by the CPU, such as "Q03UDVCPU".
func (c *Client) ReadCPUModel() (string, error) {
	return c.ReadCPUModelContext(context.Background())
}

// ReadCPUModelContext is ReadCPUModel with a context.
func (c *Client) ReadCPUModelContext(ctx context.Context) (string, error) {
	cmd, err := mc.BuildReadCPUModel(c.cfg.format)
	if err != nil {
		return "", err
	}

	payload, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return "", err
	}
	if len(payload) < cpuModelNameSize {
		return "", &mc.FrameError{
			Err:    mc.ErrFramePayload,
			Detail: fmt.Sprintf("cpu model of %d bytes", len(payload)),
		}
	}

	return strings.TrimRight(string(payload[:cpuModelNameSize]), " \x00"), nil
}
