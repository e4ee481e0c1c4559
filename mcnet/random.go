package mcnet

import (
	"context"
	"fmt"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/mc"
)

// ReadRandom reads one word from each address in a single request. The
// result holds two bytes per address in request order, in device byte order.
func (c *Client) ReadRandom(addresses []string) ([]byte, error) {
	return c.ReadRandomContext(context.Background(), addresses)
}

// ReadRandomContext is ReadRandom with a context.
func (c *Client) ReadRandomContext(ctx context.Context, addresses []string) ([]byte, error) {
	addrs, err := parseAll(addresses, 1)
	if err != nil {
		return nil, err
	}

	cmd, err := mc.BuildReadRandom(c.cfg.format, addrs)
	if err != nil {
		return nil, err
	}

	payload, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return mc.ExtractWords(c.cfg.format, payload)
}

// ReadRandomBlocks reads lengths[i] words starting at addresses[i] for every
// block in a single request and returns the blocks concatenated in request
// order.
func (c *Client) ReadRandomBlocks(addresses []string, lengths []uint16) ([]byte, error) {
	return c.ReadRandomBlocksContext(context.Background(), addresses, lengths)
}

// ReadRandomBlocksContext is ReadRandomBlocks with a context.
func (c *Client) ReadRandomBlocksContext(ctx context.Context, addresses []string, lengths []uint16) ([]byte, error) {
	if len(addresses) != len(lengths) {
		return nil, fmt.Errorf("%w: %d addresses, %d lengths", mc.ErrLengthMismatch, len(addresses), len(lengths))
	}

	addrs := make([]device.Address, len(addresses))
	for i, s := range addresses {
		addr, err := device.Parse(s, lengths[i])
		if err != nil {
			return nil, err
		}
		if addr.HasBit() {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedBitIndex, s)
		}
		addrs[i] = addr
	}

	cmd, err := mc.BuildReadRandomBlocks(c.cfg.format, addrs, lengths)
	if err != nil {
		return nil, err
	}

	payload, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return mc.ExtractWords(c.cfg.format, payload)
}

// parseAll parses word addresses; bit-indexed addresses are rejected.
func parseAll(addresses []string, length uint16) ([]device.Address, error) {
	addrs := make([]device.Address, len(addresses))
	for i, s := range addresses {
		addr, err := device.Parse(s, length)
		if err != nil {
			return nil, err
		}
		if addr.HasBit() {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedBitIndex, s)
		}
		addrs[i] = addr
	}

	return addrs, nil
}
