package mcnet

import (
	"context"
	"errors"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
)

var (
	// ErrExchangerNil indicates a Client created without an Exchanger.
	ErrExchangerNil = errors.New("mcnet: exchanger is nil")

	// ErrBitDeviceOnly indicates a word device passed to a bit-unit operation.
	ErrBitDeviceOnly = errors.New("mcnet: operation accepts bit devices only")

	// ErrUnexpectedBitIndex indicates a bit-indexed address passed to a word operation.
	ErrUnexpectedBitIndex = errors.New("mcnet: bit index not allowed for word access")
)

// Exchanger performs one request/response cycle over an open link. It
// returns exactly the bytes of one response frame.
type Exchanger interface {
	Exchange(frame []byte) ([]byte, error)
}

// ContextExchanger is an Exchanger that can abandon an exchange when ctx is done.
type ContextExchanger interface {
	ExchangeContext(ctx context.Context, frame []byte) ([]byte, error)
}

// ExchangeFunc adapts a plain function to Exchanger.
type ExchangeFunc func(frame []byte) ([]byte, error)

// Exchange calls f(frame).
func (f ExchangeFunc) Exchange(frame []byte) ([]byte, error) { return f(frame) }

// Client issues MC protocol operations through an Exchanger.
//
// A Client only holds its configuration; every call builds its own address,
// commands and result buffer.
type Client struct {
	ex     Exchanger
	cfg    *clientConfig
	logger logger.Logger
}

// NewClient creates a Client sending its frames through ex.
func NewClient(ex Exchanger, opts ...Option) (*Client, error) {
	if ex == nil {
		return nil, ErrExchangerNil
	}

	cfg := newClientConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return &Client{
		ex:     ex,
		cfg:    cfg,
		logger: cfg.logger.With("format", cfg.format.String()),
	}, nil
}

// Format returns the wire format of the client.
func (c *Client) Format() mc.Format { return c.cfg.format }

// Route returns the routing header fields of the client.
func (c *Client) Route() mc.Route { return c.cfg.route }

// exchange hands one frame to the Exchanger. Errors are returned unchanged.
func (c *Client) exchange(ctx context.Context, frame []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ce, ok := c.ex.(ContextExchanger); ok {
		return ce.ExchangeContext(ctx, frame)
	}

	return c.ex.Exchange(frame)
}

// roundTrip packs a command, exchanges it and returns the response payload
// of a successful response.
func (c *Client) roundTrip(ctx context.Context, command []byte) ([]byte, error) {
	frame := mc.Pack(c.cfg.format, command, c.cfg.route)

	raw, err := c.exchange(ctx, frame)
	if err != nil {
		c.logger.Debug("mcnet: exchange failed", "error", err)
		return nil, err
	}

	resp, err := mc.ParseResponse(c.cfg.format, raw)
	if err != nil {
		c.logger.Warn("mcnet: malformed response", "error", err, "len", len(raw))
		return nil, err
	}

	if !resp.OK() {
		perr := mc.NewProtocolError(resp.Code, c.cfg.catalog)
		c.logger.Debug("mcnet: device rejected request", "code", perr.Code, "kind", perr.Kind.String())

		return nil, perr
	}

	return resp.Payload, nil
}

// step returns how many device numbers one word covers.
func step(addr device.Address) uint32 {
	if addr.Device.IsBit() {
		return 16
	}

	return 1
}
