package transport

import (
	"context"
	"fmt"
	"io"
	"net"
)

// TCP is an MC protocol link over a TCP connection.
type TCP struct {
	stream
	cfg *TCPConfig
}

// NewTCP creates a TCP link. The connection is established by the first
// exchange.
func NewTCP(cfg *TCPConfig) *TCP {
	t := &TCP{cfg: cfg}
	t.stream = stream{
		cfg:    cfg.linkConfig,
		logger: cfg.logger.With("link", "tcp", "addr", cfg.Address()),
		open:   t.dial,
	}

	return t
}

func (t *TCP) dial(ctx context.Context) (io.ReadWriteCloser, error) {
	dialer := net.Dialer{Timeout: t.cfg.connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", t.cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", t.cfg.Address(), err)
	}

	return conn, nil
}

// Exchange writes one request frame and returns the response frame.
func (t *TCP) Exchange(frame []byte) ([]byte, error) {
	return t.exchange(context.Background(), frame)
}

// ExchangeContext is Exchange bounded by ctx as well as the link timeout.
func (t *TCP) ExchangeContext(ctx context.Context, frame []byte) ([]byte, error) {
	return t.exchange(ctx, frame)
}

// Metrics returns the metrics of the link.
func (t *TCP) Metrics() *LinkMetrics { return &t.metrics }

// Close closes the connection. Later exchanges fail with ErrClosed.
func (t *TCP) Close() error { return t.close() }
