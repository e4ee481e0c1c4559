package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/grid-x/serial"
)

// openPort opens a serial port; tests replace it.
var openPort = func(cfg *serial.Config) (io.ReadWriteCloser, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}

	return port, nil
}

// Serial is an MC protocol link over a serial port, as offered by C24
// serial communication modules in 3C/4C compatible 3E framing.
type Serial struct {
	stream
	cfg *SerialConfig
}

// NewSerial creates a serial link. The port is opened by the first exchange.
func NewSerial(cfg *SerialConfig) *Serial {
	s := &Serial{cfg: cfg}
	s.stream = stream{
		cfg:    cfg.linkConfig,
		logger: cfg.logger.With("link", "serial", "device", cfg.device),
		open:   s.dial,
	}

	return s
}

func (s *Serial) dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := openPort(&serial.Config{
		Address:  s.cfg.device,
		BaudRate: s.cfg.baudRate,
		DataBits: s.cfg.dataBits,
		StopBits: s.cfg.stopBits,
		Parity:   s.cfg.parity,
		Timeout:  s.cfg.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", s.cfg.device, err)
	}

	return port, nil
}

// Exchange writes one request frame and returns the response frame.
func (s *Serial) Exchange(frame []byte) ([]byte, error) {
	return s.exchange(context.Background(), frame)
}

// ExchangeContext is Exchange checked against ctx. A serial read cannot be
// interrupted; it ends at the latest when the link timeout expires.
func (s *Serial) ExchangeContext(ctx context.Context, frame []byte) ([]byte, error) {
	return s.exchange(ctx, frame)
}

// Metrics returns the metrics of the link.
func (s *Serial) Metrics() *LinkMetrics { return &s.metrics }

// Close closes the port. Later exchanges fail with ErrClosed.
func (s *Serial) Close() error { return s.close() }
