package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
)

// Default values of link configurations.
const (
	DefaultConnectTimeout = 3 * time.Second
	DefaultTimeout        = 5 * time.Second
	DefaultBaudRate       = 19200
	DefaultDataBits       = 8
	DefaultStopBits       = 1
	DefaultParity         = "O"

	MinTimeout = 10 * time.Millisecond
	MaxTimeout = 10 * time.Minute
)

// ErrClosed indicates an exchange on a link that was closed with Close.
var ErrClosed = errors.New("transport: link closed")

// linkConfig holds the settings shared by every link.
type linkConfig struct {
	format  mc.Format
	timeout time.Duration
	logger  logger.Logger
}

func newLinkConfig() linkConfig {
	return linkConfig{
		format:  mc.Binary,
		timeout: DefaultTimeout,
		logger:  logger.GetLogger(),
	}
}

// TCPConfig configures a TCP link.
type TCPConfig struct {
	linkConfig

	host           string
	port           int
	connectTimeout time.Duration
}

// SerialConfig configures a serial link.
type SerialConfig struct {
	linkConfig

	device   string
	baudRate int
	dataBits int
	stopBits int
	parity   string
}

// Option is a functional option for configuring links. Options that do not
// apply to a link kind report an error when used with it.
type Option interface {
	apply(cfg any) error
}

type optFunc func(cfg any) error

func (f optFunc) apply(cfg any) error { return f(cfg) }

// NewTCPConfig creates a TCP link configuration for host:port.
func NewTCPConfig(host string, port int, opts ...Option) (*TCPConfig, error) {
	if host == "" {
		return nil, errors.New("transport: host must not be empty")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("transport: port %d out of range", port)
	}

	cfg := &TCPConfig{
		linkConfig:     newLinkConfig(),
		host:           host,
		port:           port,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewSerialConfig creates a serial link configuration for device, such as
// "/dev/ttyUSB0" or "COM3". The defaults match the factory settings of a
// C24 module: 19200 baud, 8 data bits, odd parity, 1 stop bit.
func NewSerialConfig(device string, opts ...Option) (*SerialConfig, error) {
	if device == "" {
		return nil, errors.New("transport: serial device must not be empty")
	}

	cfg := &SerialConfig{
		linkConfig: newLinkConfig(),
		device:     device,
		baudRate:   DefaultBaudRate,
		dataBits:   DefaultDataBits,
		stopBits:   DefaultStopBits,
		parity:     DefaultParity,
	}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Address returns the host:port of a TCP link.
func (cfg *TCPConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.host, cfg.port)
}

func link(cfg any) *linkConfig {
	switch c := cfg.(type) {
	case *TCPConfig:
		return &c.linkConfig
	case *SerialConfig:
		return &c.linkConfig
	}

	return nil
}

// WithFormat sets the wire format used to cut response frames out of the
// stream. It must match the format of the client using the link.
func WithFormat(f mc.Format) Option {
	return optFunc(func(cfg any) error {
		if !f.Valid() {
			return fmt.Errorf("%w: %d", mc.ErrUnknownFormat, uint8(f))
		}
		link(cfg).format = f

		return nil
	})
}

// WithTimeout sets the time limit of one exchange, from writing the request
// to reading the last byte of the response.
func WithTimeout(d time.Duration) Option {
	return optFunc(func(cfg any) error {
		if d < MinTimeout || d > MaxTimeout {
			return fmt.Errorf("transport: timeout %v out of range [%v, %v]", d, MinTimeout, MaxTimeout)
		}
		link(cfg).timeout = d

		return nil
	})
}

// WithLogger sets the logger of the link.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg any) error {
		if l == nil {
			return errors.New("transport: logger must not be nil")
		}
		link(cfg).logger = l

		return nil
	})
}

// WithConnectTimeout sets the dial timeout of a TCP link.
func WithConnectTimeout(d time.Duration) Option {
	return optFunc(func(cfg any) error {
		c, ok := cfg.(*TCPConfig)
		if !ok {
			return errors.New("transport: connect timeout applies to TCP links only")
		}
		if d < MinTimeout || d > MaxTimeout {
			return fmt.Errorf("transport: connect timeout %v out of range [%v, %v]", d, MinTimeout, MaxTimeout)
		}
		c.connectTimeout = d

		return nil
	})
}

// WithBaudRate sets the baud rate of a serial link.
func WithBaudRate(rate int) Option {
	return serialOpt(func(c *SerialConfig) error {
		if rate <= 0 {
			return fmt.Errorf("transport: invalid baud rate %d", rate)
		}
		c.baudRate = rate

		return nil
	})
}

// WithDataBits sets the data bits of a serial link, 7 or 8.
func WithDataBits(bits int) Option {
	return serialOpt(func(c *SerialConfig) error {
		if bits != 7 && bits != 8 {
			return fmt.Errorf("transport: invalid data bits %d", bits)
		}
		c.dataBits = bits

		return nil
	})
}

// WithStopBits sets the stop bits of a serial link, 1 or 2.
func WithStopBits(bits int) Option {
	return serialOpt(func(c *SerialConfig) error {
		if bits != 1 && bits != 2 {
			return fmt.Errorf("transport: invalid stop bits %d", bits)
		}
		c.stopBits = bits

		return nil
	})
}

// WithParity sets the parity of a serial link: "N", "E" or "O".
func WithParity(parity string) Option {
	return serialOpt(func(c *SerialConfig) error {
		switch parity {
		case "N", "E", "O":
			c.parity = parity
			return nil
		}

		return fmt.Errorf("transport: invalid parity %q", parity)
	})
}

func serialOpt(fn func(*SerialConfig) error) Option {
	return optFunc(func(cfg any) error {
		c, ok := cfg.(*SerialConfig)
		if !ok {
			return errors.New("transport: option applies to serial links only")
		}

		return fn(c)
	})
}
