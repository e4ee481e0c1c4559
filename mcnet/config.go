package mcnet

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
)

// watchdogUnit is the resolution of the CPU monitoring timer.
const watchdogUnit = 250 * time.Millisecond

// Default values of a Client configuration.
const (
	DefaultFormat   = mc.Binary
	DefaultWatchdog = time.Duration(mc.DefaultWatchdog) * watchdogUnit

	MaxWatchdog = time.Duration(0xFFFF) * watchdogUnit
)

type clientConfig struct {
	format  mc.Format
	route   mc.Route
	catalog mc.Catalog
	logger  logger.Logger
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		format:  DefaultFormat,
		route:   mc.DefaultRoute(),
		catalog: mc.DefaultCatalog,
		logger:  logger.GetLogger(),
	}
}

// Option is a functional option for configuring a Client.
type Option interface {
	apply(*clientConfig) error
}

type optFunc func(*clientConfig) error

func (f optFunc) apply(cfg *clientConfig) error { return f(cfg) }

// WithFormat selects the wire format. Defaults to mc.Binary.
func WithFormat(f mc.Format) Option {
	return optFunc(func(cfg *clientConfig) error {
		if !f.Valid() {
			return fmt.Errorf("%w: %d", mc.ErrUnknownFormat, uint8(f))
		}
		cfg.format = f

		return nil
	})
}

// WithRoute replaces all routing header fields at once.
func WithRoute(route mc.Route) Option {
	return optFunc(func(cfg *clientConfig) error {
		cfg.route = route
		return nil
	})
}

// WithNetwork sets the network number of the target station.
func WithNetwork(network uint8) Option {
	return optFunc(func(cfg *clientConfig) error {
		cfg.route.Network = network
		return nil
	})
}

// WithStation sets the PLC (station) number of the target station.
func WithStation(station uint8) Option {
	return optFunc(func(cfg *clientConfig) error {
		cfg.route.Station = station
		return nil
	})
}

// WithIO sets the request destination module I/O number.
func WithIO(io uint16) Option {
	return optFunc(func(cfg *clientConfig) error {
		cfg.route.IO = io
		return nil
	})
}

// WithUnit sets the request destination module station number.
func WithUnit(unit uint8) Option {
	return optFunc(func(cfg *clientConfig) error {
		cfg.route.Unit = unit
		return nil
	})
}

// WithWatchdog sets the CPU monitoring timer. It is rounded up to the 250 ms
// resolution of the protocol; zero makes the CPU wait indefinitely.
func WithWatchdog(d time.Duration) Option {
	return optFunc(func(cfg *clientConfig) error {
		if d < 0 || d > MaxWatchdog {
			return fmt.Errorf("mcnet: watchdog %v out of range [0, %v]", d, MaxWatchdog)
		}
		cfg.route.Watchdog = uint16((d + watchdogUnit - 1) / watchdogUnit) //nolint:gosec // range checked above

		return nil
	})
}

// WithErrorCatalog supplies the lookup used to describe device end codes.
func WithErrorCatalog(catalog mc.Catalog) Option {
	return optFunc(func(cfg *clientConfig) error {
		if catalog == nil {
			return errors.New("mcnet: error catalog must not be nil")
		}
		cfg.catalog = catalog

		return nil
	})
}

// WithLogger sets the logger of the client.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *clientConfig) error {
		if l == nil {
			return errors.New("mcnet: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
