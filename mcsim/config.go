package mcsim

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-melsec/device"
	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
)

// Default values of a simulated device.
const (
	DefaultDeviceSize uint32 = 0x10000
	DefaultModel             = "Q03UDVCPU"
	DefaultModelCode  uint16 = 0x0366
)

// Fault decides whether a request is rejected. A non-zero return value is sent
// back as the end code instead of executing the request.
type Fault func(req *mc.Request) uint16

type deviceConfig struct {
	format    mc.Format
	sizes     map[uint16]uint32
	model     string
	modelCode uint16
	fault     Fault
	logger    logger.Logger
}

func newDeviceConfig() *deviceConfig {
	return &deviceConfig{
		format:    mc.Binary,
		sizes:     make(map[uint16]uint32),
		model:     DefaultModel,
		modelCode: DefaultModelCode,
		logger:    logger.GetLogger(),
	}
}

// Option is a functional option for configuring a Device.
type Option interface {
	apply(*deviceConfig) error
}

type optFunc func(*deviceConfig) error

func (f optFunc) apply(cfg *deviceConfig) error { return f(cfg) }

// WithFormat selects the wire format the device speaks. Defaults to mc.Binary.
func WithFormat(f mc.Format) Option {
	return optFunc(func(cfg *deviceConfig) error {
		if !f.Valid() {
			return fmt.Errorf("%w: %d", mc.ErrUnknownFormat, uint8(f))
		}
		cfg.format = f

		return nil
	})
}

// WithDeviceSize sets the number of device points of the named device, for
// example WithDeviceSize("D", 12288). Accesses past the end are answered with
// end code 0x4031. Devices default to DefaultDeviceSize.
func WithDeviceSize(name string, size uint32) Option {
	return optFunc(func(cfg *deviceConfig) error {
		typ, ok := device.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s", device.ErrUnknownDevice, name)
		}
		cfg.sizes[typ.Code] = size

		return nil
	})
}

// WithModel sets the CPU model name and model code reported by the device.
func WithModel(name string, code uint16) Option {
	return optFunc(func(cfg *deviceConfig) error {
		if len(name) > 16 {
			return fmt.Errorf("mcsim: model name %q longer than 16 characters", name)
		}
		cfg.model = name
		cfg.modelCode = code

		return nil
	})
}

// WithFault installs a hook that can reject requests with an end code.
func WithFault(fault Fault) Option {
	return optFunc(func(cfg *deviceConfig) error {
		cfg.fault = fault
		return nil
	})
}

// WithLogger sets the logger of the device.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *deviceConfig) error {
		if l == nil {
			return errors.New("mcsim: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
