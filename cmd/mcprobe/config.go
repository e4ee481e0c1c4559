package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
	"github.com/arloliu/go-melsec/mcnet"
	"github.com/arloliu/go-melsec/transport"
)

// Config is the mcprobe configuration file.
type Config struct {
	Format   string        `yaml:"format"`
	LogLevel string        `yaml:"log_level"`
	Timeout  time.Duration `yaml:"timeout"`
	Route    RouteConfig   `yaml:"route"`
	TCP      *TCPConfig    `yaml:"tcp,omitempty"`
	Serial   *SerialConfig `yaml:"serial,omitempty"`
	Sim      SimConfig     `yaml:"sim"`
}

// RouteConfig holds the routing header fields.
type RouteConfig struct {
	Network uint8  `yaml:"network"`
	Station uint8  `yaml:"station"`
	IO      uint16 `yaml:"io"`
	Unit    uint8  `yaml:"unit"`
}

// TCPConfig selects an Ethernet target.
type TCPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SerialConfig selects a serial target.
type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	Parity   string `yaml:"parity"`
}

// SimConfig configures the sim command.
type SimConfig struct {
	Listen string              `yaml:"listen"`
	Model  string              `yaml:"model"`
	Words  map[string][]uint16 `yaml:"words"`
}

func defaultConfig() *Config {
	route := mc.DefaultRoute()

	return &Config{
		Format:   mc.Binary.String(),
		LogLevel: "info",
		Timeout:  transport.DefaultTimeout,
		Route: RouteConfig{
			Network: route.Network,
			Station: route.Station,
			IO:      route.IO,
			Unit:    route.Unit,
		},
		Sim: SimConfig{Listen: "127.0.0.1:5000"},
	}
}

// loadConfig reads a YAML configuration over the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := decodeConfig(f, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func (cfg *Config) format() (mc.Format, error) {
	return mc.ParseFormat(cfg.Format)
}

func (cfg *Config) logger() logger.Logger {
	l := logger.GetLogger()
	l.SetLevel(logger.ParseLevel(cfg.LogLevel))

	return l
}

// link opens the transport selected by the configuration.
func (cfg *Config) link(l logger.Logger) (mcnet.Exchanger, io.Closer, error) {
	f, err := cfg.format()
	if err != nil {
		return nil, nil, err
	}

	opts := []transport.Option{
		transport.WithFormat(f),
		transport.WithTimeout(cfg.Timeout),
		transport.WithLogger(l),
	}

	switch {
	case cfg.TCP != nil && cfg.Serial != nil:
		return nil, nil, errors.New("configure either tcp or serial, not both")

	case cfg.TCP != nil:
		tcpCfg, err := transport.NewTCPConfig(cfg.TCP.Host, cfg.TCP.Port, opts...)
		if err != nil {
			return nil, nil, err
		}
		link := transport.NewTCP(tcpCfg)

		return link, link, nil

	case cfg.Serial != nil:
		if cfg.Serial.BaudRate != 0 {
			opts = append(opts, transport.WithBaudRate(cfg.Serial.BaudRate))
		}
		if cfg.Serial.Parity != "" {
			opts = append(opts, transport.WithParity(cfg.Serial.Parity))
		}
		serialCfg, err := transport.NewSerialConfig(cfg.Serial.Device, opts...)
		if err != nil {
			return nil, nil, err
		}
		link := transport.NewSerial(serialCfg)

		return link, link, nil
	}

	return nil, nil, errors.New("no target: set --host or configure tcp or serial")
}

// client creates a client over the configured link.
func (cfg *Config) client() (*mcnet.Client, io.Closer, error) {
	l := cfg.logger()

	ex, closer, err := cfg.link(l)
	if err != nil {
		return nil, nil, err
	}

	f, err := cfg.format()
	if err != nil {
		return nil, nil, err
	}

	client, err := mcnet.NewClient(ex,
		mcnet.WithFormat(f),
		mcnet.WithNetwork(cfg.Route.Network),
		mcnet.WithStation(cfg.Route.Station),
		mcnet.WithIO(cfg.Route.IO),
		mcnet.WithUnit(cfg.Route.Unit),
		mcnet.WithLogger(l),
	)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	return client, closer, nil
}
