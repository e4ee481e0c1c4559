// Command mcprobe reads and writes PLC devices over the MC protocol and runs
// a simulated device for testing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	config   string
	host     string
	port     int
	format   string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "mcprobe",
		Short: "MC protocol (SLMP) probe",
		Long: `mcprobe talks to Mitsubishi PLCs over the MC protocol 3E frame.

Targets and defaults are read from a YAML file given with --config; command
line flags override the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "YAML configuration file")
	pf.StringVar(&flags.host, "host", "", "PLC host name or address")
	pf.IntVar(&flags.port, "port", 5000, "PLC MC protocol port")
	pf.StringVarP(&flags.format, "format", "f", "", "wire format: binary, ascii, r-binary, r-ascii")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newReadCmd(flags))
	cmd.AddCommand(newWriteCmd(flags))
	cmd.AddCommand(newRandomCmd(flags))
	cmd.AddCommand(newModelCmd(flags))
	cmd.AddCommand(newRemoteCmd(flags))
	cmd.AddCommand(newSimCmd(flags))

	return cmd
}

// load reads the configuration file and applies the flags that were set.
func (f *rootFlags) load(cmd *cobra.Command) (*Config, error) {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return nil, err
	}

	if f.host != "" {
		cfg.TCP = &TCPConfig{Host: f.host, Port: f.port}
		cfg.Serial = nil
	} else if cfg.TCP != nil && cmd.Flags().Changed("port") {
		cfg.TCP.Port = f.port
	}
	if f.format != "" {
		cfg.Format = f.format
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	if _, err := cfg.format(); err != nil {
		return nil, err
	}

	return cfg, nil
}
