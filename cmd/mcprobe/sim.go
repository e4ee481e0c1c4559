package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-melsec/mcsim"
)

func newSimCmd(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Serve a simulated PLC over TCP",
		Long: `Serve an in-memory PLC that answers MC protocol requests in the selected
wire format. Initial word values can be given in the sim.words section of the
configuration file. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Sim.Listen = listen
			}

			sim, err := newSim(cfg)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Sim.Listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Sim.Listen, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return sim.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides sim.listen")

	return cmd
}

// newSim creates the simulated device described by the configuration.
func newSim(cfg *Config) (*mcsim.Device, error) {
	f, err := cfg.format()
	if err != nil {
		return nil, err
	}

	opts := []mcsim.Option{mcsim.WithFormat(f), mcsim.WithLogger(cfg.logger())}
	if cfg.Sim.Model != "" {
		opts = append(opts, mcsim.WithModel(cfg.Sim.Model, mcsim.DefaultModelCode))
	}

	sim, err := mcsim.New(opts...)
	if err != nil {
		return nil, err
	}

	for address, values := range cfg.Sim.Words {
		if err := sim.SetWords(address, values...); err != nil {
			return nil, fmt.Errorf("sim.words: %w", err)
		}
	}

	return sim, nil
}
