package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-melsec/mcnet"
)

func newReadCmd(flags *rootFlags) *cobra.Command {
	var (
		bits  bool
		units bool
	)

	cmd := &cobra.Command{
		Use:   "read ADDRESS LENGTH",
		Short: "Read words or bits",
		Example: `  mcprobe read --host 192.168.3.39 D100 10
  mcprobe read --host 192.168.3.39 --bits M0 32
  mcprobe read --host 192.168.3.39 --bits D100.4 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			length, err := strconv.ParseUint(args[1], 0, 16)
			if err != nil {
				return fmt.Errorf("invalid length %q", args[1])
			}

			return withClient(cmd, flags, func(ctx context.Context, client *mcnet.Client) error {
				if bits || units {
					read := client.ReadBitsContext
					if units {
						read = client.ReadBitUnitsContext
					}
					values, err := read(ctx, args[0], uint16(length))
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), formatBits(values))

					return nil
				}

				data, err := client.ReadContext(ctx, args[0], uint16(length))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatWords(data))

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&bits, "bits", false, "read points through word access")
	cmd.Flags().BoolVar(&units, "units", false, "read points of a bit device with bit-unit access")

	return cmd
}

func newWriteCmd(flags *rootFlags) *cobra.Command {
	var bits bool

	cmd := &cobra.Command{
		Use:   "write ADDRESS VALUE...",
		Short: "Write words or bits",
		Example: `  mcprobe write --host 192.168.3.39 D100 1 2 0x1234
  mcprobe write --host 192.168.3.39 --bits M10 1 0 1`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, flags, func(ctx context.Context, client *mcnet.Client) error {
				if bits {
					values, err := parseBits(args[1:])
					if err != nil {
						return err
					}

					return client.WriteBitsContext(ctx, args[0], values)
				}

				data, err := parseWords(args[1:])
				if err != nil {
					return err
				}

				return client.WriteContext(ctx, args[0], data)
			})
		},
	}

	cmd.Flags().BoolVar(&bits, "bits", false, "write points instead of words")

	return cmd
}

func newRandomCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "random ADDRESS...",
		Short: "Read one word from each address in a single request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, flags, func(ctx context.Context, client *mcnet.Client) error {
				data, err := client.ReadRandomContext(ctx, args)
				if err != nil {
					return err
				}
				for i, address := range args {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", address, binary.LittleEndian.Uint16(data[i*2:]))
				}

				return nil
			})
		},
	}
}

func newModelCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Print the CPU model name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, flags, func(ctx context.Context, client *mcnet.Client) error {
				model, err := client.ReadCPUModelContext(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), model)

				return nil
			})
		},
	}
}

func newRemoteCmd(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:       "remote run|stop|reset",
		Short:     "Switch the CPU to RUN or STOP, or reset it",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"run", "stop", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, flags, func(ctx context.Context, client *mcnet.Client) error {
				switch args[0] {
				case "run":
					return client.RemoteRunContext(ctx, force)
				case "stop":
					return client.RemoteStopContext(ctx)
				default:
					return client.RemoteResetContext(ctx)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run even when another device holds the CPU in STOP")

	return cmd
}

// withClient runs fn with a client built from the configuration and reports
// failures together with the party that has to act on them.
func withClient(cmd *cobra.Command, flags *rootFlags, fn func(context.Context, *mcnet.Client) error) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}

	client, closer, err := cfg.client()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := fn(cmd.Context(), client); err != nil {
		return fmt.Errorf("%s error: %w", mcnet.Classify(err), err)
	}

	return nil
}

func formatWords(data []byte) string {
	words := make([]string, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		words = append(words, strconv.Itoa(int(binary.LittleEndian.Uint16(data[i:]))))
	}

	return strings.Join(words, " ")
}

func formatBits(values []bool) string {
	var sb strings.Builder
	for _, on := range values {
		if on {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}

func parseWords(args []string) ([]byte, error) {
	data := make([]byte, 0, len(args)*2)
	for _, arg := range args {
		v, err := strconv.ParseInt(arg, 0, 32)
		if err != nil || v < -0x8000 || v > 0xFFFF {
			return nil, fmt.Errorf("invalid word value %q", arg)
		}
		data = binary.LittleEndian.AppendUint16(data, uint16(v)) //nolint:gosec // range checked above
	}

	return data, nil
}

func parseBits(args []string) ([]bool, error) {
	values := make([]bool, len(args))
	for i, arg := range args {
		switch arg {
		case "1", "on", "true":
			values[i] = true
		case "0", "off", "false":
		default:
			return nil, fmt.Errorf("invalid bit value %q", arg)
		}
	}

	return values, nil
}
