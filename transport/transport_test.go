package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/grid-x/serial"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-melsec/mc"
	"github.com/arloliu/go-melsec/mcnet"
	"github.com/arloliu/go-melsec/mcsim"
)

var (
	_ mcnet.Exchanger        = (*TCP)(nil)
	_ mcnet.ContextExchanger = (*TCP)(nil)
	_ mcnet.Exchanger        = (*Serial)(nil)
	_ mcnet.ContextExchanger = (*Serial)(nil)
)

// startSim serves a simulated device on a local TCP port.
func startSim(t *testing.T, f mc.Format) (*mcsim.Device, int) {
	t.Helper()

	sim, err := mcsim.New(mcsim.WithFormat(f))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sim.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return sim, ln.Addr().(*net.TCPAddr).Port
}

func TestTCP_Exchange(t *testing.T) {
	require := require.New(t)

	for _, f := range []mc.Format{mc.Binary, mc.ASCII, mc.RBinary, mc.RASCII} {
		sim, port := startSim(t, f)
		require.NoError(sim.SetWords("D100", 1, 2, 3))

		cfg, err := NewTCPConfig("127.0.0.1", port, WithFormat(f), WithTimeout(time.Second))
		require.NoError(err)

		link := NewTCP(cfg)
		client, err := mcnet.NewClient(link, mcnet.WithFormat(f))
		require.NoError(err)

		data, err := client.Read("D100", 3)
		require.NoError(err, f.String())
		require.Equal([]byte{1, 0, 2, 0, 3, 0}, data, f.String())

		// a segmented read reuses the connection
		_, err = client.Read("D0", 2000)
		require.NoError(err, f.String())

		metrics := link.Metrics()
		require.Equal(uint64(1), metrics.ConnectCount.Load())
		require.Equal(sim.Requests(), metrics.ExchangeCount.Load())
		require.Zero(metrics.ExchangeErrCount.Load())
		require.NotZero(metrics.BytesSent.Load())
		require.NotZero(metrics.BytesReceived.Load())

		require.NoError(link.Close())
		_, err = client.Read("D100", 1)
		require.ErrorIs(err, ErrClosed)
	}
}

func TestTCP_Timeout(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer ln.Close()

	// accept and never answer
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()

	cfg, err := NewTCPConfig("127.0.0.1", ln.Addr().(*net.TCPAddr).Port, WithTimeout(50*time.Millisecond))
	require.NoError(err)
	link := NewTCP(cfg)
	defer link.Close()

	_, err = link.Exchange(mc.Pack(mc.Binary, []byte{0x01, 0x01, 0x00, 0x00}, mc.DefaultRoute()))
	require.ErrorIs(err, os.ErrDeadlineExceeded)
	require.Equal(mcnet.ClassLink, mcnet.Classify(err))
	require.Equal(uint64(1), link.Metrics().ExchangeErrCount.Load())
}

func TestTCP_ContextCanceled(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()

	cfg, err := NewTCPConfig("127.0.0.1", ln.Addr().(*net.TCPAddr).Port)
	require.NoError(err)
	link := NewTCP(cfg)
	defer link.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = link.ExchangeContext(ctx, mc.Pack(mc.Binary, []byte{0x01, 0x01, 0x00, 0x00}, mc.DefaultRoute()))
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Less(time.Since(start), DefaultTimeout)
}

func TestTCP_Reconnect(t *testing.T) {
	require := require.New(t)

	sim, err := mcsim.New()
	require.NoError(err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer ln.Close()

	// every connection answers one request, then hangs up
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			frame, err := mc.ReadFrame(conn, mc.Binary)
			if err == nil {
				resp, _ := sim.Exchange(frame)
				_, _ = conn.Write(resp)
			}
			_ = conn.Close()
		}
	}()

	cfg, err := NewTCPConfig("127.0.0.1", ln.Addr().(*net.TCPAddr).Port, WithTimeout(time.Second))
	require.NoError(err)
	link := NewTCP(cfg)
	defer link.Close()

	client, err := mcnet.NewClient(link)
	require.NoError(err)

	_, err = client.Read("D0", 1)
	require.NoError(err)

	// the peer has closed the first connection
	_, err = client.Read("D0", 1)
	require.Error(err)

	_, err = client.Read("D0", 1)
	require.NoError(err)
	require.Equal(uint64(2), link.Metrics().ConnectCount.Load())
}

func TestTCP_DialFailure(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(ln.Close())

	cfg, err := NewTCPConfig("127.0.0.1", port, WithConnectTimeout(100*time.Millisecond))
	require.NoError(err)

	_, err = NewTCP(cfg).Exchange([]byte{0})
	require.Error(err)
	require.Equal(mcnet.ClassLink, mcnet.Classify(err))
}

func TestSerial_Exchange(t *testing.T) {
	require := require.New(t)

	sim, err := mcsim.New(mcsim.WithFormat(mc.ASCII))
	require.NoError(err)
	require.NoError(sim.SetBits("X0", true, false, true))

	var opened *serial.Config
	local, remote := net.Pipe()
	go func() { _ = sim.ServeStream(remote) }()
	defer remote.Close()

	orig := openPort
	openPort = func(cfg *serial.Config) (io.ReadWriteCloser, error) {
		opened = cfg
		return local, nil
	}
	defer func() { openPort = orig }()

	cfg, err := NewSerialConfig("/dev/ttyUSB0", WithFormat(mc.ASCII), WithBaudRate(115200), WithParity("E"))
	require.NoError(err)

	link := NewSerial(cfg)
	defer link.Close()

	client, err := mcnet.NewClient(link, mcnet.WithFormat(mc.ASCII))
	require.NoError(err)

	bits, err := client.ReadBitUnits("X0", 3)
	require.NoError(err)
	require.Equal([]bool{true, false, true}, bits)

	require.NotNil(opened)
	require.Equal("/dev/ttyUSB0", opened.Address)
	require.Equal(115200, opened.BaudRate)
	require.Equal("E", opened.Parity)
	require.Equal(DefaultDataBits, opened.DataBits)
	require.Equal(DefaultStopBits, opened.StopBits)
	require.Equal(DefaultTimeout, opened.Timeout)
}

func TestSerial_OpenFailure(t *testing.T) {
	require := require.New(t)

	errNoPort := errors.New("no such port")
	orig := openPort
	openPort = func(*serial.Config) (io.ReadWriteCloser, error) { return nil, errNoPort }
	defer func() { openPort = orig }()

	cfg, err := NewSerialConfig("COM9")
	require.NoError(err)

	_, err = NewSerial(cfg).Exchange([]byte{0})
	require.ErrorIs(err, errNoPort)
}

func TestConfig_Options(t *testing.T) {
	tests := []struct {
		description string
		build       func() error
		expectErr   bool
	}{
		{
			description: "tcp defaults",
			build:       func() error { _, err := NewTCPConfig("plc", 5000); return err },
		},
		{
			description: "tcp empty host",
			build:       func() error { _, err := NewTCPConfig("", 5000); return err },
			expectErr:   true,
		},
		{
			description: "tcp bad port",
			build:       func() error { _, err := NewTCPConfig("plc", 70000); return err },
			expectErr:   true,
		},
		{
			description: "tcp serial option",
			build:       func() error { _, err := NewTCPConfig("plc", 5000, WithBaudRate(9600)); return err },
			expectErr:   true,
		},
		{
			description: "serial connect timeout",
			build: func() error {
				_, err := NewSerialConfig("COM1", WithConnectTimeout(time.Second))
				return err
			},
			expectErr: true,
		},
		{
			description: "timeout too short",
			build:       func() error { _, err := NewTCPConfig("plc", 5000, WithTimeout(time.Millisecond)); return err },
			expectErr:   true,
		},
		{
			description: "bad parity",
			build:       func() error { _, err := NewSerialConfig("COM1", WithParity("X")); return err },
			expectErr:   true,
		},
		{
			description: "bad data bits",
			build:       func() error { _, err := NewSerialConfig("COM1", WithDataBits(6)); return err },
			expectErr:   true,
		},
		{
			description: "serial full",
			build: func() error {
				_, err := NewSerialConfig("COM1", WithDataBits(7), WithStopBits(2), WithParity("N"),
					WithFormat(mc.RASCII), WithLogger(nil))
				return err
			},
			expectErr: true,
		},
		{
			description: "unknown format",
			build:       func() error { _, err := NewSerialConfig("COM1", WithFormat(mc.Format(7))); return err },
			expectErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			err := tt.build()
			if tt.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
