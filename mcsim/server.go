package mcsim

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/arloliu/go-melsec/mc"
)

// Serve accepts connections on ln and answers their requests until ctx is
// done or ln fails. Every connection is served on its own goroutine. Serve
// closes ln and waits for the connections to finish before returning.
func (d *Device) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	d.logger.Info("mcsim: listening", "addr", ln.Addr().String())

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			stopConn := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stopConn()
			defer conn.Close()

			d.logger.Debug("mcsim: client connected", "remote", conn.RemoteAddr().String())
			_ = d.ServeStream(conn)
		}()
	}
}

// ServeStream answers request frames read from rw until rw reports EOF or
// fails. It serves stream links such as a TCP connection or a serial port.
// A clean EOF between frames returns nil.
func (d *Device) ServeStream(rw io.ReadWriter) error {
	for {
		frame, err := mc.ReadFrame(rw, d.cfg.format)
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.logger.Debug("mcsim: stream closed")
				return nil
			}
			d.logger.Debug("mcsim: read failed", "error", err)

			return err
		}

		resp, err := d.Exchange(frame)
		if err != nil {
			return err
		}

		if _, err := rw.Write(resp); err != nil {
			d.logger.Debug("mcsim: write failed", "error", err)
			return err
		}
	}
}
