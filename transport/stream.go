package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arloliu/go-melsec/logger"
	"github.com/arloliu/go-melsec/mc"
)

// canceledDeadline is a deadline in the past, used to abort a blocked read.
var canceledDeadline = time.Unix(1, 0)

type deadliner interface {
	SetDeadline(t time.Time) error
}

// stream runs half-duplex exchanges over a byte stream that is opened on
// demand and dropped after any failure.
type stream struct {
	cfg     linkConfig
	logger  logger.Logger
	metrics LinkMetrics
	open    func(ctx context.Context) (io.ReadWriteCloser, error)

	mu     sync.Mutex
	rw     io.ReadWriteCloser
	closed bool
}

func (s *stream) exchange(ctx context.Context, frame []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.rw == nil {
		rw, err := s.open(ctx)
		if err != nil {
			s.metrics.incExchangeErrCount()
			return nil, err
		}
		s.rw = rw
		s.metrics.incConnectCount()
		s.logger.Info("transport: link opened")
	}

	resp, err := s.roundTrip(ctx, frame)
	if err != nil {
		s.metrics.incExchangeErrCount()
		s.logger.Debug("transport: exchange failed, dropping link", "error", err)
		s.drop()

		return nil, err
	}
	s.metrics.incExchangeCount()

	return resp, nil
}

func (s *stream) roundTrip(ctx context.Context, frame []byte) ([]byte, error) {
	deadline := time.Now().Add(s.cfg.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if dl, ok := s.rw.(deadliner); ok {
		if err := dl.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("transport: set deadline: %w", err)
		}
		stop := context.AfterFunc(ctx, func() { _ = dl.SetDeadline(canceledDeadline) })
		defer stop()
	}

	for written := 0; written < len(frame); {
		n, err := s.rw.Write(frame[written:])
		if err != nil {
			return nil, s.failure(ctx, "write request", err)
		}
		written += n
	}
	s.metrics.addBytesSent(len(frame))

	resp, err := mc.ReadFrame(s.rw, s.cfg.format)
	if err != nil {
		return nil, s.failure(ctx, "read response", err)
	}
	s.metrics.addBytesReceived(len(resp))

	return resp, nil
}

// failure reports the context error when the context ended the exchange.
func (s *stream) failure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return fmt.Errorf("transport: %s: %w", op, err)
}

// drop closes the current stream. Caller must hold the mutex.
func (s *stream) drop() {
	if s.rw != nil {
		_ = s.rw.Close()
		s.rw = nil
	}
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.rw == nil {
		return nil
	}

	err := s.rw.Close()
	s.rw = nil
	s.logger.Info("transport: link closed")

	return err
}
