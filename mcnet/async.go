package mcnet

import "context"

// Result carries the outcome of an asynchronous operation.
type Result[T any] struct {
	Value T
	Err   error
}

// async runs fn on its own goroutine and delivers its result on a buffered
// channel, so the goroutine never blocks when the caller stops listening.
func async[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()

	return ch
}

// ReadAsync is ReadContext delivered on a channel.
func (c *Client) ReadAsync(ctx context.Context, address string, length uint16) <-chan Result[[]byte] {
	return async(func() ([]byte, error) { return c.ReadContext(ctx, address, length) })
}

// ReadBitsAsync is ReadBitsContext delivered on a channel.
func (c *Client) ReadBitsAsync(ctx context.Context, address string, length uint16) <-chan Result[[]bool] {
	return async(func() ([]bool, error) { return c.ReadBitsContext(ctx, address, length) })
}

// ReadBitUnitsAsync is ReadBitUnitsContext delivered on a channel.
func (c *Client) ReadBitUnitsAsync(ctx context.Context, address string, length uint16) <-chan Result[[]bool] {
	return async(func() ([]bool, error) { return c.ReadBitUnitsContext(ctx, address, length) })
}

// WriteAsync is WriteContext delivered on a channel.
func (c *Client) WriteAsync(ctx context.Context, address string, data []byte) <-chan Result[struct{}] {
	return async(func() (struct{}, error) { return struct{}{}, c.WriteContext(ctx, address, data) })
}

// WriteBitsAsync is WriteBitsContext delivered on a channel.
func (c *Client) WriteBitsAsync(ctx context.Context, address string, values []bool) <-chan Result[struct{}] {
	return async(func() (struct{}, error) { return struct{}{}, c.WriteBitsContext(ctx, address, values) })
}

// ReadRandomAsync is ReadRandomContext delivered on a channel.
func (c *Client) ReadRandomAsync(ctx context.Context, addresses []string) <-chan Result[[]byte] {
	return async(func() ([]byte, error) { return c.ReadRandomContext(ctx, addresses) })
}

// ReadRandomBlocksAsync is ReadRandomBlocksContext delivered on a channel.
func (c *Client) ReadRandomBlocksAsync(ctx context.Context, addresses []string, lengths []uint16) <-chan Result[[]byte] {
	return async(func() ([]byte, error) { return c.ReadRandomBlocksContext(ctx, addresses, lengths) })
}
