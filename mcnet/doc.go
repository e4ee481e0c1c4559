// Package mcnet drives MC protocol operations over an externally supplied
// exchange primitive.
//
// A Client turns logical operations such as "read 2000 words from D100" into
// one or more request frames, exchanges them strictly one after another and
// assembles the response payloads in request order. Reads and writes larger
// than one frame allows are split transparently; the per-frame ceilings depend
// on the wire format (see mc.Format.MaxWords and mc.Format.MaxBits).
//
// The Client performs no I/O of its own. Every request is handed to an
// Exchanger, which sends one frame and returns exactly the bytes of one
// response. Timeouts, reconnects and retries belong to the Exchanger or to the
// caller; the first error of any sub-request aborts the whole operation and no
// partial data is returned.
//
// Every operation exists in three flavours sharing a single implementation:
//
//   - Read(...)                 synchronous
//   - ReadContext(ctx, ...)     cancellable, uses ContextExchanger when available
//   - ReadAsync(ctx, ...)       returns a channel delivering one Result
//
// A Client keeps no mutable state between calls and may be used concurrently,
// provided the Exchanger serializes access to its half-duplex link.
//
// Errors fall into four groups, see Classify:
//
//   - *device.AddressError: the address string is malformed.
//   - *mc.ProtocolError: the device rejected the request with an end code.
//   - *mc.FrameError: the response could not be taken apart.
//   - any other error: returned unchanged from the Exchanger.
package mcnet
