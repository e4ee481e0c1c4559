package mcnet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-melsec/mc"
	"github.com/arloliu/go-melsec/mcsim"
)

var allFormats = []mc.Format{mc.Binary, mc.ASCII, mc.RBinary, mc.RASCII}

// newSimClient returns a client wired to a fresh simulated device speaking f.
func newSimClient(t *testing.T, f mc.Format, simOpts ...mcsim.Option) (*Client, *mcsim.Device) {
	t.Helper()

	sim, err := mcsim.New(append([]mcsim.Option{mcsim.WithFormat(f)}, simOpts...)...)
	require.NoError(t, err)

	client, err := NewClient(sim, WithFormat(f))
	require.NoError(t, err)

	return client, sim
}

// scripted answers every request with the next canned response payload,
// recording the request frames it received.
type scripted struct {
	format   mc.Format
	payloads [][]byte
	requests [][]byte
}

func (s *scripted) Exchange(frame []byte) ([]byte, error) {
	s.requests = append(s.requests, frame)
	payload := s.payloads[0]
	s.payloads = s.payloads[1:]

	return mc.PackResponse(s.format, mc.DefaultRoute(), 0, payload), nil
}
