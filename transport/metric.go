package transport

import (
	"sync/atomic"
)

// LinkMetrics contains atomic metrics for a link.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type LinkMetrics struct {
	// ExchangeCount indicates the number of completed exchanges.
	ExchangeCount atomic.Uint64
	// ExchangeErrCount indicates the number of failed exchanges.
	ExchangeErrCount atomic.Uint64
	// BytesSent indicates the number of request bytes written.
	BytesSent atomic.Uint64
	// BytesReceived indicates the number of response bytes read.
	BytesReceived atomic.Uint64
	// ConnectCount indicates how many times the link was opened.
	ConnectCount atomic.Uint64
}

func (m *LinkMetrics) incExchangeCount() {
	m.ExchangeCount.Add(1)
}

func (m *LinkMetrics) incExchangeErrCount() {
	m.ExchangeErrCount.Add(1)
}

func (m *LinkMetrics) addBytesSent(n int) {
	m.BytesSent.Add(uint64(n)) //nolint:gosec // n is a frame length
}

func (m *LinkMetrics) addBytesReceived(n int) {
	m.BytesReceived.Add(uint64(n)) //nolint:gosec // n is a frame length
}

func (m *LinkMetrics) incConnectCount() {
	m.ConnectCount.Add(1)
}
