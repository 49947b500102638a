package metrics

import (
	"fmt"
	"time"
)

// Sink receives the ordered samples of one stream.
type Sink interface {
	Append(t time.Duration, v float64) error
	Flush() error
	Close() error
}

// MetricStream is the append-only, time-ordered output channel for one
// measured quantity of one protocol run. Appends with a timestamp earlier
// than the previous one are rejected; the owning sampler is the only
// writer, so this only trips on a scheduling bug.
type MetricStream struct {
	protocol string
	metric   string
	sink     Sink

	count  int
	last   time.Duration
	closed bool
}

// NewMetricStream binds a stream for one metric to its sink.
func NewMetricStream(protocol, metric string, sink Sink) *MetricStream {
	return &MetricStream{protocol: protocol, metric: metric, sink: sink}
}

// Protocol returns the protocol run this stream belongs to.
func (m *MetricStream) Protocol() string { return m.protocol }

// Metric returns the metric name.
func (m *MetricStream) Metric() string { return m.metric }

// Len returns the number of samples appended so far.
func (m *MetricStream) Len() int { return m.count }

// Append writes one sample. Timestamps must be non-decreasing.
func (m *MetricStream) Append(t time.Duration, v float64) error {
	if m.closed {
		return fmt.Errorf("%s.%s: append to closed stream", m.protocol, m.metric)
	}
	if m.count > 0 && t < m.last {
		return fmt.Errorf("%s.%s: timestamp %v before previous %v", m.protocol, m.metric, t, m.last)
	}
	if err := m.sink.Append(t, v); err != nil {
		return fmt.Errorf("%s.%s: %w", m.protocol, m.metric, err)
	}
	m.last = t
	m.count++
	return nil
}

// Close flushes and closes the sink. Streams left open when the scheduler
// stops dispatching must still be closed by run teardown.
func (m *MetricStream) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.sink.Flush(); err != nil {
		m.sink.Close()
		return err
	}
	return m.sink.Close()
}
