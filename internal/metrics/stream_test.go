package metrics

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

type memorySink struct {
	samples []Sample
	flushed bool
	closed  bool
}

func (m *memorySink) Append(t time.Duration, v float64) error {
	m.samples = append(m.samples, Sample{T: t, V: v})
	return nil
}

func (m *memorySink) Flush() error { m.flushed = true; return nil }
func (m *memorySink) Close() error { m.closed = true; return nil }

func TestStreamRejectsBackwardsTimestamps(t *testing.T) {
	sink := &memorySink{}
	st := NewMetricStream("tcpcubic", MetricCwnd, sink)

	if err := st.Append(time.Second, 10); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(2*time.Second, 12); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Equal timestamps are allowed (non-decreasing).
	if err := st.Append(2*time.Second, 13); err != nil {
		t.Fatalf("append equal timestamp: %v", err)
	}
	if err := st.Append(time.Second, 14); err == nil {
		t.Fatal("backwards timestamp must be rejected")
	}
	if st.Len() != 3 {
		t.Fatalf("len = %d, want 3", st.Len())
	}
}

func TestStreamCloseFlushesSink(t *testing.T) {
	sink := &memorySink{}
	st := NewMetricStream("quicbbr", MetricRtt, sink)
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !sink.flushed || !sink.closed {
		t.Fatalf("flushed=%v closed=%v, want both", sink.flushed, sink.closed)
	}
	if err := st.Append(time.Second, 1); err == nil {
		t.Fatal("append after close must fail")
	}
	// Double close is fine.
	if err := st.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := StreamPath(dir, "tcpcubic", MetricThroughput)

	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	st := NewMetricStream("tcpcubic", MetricThroughput, sink)

	want := []Sample{
		{T: 100 * time.Millisecond, V: 0},
		{T: 200 * time.Millisecond, V: 1.25},
		{T: 300 * time.Millisecond, V: 4.8},
		{T: 400 * time.Millisecond, V: 4.8},
		{T: 500 * time.Millisecond, V: 0.005},
	}
	for _, s := range want {
		if err := st.Append(s.T, s.V); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sink: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(want) {
		t.Fatalf("lines = %d, want %d", len(lines), len(want))
	}
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			t.Fatalf("line %d: %q not two columns", i, line)
		}
		sec, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			t.Fatalf("line %d time: %v", i, err)
		}
		val, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			t.Fatalf("line %d value: %v", i, err)
		}
		if sec != want[i].T.Seconds() || val != want[i].V {
			t.Fatalf("line %d = (%v, %v), want (%v, %v)", i, sec, val, want[i].T.Seconds(), want[i].V)
		}
	}
}

func TestStreamPathNaming(t *testing.T) {
	got := StreamPath("out", "quicbbr", MetricPacketLoss)
	want := filepath.Join("out", "quicbbr.packetloss")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}
