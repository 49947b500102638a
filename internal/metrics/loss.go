package metrics

import "flowtrace-sim/internal/trace"

// LossEstimator computes the current packet-loss percentage for one flow.
// There is exactly one accounting rule per run; the estimator is chosen at
// wiring time, never per call site.
type LossEstimator interface {
	Estimate() float64
}

// EventCountEstimator is the canonical rule: loss is derived from discrete
// send and receive events, (sent-received)/sent*100, 0 before any send.
// With monotonic, consistently-counted events the result stays in [0,100].
type EventCountEstimator struct {
	counters *trace.Counters
}

// NewEventCountEstimator returns the canonical estimator over counters.
func NewEventCountEstimator(c *trace.Counters) *EventCountEstimator {
	return &EventCountEstimator{counters: c}
}

func (e *EventCountEstimator) Estimate() float64 {
	sent := e.counters.Sent
	if sent == 0 {
		return 0
	}
	recv := e.counters.Received
	return (float64(sent) - float64(recv)) / float64(sent) * 100
}

// ByteAccountedEstimator divides cumulative received bytes by a nominal
// packet size to reconstruct a receive count. It undercounts or overcounts
// whenever payload sizes vary or packets coalesce, and the reconstructed
// count can exceed the send count, driving the estimate negative. Kept to
// document that defect; not selectable from configuration.
type ByteAccountedEstimator struct {
	counters   *trace.Counters
	rx         ByteTotaler
	packetSize uint32
}

// NewByteAccountedEstimator returns the byte-derived estimator.
func NewByteAccountedEstimator(c *trace.Counters, rx ByteTotaler, nominalPacketSize uint32) *ByteAccountedEstimator {
	return &ByteAccountedEstimator{counters: c, rx: rx, packetSize: nominalPacketSize}
}

func (e *ByteAccountedEstimator) Estimate() float64 {
	sent := e.counters.Sent
	if sent == 0 {
		return 0
	}
	recv := e.rx.TotalRx() / uint64(e.packetSize)
	return (float64(sent) - float64(recv)) / float64(sent) * 100
}
