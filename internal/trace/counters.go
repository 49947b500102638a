package trace

// Counters accumulates per-packet send and receive events for one flow.
// Both counters are monotonically non-decreasing; overflow is unreachable
// at simulated run lengths.
type Counters struct {
	Sent     uint64
	Received uint64
}

// OnSend records one transmitted packet.
func (c *Counters) OnSend() {
	c.Sent++
}

// OnReceive records one delivered packet.
func (c *Counters) OnReceive() {
	c.Received++
}
