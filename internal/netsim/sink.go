package netsim

// PacketSink is the receiving application. It accumulates delivered bytes
// and surfaces one receive event per delivered packet.
type PacketSink struct {
	total uint64
	onRx  func()
}

// NewPacketSink returns a sink; onRx may be nil.
func NewPacketSink(onRx func()) *PacketSink {
	return &PacketSink{onRx: onRx}
}

// Deliver records the arrival of one packet of n bytes.
func (p *PacketSink) Deliver(n uint32) {
	p.total += uint64(n)
	if p.onRx != nil {
		p.onRx()
	}
}

// TotalRx returns cumulative received bytes, monotonically non-decreasing.
func (p *PacketSink) TotalRx() uint64 {
	return p.total
}
