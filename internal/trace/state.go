// Per-run congestion observation state
package trace

import "time"

// CongestionObserver receives congestion-control change notifications from
// a subscribed socket.
type CongestionObserver interface {
	OnCwndChanged(oldBytes, newBytes uint32)
	OnRttChanged(oldRTT, newRTT time.Duration)
}

// CongestionState holds the most recent congestion window and RTT reported
// by a socket. It is zero-valued until the first notification arrives, so
// leading zero samples mean "not yet observed", not a true zero. One
// instance per monitored flow; mutated only by observer callbacks, read by
// samplers, both inside the serialized event loop.
type CongestionState struct {
	CwndBytes uint32
	RTT       time.Duration
}

func (s *CongestionState) OnCwndChanged(_, newBytes uint32) {
	s.CwndBytes = newBytes
}

func (s *CongestionState) OnRttChanged(_, newRTT time.Duration) {
	s.RTT = newRTT
}
