package netsim

import (
	"time"

	"flowtrace-sim/internal/trace"
)

// congSocket is the transport endpoint created when a bulk-send app
// starts. It carries the congestion observation capability: subscribed
// observers are notified on every cwnd and RTT change.
type congSocket struct {
	protocol  string
	cwndBytes uint32
	srtt      time.Duration
	observers []trace.CongestionObserver
}

func (s *congSocket) Protocol() string { return s.protocol }

func (s *congSocket) Subscribe(obs trace.CongestionObserver) {
	s.observers = append(s.observers, obs)
}

func (s *congSocket) setCwnd(newBytes uint32) {
	old := s.cwndBytes
	if newBytes == old {
		return
	}
	s.cwndBytes = newBytes
	for _, obs := range s.observers {
		obs.OnCwndChanged(old, newBytes)
	}
}

func (s *congSocket) setRTT(newRTT time.Duration) {
	old := s.srtt
	if newRTT == old {
		return
	}
	s.srtt = newRTT
	for _, obs := range s.observers {
		obs.OnRttChanged(old, newRTT)
	}
}

// plainSocket is an endpoint without congestion notifications. Attaching
// hooks to an application that yields one is a configuration error.
type plainSocket struct {
	protocol string
}

func (s *plainSocket) Protocol() string { return s.protocol }
