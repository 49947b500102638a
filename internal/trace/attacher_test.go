package trace

import (
	"log/slog"
	"testing"
	"time"

	"flowtrace-sim/internal/sched"
)

type fakeSocket struct {
	protocol  string
	observers []CongestionObserver
}

func (s *fakeSocket) Protocol() string { return s.protocol }

type observableSocket struct{ fakeSocket }

func (s *observableSocket) Subscribe(obs CongestionObserver) {
	s.observers = append(s.observers, obs)
}

type fakeApp struct {
	sock Socket
}

func (a *fakeApp) Socket() Socket { return a.sock }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAttachRetriesUntilSocketAppears(t *testing.T) {
	s := sched.New()
	app := &fakeApp{}
	sock := &observableSocket{fakeSocket{protocol: "cubic"}}

	// Socket materializes at t=0.25s.
	s.Schedule(250*time.Millisecond, func() { app.sock = sock })

	state := &CongestionState{}
	h := NewHookAttacher(s, app, state, 100*time.Millisecond, 0, testLogger(), nil)
	s.Schedule(0, h.Attach)
	s.Run(time.Second)

	if h.State() != Attached {
		t.Fatalf("state = %v, want attached", h.State())
	}
	if h.Attempts() != 3 {
		t.Fatalf("failed attempts = %d, want 3 (t=0, 0.1, 0.2)", h.Attempts())
	}
	if len(sock.observers) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(sock.observers))
	}
}

func TestDoubleAttachSubscribesOnce(t *testing.T) {
	s := sched.New()
	sock := &observableSocket{fakeSocket{protocol: "bbr"}}
	app := &fakeApp{sock: sock}

	h := NewHookAttacher(s, app, &CongestionState{}, 100*time.Millisecond, 0, testLogger(), nil)
	s.Schedule(0, h.Attach)
	s.Schedule(0, h.Attach)
	s.Run(time.Second)

	if len(sock.observers) != 1 {
		t.Fatalf("subscriptions = %d, want exactly 1", len(sock.observers))
	}
}

func TestCapabilityMismatchIsFatal(t *testing.T) {
	s := sched.New()
	app := &fakeApp{sock: &fakeSocket{protocol: "udp"}}

	var fatal error
	h := NewHookAttacher(s, app, &CongestionState{}, 100*time.Millisecond, 0, testLogger(), func(err error) {
		fatal = err
		s.Halt()
	})
	s.Schedule(0, h.Attach)
	s.Run(time.Second)

	if h.State() != Failed {
		t.Fatalf("state = %v, want failed", h.State())
	}
	if fatal == nil {
		t.Fatal("expected fatal error for capability mismatch")
	}
	if !s.Halted() {
		t.Fatal("scheduler should have been halted")
	}
}

func TestRetryBudgetExhaustion(t *testing.T) {
	s := sched.New()
	app := &fakeApp{} // socket never appears

	h := NewHookAttacher(s, app, &CongestionState{}, 100*time.Millisecond, 5, testLogger(), nil)
	s.Schedule(0, h.Attach)
	s.Run(10 * time.Second)

	if h.State() != TimedOut {
		t.Fatalf("state = %v, want timed_out", h.State())
	}
	if h.Attempts() != 5 {
		t.Fatalf("attempts = %d, want 5", h.Attempts())
	}
	if s.Pending() != 0 {
		t.Fatalf("no retries should remain queued, got %d", s.Pending())
	}
}

func TestStopTimeAbandonsPendingRetries(t *testing.T) {
	s := sched.New()
	app := &fakeApp{} // socket never appears

	state := &CongestionState{}
	h := NewHookAttacher(s, app, state, 100*time.Millisecond, 0, testLogger(), nil)
	s.Schedule(0, h.Attach)
	s.Run(500 * time.Millisecond)

	if h.State() != Pending {
		t.Fatalf("state = %v, want still pending at stop", h.State())
	}
	if state.CwndBytes != 0 || state.RTT != 0 {
		t.Fatalf("congestion state mutated without a socket: %+v", state)
	}
}

func TestStateUpdatesFlowThroughSubscription(t *testing.T) {
	s := sched.New()
	sock := &observableSocket{fakeSocket{protocol: "cubic"}}
	app := &fakeApp{sock: sock}

	state := &CongestionState{}
	h := NewHookAttacher(s, app, state, 100*time.Millisecond, 0, testLogger(), nil)
	s.Schedule(0, h.Attach)
	s.Schedule(100*time.Millisecond, func() {
		for _, obs := range sock.observers {
			obs.OnCwndChanged(0, 30000)
			obs.OnRttChanged(0, 42*time.Millisecond)
		}
	})
	s.Run(time.Second)

	if state.CwndBytes != 30000 {
		t.Fatalf("cwnd = %d, want 30000", state.CwndBytes)
	}
	if state.RTT != 42*time.Millisecond {
		t.Fatalf("rtt = %v, want 42ms", state.RTT)
	}
}
