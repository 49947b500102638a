package trace

import (
	"fmt"
	"log/slog"
	"time"

	"flowtrace-sim/internal/sched"
)

// Socket is the transport endpoint surfaced by an application once it has
// started. Observation requires the CongestionNotifier capability.
type Socket interface {
	Protocol() string
}

// CongestionNotifier is the capability a socket must carry for hook
// attachment: congestion window and RTT change subscription.
type CongestionNotifier interface {
	Subscribe(CongestionObserver)
}

// Application is the handle the host simulation hands us. Its socket
// materializes lazily at application start, so Socket returns nil until
// then.
type Application interface {
	Socket() Socket
}

// AttachState tracks the hook attachment lifecycle.
type AttachState int

const (
	// Pending: no socket yet, retries scheduled.
	Pending AttachState = iota
	// Attached: subscribed, terminal.
	Attached
	// TimedOut: retry budget exhausted before a socket appeared.
	TimedOut
	// Failed: socket appeared without the observation capability.
	Failed
)

func (s AttachState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Attached:
		return "attached"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("AttachState(%d)", int(s))
}

// HookAttacher polls for an application's socket via scheduler reschedules
// and subscribes a CongestionObserver exactly once when it appears.
type HookAttacher struct {
	scheduler   *sched.Scheduler
	app         Application
	observer    CongestionObserver
	retryEvery  time.Duration
	maxAttempts uint32
	log         *slog.Logger
	onFatal     func(error)

	state    AttachState
	attempts uint32
}

// NewHookAttacher wires an attacher for one application. retryEvery must
// be positive. maxAttempts of 0 means retries are bounded only by the
// simulation stop time. onFatal is invoked for capability mismatches and
// may be nil.
func NewHookAttacher(s *sched.Scheduler, app Application, obs CongestionObserver, retryEvery time.Duration, maxAttempts uint32, log *slog.Logger, onFatal func(error)) *HookAttacher {
	return &HookAttacher{
		scheduler:   s,
		app:         app,
		observer:    obs,
		retryEvery:  retryEvery,
		maxAttempts: maxAttempts,
		log:         log,
		onFatal:     onFatal,
	}
}

// State returns the current lifecycle state.
func (h *HookAttacher) State() AttachState {
	return h.state
}

// Attempts returns the number of attach attempts that found no socket.
func (h *HookAttacher) Attempts() uint32 {
	return h.attempts
}

// Attach tries to obtain the application's socket and subscribe. If the
// socket is not there yet the identical attempt is rescheduled after the
// retry interval. Calling Attach on an already-attached (or terminal)
// attacher is a no-op, so duplicate subscriptions cannot happen.
func (h *HookAttacher) Attach() {
	if h.state != Pending {
		return
	}

	sock := h.app.Socket()
	if sock == nil {
		h.attempts++
		h.log.Debug("socket not available yet, retrying",
			"attempt", h.attempts, "at", h.scheduler.Now())
		if h.maxAttempts > 0 && h.attempts >= h.maxAttempts {
			h.state = TimedOut
			h.log.Warn("giving up on hook attachment, streams stay zero-valued",
				"attempts", h.attempts)
			return
		}
		h.scheduler.ScheduleAfter(h.retryEvery, h.Attach)
		return
	}

	notifier, ok := sock.(CongestionNotifier)
	if !ok {
		h.state = Failed
		err := fmt.Errorf("socket for protocol %q does not expose congestion notifications", sock.Protocol())
		h.log.Error("hook attachment failed", "err", err)
		if h.onFatal != nil {
			h.onFatal(err)
		}
		return
	}

	notifier.Subscribe(h.observer)
	h.state = Attached
	h.log.Info("congestion hooks attached",
		"protocol", sock.Protocol(), "at", h.scheduler.Now(), "retries", h.attempts)
}
