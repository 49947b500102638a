package netsim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"flowtrace-sim/internal/sched"
	"flowtrace-sim/internal/trace"
)

// Protocol names accepted by the app factory. They double as the output
// file prefixes.
const (
	ProtocolCubic = "tcpcubic"
	ProtocolBBR   = "quicbbr"
)

// Protocols lists the comparable protocol variants.
var Protocols = []string{ProtocolCubic, ProtocolBBR}

// AppConfig parameterizes one bulk-send application.
type AppConfig struct {
	Protocol    string
	SegmentSize uint32
	Seed        int64
	StartAt     time.Duration

	// Plain strips the congestion observation capability from the socket.
	// Only useful to exercise the fatal attachment path.
	Plain bool
}

// BulkSendApp sends continuously toward a PacketSink, limited by its
// congestion window. The transport socket does not exist at construction:
// it materializes when the scheduled start fires, which is what forces
// hook attachment to poll.
type BulkSendApp struct {
	scheduler *sched.Scheduler
	path      Path
	sink      *PacketSink
	cc        congestionControl
	cfg       AppConfig
	rng       *rand.Rand
	onTx      func()
	log       *slog.Logger

	sock *congSocket
	// set instead of sock when cfg.Plain
	plainSock *plainSocket
}

// NewBulkSendApp validates the protocol and builds the app. onTx may be
// nil; it fires once per transmitted packet.
func NewBulkSendApp(s *sched.Scheduler, path Path, sink *PacketSink, cfg AppConfig, onTx func(), log *slog.Logger) (*BulkSendApp, error) {
	var cc congestionControl
	switch cfg.Protocol {
	case ProtocolCubic:
		cc = newCubicControl()
	case ProtocolBBR:
		cc = newBBRControl()
	default:
		return nil, fmt.Errorf("unknown protocol %q", cfg.Protocol)
	}
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = 1500
	}
	return &BulkSendApp{
		scheduler: s,
		path:      path,
		sink:      sink,
		cc:        cc,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		onTx:      onTx,
		log:       log,
	}, nil
}

// Schedule queues the application start.
func (a *BulkSendApp) Schedule() {
	a.scheduler.Schedule(a.cfg.StartAt, a.start)
}

// Socket returns the transport socket, or nil before the app has started.
func (a *BulkSendApp) Socket() trace.Socket {
	if a.plainSock != nil {
		return a.plainSock
	}
	if a.sock == nil {
		return nil
	}
	return a.sock
}

func (a *BulkSendApp) start() {
	if a.cfg.Plain {
		a.plainSock = &plainSocket{protocol: a.cfg.Protocol}
		return
	}
	a.sock = &congSocket{
		protocol:  a.cc.Protocol(),
		cwndBytes: uint32(a.cc.InitialCwndPkts() * float64(a.cfg.SegmentSize)),
		srtt:      2 * a.path.OneWay,
	}
	a.log.Debug("bulk-send socket created",
		"protocol", a.cfg.Protocol, "at", a.scheduler.Now())
	a.round()
}

// round transmits one congestion window's worth of packets, schedules
// their deliveries, and schedules the window update at the round trip.
func (a *BulkSendApp) round() {
	seg := a.cfg.SegmentSize
	cwndPkts := int(a.sock.cwndBytes / seg)
	if cwndPkts < 1 {
		cwndPkts = 1
	}

	serialization := time.Duration(float64(seg*8) / (a.path.RateMbps * 1e6) * float64(time.Second))

	// The bottleneck holds a BDP in flight plus its queue; anything past
	// that in one round tail-drops.
	bdpPkts := a.path.BDPBytes() / float64(seg)
	capacity := int(bdpPkts) + a.path.QueuePkts

	lost := 0
	for i := 0; i < cwndPkts; i++ {
		if a.onTx != nil {
			a.onTx()
		}
		if i >= capacity || a.rng.Float64() < a.path.Loss {
			lost++
			continue
		}
		arrival := a.path.OneWay + time.Duration(i+1)*serialization
		a.scheduler.ScheduleAfter(arrival, func() { a.sink.Deliver(seg) })
	}

	// Queuing shows up in the measured RTT once the window exceeds the
	// path's bandwidth-delay product.
	rtt := 2 * a.path.OneWay
	queued := float64(cwndPkts)
	if queued > float64(capacity) {
		queued = float64(capacity)
	}
	if excess := queued - bdpPkts; excess > 0 {
		rtt += time.Duration(excess * float64(serialization))
	}

	a.scheduler.ScheduleAfter(rtt, func() { a.roundDone(cwndPkts, lost, rtt, bdpPkts) })
}

func (a *BulkSendApp) roundDone(sentPkts, lost int, rtt time.Duration, bdpPkts float64) {
	now := a.scheduler.Now()
	cur := float64(a.sock.cwndBytes) / float64(a.cfg.SegmentSize)
	next := a.cc.NextCwndPkts(now, cur, lost > 0, bdpPkts)
	next = math.Max(next, 1)

	a.sock.setRTT(rtt)
	a.sock.setCwnd(uint32(next * float64(a.cfg.SegmentSize)))
	a.round()
}
