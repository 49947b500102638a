package metrics

import (
	"log/slog"
	"time"

	"flowtrace-sim/internal/sched"
	"flowtrace-sim/internal/trace"
)

// ByteTotaler exposes cumulative received bytes, monotonically
// non-decreasing. The packet sink implements it.
type ByteTotaler interface {
	TotalRx() uint64
}

// Emit forwards one exported row. Optional on samplers; nil disables row
// export.
type Emit func(metric string, t time.Duration, v float64)

// MetricSampler periodically derives throughput from the received-byte
// total and snapshots cwnd and RTT from the congestion state, appending
// one sample per stream per tick. It reschedules itself, so it keeps
// firing until the scheduler's stop time cuts it off.
//
// The sampler may legitimately run before hooks are attached; it then
// emits the zero-valued congestion state. Consumers treat leading zeros as
// "not yet observed".
type MetricSampler struct {
	scheduler   *sched.Scheduler
	state       *trace.CongestionState
	rx          ByteTotaler
	period      time.Duration
	segmentSize uint32
	log         *slog.Logger
	emit        Emit

	cwnd       *MetricStream
	rtt        *MetricStream
	throughput *MetricStream

	lastTotalRx uint64
}

// NewMetricSampler wires a sampler to its streams. period and segmentSize
// must be positive.
func NewMetricSampler(s *sched.Scheduler, state *trace.CongestionState, rx ByteTotaler,
	period time.Duration, segmentSize uint32,
	cwnd, rtt, throughput *MetricStream, log *slog.Logger, emit Emit) *MetricSampler {
	return &MetricSampler{
		scheduler:   s,
		state:       state,
		rx:          rx,
		period:      period,
		segmentSize: segmentSize,
		log:         log,
		emit:        emit,
		cwnd:        cwnd,
		rtt:         rtt,
		throughput:  throughput,
	}
}

// Start schedules the first tick one period from now.
func (m *MetricSampler) Start() {
	m.scheduler.ScheduleAfter(m.period, m.Tick)
}

// Tick produces one sample per stream and reschedules itself.
func (m *MetricSampler) Tick() {
	now := m.scheduler.Now()

	total := m.rx.TotalRx()
	mbps := float64(total-m.lastTotalRx) * 8 / 1e6
	m.lastTotalRx = total

	cwndPkts := float64(m.state.CwndBytes) / float64(m.segmentSize)
	rttMs := m.state.RTT.Seconds() * 1e3

	m.append(m.throughput, now, mbps)
	m.append(m.cwnd, now, cwndPkts)
	m.append(m.rtt, now, rttMs)

	m.scheduler.ScheduleAfter(m.period, m.Tick)
}

func (m *MetricSampler) append(stream *MetricStream, t time.Duration, v float64) {
	if err := stream.Append(t, v); err != nil {
		m.log.Error("sample dropped", "err", err)
		return
	}
	if m.emit != nil {
		m.emit(stream.Metric(), t, v)
	}
}

// PacketLossSampler periodically writes the current loss estimate. It runs
// on its own period, independent of the metric sampler.
type PacketLossSampler struct {
	scheduler *sched.Scheduler
	estimator LossEstimator
	period    time.Duration
	stream    *MetricStream
	log       *slog.Logger
	emit      Emit
}

// NewPacketLossSampler wires a loss sampler to its stream.
func NewPacketLossSampler(s *sched.Scheduler, est LossEstimator, period time.Duration,
	stream *MetricStream, log *slog.Logger, emit Emit) *PacketLossSampler {
	return &PacketLossSampler{
		scheduler: s,
		estimator: est,
		period:    period,
		stream:    stream,
		log:       log,
		emit:      emit,
	}
}

// Start schedules the first tick one period from now.
func (p *PacketLossSampler) Start() {
	p.scheduler.ScheduleAfter(p.period, p.Tick)
}

// Tick appends one loss sample and reschedules itself. Estimates outside
// [0,100] are a data-quality signal, not a fault: they are clamped and
// logged, never written raw and never fatal.
func (p *PacketLossSampler) Tick() {
	now := p.scheduler.Now()

	raw := p.estimator.Estimate()
	v := raw
	if raw < 0 || raw > 100 {
		v = clampPercent(raw)
		p.log.Warn("loss estimate out of range, clamped",
			"raw", raw, "clamped", v, "at", now)
	}

	if err := p.stream.Append(now, v); err != nil {
		p.log.Error("loss sample dropped", "err", err)
	} else if p.emit != nil {
		p.emit(p.stream.Metric(), now, v)
	}

	p.scheduler.ScheduleAfter(p.period, p.Tick)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
