// Runner orchestrating one protocol run and its metric pipeline
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"flowtrace-sim/internal/config"
	"flowtrace-sim/internal/metrics"
	"flowtrace-sim/internal/netsim"
	"flowtrace-sim/internal/sched"
	"flowtrace-sim/internal/trace"
)

// RunResult summarizes one protocol run.
type RunResult struct {
	RunID       string
	Protocol    string
	Topology    string
	AttachState trace.AttachState
	Sent        uint64
	Received    uint64
	TotalRx     uint64
	Samples     int
	Files       []string
}

// Runner builds and executes protocol runs from one loaded configuration.
type Runner struct {
	cfg  *config.SimulationConfig
	log  *slog.Logger
	rows metrics.SampleWriter // optional row export, may be nil
	now  func() time.Time     // wall clock for exported rows
}

// NewRunner creates a Runner. rows may be nil to disable row export.
func NewRunner(cfg *config.SimulationConfig, log *slog.Logger, rows metrics.SampleWriter) *Runner {
	return &Runner{cfg: cfg, log: log, rows: rows, now: time.Now}
}

// Run simulates one protocol over one topology and writes the four metric
// stream files into the output directory. Sink setup failures and
// capability mismatches are fatal; a flow that never attaches is not.
func (r *Runner) Run(protocol string, topoCfg config.TopologyConfig) (RunResult, error) {
	res := RunResult{
		RunID:    uuid.NewString(),
		Protocol: protocol,
		Topology: topoCfg.Kind,
	}
	log := r.log.With("run_id", res.RunID, "protocol", protocol, "topology", topoCfg.Kind)

	topo, err := netsim.Build(netsim.Kind(topoCfg.Kind), topoCfg.Nodes, netsim.LinkParams{
		Delay:     topoCfg.Link.Delay(),
		RateMbps:  topoCfg.Link.RateMbps,
		Loss:      topoCfg.Link.Loss,
		QueuePkts: topoCfg.Link.QueuePkts,
	})
	if err != nil {
		return res, err
	}
	path := topo.Path()

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}

	scheduler := sched.New()
	counters := &trace.Counters{}
	state := &trace.CongestionState{}
	psink := netsim.NewPacketSink(counters.OnReceive)

	app, err := netsim.NewBulkSendApp(scheduler, path, psink, netsim.AppConfig{
		Protocol:    protocol,
		SegmentSize: r.cfg.SegmentSize,
		Seed:        r.cfg.Seed,
		StartAt:     r.cfg.AppStart(),
	}, counters.OnSend, log)
	if err != nil {
		return res, err
	}

	streams := make(map[string]*metrics.MetricStream, len(metrics.Metrics))
	for _, metric := range metrics.Metrics {
		sinkPath := metrics.StreamPath(r.cfg.OutputDir, protocol, metric)
		fsink, err := metrics.NewFileSink(sinkPath)
		if err != nil {
			closeStreams(streams, log)
			return res, err
		}
		streams[metric] = metrics.NewMetricStream(protocol, metric, fsink)
		res.Files = append(res.Files, sinkPath)
	}

	var fatal error
	attacher := trace.NewHookAttacher(scheduler, app, state,
		r.cfg.Attach.RetryInterval(), r.cfg.Attach.MaxAttempts, log,
		func(err error) {
			fatal = err
			scheduler.Halt()
		})

	emit := r.emitFunc(&res)
	sampler := metrics.NewMetricSampler(scheduler, state, psink,
		r.cfg.Sampling.MetricsInterval(), r.cfg.SegmentSize,
		streams[metrics.MetricCwnd], streams[metrics.MetricRtt], streams[metrics.MetricThroughput],
		log, emit)
	lossSampler := metrics.NewPacketLossSampler(scheduler,
		metrics.NewEventCountEstimator(counters),
		r.cfg.Sampling.LossInterval(), streams[metrics.MetricPacketLoss], log, emit)

	app.Schedule()
	scheduler.Schedule(0, attacher.Attach)
	sampler.Start()
	lossSampler.Start()

	log.Info("starting run", "duration", r.cfg.Duration(), "hops", path.Hops)
	scheduler.Run(r.cfg.Duration())

	// Streams open at stop time are flushed and closed here; pending
	// events (attacher retries included) were silently abandoned.
	var closeErr error
	for _, metric := range metrics.Metrics {
		res.Samples += streams[metric].Len()
	}
	closeErr = closeStreams(streams, log)

	res.AttachState = attacher.State()
	res.Sent = counters.Sent
	res.Received = counters.Received
	res.TotalRx = psink.TotalRx()

	if fatal != nil {
		return res, fatal
	}
	if closeErr != nil {
		return res, closeErr
	}
	if res.AttachState != trace.Attached {
		log.Warn("run finished without attached hooks; cwnd and rtt streams are zero-valued",
			"state", res.AttachState.String(), "attempts", attacher.Attempts())
	}
	log.Info("run finished", "sent", res.Sent, "received", res.Received,
		"rx_bytes", res.TotalRx, "samples", res.Samples)
	return res, nil
}

// Compare runs every configured protocol over one topology with the same
// seed, producing both file sets for the plotting step.
func (r *Runner) Compare(topoCfg config.TopologyConfig) ([]RunResult, error) {
	results := make([]RunResult, 0, len(netsim.Protocols))
	for _, protocol := range netsim.Protocols {
		res, err := r.Run(protocol, topoCfg)
		if err != nil {
			return results, fmt.Errorf("%s on %s: %w", protocol, topoCfg.Kind, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) emitFunc(res *RunResult) metrics.Emit {
	if r.rows == nil {
		return nil
	}
	return func(metric string, t time.Duration, v float64) {
		row := metrics.Row{
			RunID:     res.RunID,
			Protocol:  res.Protocol,
			Topology:  res.Topology,
			Metric:    metric,
			TimeSec:   t.Seconds(),
			Value:     v,
			Timestamp: r.now(),
		}
		if err := r.rows.Write(row); err != nil {
			r.log.Error("row export failed", "metric", metric, "err", err)
		}
	}
}

func closeStreams(streams map[string]*metrics.MetricStream, log *slog.Logger) error {
	var errs []error
	for _, st := range streams {
		if err := st.Close(); err != nil {
			log.Error("stream close failed", "metric", st.Metric(), "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
