// Metric sample types with greptime tags
package metrics

import "time"

// Metric names, one output stream per metric per protocol run.
const (
	MetricCwnd       = "cwnd"
	MetricRtt        = "rtt"
	MetricThroughput = "throughput"
	MetricPacketLoss = "packetloss"
)

// Metrics lists every stream a protocol run produces.
var Metrics = []string{MetricCwnd, MetricRtt, MetricThroughput, MetricPacketLoss}

// Sample is one (simulation time, value) measurement. Immutable once
// appended to a stream.
type Sample struct {
	T time.Duration
	V float64
}

// Row is the export form of a sample, carrying run identity for the JSONL
// log and database writers.
type Row struct {
	RunID     string    `json:"run_id"`   // TAG
	Protocol  string    `json:"protocol"` // TAG
	Topology  string    `json:"topology"` // TAG
	Metric    string    `json:"metric"`   // TAG
	TimeSec   float64   `json:"time_sec"` // FIELD, simulation time
	Value     float64   `json:"value"`    // FIELD
	Timestamp time.Time `json:"ts"`       // TIME INDEX, wall clock at write
}
