// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LinkConfig defines the uniform per-link characteristics of a topology.
type LinkConfig struct {
	DelayMs   float64 `yaml:"delay_ms"`
	RateMbps  float64 `yaml:"rate_mbps"`
	Loss      float64 `yaml:"loss"`
	QueuePkts int     `yaml:"queue_pkts"`
}

// Delay returns the link delay as a duration.
func (l LinkConfig) Delay() time.Duration {
	return time.Duration(l.DelayMs * float64(time.Millisecond))
}

// TopologyConfig defines one topology to simulate.
type TopologyConfig struct {
	Kind  string     `yaml:"kind"`
	Nodes int        `yaml:"nodes"`
	Link  LinkConfig `yaml:"link"`
}

// SamplingConfig sets the periodic sampler cadences.
type SamplingConfig struct {
	MetricsIntervalMs float64 `yaml:"metrics_interval_ms"`
	LossIntervalMs    float64 `yaml:"loss_interval_ms"`
}

// MetricsInterval returns the metric sampler period.
func (s SamplingConfig) MetricsInterval() time.Duration {
	return time.Duration(s.MetricsIntervalMs * float64(time.Millisecond))
}

// LossInterval returns the loss sampler period.
func (s SamplingConfig) LossInterval() time.Duration {
	return time.Duration(s.LossIntervalMs * float64(time.Millisecond))
}

// AttachConfig bounds the hook-attachment retry loop.
type AttachConfig struct {
	RetryIntervalMs float64 `yaml:"retry_interval_ms"`
	MaxAttempts     uint32  `yaml:"max_attempts"` // 0: bounded by stop time only
}

// RetryInterval returns the retry period.
func (a AttachConfig) RetryInterval() time.Duration {
	return time.Duration(a.RetryIntervalMs * float64(time.Millisecond))
}

// SimulationConfig is the root configuration for one comparison run.
type SimulationConfig struct {
	DurationSec float64          `yaml:"duration_sec"`
	SegmentSize uint32           `yaml:"segment_size"`
	AppStartMs  float64          `yaml:"app_start_ms"`
	Seed        int64            `yaml:"seed"`
	OutputDir   string           `yaml:"output_dir"`
	Topologies  []TopologyConfig `yaml:"topologies"`
	Sampling    SamplingConfig   `yaml:"sampling"`
	Attach      AttachConfig     `yaml:"attach"`
}

// Duration returns the simulation stop time.
func (c *SimulationConfig) Duration() time.Duration {
	return time.Duration(c.DurationSec * float64(time.Second))
}

// AppStart returns the application start time.
func (c *SimulationConfig) AppStart() time.Duration {
	return time.Duration(c.AppStartMs * float64(time.Millisecond))
}

// Load loads YAML config and validates it against a CUE schema. An empty
// cueSchemaPath skips schema validation.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *SimulationConfig) {
	if cfg.DurationSec == 0 {
		cfg.DurationSec = 100
	}
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = 1500
	}
	if cfg.AppStartMs == 0 {
		cfg.AppStartMs = 10
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "out"
	}
	if cfg.Sampling.MetricsIntervalMs == 0 {
		cfg.Sampling.MetricsIntervalMs = 100
	}
	if cfg.Sampling.LossIntervalMs == 0 {
		cfg.Sampling.LossIntervalMs = cfg.Sampling.MetricsIntervalMs
	}
	if cfg.Attach.RetryIntervalMs == 0 {
		cfg.Attach.RetryIntervalMs = 100
	}
	if len(cfg.Topologies) == 0 {
		cfg.Topologies = []TopologyConfig{{
			Kind:  "p2p",
			Nodes: 3,
			Link:  LinkConfig{DelayMs: 2, RateMbps: 5},
		}}
	}
}

func check(cfg *SimulationConfig) error {
	if cfg.DurationSec < 0 {
		return fmt.Errorf("duration_sec must be non-negative, got %v", cfg.DurationSec)
	}
	// Negative periods survive applyDefaults (it only fills zeros) and a
	// self-rescheduling sampler with one would respin at a single
	// timestamp forever.
	if cfg.Sampling.MetricsIntervalMs <= 0 {
		return fmt.Errorf("sampling.metrics_interval_ms must be positive, got %v", cfg.Sampling.MetricsIntervalMs)
	}
	if cfg.Sampling.LossIntervalMs <= 0 {
		return fmt.Errorf("sampling.loss_interval_ms must be positive, got %v", cfg.Sampling.LossIntervalMs)
	}
	if cfg.Attach.RetryIntervalMs <= 0 {
		return fmt.Errorf("attach.retry_interval_ms must be positive, got %v", cfg.Attach.RetryIntervalMs)
	}
	for i, topo := range cfg.Topologies {
		if topo.Link.RateMbps <= 0 {
			return fmt.Errorf("topologies[%d]: rate_mbps must be positive", i)
		}
		if topo.Link.Loss < 0 || topo.Link.Loss >= 1 {
			return fmt.Errorf("topologies[%d]: loss %v outside [0,1)", i, topo.Link.Loss)
		}
	}
	return nil
}
