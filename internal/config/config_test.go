package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
duration_sec: 10
segment_size: 1500
output_dir: out
topologies:
  - kind: p2p
    nodes: 3
    link:
      delay_ms: 2
      rate_mbps: 5
      loss: 0.01
sampling:
  metrics_interval_ms: 100
  loss_interval_ms: 1000
attach:
  retry_interval_ms: 100
  max_attempts: 0
`

const schemaCUE = `
duration_sec?: number & >=0
topologies?: [...{
	kind: "p2p" | "star" | "bus" | "ring" | "mesh"
	link: {
		delay_ms:  number & >=0
		rate_mbps: number & >0
		loss?:     number & >=0 & <1
	}
	...
}]
...
`

func TestLoadValid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "simulation.yaml", validYAML)
	schemaPath := writeFile(t, dir, "simulation.cue", schemaCUE)

	cfg, err := Load(cfgPath, schemaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Duration() != 10*time.Second {
		t.Fatalf("duration = %v, want 10s", cfg.Duration())
	}
	if cfg.Sampling.MetricsInterval() != 100*time.Millisecond {
		t.Fatalf("metrics interval = %v, want 100ms", cfg.Sampling.MetricsInterval())
	}
	if cfg.Sampling.LossInterval() != time.Second {
		t.Fatalf("loss interval = %v, want 1s", cfg.Sampling.LossInterval())
	}
	if len(cfg.Topologies) != 1 || cfg.Topologies[0].Kind != "p2p" {
		t.Fatalf("unexpected topologies: %+v", cfg.Topologies)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "simulation.yaml", "duration_sec: 5\n")

	cfg, err := Load(cfgPath, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SegmentSize != 1500 {
		t.Fatalf("segment size default = %d, want 1500", cfg.SegmentSize)
	}
	if cfg.Attach.RetryInterval() != 100*time.Millisecond {
		t.Fatalf("retry interval default = %v, want 100ms", cfg.Attach.RetryInterval())
	}
	if len(cfg.Topologies) != 1 {
		t.Fatalf("expected default topology, got %+v", cfg.Topologies)
	}
}

func TestLoadRejectsInvalidLink(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "simulation.yaml", `
topologies:
  - kind: p2p
    link:
      delay_ms: 2
      rate_mbps: 0
`)
	if _, err := Load(cfgPath, ""); err == nil {
		t.Fatal("zero rate_mbps must be rejected")
	}
}

func TestLoadRejectsNegativeIntervals(t *testing.T) {
	cases := map[string]string{
		"metrics": "sampling:\n  metrics_interval_ms: -100\n",
		"loss":    "sampling:\n  loss_interval_ms: -1\n",
		"retry":   "attach:\n  retry_interval_ms: -0.5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfgPath := writeFile(t, t.TempDir(), "simulation.yaml", body)
			if _, err := Load(cfgPath, ""); err == nil {
				t.Fatal("negative interval must be rejected without a schema")
			}
		})
	}
}

func TestSchemaRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "simulation.yaml", `
topologies:
  - kind: tree
    link:
      delay_ms: 2
      rate_mbps: 5
`)
	schemaPath := writeFile(t, dir, "simulation.cue", schemaCUE)
	if _, err := Load(cfgPath, schemaPath); err == nil {
		t.Fatal("schema must reject unknown topology kind")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("missing config must error")
	}
}
