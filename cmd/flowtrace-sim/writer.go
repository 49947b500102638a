package main

import (
	"log/slog"
	"os"

	"flowtrace-sim/internal/metrics"
)

// newSampleWriter sets up the sample row writer based on flags and env
// vars. It returns the writer and a cleanup function to close any
// resources.
func newSampleWriter(printOnly bool, logFile string) (metrics.SampleWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(printOnly)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	jw, err := metrics.NewJSONLWriter(logFile)
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { jw.Close() }
	return metrics.NewMultiWriter(writer, jw), cleanup, nil
}

// baseWriter chooses the underlying writer based on the printOnly flag
// and env vars.
func baseWriter(printOnly bool) (metrics.SampleWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		return &metrics.StdoutWriter{}, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	table := os.Getenv("GREPTIMEDB_TABLE")
	if table == "" {
		table = "flow_samples"
	}
	return metrics.NewGreptimeWriter(endpoint, "public", table)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
