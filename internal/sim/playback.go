package sim

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"flowtrace-sim/internal/logging"
	"flowtrace-sim/internal/metrics"
)

// ReplayLog replays sample rows from r to writer, pacing on simulation
// time. A speed > 0 accelerates playback; speed <= 0 inserts no delay.
// The logger travels in ctx; cancelling ctx stops playback between rows.
func ReplayLog(ctx context.Context, r io.Reader, writer metrics.SampleWriter, speed float64) error {
	log := logging.FromContext(ctx)
	dec := json.NewDecoder(r)
	var prev float64
	rows := 0
	for {
		var row metrics.Row
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				log.Info("replay finished", "rows", rows)
				return nil
			}
			return err
		}
		if rows > 0 && speed > 0 {
			diff := time.Duration((row.TimeSec - prev) * float64(time.Second))
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(diff):
				}
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		prev = row.TimeSec
		rows++
	}
}

// ReplayLogFile opens a file and replays its sample rows.
func ReplayLogFile(ctx context.Context, path string, writer metrics.SampleWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
