package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowtrace-sim/internal/logging"
	"flowtrace-sim/internal/metrics"
	"flowtrace-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayTUI       bool
	replayLogLevel  string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a sample log file",
	Long:  "replay feeds sample rows from a JSONL log back into GreptimeDB, STDOUT, or an interactive viewer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}

		var writer metrics.SampleWriter
		if replayTUI {
			tw := sim.NewTUIWriter(nil)
			defer tw.Close()
			writer = tw
		} else {
			w, err := baseWriter(replayPrintOnly)
			if err != nil {
				return err
			}
			writer = w
		}
		ctx := logging.NewContext(cmd.Context(), logging.New(parseLevel(replayLogLevel)))
		return sim.ReplayLogFile(ctx, replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to sample log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print sample rows to STDOUT instead of writing to DB")
	replayCmd.Flags().BoolVar(&replayTUI, "tui", false, "Render playback in an interactive viewer")
	replayCmd.Flags().StringVar(&replayLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	replayCmd.MarkFlagRequired("input")
}
