package main

import (
	"github.com/spf13/cobra"

	"flowtrace-sim/internal/config"
	"flowtrace-sim/internal/logging"
	"flowtrace-sim/internal/netsim"
	"flowtrace-sim/internal/plot"
	"flowtrace-sim/internal/sim"
)

var (
	cmpConfigPath string
	cmpSchemaPath string
	cmpTopology   string
	cmpDuration   float64
	cmpInterval   float64
	cmpOutputDir  string
	cmpPrintOnly  bool
	cmpLogFile    string
	cmpLogLevel   string
	cmpPlot       bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run both protocols over one topology",
	Long:  "compare runs tcpcubic and quicbbr with the same seed and topology, producing both metric file sets for side-by-side analysis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmpConfigPath, cmpSchemaPath)
		if err != nil {
			return err
		}
		applyOverrides(cfg, cmpDuration, cmpInterval, cmpOutputDir)

		topo, err := selectTopology(cfg, cmpTopology)
		if err != nil {
			return err
		}

		writer, cleanup, err := newSampleWriter(cmpPrintOnly, cmpLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		log := logging.New(parseLevel(cmpLogLevel))
		runner := sim.NewRunner(cfg, log, writer)
		results, err := runner.Compare(topo)
		if err != nil {
			return err
		}
		for _, res := range results {
			printSummary(cmd, res)
		}

		if cmpPlot {
			out, err := plot.RenderDir(cfg.OutputDir, netsim.Protocols, terminalWidth())
			if err != nil {
				return err
			}
			cmd.Print(out)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&cmpConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	compareCmd.Flags().StringVar(&cmpSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	compareCmd.Flags().StringVar(&cmpTopology, "topology", "", "Topology kind from the config (default: first configured)")
	compareCmd.Flags().Float64Var(&cmpDuration, "duration", 0, "Override simulation duration in seconds")
	compareCmd.Flags().Float64Var(&cmpInterval, "interval", 0, "Override metric sampling interval in milliseconds")
	compareCmd.Flags().StringVar(&cmpOutputDir, "output", "", "Override output directory for stream files")
	compareCmd.Flags().BoolVar(&cmpPrintOnly, "print-only", false, "Print sample rows to STDOUT instead of writing to DB")
	compareCmd.Flags().StringVar(&cmpLogFile, "log-file", "", "Path to export sample rows (JSONL)")
	compareCmd.Flags().StringVar(&cmpLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	compareCmd.Flags().BoolVar(&cmpPlot, "plot", false, "Render comparison charts after the runs")
}
