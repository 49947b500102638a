package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowtrace-sim",
	Short: "Congestion trace simulation toolkit",
	Long:  "flowtrace-sim simulates TCP CUBIC and QUIC BBR flows over configurable topologies and records per-metric trace streams.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(replayCmd)
}
