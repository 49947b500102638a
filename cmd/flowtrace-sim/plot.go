package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowtrace-sim/internal/netsim"
	"flowtrace-sim/internal/plot"
)

var (
	plotDir       string
	plotProtocols []string
	plotWidth     int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render metric stream files as terminal charts",
	Long:  "plot reads the two-column stream files from a run directory and renders one chart per protocol and metric.",
	RunE: func(cmd *cobra.Command, args []string) error {
		width := plotWidth
		if width <= 0 {
			width = terminalWidth()
		}
		protocols := plotProtocols
		if len(protocols) == 0 {
			protocols = netsim.Protocols
		}
		out, err := plot.RenderDir(plotDir, protocols, width)
		if err != nil {
			return err
		}
		cmd.Print(out)
		return nil
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotDir, "dir", "out", "Directory containing <protocol>.<metric> stream files")
	plotCmd.Flags().StringSliceVar(&plotProtocols, "protocol", nil, "Protocols to chart (default: all)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 0, "Chart width in columns (default: terminal width)")
}

// terminalWidth falls back to 100 columns when STDOUT is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return 100
}
