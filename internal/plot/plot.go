package plot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"flowtrace-sim/internal/metrics"
)

// RenderDir charts every `<protocol>.<metric>` file found in dir, one
// chart per metric in metrics.Metrics order. A missing or underfilled
// file skips that single chart with a notice; the rest of the comparison
// still renders.
func RenderDir(dir string, protocols []string, width int) (string, error) {
	var b strings.Builder
	chart := Chart{Width: width}
	for _, protocol := range protocols {
		for _, metric := range metrics.Metrics {
			path := filepath.Join(dir, protocol+"."+metric)
			s, err := ReadSeries(path, protocol, metric)
			if err != nil {
				return "", err
			}
			if s == nil {
				note := fmt.Sprintf("skipping %s.%s: file missing", protocol, metric)
				b.WriteString(noteStyle.Render(wordwrap.String(note, width)) + "\n")
				continue
			}
			b.WriteString(chart.Render(s))
		}
	}
	return b.String(), nil
}
