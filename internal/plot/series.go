// Two-column time-series reader for the metric stream files
package plot

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Point is one (time, value) pair read back from a stream file.
type Point struct {
	T float64
	V float64
}

// Series is the parsed content of one metric stream file.
type Series struct {
	Protocol string
	Metric   string
	Points   []Point
}

// Plottable reports whether the series has enough data for a line chart.
// Empty and single-point files are skipped, never treated as errors.
func (s *Series) Plottable() bool {
	return s != nil && len(s.Points) >= 2
}

// ReadSeries parses a `<protocol>.<metric>` stream file. A missing file
// yields a nil series and no error; malformed lines are errors, since the
// samplers never produce them.
func ReadSeries(path, protocol, metric string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	s := &Series{Protocol: protocol, Metric: metric}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected two columns, got %q", path, line, text)
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad time: %w", path, line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad value: %w", path, line, err)
		}
		if n := len(s.Points); n > 0 && t < s.Points[n-1].T {
			return nil, fmt.Errorf("%s:%d: time %v regresses", path, line, t)
		}
		s.Points = append(s.Points, Point{T: t, V: v})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
