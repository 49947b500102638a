package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileSink writes a stream as plain-text two-column lines, `<seconds>
// <value>`, the format the downstream plotting step reads.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

// NewFileSink creates (truncating) the sink file. Failure here is a fatal
// setup error for the run.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open metric sink: %w", err)
	}
	return &FileSink{f: f, w: bufio.NewWriter(f)}, nil
}

// StreamPath returns the conventional sink path for one metric of one
// protocol run, e.g. out/tcpcubic.cwnd.
func StreamPath(dir, protocol, metric string) string {
	return filepath.Join(dir, protocol+"."+metric)
}

// Append writes one line.
func (s *FileSink) Append(t time.Duration, v float64) error {
	_, err := s.w.WriteString(strconv.FormatFloat(t.Seconds(), 'g', -1, 64) +
		" " + strconv.FormatFloat(v, 'g', -1, 64) + "\n")
	return err
}

// Flush drains buffered lines to the file.
func (s *FileSink) Flush() error {
	return s.w.Flush()
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.f.Close()
}
