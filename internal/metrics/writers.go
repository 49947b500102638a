// Writer interfaces for exported sample rows
package metrics

// SampleWriter is an interface to support different row outputs besides
// the per-metric stream files.
type SampleWriter interface {
	Write(Row) error
}

// Optional: writers can also support batch mode.
type batchSampleWriter interface {
	WriteBatch([]Row) error
}

// MultiWriter fans sample rows out to multiple writers.
type MultiWriter struct {
	writers []SampleWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...SampleWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a row to all writers.
func (mw *MultiWriter) Write(row Row) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []Row) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchSampleWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}
