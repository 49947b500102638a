package metrics

import (
	"encoding/json"
	"os"
)

// JSONLWriter logs sample rows to a JSONL file, the format the replay
// command reads back.
type JSONLWriter struct {
	f   *os.File
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONLWriter.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONLWriter{f: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single row.
func (w *JSONLWriter) Write(row Row) error {
	return w.enc.Encode(row)
}

// WriteBatch logs multiple rows.
func (w *JSONLWriter) WriteBatch(rows []Row) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (w *JSONLWriter) Close() error {
	return w.f.Close()
}
