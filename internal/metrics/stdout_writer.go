// Writer implementation printing sample rows to STDOUT
package metrics

import (
	"encoding/json"
	"fmt"
)

// StdoutWriter prints sample rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// Write outputs a single row.
func (w *StdoutWriter) Write(row Row) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple rows.
func (w *StdoutWriter) WriteBatch(rows []Row) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}
