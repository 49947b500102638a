package metrics

import (
	"context"
	"log"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// ingestClient abstracts the GreptimeDB ingester client for testing.
type ingestClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeWriter writes sample rows to GreptimeDB via the ingester client.
type GreptimeWriter struct {
	client ingestClient
	table  string
}

// NewGreptimeWriter creates a GreptimeDB writer. tableName may be empty to
// use the default name.
func NewGreptimeWriter(host, database, tableName string) (*GreptimeWriter, error) {
	if tableName == "" {
		tableName = "flow_samples"
	}

	client, err := greptime.NewClient(greptime.NewConfig(host).WithDatabase(database))
	if err != nil {
		return nil, err
	}

	return &GreptimeWriter{
		client: client,
		table:  tableName,
	}, nil
}

// Write inserts a single sample row.
func (w *GreptimeWriter) Write(row Row) error {
	return w.WriteBatch([]Row{row})
}

// WriteBatch inserts multiple sample rows.
func (w *GreptimeWriter) WriteBatch(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("protocol", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("topology", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("metric", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("time_sec", types.FLOAT); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("value", types.FLOAT); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Protocol, r.Topology, r.Metric, r.TimeSec, r.Value, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		log.Printf("[GreptimeWriter] Write failed: %v", err)
		return err
	}

	return nil
}
