package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// Exporter renders audit entries for download.
type Exporter struct{}

// NewExporter constructs an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteCSV renders entries as CSV with a header row. Timestamps are RFC3339
// in UTC so exports sort and diff cleanly.
func (e *Exporter) WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "at", "action", "actor_id", "target_id", "resource_type", "resource_id", "club_id", "old_role", "new_role", "meta"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("audit: write csv header: %w", err)
	}
	for _, entry := range entries {
		var meta string
		if len(entry.Meta) > 0 {
			raw, err := json.Marshal(entry.Meta)
			if err != nil {
				return nil, fmt.Errorf("audit: encode meta: %w", err)
			}
			meta = string(raw)
		}
		record := []string{
			entry.ID.String(),
			entry.At.UTC().Format(time.RFC3339),
			entry.Action,
			entry.ActorID,
			entry.TargetID,
			entry.ResourceType,
			entry.ResourceID,
			entry.ClubID,
			entry.OldRole,
			entry.NewRole,
			meta,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("audit: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("audit: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
