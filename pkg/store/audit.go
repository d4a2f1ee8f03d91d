package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry is one row of the audit_log table, grounded on spec.md §6's
// audit_log schema: (ts, actor, event_type, data).
type AuditEntry struct {
	Timestamp time.Time
	Actor     string
	EventType string
	Data      map[string]any
}

// RecordAudit appends one audit log entry.
func (s *Store) RecordAudit(ctx context.Context, actor, eventType string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal audit data: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_log (actor, event_type, data) VALUES ($1, $2, $3)`,
		actor, eventType, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListAuditLog returns the most recent limit audit entries, newest first.
func (s *Store) ListAuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ts, actor, event_type, data FROM audit_log ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var raw []byte
		if err := rows.Scan(&e.Timestamp, &e.Actor, &e.EventType, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit data: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
