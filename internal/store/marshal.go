package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// marshalPath serializes a hierarchy path to its JSON column form.
// A nil path is stored as "[]" so scans never see NULL.
func marshalPath(path []string) (string, error) {
	if path == nil {
		path = []string{}
	}
	data, err := json.Marshal(path)
	if err != nil {
		return "", fmt.Errorf("marshal hierarchy path: %w", err)
	}
	return string(data), nil
}

// unmarshalPath deserializes the hierarchy path JSON column.
func unmarshalPath(data string) ([]string, error) {
	var path []string
	if err := json.Unmarshal([]byte(data), &path); err != nil {
		return nil, fmt.Errorf("unmarshal hierarchy path: %w", err)
	}
	return path, nil
}

// nullTime converts an optional timestamp to its column form.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// timePtr converts a scanned nullable column back to an optional
// timestamp, normalized to UTC.
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
