// Package logging persists dispatcher run history for audit and diagnostics.
package logging

import (
	"context"
	"time"
)

// RunRecord captures one dispatcher run and its outcome.
type RunRecord struct {
	RunID      string         `json:"run_id"`
	Date       string         `json:"date"`
	Timestamp  time.Time      `json:"timestamp"`
	Assigned   int            `json:"assigned"`
	Unassigned int            `json:"unassigned"`
	Reassigned int            `json:"reassigned"`
	CalledIn   int            `json:"called_in"`
	Loads      map[string]int `json:"loads"`
	Capacities map[string]int `json:"capacities"`
}

// RunQuery defines filters for retrieving records.
type RunQuery struct {
	Start   time.Time
	End     time.Time
	StaffID string
}

// RunStore persists RunRecords and supports querying.
type RunStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}

// matches reports whether rec satisfies the query filters.
func matches(rec RunRecord, q RunQuery) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.StaffID != "" {
		if _, ok := rec.Loads[q.StaffID]; !ok {
			return false
		}
	}
	return true
}
