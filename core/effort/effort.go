// Package effort maps cleaning-type tags to estimated minutes of work.
package effort

import "sync"

// DefaultMinutes is the estimate for any cleaning type absent from the table.
const DefaultMinutes = 30

// Estimator resolves a cleaning type to estimated minutes.
type Estimator interface {
	Estimate(cleaningType string) int
}

// Table is a mutable cleaning-type effort table safe for concurrent use.
// The record system edits it through Set; the forecaster and dispatcher only
// read it.
type Table struct {
	mu      sync.RWMutex
	minutes map[string]int
}

// NewTable creates a table pre-loaded with the given estimates.
func NewTable(minutes map[string]int) *Table {
	t := &Table{minutes: make(map[string]int, len(minutes))}
	for k, v := range minutes {
		t.minutes[k] = v
	}
	return t
}

// Estimate returns the configured minutes for the cleaning type, or
// DefaultMinutes when the type is not in the table.
func (t *Table) Estimate(cleaningType string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.minutes[cleaningType]; ok {
		return m
	}
	return DefaultMinutes
}

// Set inserts or updates the estimate for a cleaning type.
func (t *Table) Set(cleaningType string, minutes int) {
	t.mu.Lock()
	t.minutes[cleaningType] = minutes
	t.mu.Unlock()
}
