package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecStatus classifies an execution-log entry.
type ExecStatus string

const (
	ExecSuccess ExecStatus = "success"
	ExecWarning ExecStatus = "warning"
	ExecError   ExecStatus = "error"
)

// Execution is one append-only audit record. Entries written by the
// reconciler carry an empty RuleID.
type Execution struct {
	ID         string     `json:"id"`
	RuleID     string     `json:"rule_id,omitempty"`
	TemplateID string     `json:"template_id"`
	Status     ExecStatus `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	Message    string     `json:"message"`
}

// DefaultExecutionLogCap bounds the audit log when no cap is configured.
const DefaultExecutionLogCap = 200

// ExecutionLog is a bounded, append-only audit log. When the cap is
// reached the oldest entries are evicted first.
type ExecutionLog struct {
	mu      sync.RWMutex
	cap     int
	entries []Execution
	now     func() time.Time
}

// NewExecutionLog creates a log retaining at most cap entries.
// A cap of zero or less uses DefaultExecutionLogCap.
func NewExecutionLog(cap int) *ExecutionLog {
	if cap <= 0 {
		cap = DefaultExecutionLogCap
	}
	return &ExecutionLog{cap: cap, now: time.Now}
}

// Append stores the entry, filling in the id and timestamp when unset,
// and returns the stored record.
func (l *ExecutionLog) Append(e Execution) Execution {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.cap; over > 0 {
		l.entries = append([]Execution(nil), l.entries[over:]...)
	}
	l.mu.Unlock()

	return e
}

// Entries returns a copy of the log, newest first.
func (l *ExecutionLog) Entries() []Execution {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Execution, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// Len returns the number of retained entries.
func (l *ExecutionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
