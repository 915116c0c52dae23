// Package task defines business tasks (follow-up work items), the
// reusable blueprints they are instantiated from, and the store
// interface the engine writes through.
package task

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrBlueprintNotFound is returned when instantiating an unknown blueprint.
	ErrBlueprintNotFound = errors.New("task blueprint not found")
)

// Status is the lifecycle state of a business task.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusDismissed  Status = "dismissed"
)

// Task is a unit of follow-up work created or linked by the engine.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Status        Status     `json:"status"`
	Assignment    string     `json:"assignment,omitempty"`
	CustomerID    string     `json:"customer_id,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	LinkedItemIDs []string   `json:"linked_item_ids,omitempty"`
}

// HasTag reports whether the task carries the given tag (exact match).
func (t Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// HasLinkedItem reports whether the item is already linked to the task.
func (t Task) HasLinkedItem(itemID string) bool {
	for _, have := range t.LinkedItemIDs {
		if have == itemID {
			return true
		}
	}
	return false
}

// DueRule computes a task's due date relative to a target date.
type DueRule struct {
	Anchor     string `yaml:"anchor" json:"anchor"`
	OffsetDays int    `yaml:"offset_days" json:"offset_days"`
	Label      string `yaml:"label" json:"label"`
}

// Step is one suggested work step inside a blueprint.
type Step struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Blueprint is a reusable task blueprint. Blueprints are owned by the
// registry and referenced by id from phase definitions and automation
// rules.
type Blueprint struct {
	ID                    string            `yaml:"id" json:"id"`
	Title                 string            `yaml:"title" json:"title"`
	Description           string            `yaml:"description" json:"description"`
	Instructions          string            `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	Tags                  []string          `yaml:"tags" json:"tags"`
	Category              string            `yaml:"category" json:"category"`
	RecommendedAssignment string            `yaml:"assignment" json:"assignment"`
	DueRule               DueRule           `yaml:"due" json:"due"`
	DefaultLeadTimeDays   int               `yaml:"lead_time_days" json:"lead_time_days"`
	Steps                 []Step            `yaml:"steps,omitempty" json:"steps,omitempty"`
	ParameterHints        map[string]string `yaml:"parameter_hints,omitempty" json:"parameter_hints,omitempty"`
}

// Clone returns a deep copy so registry snapshots stay immutable.
func (b Blueprint) Clone() Blueprint {
	out := b
	if b.Tags != nil {
		out.Tags = append([]string(nil), b.Tags...)
	}
	if b.Steps != nil {
		out.Steps = append([]Step(nil), b.Steps...)
	}
	if b.ParameterHints != nil {
		out.ParameterHints = make(map[string]string, len(b.ParameterHints))
		for k, v := range b.ParameterHints {
			out.ParameterHints[k] = v
		}
	}
	return out
}
