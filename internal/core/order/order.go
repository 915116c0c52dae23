// Package order defines transport-order line items and the read-only
// repository interface the engine observes.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/railops/phaseline/internal/core/phase"
)

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("order item not found")

// Item is one line item of a transport order. The engine only reads
// items; ownership stays with the order collaborator.
type Item struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id,omitempty"`
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	CustomerID     string    `json:"customer_id,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	TimetablePhase string    `json:"timetable_phase,omitempty"`
	TimetableYear  string    `json:"timetable_year,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasTag reports whether the item carries the tag, case-insensitively.
func (i Item) HasTag(tag string) bool {
	for _, have := range i.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// PhaseSnapshot is the upstream "current phase per item" signal the
// reconciler diffs against its private state.
type PhaseSnapshot struct {
	// Phases maps item id to current phase id. Items may report
	// phase.Unknown; the reconciler ignores those entries.
	Phases map[string]string
	// TimelineReference is the anchor the snapshot was computed for.
	TimelineReference phase.TimelineReference
}

// Repository is the order collaborator. Implementations are in-memory;
// the engine never writes through this interface.
type Repository interface {
	// Snapshot returns the current phase per item.
	Snapshot(ctx context.Context) (PhaseSnapshot, error)

	// Item returns a single line item.
	// Returns ErrNotFound if the item does not exist.
	Item(ctx context.Context, id string) (Item, error)

	// ReferenceDate resolves the named anchor date for an item. The
	// boolean reports whether the item has that anchor at all.
	ReferenceDate(ctx context.Context, itemID string, ref phase.TimelineReference) (time.Time, bool, error)

	// TimetableYear returns the item's timetable-year label, if any.
	TimetableYear(ctx context.Context, itemID string) (string, bool)
}
