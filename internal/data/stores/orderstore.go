package stores

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/phase"
)

// OrderStore implements order.Repository in memory. It is the upstream
// collaborator the reconciler observes; hosts and tests seed it and
// move items between phases with SetPhase.
type OrderStore struct {
	mu     sync.RWMutex
	items  map[string]order.Item
	phases map[string]string
	dates  map[string]map[phase.TimelineReference]time.Time
	ref    phase.TimelineReference
}

var _ order.Repository = (*OrderStore)(nil)

// NewOrderStore creates an empty order store whose snapshots report the
// given timeline reference.
func NewOrderStore(ref phase.TimelineReference) *OrderStore {
	return &OrderStore{
		items:  make(map[string]order.Item),
		phases: make(map[string]string),
		dates:  make(map[string]map[phase.TimelineReference]time.Time),
		ref:    ref,
	}
}

// Put inserts or replaces an item together with its anchor dates.
func (s *OrderStore) Put(item order.Item, dates map[phase.TimelineReference]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	if _, ok := s.phases[item.ID]; !ok {
		s.phases[item.ID] = phase.Unknown
	}
	copied := make(map[phase.TimelineReference]time.Time, len(dates))
	for k, v := range dates {
		copied[k] = v
	}
	s.dates[item.ID] = copied
}

// SetPhase moves an item into a phase. Unknown item ids are ignored.
func (s *OrderStore) SetPhase(itemID, phaseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; ok {
		s.phases[itemID] = phaseID
	}
}

// Snapshot returns the current phase per item.
func (s *OrderStore) Snapshot(_ context.Context) (order.PhaseSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phases := make(map[string]string, len(s.phases))
	for id, p := range s.phases {
		phases[id] = p
	}
	return order.PhaseSnapshot{Phases: phases, TimelineReference: s.ref}, nil
}

// Item returns a single line item.
func (s *OrderStore) Item(_ context.Context, id string) (order.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return order.Item{}, fmt.Errorf("get item %s: %w", id, order.ErrNotFound)
	}
	if item.Tags != nil {
		item.Tags = append([]string(nil), item.Tags...)
	}
	return item, nil
}

// ReferenceDate resolves the named anchor date for an item.
func (s *OrderStore) ReferenceDate(_ context.Context, itemID string, ref phase.TimelineReference) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates, ok := s.dates[itemID]
	if !ok {
		return time.Time{}, false, nil
	}
	date, ok := dates[ref]
	return date, ok, nil
}

// TimetableYear returns the item's timetable-year label, if any.
func (s *OrderStore) TimetableYear(_ context.Context, itemID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok || item.TimetableYear == "" {
		return "", false
	}
	return item.TimetableYear, true
}
