// Package stores provides the in-memory collaborator implementations
// the engine operates on. Stores follow a read-mostly, copy-on-write
// discipline: readers receive copies and writers mutate under a lock.
package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/railops/phaseline/internal/core/task"
	"github.com/railops/phaseline/pkg/randid"
)

// TaskStore implements task.Store in memory.
type TaskStore struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]task.Task
	now   func() time.Time
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates an empty in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]task.Task),
		now:   time.Now,
	}
}

// Create persists a new task. Generates an id if not set.
func (s *TaskStore) Create(_ context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = "tsk_" + randid.Generate(8)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Status == "" {
		t.Status = task.StatusOpen
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; ok {
		return task.Task{}, fmt.Errorf("create task: id %s already exists", t.ID)
	}
	s.order = append(s.order, t.ID)
	s.tasks[t.ID] = cloneTask(t)

	return t, nil
}

// Get returns a task by ID. Returns task.ErrNotFound if not found.
func (s *TaskStore) Get(_ context.Context, id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, fmt.Errorf("get task %s: %w", id, task.ErrNotFound)
	}
	return cloneTask(t), nil
}

// List returns tasks matching the filter, ordered by due date ascending
// (tasks without one last), then by creation time.
func (s *TaskStore) List(_ context.Context, filter task.ListFilter) ([]task.Task, error) {
	s.mu.RLock()
	out := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Tag != "" && !t.HasTag(filter.Tag) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case a.DueDate.Equal(*b.DueDate):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})

	return out, nil
}

// FindByTags returns the first task carrying every given tag. The scan
// is linear; tag-pair lookups are the engine's dedup contract.
func (s *TaskStore) FindByTags(_ context.Context, tags []string) (task.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		t := s.tasks[id]
		if hasAllTags(t, tags) {
			return cloneTask(t), true, nil
		}
	}
	return task.Task{}, false, nil
}

// SetLinkedItems replaces the task's linked item set.
func (s *TaskStore) SetLinkedItems(_ context.Context, id string, itemIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("set linked items of %s: %w", id, task.ErrNotFound)
	}
	t.LinkedItemIDs = append([]string(nil), itemIDs...)
	s.tasks[id] = t
	return nil
}

// SetStatus updates the task's lifecycle status.
func (s *TaskStore) SetStatus(_ context.Context, id string, status task.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("set status of %s: %w", id, task.ErrNotFound)
	}
	t.Status = status
	s.tasks[id] = t
	return nil
}

func hasAllTags(t task.Task, tags []string) bool {
	for _, want := range tags {
		if !t.HasTag(want) {
			return false
		}
	}
	return len(tags) > 0
}

func cloneTask(t task.Task) task.Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.LinkedItemIDs != nil {
		out.LinkedItemIDs = append([]string(nil), t.LinkedItemIDs...)
	}
	return out
}
