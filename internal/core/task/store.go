package task

import "context"

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status Status
	Tag    string
}

// Store is the business-task collaborator the engine writes through.
// Implementations keep tasks in memory; durability is out of scope.
type Store interface {
	// Create persists a new task, generating an id if unset, and
	// returns the stored task.
	Create(ctx context.Context, t Task) (Task, error)

	// Get returns a task by id.
	// Returns ErrNotFound if the task does not exist.
	Get(ctx context.Context, id string) (Task, error)

	// List returns tasks matching the filter, ordered by due date
	// ascending (tasks without a due date last), then by creation time.
	List(ctx context.Context, filter ListFilter) ([]Task, error)

	// FindByTags returns the first task carrying every given tag.
	// The boolean reports whether a match was found.
	FindByTags(ctx context.Context, tags []string) (Task, bool, error)

	// SetLinkedItems replaces the task's linked item set.
	// Returns ErrNotFound if the task does not exist.
	SetLinkedItems(ctx context.Context, id string, itemIDs []string) error

	// SetStatus updates the task's lifecycle status.
	// Returns ErrNotFound if the task does not exist.
	SetStatus(ctx context.Context, id string, status Status) error
}
