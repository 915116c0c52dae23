package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/core/task"
	"github.com/railops/phaseline/pkg/tmpl"
)

// InstantiateContext carries the per-instantiation inputs.
type InstantiateContext struct {
	// TargetDate anchors the due-date computation. Zero means now.
	TargetDate time.Time
	// CustomTitle overrides the blueprint title when non-empty (trimmed).
	CustomTitle string
	// Note is appended to the description as a formatted block.
	Note string
	// Tags are merged into the blueprint's tag set.
	Tags []string
	// LinkedItemIDs seed the task's linked item set.
	LinkedItemIDs []string
	// CustomerID attributes the task to a customer, if known.
	CustomerID string
}

// Instantiator turns a blueprint plus context into a persisted business
// task and fires the rule engine for the blueprint.
type Instantiator struct {
	registry *Registry
	tasks    task.Store
	rules    *RuleEngine
	bus      *eventbus.EventBus
	log      zerolog.Logger
	now      func() time.Time
}

// NewInstantiator creates an Instantiator.
func NewInstantiator(registry *Registry, tasks task.Store, rules *RuleEngine, bus *eventbus.EventBus, log zerolog.Logger) *Instantiator {
	return &Instantiator{
		registry: registry,
		tasks:    tasks,
		rules:    rules,
		bus:      bus,
		log:      log.With().Str("component", "instantiator").Logger(),
		now:      time.Now,
	}
}

// Instantiate creates a business task from a blueprint.
// Returns task.ErrBlueprintNotFound for unknown blueprint ids.
func (i *Instantiator) Instantiate(ctx context.Context, blueprintID string, ic InstantiateContext) (task.Task, error) {
	bp, err := i.registry.Blueprint(blueprintID)
	if err != nil {
		return task.Task{}, fmt.Errorf("instantiate: %w", err)
	}

	target := ic.TargetDate
	if target.IsZero() {
		target = i.now()
	}
	due := target.AddDate(0, 0, bp.DueRule.OffsetDays)

	title := strings.TrimSpace(ic.CustomTitle)
	if title == "" {
		title = bp.Title
	}

	description := bp.Description + tmpl.NoteBlock(ic.Note)

	created, err := i.tasks.Create(ctx, task.Task{
		Title:         title,
		Description:   description,
		DueDate:       &due,
		Status:        task.StatusOpen,
		Assignment:    bp.RecommendedAssignment,
		CustomerID:    ic.CustomerID,
		Tags:          mergeTags(bp.Tags, ic.Tags, phase.TemplateTag(blueprintID)),
		LinkedItemIDs: append([]string(nil), ic.LinkedItemIDs...),
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("instantiate %s: %w", blueprintID, err)
	}

	i.log.Info().
		Str("blueprint", blueprintID).
		Str("task", created.ID).
		Time("due", due).
		Msg("task instantiated")

	i.bus.PublishTaskCreated(eventbus.TaskCreatedPayload{Task: &created, BlueprintID: blueprintID})
	i.rules.TriggerForTemplate(ctx, blueprintID, created.ID, TriggerOptions{LinkedItemIDs: created.LinkedItemIDs})

	return created, nil
}

// mergeTags unions tag sets, deduplicating exact matches, and returns a
// sorted slice so task tags are stable across runs.
func mergeTags(base, extra []string, ensure string) []string {
	set := map[string]bool{ensure: true}
	for _, t := range base {
		if t != "" {
			set[t] = true
		}
	}
	for _, t := range extra {
		if t != "" {
			set[t] = true
		}
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
