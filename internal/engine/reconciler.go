package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/logging"
	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/core/task"
	"github.com/railops/phaseline/pkg/randid"
)

// Summary counts the effects of one reconciliation pass.
type Summary struct {
	Observed    int `json:"observed"`
	Transitions int `json:"transitions"`
	Created     int `json:"created"`
	Linked      int `json:"linked"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}

// Reconciler observes the "current phase per item" snapshot and, on
// each edge-triggered phase change, creates a business task or attaches
// the item to an existing one.
//
// Windows are evaluated only at reconcile time. An item whose window
// opens and closes between two passes is never picked up; the host owns
// the scheduling policy and no timer re-arms missed windows.
type Reconciler struct {
	registry *Registry
	orders   order.Repository
	tasks    task.Store
	inst     *Instantiator
	execLog  *ExecutionLog
	bus      *eventbus.EventBus
	log      zerolog.Logger
	now      func() time.Time

	// mu serializes passes so no two reconciliations interleave; this
	// preserves the at-most-once-per-change guarantee in a concurrent
	// host. lastPhase is the only edge-detection state and is never
	// persisted: a restart re-evaluates every item once.
	mu        sync.Mutex
	lastPhase map[string]string
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	registry *Registry,
	orders order.Repository,
	tasks task.Store,
	inst *Instantiator,
	execLog *ExecutionLog,
	bus *eventbus.EventBus,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		registry:  registry,
		orders:    orders,
		tasks:     tasks,
		inst:      inst,
		execLog:   execLog,
		bus:       bus,
		log:       log.With().Str("component", "reconciler").Logger(),
		now:       time.Now,
		lastPhase: make(map[string]string),
	}
}

// ReconcileOnce processes the current phase snapshot to completion.
// Per-item failures never abort the pass; they are recorded as
// error-status audit entries and counted in the summary.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx = logging.WithPassID(ctx, randid.Generate(6))

	snap, err := r.orders.Snapshot(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("reconcile: snapshot: %w", err)
	}

	var sum Summary
	sum.Observed = len(snap.Phases)

	for itemID, newPhase := range snap.Phases {
		// Sentinel transitions are ignored and never recorded.
		if newPhase == phase.Unknown || newPhase == "" {
			continue
		}
		if r.lastPhase[itemID] == newPhase {
			continue
		}

		oldPhase := r.lastPhase[itemID]
		r.lastPhase[itemID] = newPhase
		sum.Transitions++

		r.bus.PublishPhaseTransition(eventbus.PhaseTransitionPayload{
			ItemID:   itemID,
			OldPhase: oldPhase,
			NewPhase: newPhase,
		})

		r.processTransition(ctx, itemID, newPhase, snap.TimelineReference, &sum)
	}

	r.log.Debug().
		Ctx(ctx).
		Int("observed", sum.Observed).
		Int("transitions", sum.Transitions).
		Int("created", sum.Created).
		Int("linked", sum.Linked).
		Msg("reconcile pass complete")

	return sum, nil
}

// Reset clears the edge-detection state so the next pass re-evaluates
// every item once.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.lastPhase = make(map[string]string)
	r.mu.Unlock()
}

// processTransition handles exactly one item's phase change. Panics and
// errors stay inside this item's boundary.
func (r *Reconciler) processTransition(ctx context.Context, itemID, newPhase string, ref phase.TimelineReference, sum *Summary) {
	ctx = logging.WithItemID(ctx, itemID)

	defer func() {
		if rec := recover(); rec != nil {
			sum.Errors++
			r.execLog.Append(Execution{
				TemplateID: newPhase,
				Status:     ExecError,
				Message:    fmt.Sprintf("processing item %s in phase %s panicked: %v", itemID, newPhase, rec),
			})
			r.log.Error().Ctx(ctx).Str("phase", newPhase).Interface("panic", rec).Msg("item processing panicked")
		}
	}()

	if err := r.processItem(ctx, itemID, newPhase, ref, sum); err != nil {
		sum.Errors++
		r.execLog.Append(Execution{
			TemplateID: newPhase,
			Status:     ExecError,
			Message:    fmt.Sprintf("processing item %s in phase %s failed: %v", itemID, newPhase, err),
		})
		r.log.Warn().Ctx(ctx).Err(err).Str("phase", newPhase).Msg("item processing failed")
	}
}

func (r *Reconciler) processItem(ctx context.Context, itemID, newPhase string, snapRef phase.TimelineReference, sum *Summary) error {
	def, err := r.registry.Get(newPhase)
	if err != nil {
		// No definition for this phase is an expected non-event.
		sum.Skipped++
		r.log.Debug().Ctx(ctx).Str("phase", newPhase).Msg("skip: no definition")
		return nil
	}

	if !r.registry.AutomationEnabled(newPhase) {
		sum.Skipped++
		r.log.Debug().Ctx(ctx).Str("phase", newPhase).Msg("skip: automation disabled")
		return nil
	}

	ref := def.TimelineReference
	if ref == "" {
		ref = snapRef
	}

	refDate, ok, err := r.orders.ReferenceDate(ctx, itemID, ref)
	if err != nil {
		return fmt.Errorf("resolve reference date: %w", err)
	}
	if !ok {
		sum.Skipped++
		r.log.Debug().Ctx(ctx).Str("ref", string(ref)).Msg("skip: no reference date")
		return nil
	}

	now := r.now()
	if !WithinWindow(def.Window, refDate, now) {
		sum.Skipped++
		r.log.Debug().Ctx(ctx).Str("phase", newPhase).Time("ref_date", refDate).Msg("skip: outside window")
		return nil
	}

	item, err := r.orders.Item(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}

	if !PassesConditions(def.Conditions, item, newPhase) {
		sum.Skipped++
		r.log.Debug().Ctx(ctx).Str("phase", newPhase).Msg("skip: conditions not met")
		return nil
	}

	bucketKey := BucketKey(def, refDate, item)
	templateTag := phase.TemplateTag(def.BlueprintID)
	bucketTag := phase.PhaseBucketTag(def.ID, bucketKey)

	existing, found, err := r.tasks.FindByTags(ctx, []string{templateTag, bucketTag})
	if err != nil {
		return fmt.Errorf("find task by tags: %w", err)
	}

	if found {
		if err := r.attach(ctx, existing, item); err != nil {
			return err
		}
		sum.Linked++
		return nil
	}

	created, err := r.inst.Instantiate(ctx, def.BlueprintID, InstantiateContext{
		TargetDate:    refDate,
		CustomTitle:   fmt.Sprintf("%s · %s", r.blueprintTitle(def.BlueprintID), def.Label),
		Tags:          []string{phase.PhaseTag(def.ID), bucketTag},
		LinkedItemIDs: []string{item.ID},
		CustomerID:    item.CustomerID,
	})
	if err != nil {
		return fmt.Errorf("instantiate blueprint %s: %w", def.BlueprintID, err)
	}

	sum.Created++
	r.execLog.Append(Execution{
		TemplateID: def.BlueprintID,
		Status:     ExecSuccess,
		Message:    fmt.Sprintf("created task %s for item %s entering phase %s (bucket %s)", created.ID, item.ID, def.ID, bucketKey),
	})
	return nil
}

// attach links the item to an existing task. Linking is idempotent.
func (r *Reconciler) attach(ctx context.Context, t task.Task, item order.Item) error {
	if t.HasLinkedItem(item.ID) {
		r.log.Debug().Ctx(ctx).Str("task", t.ID).Msg("item already linked")
		return nil
	}

	linked := append(append([]string(nil), t.LinkedItemIDs...), item.ID)
	if err := r.tasks.SetLinkedItems(ctx, t.ID, linked); err != nil {
		return fmt.Errorf("link item %s to task %s: %w", item.ID, t.ID, err)
	}

	r.bus.PublishTaskLinked(eventbus.TaskLinkedPayload{TaskID: t.ID, ItemID: item.ID})
	r.execLog.Append(Execution{
		TemplateID: firstTemplateTag(t.Tags),
		Status:     ExecSuccess,
		Message:    fmt.Sprintf("attached item %s to existing task %s", item.ID, t.ID),
	})
	return nil
}

func (r *Reconciler) blueprintTitle(blueprintID string) string {
	bp, err := r.registry.Blueprint(blueprintID)
	if err != nil {
		return blueprintID
	}
	return bp.Title
}

// firstTemplateTag extracts the blueprint id from a task's tags for
// audit attribution.
func firstTemplateTag(tags []string) string {
	for _, t := range tags {
		if len(t) > 4 && t[:4] == "tpl:" {
			return t[4:]
		}
	}
	return ""
}
