package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/eventbus/testbus"
	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/core/task"
	"github.com/railops/phaseline/internal/data/stores"
)

type reconcilerFixture struct {
	rec      *Reconciler
	registry *Registry
	orders   *stores.OrderStore
	tasks    *stores.TaskStore
	execLog  *ExecutionLog
	bus      *testbus.Bus
	now      time.Time
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bus := testbus.New(t)
	orders := stores.NewOrderStore(phase.RefServiceStart)
	tasks := stores.NewTaskStore()
	registry := NewRegistry(zerolog.Nop())
	execLog := NewExecutionLog(0)
	rules := NewRuleEngine(execLog, bus.EventBus, zerolog.Nop())
	rules.now = clock
	inst := NewInstantiator(registry, tasks, rules, bus.EventBus, zerolog.Nop())
	inst.now = clock
	rec := NewReconciler(registry, orders, tasks, inst, execLog, bus.EventBus, zerolog.Nop())
	rec.now = clock

	return &reconcilerFixture{
		rec:      rec,
		registry: registry,
		orders:   orders,
		tasks:    tasks,
		execLog:  execLog,
		bus:      bus,
		now:      now,
	}
}

// addItem seeds an item whose service start is 10 days in the past,
// which puts it inside the built-in short_term window (days -30..-7).
func (f *reconcilerFixture) addItem(id string) {
	f.orders.Put(
		order.Item{ID: id, Title: "Item " + id, Type: "train_path", CustomerID: "cus-1"},
		map[phase.TimelineReference]time.Time{
			phase.RefServiceStart: f.now.AddDate(0, 0, -10).Truncate(24 * time.Hour),
		},
	)
}

func (f *reconcilerFixture) taskCount(t *testing.T) int {
	t.Helper()
	list, err := f.tasks.List(context.Background(), task.ListFilter{})
	require.NoError(t, err)
	return len(list)
}

func TestReconciler_CreatesTaskOnTransition(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-1")
	f.orders.SetPhase("itm-1", "short_term")

	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Observed)
	assert.Equal(t, 1, sum.Transitions)
	assert.Equal(t, 1, sum.Created)
	assert.Zero(t, sum.Errors)

	list, err := f.tasks.List(context.Background(), task.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	created := list[0]
	assert.Equal(t, "File short-term path request · Short-Term Request", created.Title)
	assert.Equal(t, []string{"itm-1"}, created.LinkedItemIDs)
	assert.Equal(t, "cus-1", created.CustomerID)
	assert.Contains(t, created.Tags, "tpl:tpl-short-term")
	assert.Contains(t, created.Tags, "phase:short_term")
	assert.Contains(t, created.Tags, "phase:short_term:bucket:2025-05-22")

	require.NotNil(t, created.DueDate)
	assert.Equal(t, time.Date(2025, 5, 27, 0, 0, 0, 0, time.UTC), *created.DueDate)

	entries := f.execLog.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ExecSuccess, entries[0].Status)
	assert.Contains(t, entries[0].Message, "itm-1")

	f.bus.AssertPublished(t, eventbus.EventPhaseTransition)
	f.bus.AssertPublished(t, eventbus.EventTaskCreated)
}

func TestReconciler_SecondPassIsNoOp(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-1")
	f.orders.SetPhase("itm-1", "short_term")

	_, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)

	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Transitions)
	assert.Zero(t, sum.Created)
	assert.Equal(t, 1, f.taskCount(t))
}

func TestReconciler_DeduplicatesByBucket(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-1")
	f.addItem("itm-2")
	f.orders.SetPhase("itm-1", "short_term")

	_, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)

	f.orders.SetPhase("itm-2", "short_term")
	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Created)
	assert.Equal(t, 1, sum.Linked)

	list, err := f.tasks.List(context.Background(), task.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.ElementsMatch(t, []string{"itm-1", "itm-2"}, list[0].LinkedItemIDs)

	f.bus.AssertPublished(t, eventbus.EventTaskLinked)
}

func TestReconciler_DisabledPhaseIsSilent(t *testing.T) {
	t.Run("automation override off", func(t *testing.T) {
		f := newReconcilerFixture(t)
		require.NoError(t, f.registry.SetAutomationEnabled("short_term", false))
		f.addItem("itm-1")
		f.orders.SetPhase("itm-1", "short_term")

		sum, err := f.rec.ReconcileOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Skipped)
		assert.Zero(t, f.taskCount(t))
		assert.Zero(t, f.execLog.Len(), "disabled phases leave no audit trace")
	})

	t.Run("autoCreate false by definition", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.orders.Put(
			order.Item{ID: "itm-1", Title: "Study item", Type: "train_path"},
			map[phase.TimelineReference]time.Time{phase.RefOrderCreated: f.now.AddDate(0, 0, -3)},
		)
		f.orders.SetPhase("itm-1", "feasibility_study")

		sum, err := f.rec.ReconcileOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Skipped)
		assert.Zero(t, f.taskCount(t))
		assert.Zero(t, f.execLog.Len())
	})
}

func TestReconciler_Skips(t *testing.T) {
	t.Run("outside window", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.orders.Put(
			order.Item{ID: "itm-1", Title: "Far out", Type: "train_path"},
			map[phase.TimelineReference]time.Time{phase.RefServiceStart: f.now.AddDate(0, 0, -60)},
		)
		f.orders.SetPhase("itm-1", "short_term")

		sum, err := f.rec.ReconcileOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Transitions)
		assert.Equal(t, 1, sum.Skipped)
		assert.Zero(t, f.taskCount(t))
	})

	t.Run("no reference date", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.orders.Put(order.Item{ID: "itm-1", Title: "Dateless", Type: "train_path"}, nil)
		f.orders.SetPhase("itm-1", "short_term")

		sum, err := f.rec.ReconcileOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Skipped)
		assert.Zero(t, f.taskCount(t))
	})

	t.Run("phase without definition", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.addItem("itm-1")
		f.orders.SetPhase("itm-1", "mystery_phase")

		sum, err := f.rec.ReconcileOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Transitions)
		assert.Equal(t, 1, sum.Skipped)
		assert.Zero(t, sum.Errors)
	})

	t.Run("conditions not met", func(t *testing.T) {
		f := newReconcilerFixture(t)
		_, err := f.registry.Create(phase.Definition{
			ID:                "seasonal",
			Label:             "Seasonal",
			TimelineReference: phase.RefServiceStart,
			AutoCreate:        true,
			Window:            phase.WindowConfig{Unit: phase.UnitDays, Start: -30, End: -7, Bucket: phase.BucketDay},
			BlueprintID:       "tpl-short-term",
			Conditions: []phase.Condition{
				{Field: phase.FieldItemTag, Operator: phase.OpIncludes, Value: "seasonal"},
			},
		})
		require.NoError(t, err)

		f.addItem("itm-1")
		f.orders.SetPhase("itm-1", "seasonal")

		sum, err := f.rec.ReconcileOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Skipped)
		assert.Zero(t, f.taskCount(t))
	})
}

func TestReconciler_IgnoresSentinelPhase(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-1")
	// Put leaves the item in the unknown sentinel phase.

	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Observed)
	assert.Zero(t, sum.Transitions)

	f.bus.AssertNotPublished(t, eventbus.EventPhaseTransition, 50*time.Millisecond)
}

// failingItemRepo wraps a repository and rejects Item lookups for one id.
type failingItemRepo struct {
	order.Repository
	failID string
}

func (f failingItemRepo) Item(ctx context.Context, id string) (order.Item, error) {
	if id == f.failID {
		return order.Item{}, errors.New("upstream gone")
	}
	return f.Repository.Item(ctx, id)
}

func TestReconciler_ItemErrorDoesNotAbortPass(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-bad")
	f.addItem("itm-good")
	f.orders.SetPhase("itm-bad", "short_term")
	f.orders.SetPhase("itm-good", "short_term")

	f.rec.orders = failingItemRepo{Repository: f.orders, failID: "itm-bad"}

	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Transitions)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 1, sum.Created)

	var errEntry *Execution
	for _, e := range f.execLog.Entries() {
		if e.Status == ExecError {
			entry := e
			errEntry = &entry
		}
	}
	require.NotNil(t, errEntry, "expected an error-status audit entry")
	assert.Contains(t, errEntry.Message, "itm-bad")
}

// panickyRepo panics when loading one specific item.
type panickyRepo struct {
	order.Repository
	panicID string
}

func (p panickyRepo) Item(ctx context.Context, id string) (order.Item, error) {
	if id == p.panicID {
		panic("corrupt item record")
	}
	return p.Repository.Item(ctx, id)
}

func TestReconciler_PanicIsIsolatedPerItem(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-boom")
	f.orders.SetPhase("itm-boom", "short_term")

	f.rec.orders = panickyRepo{Repository: f.orders, panicID: "itm-boom"}

	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errors)

	entries := f.execLog.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ExecError, entries[0].Status)
	assert.Contains(t, entries[0].Message, "panicked")
}

func TestReconciler_ResetReevaluatesItems(t *testing.T) {
	f := newReconcilerFixture(t)
	f.addItem("itm-1")
	f.orders.SetPhase("itm-1", "short_term")

	_, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)

	f.rec.Reset()

	sum, err := f.rec.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Transitions)
	// The existing task is found by tag pair; no duplicate is created.
	assert.Zero(t, sum.Created)
	assert.Equal(t, 1, sum.Linked)
	assert.Equal(t, 1, f.taskCount(t))
}

func TestNewApp_WiresEngine(t *testing.T) {
	bus := testbus.New(t)
	orders := stores.NewOrderStore(phase.RefServiceStart)
	tasks := stores.NewTaskStore()
	customers := stores.NewCustomerStore()

	app := NewApp(orders, tasks, customers, bus.EventBus, 0, zerolog.Nop())

	require.NotNil(t, app.Registry)
	require.NotNil(t, app.Reconciler)
	require.NotNil(t, app.Instantiator)
	require.NotNil(t, app.Rules)
	require.NotNil(t, app.ExecLog)

	sum, err := app.Reconciler.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Observed)
}
