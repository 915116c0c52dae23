package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/eventbus/testbus"
)

func newTestRuleEngine(t *testing.T) (*RuleEngine, *testbus.Bus) {
	t.Helper()

	bus := testbus.New(t)
	e := NewRuleEngine(NewExecutionLog(0), bus.EventBus, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC) }
	return e, bus
}

func TestRuleEngine_AddAndToggle(t *testing.T) {
	e, _ := newTestRuleEngine(t)

	added := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Notify dispatcher", Active: true})
	assert.NotEmpty(t, added.ID)

	got, err := e.Rule(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notify dispatcher", got.Title)

	require.NoError(t, e.Toggle(added.ID, false))
	got, err = e.Rule(added.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.ErrorIs(t, e.Toggle("nope", true), ErrRuleNotFound)

	_, err = e.Rule("nope")
	require.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleEngine_Simulate(t *testing.T) {
	e, _ := newTestRuleEngine(t)

	t.Run("unknown rule fails without error", func(t *testing.T) {
		res := e.Simulate("does-not-exist")
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "not found")
	})

	t.Run("inactive rule would not run", func(t *testing.T) {
		r := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Sleeping", Active: false})
		res := e.Simulate(r.ID)
		assert.True(t, res.Success)
		assert.Contains(t, res.Message, "would not run")
		assert.Empty(t, res.SimulatedTaskID)
	})

	t.Run("active rule", func(t *testing.T) {
		r := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Live", Active: true})
		res := e.Simulate(r.ID)
		assert.True(t, res.Success)
		assert.Contains(t, res.Message, "tpl-short-term")
		assert.Empty(t, res.SimulatedTaskID)
	})

	t.Run("test mode yields a simulated task id", func(t *testing.T) {
		r := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Dry", Active: true, TestMode: true})
		res := e.Simulate(r.ID)
		assert.True(t, res.Success)
		assert.True(t, strings.HasPrefix(res.SimulatedTaskID, "sim_"), "got %q", res.SimulatedTaskID)
	})

	t.Run("simulation leaves last-run state untouched", func(t *testing.T) {
		r := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Untouched", Active: true})
		e.Simulate(r.ID)

		got, err := e.Rule(r.ID)
		require.NoError(t, err)
		assert.Nil(t, got.LastRunAt)
		assert.Empty(t, got.LastRunStatus)
	})
}

func TestRuleEngine_TriggerForTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("runs active rules only", func(t *testing.T) {
		e, bus := newTestRuleEngine(t)
		active := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Active", Active: true})
		e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Inactive", Active: false})
		e.AddRule(Rule{TemplateID: "tpl-other", Title: "Other template", Active: true})

		executed := e.TriggerForTemplate(ctx, "tpl-short-term", "tsk_1", TriggerOptions{})
		require.Len(t, executed, 1)
		assert.Equal(t, active.ID, executed[0].RuleID)
		assert.Equal(t, ExecSuccess, executed[0].Status)

		bus.AssertPublished(t, eventbus.EventRuleExecuted)
	})

	t.Run("updates last-run state and audit log", func(t *testing.T) {
		e, _ := newTestRuleEngine(t)
		r := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Audit", Active: true})

		e.TriggerForTemplate(ctx, "tpl-short-term", "tsk_1", TriggerOptions{LinkedItemIDs: []string{"itm-1", "itm-2"}})

		got, err := e.Rule(r.ID)
		require.NoError(t, err)
		assert.Equal(t, ExecSuccess, got.LastRunStatus)
		require.NotNil(t, got.LastRunAt)
		assert.Equal(t, time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC), *got.LastRunAt)

		entries := e.Executions()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "tsk_1")
		assert.Contains(t, entries[0].Message, "itm-1, itm-2")
	})

	t.Run("allowlist narrows directly triggered rules", func(t *testing.T) {
		e, _ := newTestRuleEngine(t)
		wanted := e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Wanted", Active: true})
		e.AddRule(Rule{TemplateID: "tpl-short-term", Title: "Unwanted", Active: true})

		executed := e.TriggerForTemplate(ctx, "tpl-short-term", "tsk_1", TriggerOptions{RuleIDs: []string{wanted.ID}})
		require.Len(t, executed, 1)
		assert.Equal(t, wanted.ID, executed[0].RuleID)
	})

	t.Run("cascades to the next template", func(t *testing.T) {
		e, _ := newTestRuleEngine(t)
		first := e.AddRule(Rule{TemplateID: "tpl-a", Title: "First", Active: true, NextTemplateID: "tpl-b"})
		second := e.AddRule(Rule{TemplateID: "tpl-b", Title: "Second", Active: true})

		executed := e.TriggerForTemplate(ctx, "tpl-a", "tsk_1", TriggerOptions{})
		require.Len(t, executed, 2)
		assert.Equal(t, first.ID, executed[0].RuleID)
		assert.Equal(t, second.ID, executed[1].RuleID)
	})

	t.Run("cyclic chain runs each template once", func(t *testing.T) {
		e, _ := newTestRuleEngine(t)
		e.AddRule(Rule{TemplateID: "tpl-a", Title: "A", Active: true, NextTemplateID: "tpl-b"})
		e.AddRule(Rule{TemplateID: "tpl-b", Title: "B", Active: true, NextTemplateID: "tpl-a"})

		executed := e.TriggerForTemplate(ctx, "tpl-a", "tsk_1", TriggerOptions{})
		require.Len(t, executed, 2)
		assert.Equal(t, "tpl-a", executed[0].TemplateID)
		assert.Equal(t, "tpl-b", executed[1].TemplateID)
	})

	t.Run("no rules is a no-op", func(t *testing.T) {
		e, bus := newTestRuleEngine(t)
		executed := e.TriggerForTemplate(ctx, "tpl-empty", "tsk_1", TriggerOptions{})
		assert.Empty(t, executed)
		bus.AssertNotPublished(t, eventbus.EventRuleExecuted, 50*time.Millisecond)
	})
}

func TestRuleEngine_Dependencies(t *testing.T) {
	e, _ := newTestRuleEngine(t)

	ab := e.AddDependency("tpl-a", "tpl-b", "capacity confirmed before request")
	e.AddDependency("tpl-b", "tpl-c", "")

	assert.Equal(t, time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC), ab.CreatedAt)

	out := e.DependentsOf("tpl-a")
	require.Len(t, out, 1)
	assert.Equal(t, "tpl-b", out[0].ToTemplateID)

	in := e.PredecessorsOf("tpl-b")
	require.Len(t, in, 1)
	assert.Equal(t, "tpl-a", in[0].FromTemplateID)

	assert.Len(t, e.Dependencies(), 2)
	assert.Empty(t, e.DependentsOf("tpl-c"))
}
