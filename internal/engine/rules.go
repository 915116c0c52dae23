package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/pkg/tmpl"
)

// ErrRuleNotFound is returned when a rule id is unknown.
var ErrRuleNotFound = errors.New("automation rule not found")

// Rule is a manually managed, blueprint-scoped automation trigger,
// distinct from the phase-driven reconciler. Rules are mutated on every
// execution (LastRunStatus, LastRunAt).
type Rule struct {
	ID             string     `json:"id"`
	TemplateID     string     `json:"template_id"`
	Title          string     `json:"title"`
	Trigger        string     `json:"trigger,omitempty"`
	Condition      string     `json:"condition,omitempty"`
	LeadTimeDays   int        `json:"lead_time_days,omitempty"`
	NextRun        *time.Time `json:"next_run,omitempty"`
	Active         bool       `json:"active"`
	NextTemplateID string     `json:"next_template_id,omitempty"`
	Webhook        string     `json:"webhook,omitempty"`
	TestMode       bool       `json:"test_mode,omitempty"`
	LastRunStatus  ExecStatus `json:"last_run_status,omitempty"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
}

// Dependency is a directed edge between two blueprints: completing a
// task of From should cascade to To.
type Dependency struct {
	FromTemplateID string    `json:"from_template_id"`
	ToTemplateID   string    `json:"to_template_id"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SimulationResult is the outcome of a dry run. It never reflects
// persisted state changes.
type SimulationResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	SimulatedTaskID string `json:"simulated_task_id,omitempty"`
}

// TriggerOptions narrows and enriches a TriggerForTemplate call.
type TriggerOptions struct {
	// RuleIDs restricts execution to the given rules. Empty means all
	// active rules of the template.
	RuleIDs []string
	// LinkedItemIDs are included in the execution message.
	LinkedItemIDs []string
}

const executionMessageTmpl = `{{ .Title }} executed for task {{ .TaskID }}` +
	`{{ if .Items }} (items: {{ join .Items ", " }}){{ end }}` +
	`{{ if .Webhook }} via webhook {{ .Webhook }}{{ end }}`

// RuleEngine manages automation rules, their audit log, and the
// dependency graph between blueprints. All state is in memory; readers
// observe copy-on-write snapshots.
type RuleEngine struct {
	execLog *ExecutionLog
	bus     *eventbus.EventBus
	log     zerolog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	rules []*Rule
	deps  []Dependency
}

// NewRuleEngine creates a rule engine sharing the given execution log.
func NewRuleEngine(execLog *ExecutionLog, bus *eventbus.EventBus, log zerolog.Logger) *RuleEngine {
	return &RuleEngine{
		execLog: execLog,
		bus:     bus,
		log:     log.With().Str("component", "rule-engine").Logger(),
		now:     time.Now,
	}
}

// AddRule registers a rule, generating an id when unset, and returns
// the stored copy.
func (e *RuleEngine) AddRule(r Rule) Rule {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	e.mu.Lock()
	stored := r
	e.rules = append(e.rules, &stored)
	e.mu.Unlock()

	e.log.Debug().Str("rule", r.ID).Str("template", r.TemplateID).Msg("rule added")
	return r
}

// Toggle sets a rule active or inactive.
// Returns ErrRuleNotFound if the rule does not exist.
func (e *RuleEngine) Toggle(ruleID string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range e.rules {
		if r.ID == ruleID {
			r.Active = active
			return nil
		}
	}
	return fmt.Errorf("toggle rule %s: %w", ruleID, ErrRuleNotFound)
}

// Rules returns a snapshot of all rules in registration order.
func (e *RuleEngine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = *r
	}
	return out
}

// Rule returns a single rule by id.
func (e *RuleEngine) Rule(ruleID string) (Rule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, r := range e.rules {
		if r.ID == ruleID {
			return *r, nil
		}
	}
	return Rule{}, fmt.Errorf("get rule %s: %w", ruleID, ErrRuleNotFound)
}

// Simulate performs a dry run of a rule. It never mutates persisted
// state and never returns an error: an unknown rule id yields a result
// with Success=false.
func (e *RuleEngine) Simulate(ruleID string) SimulationResult {
	rule, err := e.Rule(ruleID)
	if err != nil {
		return SimulationResult{
			Success: false,
			Message: fmt.Sprintf("rule %s not found", ruleID),
		}
	}

	if !rule.Active {
		return SimulationResult{
			Success: true,
			Message: fmt.Sprintf("rule %q is inactive and would not run", rule.Title),
		}
	}

	res := SimulationResult{
		Success: true,
		Message: fmt.Sprintf("rule %q would instantiate blueprint %s", rule.Title, rule.TemplateID),
	}
	if rule.TestMode {
		res.SimulatedTaskID = "sim_" + strings.Split(uuid.NewString(), "-")[0]
	}
	return res
}

// TriggerForTemplate runs all active rules registered for the blueprint
// (optionally narrowed to opts.RuleIDs), appending one audit entry per
// rule and updating each rule's last-run state. Rules with a
// NextTemplateID cascade to that blueprint's rules; templates already
// visited in this call are not triggered again, which keeps a cyclic
// chain from looping forever.
func (e *RuleEngine) TriggerForTemplate(ctx context.Context, templateID, taskID string, opts TriggerOptions) []Execution {
	seen := map[string]bool{}
	return e.trigger(ctx, templateID, taskID, opts, seen)
}

func (e *RuleEngine) trigger(ctx context.Context, templateID, taskID string, opts TriggerOptions, seen map[string]bool) []Execution {
	if seen[templateID] {
		return nil
	}
	seen[templateID] = true

	allow := map[string]bool{}
	for _, id := range opts.RuleIDs {
		allow[id] = true
	}

	var executed []Execution
	var cascades []string

	for _, rule := range e.selectRules(templateID, allow) {
		entry := e.runRule(rule, taskID, opts.LinkedItemIDs)
		executed = append(executed, entry)
		if rule.NextTemplateID != "" {
			cascades = append(cascades, rule.NextTemplateID)
		}
	}

	for _, next := range cascades {
		// Allowlist applies only to the directly triggered template.
		executed = append(executed, e.trigger(ctx, next, taskID, TriggerOptions{LinkedItemIDs: opts.LinkedItemIDs}, seen)...)
	}

	return executed
}

// selectRules returns copies of the active rules for a template.
func (e *RuleEngine) selectRules(templateID string, allow map[string]bool) []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Rule
	for _, r := range e.rules {
		if r.TemplateID != templateID || !r.Active {
			continue
		}
		if len(allow) > 0 && !allow[r.ID] {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func (e *RuleEngine) runRule(rule Rule, taskID string, itemIDs []string) Execution {
	status := ExecSuccess
	msg, err := tmpl.Render(executionMessageTmpl, map[string]any{
		"Title":   rule.Title,
		"TaskID":  taskID,
		"Items":   itemIDs,
		"Webhook": rule.Webhook,
	})
	if err != nil {
		status = ExecWarning
		msg = fmt.Sprintf("%s executed for task %s (message render failed: %v)", rule.Title, taskID, err)
	}

	entry := e.execLog.Append(Execution{
		RuleID:     rule.ID,
		TemplateID: rule.TemplateID,
		Status:     status,
		Message:    msg,
	})

	now := e.now()
	e.mu.Lock()
	for _, r := range e.rules {
		if r.ID == rule.ID {
			r.LastRunStatus = status
			r.LastRunAt = &now
		}
	}
	e.mu.Unlock()

	e.bus.PublishRuleExecuted(eventbus.RuleExecutedPayload{
		RuleID:     rule.ID,
		TemplateID: rule.TemplateID,
		TaskID:     taskID,
		Status:     string(status),
		At:         now,
	})

	e.log.Debug().
		Str("rule", rule.ID).
		Str("template", rule.TemplateID).
		Str("task", taskID).
		Msg("rule executed")

	return entry
}

// AddDependency appends a directed edge between two blueprints.
// The edge list is append-only; no cycle detection is performed.
func (e *RuleEngine) AddDependency(fromTemplateID, toTemplateID, description string) Dependency {
	dep := Dependency{
		FromTemplateID: fromTemplateID,
		ToTemplateID:   toTemplateID,
		Description:    description,
		CreatedAt:      e.now(),
	}

	e.mu.Lock()
	e.deps = append(e.deps, dep)
	e.mu.Unlock()

	return dep
}

// DependentsOf returns edges leading out of the given blueprint.
func (e *RuleEngine) DependentsOf(templateID string) []Dependency {
	return e.filterDeps(func(d Dependency) bool { return d.FromTemplateID == templateID })
}

// PredecessorsOf returns edges leading into the given blueprint.
func (e *RuleEngine) PredecessorsOf(templateID string) []Dependency {
	return e.filterDeps(func(d Dependency) bool { return d.ToTemplateID == templateID })
}

// Dependencies returns a snapshot of all edges.
func (e *RuleEngine) Dependencies() []Dependency {
	return e.filterDeps(func(Dependency) bool { return true })
}

func (e *RuleEngine) filterDeps(keep func(Dependency) bool) []Dependency {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Dependency
	for _, d := range e.deps {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Executions returns the audit log, newest first.
func (e *RuleEngine) Executions() []Execution {
	return e.execLog.Entries()
}
