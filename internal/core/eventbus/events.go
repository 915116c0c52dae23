package eventbus

import (
	"time"

	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/core/task"
)

// Event names.
const (
	// Keep list sorted A-Z
	EventConfigReloaded  Event = "config.reloaded"
	EventPhaseTransition Event = "phase.transitioned"
	EventRuleExecuted    Event = "rule.executed"
	EventTaskCreated     Event = "task.created"
	EventTaskLinked      Event = "task.linked"
)

// PhaseTransitionPayload is emitted when the reconciler records a phase
// change for an item.
type PhaseTransitionPayload struct {
	ItemID   string
	OldPhase string
	NewPhase string
}

// TaskCreatedPayload is emitted when a business task is instantiated.
type TaskCreatedPayload struct {
	Task        *task.Task
	BlueprintID string
}

// TaskLinkedPayload is emitted when an item is attached to an existing task.
type TaskLinkedPayload struct {
	TaskID string
	ItemID string
}

// RuleExecutedPayload is emitted when the rule engine runs a rule.
type RuleExecutedPayload struct {
	RuleID     string
	TemplateID string
	TaskID     string
	Status     string
	At         time.Time
}

// ConfigReloadedPayload is emitted when configuration is reloaded and
// custom phase definitions have been re-applied.
type ConfigReloadedPayload struct {
	Definitions []phase.Definition
}

// PublishPhaseTransition publishes a phase.transitioned event.
func (bus *EventBus) PublishPhaseTransition(p PhaseTransitionPayload) {
	bus.send(EventPhaseTransition, p)
}

// SubscribePhaseTransition registers a subscriber for phase.transitioned.
func (bus *EventBus) SubscribePhaseTransition(fn func(PhaseTransitionPayload)) {
	bus.subscribe(EventPhaseTransition, func(p any) {
		if payload, ok := p.(PhaseTransitionPayload); ok {
			fn(payload)
		}
	})
}

// PublishTaskCreated publishes a task.created event.
func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) {
	bus.send(EventTaskCreated, p)
}

// SubscribeTaskCreated registers a subscriber for task.created.
func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) {
	bus.subscribe(EventTaskCreated, func(p any) {
		if payload, ok := p.(TaskCreatedPayload); ok {
			fn(payload)
		}
	})
}

// PublishTaskLinked publishes a task.linked event.
func (bus *EventBus) PublishTaskLinked(p TaskLinkedPayload) {
	bus.send(EventTaskLinked, p)
}

// SubscribeTaskLinked registers a subscriber for task.linked.
func (bus *EventBus) SubscribeTaskLinked(fn func(TaskLinkedPayload)) {
	bus.subscribe(EventTaskLinked, func(p any) {
		if payload, ok := p.(TaskLinkedPayload); ok {
			fn(payload)
		}
	})
}

// PublishRuleExecuted publishes a rule.executed event.
func (bus *EventBus) PublishRuleExecuted(p RuleExecutedPayload) {
	bus.send(EventRuleExecuted, p)
}

// SubscribeRuleExecuted registers a subscriber for rule.executed.
func (bus *EventBus) SubscribeRuleExecuted(fn func(RuleExecutedPayload)) {
	bus.subscribe(EventRuleExecuted, func(p any) {
		if payload, ok := p.(RuleExecutedPayload); ok {
			fn(payload)
		}
	})
}

// PublishConfigReloaded publishes a config.reloaded event.
func (bus *EventBus) PublishConfigReloaded(p ConfigReloadedPayload) {
	bus.send(EventConfigReloaded, p)
}

// SubscribeConfigReloaded registers a subscriber for config.reloaded.
func (bus *EventBus) SubscribeConfigReloaded(fn func(ConfigReloadedPayload)) {
	bus.subscribe(EventConfigReloaded, func(p any) {
		if payload, ok := p.(ConfigReloadedPayload); ok {
			fn(payload)
		}
	})
}
