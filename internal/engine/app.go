package engine

import (
	"github.com/rs/zerolog"

	"github.com/railops/phaseline/internal/core/customer"
	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/task"
)

// App is the central entry point for all phaseline operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Registry     *Registry
	Reconciler   *Reconciler
	Instantiator *Instantiator
	Rules        *RuleEngine
	ExecLog      *ExecutionLog

	Tasks     task.Store
	Orders    order.Repository
	Customers customer.Store
	Bus       *eventbus.EventBus
}

// NewApp wires the engine from explicit collaborators.
func NewApp(
	orders order.Repository,
	tasks task.Store,
	customers customer.Store,
	bus *eventbus.EventBus,
	execLogCap int,
	log zerolog.Logger,
) *App {
	registry := NewRegistry(log)
	execLog := NewExecutionLog(execLogCap)
	rules := NewRuleEngine(execLog, bus, log)
	inst := NewInstantiator(registry, tasks, rules, bus, log)
	rec := NewReconciler(registry, orders, tasks, inst, execLog, bus, log)

	return &App{
		Registry:     registry,
		Reconciler:   rec,
		Instantiator: inst,
		Rules:        rules,
		ExecLog:      execLog,
		Tasks:        tasks,
		Orders:       orders,
		Customers:    customers,
		Bus:          bus,
	}
}
