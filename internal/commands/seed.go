package commands

import (
	"fmt"
	"time"

	"github.com/railops/phaseline/internal/core/config"
	"github.com/railops/phaseline/internal/core/customer"
	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/data/stores"
	"github.com/railops/phaseline/internal/engine"
)

// CustomersFromConfig converts customer seeds into store entities.
func CustomersFromConfig(cfg *config.Config) []customer.Customer {
	out := make([]customer.Customer, 0, len(cfg.Customers))
	for _, seed := range cfg.Customers {
		out = append(out, customer.Customer{ID: seed.ID, Name: seed.Name, Contact: seed.Contact})
	}
	return out
}

// ApplyConfig applies the reloadable parts of the configuration to a
// running engine: custom phase definitions, automation overrides, and
// blueprint catalog extensions. Safe to call repeatedly (hot reload).
func ApplyConfig(app *engine.App, cfg *config.Config) error {
	for _, bp := range cfg.Blueprints {
		if err := app.Registry.RegisterBlueprint(bp); err != nil {
			return fmt.Errorf("register blueprint %s: %w", bp.ID, err)
		}
	}

	if err := app.Registry.ApplyCustom(cfg.Phases, cfg.Automation.Enabled); err != nil {
		return fmt.Errorf("apply custom phases: %w", err)
	}

	return nil
}

// SeedConfig applies the full configuration at startup: everything
// ApplyConfig covers plus rule seeds and demo order items.
func SeedConfig(app *engine.App, orders *stores.OrderStore, cfg *config.Config) error {
	if err := ApplyConfig(app, cfg); err != nil {
		return err
	}

	for _, seed := range cfg.Rules {
		app.Rules.AddRule(engine.Rule{
			ID:             seed.ID,
			TemplateID:     seed.Template,
			Title:          seed.Title,
			Trigger:        seed.Trigger,
			Condition:      seed.Condition,
			LeadTimeDays:   seed.LeadTimeDays,
			Active:         seed.Active,
			NextTemplateID: seed.NextTemplate,
			Webhook:        seed.Webhook,
			TestMode:       seed.TestMode,
		})
	}

	for _, seed := range cfg.Orders {
		dates := make(map[phase.TimelineReference]time.Time, len(seed.Dates))
		for anchor, date := range seed.Dates {
			dates[phase.TimelineReference(anchor)] = date
		}

		orders.Put(order.Item{
			ID:             seed.ID,
			Title:          seed.Title,
			Type:           seed.Type,
			CustomerID:     seed.Customer,
			Tags:           seed.Tags,
			TimetablePhase: seed.TimetablePhase,
			TimetableYear:  seed.TimetableYear,
		}, dates)

		if seed.Phase != "" {
			orders.SetPhase(seed.ID, seed.Phase)
		}
	}

	return nil
}
