package config

import (
	"fmt"

	"github.com/hay-kot/criterio"

	"github.com/railops/phaseline/internal/core/phase"
)

// Validate performs structural validation of the configuration.
// Malformed windows and unknown condition fields are rejected here,
// before anything reaches the registry.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		c.validatePhases(),
		c.validateBlueprints(),
		c.validateRules(),
		c.validateOrders(),
	)
}

func (c *Config) validatePhases() error {
	var errs criterio.FieldErrorsBuilder

	seen := map[string]bool{}
	for i, def := range c.Phases {
		field := fmt.Sprintf("phases[%d]", i)
		if seen[def.ID] {
			errs = errs.Append(field+".id", fmt.Errorf("duplicate phase id %q", def.ID))
		}
		seen[def.ID] = true

		if err := def.Validate(); err != nil {
			errs = errs.Append(field, err)
		}
	}

	return errs.ToError()
}

func (c *Config) validateBlueprints() error {
	var errs criterio.FieldErrorsBuilder

	for i, bp := range c.Blueprints {
		field := fmt.Sprintf("blueprints[%d]", i)
		if bp.ID == "" {
			errs = errs.Append(field+".id", fmt.Errorf("must not be empty"))
		}
		if bp.Title == "" {
			errs = errs.Append(field+".title", fmt.Errorf("must not be empty"))
		}
	}

	return errs.ToError()
}

func (c *Config) validateRules() error {
	var errs criterio.FieldErrorsBuilder

	for i, r := range c.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if r.Template == "" {
			errs = errs.Append(field+".template", fmt.Errorf("must not be empty"))
		}
		if r.Title == "" {
			errs = errs.Append(field+".title", fmt.Errorf("must not be empty"))
		}
	}

	return errs.ToError()
}

func (c *Config) validateOrders() error {
	var errs criterio.FieldErrorsBuilder

	for i, o := range c.Orders {
		field := fmt.Sprintf("orders[%d]", i)
		if o.ID == "" {
			errs = errs.Append(field+".id", fmt.Errorf("must not be empty"))
		}
		for anchor := range o.Dates {
			switch phase.TimelineReference(anchor) {
			case phase.RefServiceStart, phase.RefSubmission, phase.RefOrderCreated:
			default:
				errs = errs.Append(field+".dates", fmt.Errorf("unknown anchor %q", anchor))
			}
		}
	}

	return errs.ToError()
}
