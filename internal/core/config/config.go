// Package config handles configuration loading and validation for phaseline.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/core/task"
)

// Config holds the application configuration.
type Config struct {
	Engine     EngineConfig       `yaml:"engine"`
	Phases     []phase.Definition `yaml:"phases"`
	Automation AutomationConfig   `yaml:"automation"`
	Blueprints []task.Blueprint   `yaml:"blueprints"`
	Rules      []RuleSeed         `yaml:"rules"`
	Orders     []OrderSeed        `yaml:"orders"`
	Customers  []CustomerSeed     `yaml:"customers"`
}

// EngineConfig tunes engine behavior.
type EngineConfig struct {
	// ExecutionLogCap bounds the audit log (0 = default cap).
	ExecutionLogCap int `yaml:"execution_log_cap"`
	// TimelineReference is the default anchor reported by snapshots.
	TimelineReference phase.TimelineReference `yaml:"timeline_reference"`
}

// AutomationConfig carries per-phase enable overrides. The map value
// wins over the definition's auto_create flag.
type AutomationConfig struct {
	Enabled map[string]bool `yaml:"enabled"`
}

// RuleSeed declares an automation rule registered at startup.
type RuleSeed struct {
	ID           string `yaml:"id"`
	Template     string `yaml:"template"`
	Title        string `yaml:"title"`
	Trigger      string `yaml:"trigger"`
	Condition    string `yaml:"condition"`
	LeadTimeDays int    `yaml:"lead_time_days"`
	Active       bool   `yaml:"active"`
	NextTemplate string `yaml:"next_template"`
	Webhook      string `yaml:"webhook"`
	TestMode     bool   `yaml:"test_mode"`
}

// OrderSeed declares a demo line item loaded into the in-memory order
// store so the CLI is usable standalone.
type OrderSeed struct {
	ID             string               `yaml:"id"`
	Title          string               `yaml:"title"`
	Type           string               `yaml:"type"`
	Customer       string               `yaml:"customer"`
	Tags           []string             `yaml:"tags"`
	Phase          string               `yaml:"phase"`
	TimetablePhase string               `yaml:"timetable_phase"`
	TimetableYear  string               `yaml:"timetable_year"`
	Dates          map[string]time.Time `yaml:"dates"`
}

// CustomerSeed declares a customer known to the in-memory store.
type CustomerSeed struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Contact string `yaml:"contact"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ExecutionLogCap:   0, // engine default
			TimelineReference: phase.RefServiceStart,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. The loaded config is validated before return.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Engine.TimelineReference == "" {
		cfg.Engine.TimelineReference = phase.RefServiceStart
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
