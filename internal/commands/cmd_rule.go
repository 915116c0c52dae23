package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/railops/phaseline/internal/engine"
	"github.com/railops/phaseline/pkg/iojson"
)

type RuleCmd struct {
	flags *Flags
	app   *engine.App

	// add flags
	addTemplate string
	addTitle    string
	addNext     string
	addWebhook  string
	addTestMode bool
	addInactive bool

	// trigger flags
	triggerTemplate string
	triggerTask     string
	triggerRules    []string
	triggerItems    []string

	// deps add flags
	depFrom string
	depTo   string
	depDesc string

	// shared
	jsonOutput bool
}

// NewRuleCmd creates a new rule command.
func NewRuleCmd(flags *Flags, app *engine.App) *RuleCmd {
	return &RuleCmd{flags: flags, app: app}
}

// Register adds the rule command to the application.
func (cmd *RuleCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "rule",
		Usage: "Manage automation rules and their dependency graph",
		Description: `Automation rules are blueprint-scoped triggers, separate from the
phase-driven reconciler. They fire when a task is instantiated from
their blueprint, or explicitly via 'rule trigger'. Every execution is
recorded in the audit log ('rule log').`,
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.listCmd(),
			cmd.enableCmd(),
			cmd.disableCmd(),
			cmd.simulateCmd(),
			cmd.triggerCmd(),
			cmd.depsCmd(),
			cmd.logCmd(),
		},
	})

	return app
}

func (cmd *RuleCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Register an automation rule for a blueprint",
		UsageText: "phaseline rule add --template tpl-short-term --title \"Notify dispatcher\"",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "template",
				Aliases:     []string{"t"},
				Usage:       "blueprint id the rule belongs to",
				Required:    true,
				Destination: &cmd.addTemplate,
			},
			&cli.StringFlag{
				Name:        "title",
				Usage:       "human-readable rule title",
				Required:    true,
				Destination: &cmd.addTitle,
			},
			&cli.StringFlag{
				Name:        "next-template",
				Usage:       "blueprint to cascade to after this rule runs",
				Destination: &cmd.addNext,
			},
			&cli.StringFlag{
				Name:        "webhook",
				Usage:       "webhook URL recorded with each execution",
				Destination: &cmd.addWebhook,
			},
			&cli.BoolFlag{
				Name:        "test-mode",
				Usage:       "simulations yield a simulated task id",
				Destination: &cmd.addTestMode,
			},
			&cli.BoolFlag{
				Name:        "inactive",
				Usage:       "register the rule disabled",
				Destination: &cmd.addInactive,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *RuleCmd) runAdd(ctx context.Context, c *cli.Command) error {
	rule := cmd.app.Rules.AddRule(engine.Rule{
		TemplateID:     cmd.addTemplate,
		Title:          cmd.addTitle,
		Active:         !cmd.addInactive,
		NextTemplateID: cmd.addNext,
		Webhook:        cmd.addWebhook,
		TestMode:       cmd.addTestMode,
	})
	return iojson.WriteLine(c.Root().Writer, rule)
}

func (cmd *RuleCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List automation rules",
		UsageText: "phaseline rule list [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *RuleCmd) runList(ctx context.Context, c *cli.Command) error {
	rules := cmd.app.Rules.Rules()
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, r := range rules {
			if err := iojson.WriteLine(out, r); err != nil {
				return fmt.Errorf("encode rule: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTEMPLATE\tTITLE\tACTIVE\tLAST RUN\tSTATUS")
	for _, r := range rules {
		lastRun := "-"
		if r.LastRunAt != nil {
			lastRun = r.LastRunAt.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			r.ID, r.TemplateID, r.Title, r.Active, lastRun, r.LastRunStatus)
	}
	return w.Flush()
}

func (cmd *RuleCmd) enableCmd() *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "Enable a rule",
		UsageText: "phaseline rule enable <rule-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			return cmd.toggle(c, c.Args().First(), true)
		},
	}
}

func (cmd *RuleCmd) disableCmd() *cli.Command {
	return &cli.Command{
		Name:      "disable",
		Usage:     "Disable a rule",
		UsageText: "phaseline rule disable <rule-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			return cmd.toggle(c, c.Args().First(), false)
		},
	}
}

func (cmd *RuleCmd) toggle(c *cli.Command, ruleID string, active bool) error {
	if err := cmd.app.Rules.Toggle(ruleID, active); err != nil {
		return err
	}
	return iojson.WriteLine(c.Root().Writer, map[string]any{"id": ruleID, "active": active})
}

func (cmd *RuleCmd) simulateCmd() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Dry-run a rule without touching any state",
		UsageText: "phaseline rule simulate <rule-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			res := cmd.app.Rules.Simulate(c.Args().First())
			return iojson.WriteLine(c.Root().Writer, res)
		},
	}
}

func (cmd *RuleCmd) triggerCmd() *cli.Command {
	return &cli.Command{
		Name:      "trigger",
		Usage:     "Execute the active rules of a blueprint",
		UsageText: "phaseline rule trigger --template tpl-short-term [--task <task-id>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "template",
				Aliases:     []string{"t"},
				Usage:       "blueprint whose rules should run",
				Required:    true,
				Destination: &cmd.triggerTemplate,
			},
			&cli.StringFlag{
				Name:        "task",
				Usage:       "task id recorded with the executions",
				Destination: &cmd.triggerTask,
			},
			&cli.StringSliceFlag{
				Name:        "rule",
				Usage:       "restrict to specific rule ids (repeatable)",
				Destination: &cmd.triggerRules,
			},
			&cli.StringSliceFlag{
				Name:        "item",
				Usage:       "line item id noted in the execution message (repeatable)",
				Destination: &cmd.triggerItems,
			},
		},
		Action: cmd.runTrigger,
	}
}

func (cmd *RuleCmd) runTrigger(ctx context.Context, c *cli.Command) error {
	executed := cmd.app.Rules.TriggerForTemplate(ctx, cmd.triggerTemplate, cmd.triggerTask, engine.TriggerOptions{
		RuleIDs:       cmd.triggerRules,
		LinkedItemIDs: cmd.triggerItems,
	})

	out := c.Root().Writer
	for _, e := range executed {
		if err := iojson.WriteLine(out, e); err != nil {
			return fmt.Errorf("encode execution: %w", err)
		}
	}
	if len(executed) == 0 {
		return iojson.WriteLine(out, map[string]string{"template": cmd.triggerTemplate, "status": "no active rules"})
	}
	return nil
}

func (cmd *RuleCmd) depsCmd() *cli.Command {
	return &cli.Command{
		Name:  "deps",
		Usage: "Manage the blueprint dependency graph",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a directed edge between two blueprints",
				UsageText: "phaseline rule deps add --from tpl-capacity-planning --to tpl-annual-request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "from",
						Usage:       "upstream blueprint id",
						Required:    true,
						Destination: &cmd.depFrom,
					},
					&cli.StringFlag{
						Name:        "to",
						Usage:       "downstream blueprint id",
						Required:    true,
						Destination: &cmd.depTo,
					},
					&cli.StringFlag{
						Name:        "description",
						Usage:       "why the edge exists",
						Destination: &cmd.depDesc,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					dep := cmd.app.Rules.AddDependency(cmd.depFrom, cmd.depTo, cmd.depDesc)
					return iojson.WriteLine(c.Root().Writer, dep)
				},
			},
			{
				Name:      "list",
				Usage:     "List dependency edges",
				UsageText: "phaseline rule deps list [template-id]",
				Action:    cmd.runDepsList,
			},
		},
	}
}

func (cmd *RuleCmd) runDepsList(ctx context.Context, c *cli.Command) error {
	deps := cmd.app.Rules.Dependencies()
	if templateID := c.Args().First(); templateID != "" {
		deps = append(cmd.app.Rules.DependentsOf(templateID), cmd.app.Rules.PredecessorsOf(templateID)...)
	}

	out := c.Root().Writer
	for _, d := range deps {
		if err := iojson.WriteLine(out, d); err != nil {
			return fmt.Errorf("encode dependency: %w", err)
		}
	}
	return nil
}

func (cmd *RuleCmd) logCmd() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Show the execution audit log, newest first",
		UsageText: "phaseline rule log [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runLog,
	}
}

func (cmd *RuleCmd) runLog(ctx context.Context, c *cli.Command) error {
	entries := cmd.app.ExecLog.Entries()
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, e := range entries {
			if err := iojson.WriteLine(out, e); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tSTATUS\tTEMPLATE\tMESSAGE")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Status, e.TemplateID, e.Message)
	}
	return w.Flush()
}
