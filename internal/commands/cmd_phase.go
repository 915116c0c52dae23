package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/engine"
	"github.com/railops/phaseline/pkg/iojson"
)

type PhaseCmd struct {
	flags *Flags
	app   *engine.App

	// list flags
	jsonOutput bool

	// create flags
	defReader iojson.FileReader[phase.Definition]

	// update-window flags
	windowUnit   string
	windowStart  int
	windowEnd    int
	windowBucket string
	windowRef    string
}

// NewPhaseCmd creates a new phase command.
func NewPhaseCmd(flags *Flags, app *engine.App) *PhaseCmd {
	return &PhaseCmd{flags: flags, app: app}
}

// Register adds the phase command to the application.
func (cmd *PhaseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "phase",
		Usage: "Manage phase definitions",
		Description: `Phase definitions drive the reconciler: when a line item enters a
phase inside its time window, a business task is created or the item is
attached to an existing one.

Built-in definitions cover the TTR planning lifecycle and cannot be
edited or deleted. Custom definitions come from the config file or
'phase create'.`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.showCmd(),
			cmd.createCmd(),
			cmd.deleteCmd(),
			cmd.enableCmd(),
			cmd.disableCmd(),
			cmd.updateWindowCmd(),
		},
	})

	return app
}

func (cmd *PhaseCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List all phase definitions",
		UsageText: "phaseline phase list [--json]",
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

func (cmd *PhaseCmd) runList(ctx context.Context, c *cli.Command) error {
	defs := cmd.app.Registry.List()
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, def := range defs {
			if err := iojson.WriteLine(out, def); err != nil {
				return fmt.Errorf("encode phase: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLABEL\tWINDOW\tBUCKET\tBLUEPRINT\tAUTO\tSOURCE")
	for _, def := range defs {
		source := "custom"
		if def.BuiltIn {
			source = "built-in"
		}
		auto := "off"
		if cmd.app.Registry.AutomationEnabled(def.ID) {
			auto = "on"
		}
		window := def.Window.Label
		if window == "" {
			window = fmt.Sprintf("%d..%d %s", def.Window.Start, def.Window.End, def.Window.Unit)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			def.ID, def.Label, window, def.Window.Bucket, def.BlueprintID, auto, source)
	}
	return w.Flush()
}

func (cmd *PhaseCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one phase definition as JSON",
		UsageText: "phaseline phase show <phase-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			def, err := cmd.app.Registry.Get(c.Args().First())
			if err != nil {
				return err
			}
			return iojson.WriteLine(c.Root().Writer, def)
		},
	}
}

func (cmd *PhaseCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a custom phase definition",
		UsageText: "phaseline phase create --file <definition.json>",
		Description: `Reads a phase definition as JSON from --file or stdin and registers it.

Example definition:
  {
    "id": "peak_season",
    "label": "Peak Season Review",
    "timeline_reference": "service_start",
    "auto_create": true,
    "window": {"unit": "weeks", "start": -12, "end": -6, "bucket": "week"},
    "blueprint": "tpl-rolling-planning"
  }`,
		Flags: []cli.Flag{
			cmd.defReader.Flag(),
		},
		Action: cmd.runCreate,
	}
}

func (cmd *PhaseCmd) runCreate(ctx context.Context, c *cli.Command) error {
	def, err := cmd.defReader.Read()
	if err != nil {
		return fmt.Errorf("read definition: %w", err)
	}

	id, err := cmd.app.Registry.Create(def)
	if err != nil {
		return err
	}
	return iojson.WriteLine(c.Root().Writer, map[string]string{"id": id, "status": "created"})
}

func (cmd *PhaseCmd) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a custom phase definition",
		UsageText: "phaseline phase delete <phase-id>",
		Description: `Deletes a custom phase definition. Built-in phases cannot be deleted;
use 'phase disable' to stop automation for them instead.`,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if err := cmd.app.Registry.Delete(id); err != nil {
				return err
			}
			return iojson.WriteLine(c.Root().Writer, map[string]string{"id": id, "status": "deleted"})
		},
	}
}

func (cmd *PhaseCmd) enableCmd() *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "Enable automatic task creation for a phase",
		UsageText: "phaseline phase enable <phase-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			return cmd.setAutomation(c, c.Args().First(), true)
		},
	}
}

func (cmd *PhaseCmd) disableCmd() *cli.Command {
	return &cli.Command{
		Name:      "disable",
		Usage:     "Disable automatic task creation for a phase",
		UsageText: "phaseline phase disable <phase-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			return cmd.setAutomation(c, c.Args().First(), false)
		},
	}
}

func (cmd *PhaseCmd) setAutomation(c *cli.Command, phaseID string, enabled bool) error {
	if err := cmd.app.Registry.SetAutomationEnabled(phaseID, enabled); err != nil {
		return err
	}
	return iojson.WriteLine(c.Root().Writer, map[string]any{"id": phaseID, "automation": enabled})
}

func (cmd *PhaseCmd) updateWindowCmd() *cli.Command {
	return &cli.Command{
		Name:      "update-window",
		Usage:     "Replace a custom phase's time window",
		UsageText: "phaseline phase update-window <phase-id> --unit days --start -30 --end -7 --bucket day",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "unit",
				Usage:       "window unit (hours, days, weeks)",
				Required:    true,
				Destination: &cmd.windowUnit,
			},
			&cli.IntFlag{
				Name:        "start",
				Usage:       "window start offset (negative = before anchor)",
				Required:    true,
				Destination: &cmd.windowStart,
			},
			&cli.IntFlag{
				Name:        "end",
				Usage:       "window end offset",
				Required:    true,
				Destination: &cmd.windowEnd,
			},
			&cli.StringFlag{
				Name:        "bucket",
				Usage:       "deduplication bucket (hour, day, week, year)",
				Value:       string(phase.BucketDay),
				Destination: &cmd.windowBucket,
			},
			&cli.StringFlag{
				Name:        "ref",
				Usage:       "timeline reference (service_start, submission_deadline, order_created)",
				Value:       string(phase.RefServiceStart),
				Destination: &cmd.windowRef,
			},
		},
		Action: cmd.runUpdateWindow,
	}
}

func (cmd *PhaseCmd) runUpdateWindow(ctx context.Context, c *cli.Command) error {
	phaseID := strings.TrimSpace(c.Args().First())
	if phaseID == "" {
		return fmt.Errorf("phase id is required")
	}

	window := phase.WindowConfig{
		Unit:   phase.WindowUnit(cmd.windowUnit),
		Start:  cmd.windowStart,
		End:    cmd.windowEnd,
		Bucket: phase.Bucket(cmd.windowBucket),
	}
	if err := cmd.app.Registry.UpdateWindow(phaseID, window, phase.TimelineReference(cmd.windowRef)); err != nil {
		return err
	}

	def, err := cmd.app.Registry.Get(phaseID)
	if err != nil {
		return err
	}
	return iojson.WriteLine(c.Root().Writer, def)
}
