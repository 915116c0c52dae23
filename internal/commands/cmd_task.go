package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/railops/phaseline/internal/core/task"
	"github.com/railops/phaseline/internal/engine"
	"github.com/railops/phaseline/pkg/iojson"
)

type TaskCmd struct {
	flags *Flags
	app   *engine.App

	// list flags
	jsonOutput   bool
	filterStatus string
	filterTag    string

	// create flags
	createTemplate string
	createTitle    string
	createNote     string
	createTarget   string
	createCustomer string
	createTags     []string
	createItems    []string
}

// NewTaskCmd creates a new task command.
func NewTaskCmd(flags *Flags, app *engine.App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

// Register adds the task command to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "List business tasks and create them from blueprints",
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.createCmd(),
			cmd.blueprintsCmd(),
			cmd.statusCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List business tasks",
		UsageText: "phaseline task list [--status open] [--tag phase:short_term] [--json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "status",
				Usage:       "filter by status (open, in_progress, done, dismissed)",
				Destination: &cmd.filterStatus,
			},
			&cli.StringFlag{
				Name:        "tag",
				Usage:       "filter by tag",
				Destination: &cmd.filterTag,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *TaskCmd) runList(ctx context.Context, c *cli.Command) error {
	tasks, err := cmd.app.Tasks.List(ctx, task.ListFilter{
		Status: task.Status(cmd.filterStatus),
		Tag:    cmd.filterTag,
	})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, t := range tasks {
			if err := iojson.WriteLine(out, t); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDUE\tITEMS\tTAGS")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			t.ID, t.Title, t.Status, due, len(t.LinkedItemIDs), strings.Join(t.Tags, ","))
	}
	return w.Flush()
}

func (cmd *TaskCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a task from a blueprint",
		UsageText: "phaseline task create --template tpl-short-term [--title ...] [--target 2025-06-01]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "template",
				Aliases:     []string{"t"},
				Usage:       "blueprint id to instantiate",
				Required:    true,
				Destination: &cmd.createTemplate,
			},
			&cli.StringFlag{
				Name:        "title",
				Usage:       "override the blueprint title",
				Destination: &cmd.createTitle,
			},
			&cli.StringFlag{
				Name:        "note",
				Usage:       "append a note to the task description",
				Destination: &cmd.createNote,
			},
			&cli.StringFlag{
				Name:        "target",
				Usage:       "target date (YYYY-MM-DD) anchoring the due date, defaults to today",
				Destination: &cmd.createTarget,
			},
			&cli.StringFlag{
				Name:        "customer",
				Usage:       "customer id to attribute the task to",
				Destination: &cmd.createCustomer,
			},
			&cli.StringSliceFlag{
				Name:        "tag",
				Usage:       "extra tag (repeatable)",
				Destination: &cmd.createTags,
			},
			&cli.StringSliceFlag{
				Name:        "item",
				Usage:       "line item id to link (repeatable)",
				Destination: &cmd.createItems,
			},
		},
		Action: cmd.runCreate,
	}
}

func (cmd *TaskCmd) runCreate(ctx context.Context, c *cli.Command) error {
	var target time.Time
	if cmd.createTarget != "" {
		parsed, err := time.Parse("2006-01-02", cmd.createTarget)
		if err != nil {
			return fmt.Errorf("parse target date: %w", err)
		}
		target = parsed
	}

	created, err := cmd.app.Instantiator.Instantiate(ctx, cmd.createTemplate, engine.InstantiateContext{
		TargetDate:    target,
		CustomTitle:   cmd.createTitle,
		Note:          cmd.createNote,
		Tags:          cmd.createTags,
		LinkedItemIDs: cmd.createItems,
		CustomerID:    cmd.createCustomer,
	})
	if err != nil {
		return err
	}

	return iojson.WriteLine(c.Root().Writer, created)
}

func (cmd *TaskCmd) blueprintsCmd() *cli.Command {
	return &cli.Command{
		Name:      "blueprints",
		Usage:     "List available task blueprints",
		UsageText: "phaseline task blueprints [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runBlueprints,
	}
}

func (cmd *TaskCmd) runBlueprints(ctx context.Context, c *cli.Command) error {
	bps := cmd.app.Registry.Blueprints()
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, bp := range bps {
			if err := iojson.WriteLine(out, bp); err != nil {
				return fmt.Errorf("encode blueprint: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tASSIGNMENT\tDUE RULE")
	for _, bp := range bps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			bp.ID, bp.Title, bp.Category, bp.RecommendedAssignment, bp.DueRule.Label)
	}
	return w.Flush()
}

func (cmd *TaskCmd) statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Update a task's status",
		UsageText: "phaseline task status <task-id> <open|in_progress|done|dismissed>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().Get(0)
			status := task.Status(c.Args().Get(1))
			if id == "" || status == "" {
				return fmt.Errorf("task id and status are required")
			}

			if err := cmd.app.Tasks.SetStatus(ctx, id, status); err != nil {
				return err
			}
			return iojson.WriteLine(c.Root().Writer, map[string]string{"id": id, "status": string(status)})
		},
	}
}
