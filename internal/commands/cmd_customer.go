package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/railops/phaseline/internal/core/task"
	"github.com/railops/phaseline/internal/engine"
	"github.com/railops/phaseline/pkg/iojson"
)

type CustomerCmd struct {
	flags *Flags
	app   *engine.App

	jsonOutput bool
}

// NewCustomerCmd creates a new customer command.
func NewCustomerCmd(flags *Flags, app *engine.App) *CustomerCmd {
	return &CustomerCmd{flags: flags, app: app}
}

// Register adds the customer command to the application.
func (cmd *CustomerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "customer",
		Usage: "List customers and their open tasks",
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.tasksCmd(),
		},
	})

	return app
}

func (cmd *CustomerCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List known customers",
		UsageText: "phaseline customer list [--json]",
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

func (cmd *CustomerCmd) runList(ctx context.Context, c *cli.Command) error {
	customers, err := cmd.app.Customers.List(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, cu := range customers {
			if err := iojson.WriteLine(out, cu); err != nil {
				return fmt.Errorf("encode customer: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCONTACT")
	for _, cu := range customers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", cu.ID, cu.Name, cu.Contact)
	}
	return w.Flush()
}

func (cmd *CustomerCmd) tasksCmd() *cli.Command {
	return &cli.Command{
		Name:      "tasks",
		Usage:     "List open tasks attributed to a customer",
		UsageText: "phaseline customer tasks <customer-id>",
		Action:    cmd.runTasks,
	}
}

func (cmd *CustomerCmd) runTasks(ctx context.Context, c *cli.Command) error {
	customerID := c.Args().First()
	if customerID == "" {
		return fmt.Errorf("customer id is required")
	}

	cu, err := cmd.app.Customers.Get(ctx, customerID)
	if err != nil {
		return err
	}

	tasks, err := cmd.app.Tasks.List(ctx, task.ListFilter{Status: task.StatusOpen})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	out := c.Root().Writer
	for _, t := range tasks {
		if t.CustomerID != cu.ID {
			continue
		}
		if err := iojson.WriteLine(out, t); err != nil {
			return fmt.Errorf("encode task: %w", err)
		}
	}
	return nil
}
