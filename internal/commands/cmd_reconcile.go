package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/railops/phaseline/internal/core/config"
	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/logging"
	"github.com/railops/phaseline/internal/engine"
	"github.com/railops/phaseline/pkg/iojson"
)

type ReconcileCmd struct {
	flags *Flags
	app   *engine.App

	// watch flags
	interval time.Duration
}

// NewReconcileCmd creates a new reconcile command.
func NewReconcileCmd(flags *Flags, app *engine.App) *ReconcileCmd {
	return &ReconcileCmd{flags: flags, app: app}
}

// Register adds the reconcile command to the application.
func (cmd *ReconcileCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "reconcile",
		Usage: "Run the phase automation reconciler",
		Description: `The reconciler diffs the current item-phase mapping against its last
observation. Each item entering a new phase inside that phase's time
window gets a business task created, or is attached to an existing one
with the same template and bucket.

Windows are evaluated only when a pass runs: an item whose window opens
and closes between two passes is not picked up later.`,
		Commands: []*cli.Command{
			cmd.onceCmd(),
			cmd.watchCmd(),
		},
	})

	return app
}

func (cmd *ReconcileCmd) onceCmd() *cli.Command {
	return &cli.Command{
		Name:      "once",
		Usage:     "Run a single reconciliation pass and print the summary",
		UsageText: "phaseline reconcile once",
		Action: func(ctx context.Context, c *cli.Command) error {
			sum, err := cmd.app.Reconciler.ReconcileOnce(ctx)
			if err != nil {
				return err
			}
			return iojson.WriteLine(c.Root().Writer, sum)
		},
	}
}

func (cmd *ReconcileCmd) watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Reconcile continuously until interrupted",
		UsageText: "phaseline reconcile watch [--interval 30s]",
		Description: `Runs one pass immediately, then again on every config file change and,
when --interval is set, on a fixed timer. Config changes re-apply custom
phase definitions, automation overrides, and blueprint extensions
without restarting.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "also run a pass every interval (0 disables the timer)",
				Destination: &cmd.interval,
			},
		},
		Action: cmd.runWatch,
	}
}

func (cmd *ReconcileCmd) runWatch(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := c.Root().Writer
	passes := make(chan string, 1)

	requestPass := func(reason string) {
		select {
		case passes <- reason:
		default: // a pass is already pending
		}
	}

	watcher, err := config.NewWatcher(cmd.flags.ConfigPath, logging.Component("watch"), func(cfg *config.Config) {
		if err := ApplyConfig(cmd.app, cfg); err != nil {
			log.Error().Err(err).Msg("config reload rejected")
			return
		}
		cmd.flags.Config = cfg
		cmd.app.Bus.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Definitions: cfg.Phases})
		requestPass("config reload")
	})
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	var tick <-chan time.Time
	if cmd.interval > 0 {
		ticker := time.NewTicker(cmd.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	requestPass("startup")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			requestPass("interval")
		case reason := <-passes:
			sum, err := cmd.app.Reconciler.ReconcileOnce(ctx)
			if err != nil {
				log.Error().Err(err).Str("reason", reason).Msg("reconcile pass failed")
				continue
			}
			if err := iojson.WriteLine(out, sum); err != nil {
				return fmt.Errorf("encode summary: %w", err)
			}
		}
	}
}
