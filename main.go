package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/railops/phaseline/internal/commands"
	"github.com/railops/phaseline/internal/core/config"
	"github.com/railops/phaseline/internal/core/eventbus"
	"github.com/railops/phaseline/internal/core/logging"
	"github.com/railops/phaseline/internal/data/stores"
	"github.com/railops/phaseline/internal/engine"
	"github.com/railops/phaseline/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		busCancel context.CancelFunc
		engineApp = &engine.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "phaseline",
		Usage:     "Phase-driven task automation for transport orders",
		UsageText: "phaseline [global options] command [command options]",
		Description: `Phaseline watches transport-order line items moving through the TTR
planning phases (capacity planning, annual request, rolling planning,
short-term, ad-hoc) and materializes the right business task when an
item enters a phase inside its time window.

Run 'phaseline reconcile once' for a single pass, or
'phaseline reconcile watch' to keep reconciling until interrupted.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("PHASELINE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/phaseline.log)",
				Sources:     cli.EnvVars("PHASELINE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("PHASELINE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("PHASELINE_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; stdout stays machine-readable.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "phaseline.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			bus := eventbus.New(64)
			eventbus.RegisterDebugLogger(bus, log.Logger)

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			orders := stores.NewOrderStore(cfg.Engine.TimelineReference)
			tasks := stores.NewTaskStore()
			customers := stores.NewCustomerStore(commands.CustomersFromConfig(cfg)...)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*engineApp = *engine.NewApp(orders, tasks, customers, bus, cfg.Engine.ExecutionLogCap, log.Logger)

			if err := commands.SeedConfig(engineApp, orders, cfg); err != nil {
				return ctx, fmt.Errorf("seed from config: %w", err)
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if busCancel != nil {
				busCancel()
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewPhaseCmd(flags, engineApp).Register(app)
	app = commands.NewTaskCmd(flags, engineApp).Register(app)
	app = commands.NewRuleCmd(flags, engineApp).Register(app)
	app = commands.NewReconcileCmd(flags, engineApp).Register(app)
	app = commands.NewCustomerCmd(flags, engineApp).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
