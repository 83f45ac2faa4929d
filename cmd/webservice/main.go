// webservice is a minimal HTTP server whose connections are handled by a
// fixed-size thread pool.
//
// Usage:
//
//	webservice [options]
//
// Routes:
//
//	GET /           serves <root>/hello.html
//	GET /sleep      waits 5s, then serves <root>/hello.html
//	GET /forbidden  403
//
// Any other request gets a 404 page. SIGINT, SIGTERM, SIGHUP and SIGQUIT stop
// the server; connections already accepted are finished first.
//
// Exit codes:
//
//	0: clean or signal-triggered shutdown
//	1: startup or runtime failure (config file, pool, listener)
//	2: usage error (unknown flag, invalid value)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ygrebnov/threadpool/internal/app"
	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/internal/logging"
)

// Version can be set with -ldflags "-X main.Version=...".
var Version = "0.1.0-dev"

func init() {
	// -v belongs to --verbose.
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// usageError marks bad command-line input.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func newCommand(stdout, stderr io.Writer) *cli.Command {
	defaults := config.Default()

	return &cli.Command{
		Name:      "webservice",
		Usage:     "a minimal HTTP server, responding to almost nothing",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen to for incoming TCP traffic",
				Value:   defaults.Port,
				Sources: cli.EnvVars("WEBSERVICE_PORT"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log at debug level",
			},
			&cli.StringFlag{
				Name:  "handle",
				Usage: "how TCP connections are handled (pool, group, blocked)",
				Value: defaults.Handle,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "number of workers for the pool and group modes",
				Value:   defaults.Workers,
			},
			&cli.IntFlag{
				Name:  "queue-capacity",
				Usage: "bound the pool's work channel (0 = unbounded)",
				Value: defaults.QueueCapacity,
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "directory hello.html is served from",
				Value: defaults.Root,
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "how long to wait for running connections on exit",
				Value: defaults.ShutdownTimeout,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or JSON config file; flags override its values",
				Sources: cli.EnvVars("WEBSERVICE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to a rotating file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text, json)",
				Value: defaults.Log.Format,
			},
		},
		Action: serve,
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{err: err}
		},
		// run maps errors to exit codes; cli must not call os.Exit.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newCommand(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "usage error: %v\n", uerr)
		return 2
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	err = a.Run(ctx)
	if errors.Is(err, app.ErrSignal) {
		logger.Info("shut down", slog.String("reason", err.Error()))
		return nil
	}
	return err
}

// loadConfig reads the optional config file and applies the flags that were set.
// An invalid result is a usage error unless a config file was involved.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("handle") {
		cfg.Handle = cmd.String("handle")
	}
	if cmd.IsSet("workers") {
		cfg.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("queue-capacity") {
		cfg.QueueCapacity = cmd.Int("queue-capacity")
	}
	if cmd.IsSet("root") {
		cfg.Root = cmd.String("root")
	}
	if cmd.IsSet("shutdown-timeout") {
		cfg.ShutdownTimeout = cmd.Duration("shutdown-timeout")
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	if cmd.Bool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		if cmd.String("config") != "" {
			return config.Config{}, err
		}
		return config.Config{}, &usageError{err: err}
	}
	return cfg, nil
}
