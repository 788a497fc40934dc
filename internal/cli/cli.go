package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/texgridgo/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	configPath  string
	logLevel    string
	logFormat   string
	workers     int
	healthPort  int
	libraries   []string
	synchronous bool
}

// Execute runs the command tree with args and returns the first error.
// Flag and configuration problems come back as an ExitError with code 2.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := newRootCmd(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(outW, errW io.Writer) *cobra.Command {
	opts := &globalOpts{}
	root := &cobra.Command{
		Use:           "texgrid",
		Short:         "TexGrid evaluates procedural texture graphs",
		Long:          `TexGrid renders node graphs of image operators, read from HCL project files, into image files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a toml config file.")
	flags.StringVar(&opts.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	flags.IntVar(&opts.workers, "workers", 0, "Number of job and raster workers.")
	flags.IntVar(&opts.healthPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	flags.StringSliceVarP(&opts.libraries, "library", "L", nil, "Extra node library directory, repeatable.")
	flags.BoolVar(&opts.synchronous, "sync", false, "Run jobs inline on the evaluation goroutine.")

	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newNodesCmd(opts))
	root.AddCommand(newGraphCmd(opts))
	root.AddCommand(newLayoutCmd(opts))
	return root
}

// config merges the defaults, the config file and the flags the user set.
func (o *globalOpts) config(cmd *cobra.Command) (app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = app.LoadConfig(o.configPath); err != nil {
			return cfg, usageError(err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("workers") {
		cfg.WorkerCount = o.workers
	}
	if flags.Changed("healthcheck-port") {
		cfg.HealthcheckPort = o.healthPort
	}
	if flags.Changed("sync") {
		cfg.Synchronous = o.synchronous
	}
	cfg.LibraryPaths = append(cfg.LibraryPaths, o.libraries...)
	return cfg, nil
}

// newApp validates cfg and builds the app. Logs go to the command's error
// stream so that stdout only carries command output.
func newApp(cmd *cobra.Command, cfg app.Config) (*app.App, error) {
	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(fmt.Errorf("invalid configuration: %w", err))
	}
	return app.NewApp(cmd.Context(), cmd.ErrOrStderr(), validated)
}
