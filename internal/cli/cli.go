package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/assetgrid/internal/app"
)

// Environment variables read as flag defaults.
const (
	EnvConfig    = "ASSETGRID_CONFIG"
	EnvLogLevel  = "ASSETGRID_LOG_LEVEL"
	EnvLogFormat = "ASSETGRID_LOG_FORMAT"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
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

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (o *options) config(strict bool) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPath: o.configPath,
		LogLevel:   o.logLevel,
		LogFormat:  o.logFormat,
		Strict:     strict,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return cfg, nil
}

// newApp loads the configuration file. Loading problems are usage errors.
func (o *options) newApp(outW io.Writer, strict bool) (*app.App, error) {
	cfg, err := o.config(strict)
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(outW, cfg, nil)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return a, nil
}

// NewRootCommand assembles the assetgrid command tree writing to outW.
func NewRootCommand(outW io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "assetgrid",
		Short: "Declarative front-end asset pipeline",
		Long: `assetgrid compiles, bundles and minifies front-end assets from a single
declarative configuration file (assetgrid.hcl or assetgrid.yaml).

A failing stage never stops the pipeline: it is reported as a notification
and the remaining tasks keep running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv(EnvConfig), "Path to the configuration file (default: assetgrid.hcl or assetgrid.yaml).")
	flags.StringVar(&opts.logLevel, "log-level", envOr(EnvLogLevel, "info"), "Logging level: debug, info, warn or error.")
	flags.StringVar(&opts.logFormat, "log-format", envOr(EnvLogFormat, "text"), "Log output format: text or json.")

	root.AddCommand(
		newBuildCommand(opts, outW),
		newDevCommand(opts, outW),
		newRunCommand(opts, outW),
		newTasksCommand(opts, outW),
		newPublishCommand(opts, outW),
		newListenCommand(opts, outW),
	)
	return root
}

// Execute runs the command tree with args. Errors that are not already an
// ExitError exit with ExitFailure.
func Execute(root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// usageArgs turns positional argument errors into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &ExitError{Code: ExitUsage, Message: err.Error()}
		}
		return nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
