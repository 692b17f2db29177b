package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/specialistvlad/assetgrid/internal/app"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/listen"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// tasksFailed reports a strict run's failures with ExitFailure.
func tasksFailed(err error) error {
	if errors.Is(err, app.ErrTasksFailed) {
		return &ExitError{Code: ExitFailure, Message: err.Error()}
	}
	return err
}

func newBuildCommand(opts *options, outW io.Writer) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the build group once",
		Long: `Run every step of the "build" group in order.

Failed tasks are reported and the build continues with the next step. The
command exits 0 unless --strict is given.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(outW, strict)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = a.Build(cmd.Context())
			return tasksFailed(err)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 1 when any task failed.")
	return cmd
}

func newDevCommand(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "dev",
		Aliases: []string{"serve"},
		Short:   "Run the dev group, then serve and watch until interrupted",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(outW, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Dev(ctx)
		},
	}
}

func newRunCommand(opts *options, outW io.Writer) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "run TASK...",
		Short: "Run the named tasks once, in order",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(outW, strict)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = a.RunTasks(cmd.Context(), args...)
			return tasksFailed(err)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 1 when any task failed.")
	return cmd
}

func newTasksCommand(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks and groups of the configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			// Logs are discarded so the listing stays readable.
			a, err := opts.newApp(io.Discard, false)
			if err != nil {
				return err
			}
			model := a.Model()

			fmt.Fprintln(outW, headingStyle.Render("Tasks"))
			for _, t := range model.Tasks {
				stages := make([]string, 0, len(t.Stages))
				for _, s := range t.Stages {
					stages = append(stages, s.Type)
				}
				if len(stages) == 0 {
					stages = append(stages, "copy")
				}
				fmt.Fprintf(outW, "  %s %s\n", nameStyle.Render(t.Name),
					dimStyle.Render(fmt.Sprintf("%s -> %s [%s]", strings.Join(t.Src, ", "), t.Dest, strings.Join(stages, " | "))))
			}

			fmt.Fprintln(outW, headingStyle.Render("Groups"))
			for _, g := range model.Groups {
				fmt.Fprintf(outW, "  %s %s\n", nameStyle.Render(g.Name), dimStyle.Render(strings.Join(g.Steps, " -> ")))
			}
			return nil
		},
	}
}

func newPublishCommand(opts *options, outW io.Writer) *cobra.Command {
	var build bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the publish root to object storage",
		Long: `Upload every file below the publish block's root to its bucket.

Credentials are read from ` + app.EnvS3AccessKey + ` and ` + app.EnvS3SecretKey + `.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(outW, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if build {
				if _, err := a.Build(cmd.Context()); err != nil {
					return tasksFailed(err)
				}
			}
			_, err = a.Publish(cmd.Context(), nil)
			return err
		},
	}
	cmd.Flags().BoolVar(&build, "build", false, "Run a strict build before uploading.")
	return cmd
}

func newListenCommand(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "listen [URL]",
		Short: "Print the reload events of a running dev server",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL := "http://localhost:3000"
			if len(args) == 1 {
				serverURL = args[0]
			}

			cfg := &app.Config{LogLevel: opts.logLevel, LogFormat: opts.logFormat}
			ctx := ctxlog.WithLogger(cmd.Context(), app.NewLogger(cfg, outW))
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return follow(ctx, serverURL, outW)
		},
	}
}

// follow prints events until the connection ends.
func follow(ctx context.Context, serverURL string, outW io.Writer) error {
	events := make(chan listen.Event)
	done := make(chan error, 1)
	go func() {
		done <- listen.Listen(ctx, serverURL, events)
	}()

	for {
		select {
		case ev := <-events:
			fmt.Fprintf(outW, "%s %s\n", nameStyle.Render(ev.Type), strings.Join(ev.Paths, " "))
		case err := <-done:
			return err
		}
	}
}
