package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/app"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
	// ProgramName is injected at build time
	ProgramName = "vsm"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, ProgramName, args[1:], os.Stdin, os.Stdout); err != nil {
		exit(1)
	}
}

// Execute builds the command tree and runs it with args.
func Execute(version, programName string, args []string, in io.Reader, out io.Writer) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Vector space model document search",
		Long:    "Builds a TF-IDF weighted inverted index over a document corpus and ranks documents against free-text queries.",
		Version: version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.RunREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)
	app.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "search",
			Short: "Answer queries interactively from stdin",
			Args:  cobra.NoArgs,
			RunE:  rootCmd.RunE,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the search API over HTTP",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					return a.Serve(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "mcp",
			Short: "Expose search as an MCP tool over stdio",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					return a.ServeMCP(ctx, version)
				})
			},
		},
		&cobra.Command{
			Use:   "dump [path]",
			Short: "Build the index and write its normalized postings",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(_ context.Context, a *app.App) error {
					path := a.Config.Debug.DumpPath
					if len(args) == 1 {
						path = args[0]
					}
					return a.Dump(path, cmd.OutOrStdout())
				})
			},
		},
	)

	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	return rootCmd.Execute()
}

// withApp loads settings, builds the index and runs fn until it returns or
// the process is interrupted.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := app.LoadSettings(cmd.Flags())
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}
