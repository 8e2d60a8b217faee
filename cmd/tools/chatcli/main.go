// Command chatcli drives a help center server from the terminal: chat through
// the widget controller, probe image candidates and run migrations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/radoslav1992/ai-help-center/internal/logger"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chatcli",
		Short:         "Talk to an AI help center server from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger.Setup(logger.Options{Level: level, Format: "console", Out: cmd.ErrOrStderr()})
		},
	}

	defaultServer := os.Getenv("HELP_CENTER_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", defaultServer, "help center base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 90*time.Second, "per-request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newChatCmd(opts), newImageCmd(opts), newMigrateCmd(), newContactsCmd(), newPortfolioCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln(errorStyle.Render("error: " + err.Error()))
		stop()
		os.Exit(1)
	}
}
