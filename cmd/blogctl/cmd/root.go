// Package cmd provides the blogctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	domainerror "github.com/myblog/myblog/domain/error"
	"github.com/myblog/myblog/infrastructure/config"
	"github.com/myblog/myblog/infrastructure/metrics"
	"github.com/myblog/myblog/internal/app"
)

var errNotLoggedIn = domainerror.NewAppError(domainerror.ErrCodeNotAuthenticated, "Not logged in", "run 'blogctl login' first", nil)

type rootOptions struct {
	output      string
	showMetrics bool
}

// runFunc is a command body that runs against a bootstrapped App.
type runFunc func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "blogctl",
		Short: "blogctl - MyBlog command line client",
		Long: `blogctl talks to the MyBlog REST API on behalf of a reader or an admin.

The session is kept in the token store between runs, and an expired access
token is renewed transparently with the stored refresh token.

Configuration is read from the environment (and .env when present):
  BLOG_API_URL     API base URL (default http://127.0.0.1:8000)
  TOKEN_STORE      file, redis or memory (default file)
  TOKEN_FILE       token file for the file store
  REDIS_URL        Redis URL for the redis store
  LOG_LEVEL        debug, info, warn, error (default info)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(opts.output)
		},
	}

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatTable, "output format: table, json or yaml")
	root.PersistentFlags().BoolVar(&opts.showMetrics, "metrics", false, "print client metrics to stderr when done")

	root.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newSignupCommand(opts),
		newWhoamiCommand(opts),
		newStatusCommand(opts),
		newPostsCommand(opts),
		newCategoriesCommand(opts),
		newContactCommand(opts),
		newSubscribeCommand(opts),
		newUsersCommand(opts),
		newCommentsCommand(opts),
		newContactsCommand(opts),
		newNewsletterCommand(opts),
		newStatsCommand(opts),
		newDashboardCommand(opts),
		newDeletePostCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// withApp loads the configuration, opens the App, bootstraps the session and
// then hands over to run.
func (o *rootOptions) withApp(run runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		a, err := app.New(ctx, cfg, app.WithLogOutput(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer a.Close()

		a.Session.Bootstrap(ctx)

		runErr := run(ctx, cmd, a, args)

		if o.showMetrics {
			if err := metrics.WriteSummary(cmd.ErrOrStderr(), a.Registry); err != nil {
				a.Logger.Warn(ctx, "Failed to print metrics", map[string]interface{}{"error": err.Error()})
			}
		}
		return runErr
	}
}

func (o *rootOptions) printer(cmd *cobra.Command) printer {
	return printer{w: cmd.OutOrStdout(), format: o.output}
}

func requireAuth(a *app.App) error {
	if !a.Session.Session().IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}
