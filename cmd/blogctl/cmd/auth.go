package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/internal/app"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password, redirect string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}
			dest, err := a.Session.Login(ctx, email, pw, redirect)
			if err != nil {
				return err
			}
			s := a.Session.Session()
			return opts.printer(cmd).message(
				fmt.Sprintf("Logged in as %s (%s), redirect %s", s.User.FullName(), s.User.Email, dest),
				map[string]any{"user": s.User, "redirect": dest},
			)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&redirect, "redirect", "", "page to land on when the server names none")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			a.Session.Logout(ctx)
			return opts.printer(cmd).message("Logged out", map[string]any{"state": a.Session.Session().State})
		}),
	}
}

func newSignupCommand(opts *rootOptions) *cobra.Command {
	var reg valueobject.Registration
	var redirect string
	var noLogin bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in with it",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			pw, err := passwordOrPrompt(cmd, reg.Password)
			if err != nil {
				return err
			}
			reg.Password = pw

			if noLogin {
				u, err := a.Session.Register(ctx, reg)
				if err != nil {
					return err
				}
				return opts.printer(cmd).message(fmt.Sprintf("Registered %s", u.Email), u)
			}

			dest, err := a.Session.Signup(ctx, reg, redirect)
			if err != nil {
				return err
			}
			s := a.Session.Session()
			return opts.printer(cmd).message(
				fmt.Sprintf("Registered and logged in as %s, redirect %s", s.User.Email, dest),
				map[string]any{"user": s.User, "redirect": dest},
			)
		}),
	}
	cmd.Flags().StringVar(&reg.FirstName, "fname", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "lname", "", "last name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&redirect, "redirect", "", "page to land on when the server names none")
	cmd.Flags().BoolVar(&noLogin, "no-login", false, "only create the account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			s := a.Session.Session()
			if !s.IsAuthenticated() {
				return opts.printer(cmd).message("anonymous", map[string]any{"state": s.State})
			}
			return opts.printer(cmd).print(s.User, userTable([]entity.UserProfile{*s.User}, ""))
		}),
	}
}

type statusView struct {
	State       string `json:"state"`
	User        string `json:"user,omitempty"`
	Role        string `json:"role,omitempty"`
	TokenStore  string `json:"token_store"`
	APIURL      string `json:"api_url"`
	AccessValid string `json:"access_expires"`
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session state and token expiry",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			s := a.Session.Session()
			v := statusView{
				State:       string(s.State),
				TokenStore:  a.Config.TokenStore,
				APIURL:      a.Config.APIURL,
				AccessValid: "none",
			}
			if s.User != nil {
				v.User = s.User.Email
				v.Role = s.User.Role()
			}
			if s.Tokens != nil {
				v.AccessValid = expiryText(s.Tokens, time.Now())
			}

			t := table{
				header: []string{"field", "value"},
				rows: [][]string{
					{"state", v.State},
					{"user", v.User},
					{"role", v.Role},
					{"token store", v.TokenStore},
					{"api url", v.APIURL},
					{"access expires", v.AccessValid},
				},
			}
			return opts.printer(cmd).print(v, t)
		}),
	}
}

func expiryText(pair *valueobject.TokenPair, now time.Time) string {
	exp, err := pair.AccessExpiry()
	if err != nil {
		return "unknown"
	}
	if !exp.After(now) {
		return fmt.Sprintf("%s (expired)", exp.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", exp.Format(time.RFC3339), exp.Sub(now).Round(time.Second))
}

func passwordOrPrompt(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return strings.TrimRight(line, "\r\n"), nil
}
