package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/internal/app"
	"github.com/myblog/myblog/pkg/listview"
)

const contentPreview = 40

var userFields = listview.Fields[entity.UserProfile]{
	Search: func(u entity.UserProfile) []string {
		return []string{u.FirstName, u.LastName, u.Email}
	},
	Sort: map[string]func(a, b entity.UserProfile) int{
		"id":     listview.ByOrdered(func(u entity.UserProfile) int64 { return u.ID }),
		"name":   listview.ByString(func(u entity.UserProfile) string { return u.FullName() }),
		"email":  listview.ByString(func(u entity.UserProfile) string { return u.Email }),
		"joined": listview.ByOrdered(func(u entity.UserProfile) int64 { return u.JoinedOn.UnixNano() }),
	},
}

var commentFields = listview.Fields[entity.Comment]{
	Search: func(c entity.Comment) []string {
		return []string{c.Content, c.Username(), c.Post}
	},
	Sort: map[string]func(a, b entity.Comment) int{
		"id":      listview.ByOrdered(func(c entity.Comment) int64 { return c.ID }),
		"post":    listview.ByString(func(c entity.Comment) string { return c.Post }),
		"created": listview.ByOrdered(func(c entity.Comment) int64 { return c.CreatedAt.UnixNano() }),
	},
}

var contactFields = listview.Fields[entity.Contact]{
	Search: func(c entity.Contact) []string {
		return []string{c.Name, c.Email, c.Subject, c.Message}
	},
	Sort: map[string]func(a, b entity.Contact) int{
		"name":    listview.ByString(func(c entity.Contact) string { return c.Name }),
		"email":   listview.ByString(func(c entity.Contact) string { return c.Email }),
		"created": listview.ByOrdered(func(c entity.Contact) int64 { return c.CreatedAt.UnixNano() }),
	},
}

var subscriberFields = listview.Fields[entity.Subscriber]{
	Search: func(s entity.Subscriber) []string {
		return []string{s.Email}
	},
	Sort: map[string]func(a, b entity.Subscriber) int{
		"email":      listview.ByString(func(s entity.Subscriber) string { return s.Email }),
		"subscribed": listview.ByOrdered(func(s entity.Subscriber) int64 { return s.SubscribedAt.UnixNano() }),
	},
}

var statsFields = listview.Fields[entity.PostStats]{
	Sort: map[string]func(a, b entity.PostStats) int{
		"post":  listview.ByOrdered(func(s entity.PostStats) int64 { return s.Post }),
		"views": listview.ByOrdered(func(s entity.PostStats) int { return s.Views }),
		"likes": listview.ByOrdered(func(s entity.PostStats) int { return s.Likes }),
	},
}

// adminRun is withApp restricted to a logged in session.
func (o *rootOptions) adminRun(run runFunc) func(*cobra.Command, []string) error {
	return o.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireAuth(a); err != nil {
			return err
		}
		return run(ctx, cmd, a, args)
	})
}

func userTable(users []entity.UserProfile, footer string) table {
	t := table{header: []string{"id", "name", "email", "role", "joined"}, footer: footer}
	for _, u := range users {
		t.rows = append(t.rows, []string{itoa(u.ID), u.FullName(), u.Email, u.Role(), formatDate(u.JoinedOn)})
	}
	return t
}

func newUsersCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and manage user accounts",
		Args:  cobra.NoArgs,
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			users, err := a.API.Users(ctx)
			if err != nil {
				return err
			}
			page, err := apply(&lf, users, userFields)
			if err != nil {
				return err
			}
			return opts.printer(cmd).print(page, userTable(page.Items, pageFooter(page)))
		}),
	}
	lf.bind(cmd, "id", "name", "email", "joined")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show ID",
			Short: "Show one user",
			Args:  cobra.ExactArgs(1),
			RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				u, err := a.API.User(ctx, id)
				if err != nil {
					return err
				}
				return opts.printer(cmd).print(u, userTable([]entity.UserProfile{*u}, ""))
			}),
		},
		newUserUpdateCommand(opts),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a user",
			Args:  cobra.ExactArgs(1),
			RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.API.DeleteUser(ctx, id); err != nil {
					return err
				}
				return opts.printer(cmd).message(fmt.Sprintf("Deleted user %d", id), map[string]any{"deleted": id})
			}),
		},
	)
	return cmd
}

func newUserUpdateCommand(opts *rootOptions) *cobra.Command {
	var fname, lname, email, password string
	var superuser, staff bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a user; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			u, err := a.BackOffice.UpdateUser(ctx, id, func(u *entity.UserProfile) {
				if flags.Changed("fname") {
					u.FirstName = fname
				}
				if flags.Changed("lname") {
					u.LastName = lname
				}
				if flags.Changed("email") {
					u.Email = email
				}
				if flags.Changed("superuser") {
					u.IsSuperuser = superuser
					u.IsAdmin = superuser
				}
				if flags.Changed("staff") {
					u.IsStaff = staff
				}
			}, password)
			if err != nil {
				return err
			}
			return opts.printer(cmd).print(u, userTable([]entity.UserProfile{*u}, ""))
		}),
	}
	cmd.Flags().StringVar(&fname, "fname", "", "first name")
	cmd.Flags().StringVar(&lname, "lname", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "new password, empty keeps the current one")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant or revoke admin rights")
	cmd.Flags().BoolVar(&staff, "staff", false, "grant or revoke staff status")
	return cmd
}

func newCommentsCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags
	var postID int64

	cmd := &cobra.Command{
		Use:   "comments",
		Short: "List comments with their replies, and moderate them",
		Args:  cobra.NoArgs,
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			comments, err := a.BackOffice.CommentsWithReplies(ctx, postID)
			if err != nil {
				return err
			}
			page, err := apply(&lf, comments, commentFields)
			if err != nil {
				return err
			}

			t := table{header: []string{"id", "post", "user", "comment", "replies", "created"}, footer: pageFooter(page)}
			for _, c := range page.Items {
				t.rows = append(t.rows, []string{
					itoa(c.ID), c.Post, c.Username(), preview(c.Content), strconv.Itoa(len(c.Replies)), formatDate(c.CreatedAt),
				})
				for _, r := range c.Replies {
					t.rows = append(t.rows, []string{"  " + itoa(r.ID), "", replyUser(r), preview(r.Content), "", formatDate(r.CreatedAt)})
				}
			}
			return opts.printer(cmd).print(page, t)
		}),
	}
	lf.bind(cmd, "id", "post", "created")
	cmd.Flags().Int64Var(&postID, "post", 0, "only comments of this post")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a comment",
			Args:  cobra.ExactArgs(1),
			RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.API.DeleteComment(ctx, id); err != nil {
					return err
				}
				return opts.printer(cmd).message(fmt.Sprintf("Deleted comment %d", id), map[string]any{"deleted": id})
			}),
		},
		&cobra.Command{
			Use:   "delete-reply ID",
			Short: "Delete a reply",
			Args:  cobra.ExactArgs(1),
			RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.API.DeleteReply(ctx, id); err != nil {
					return err
				}
				return opts.printer(cmd).message(fmt.Sprintf("Deleted reply %d", id), map[string]any{"deleted": id})
			}),
		},
	)
	return cmd
}

func newContactsCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contact form messages",
		Args:  cobra.NoArgs,
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			contacts, err := a.API.Contacts(ctx)
			if err != nil {
				return err
			}
			page, err := apply(&lf, contacts, contactFields)
			if err != nil {
				return err
			}

			t := table{header: []string{"id", "name", "email", "subject", "message", "created"}, footer: pageFooter(page)}
			for _, c := range page.Items {
				t.rows = append(t.rows, []string{itoa(c.ID), c.Name, c.Email, c.Subject, preview(c.Message), formatDate(c.CreatedAt)})
			}
			return opts.printer(cmd).print(page, t)
		}),
	}
	lf.bind(cmd, "name", "email", "created")
	return cmd
}

func newNewsletterCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "newsletter",
		Short: "List newsletter subscribers",
		Args:  cobra.NoArgs,
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			subs, err := a.API.Subscribers(ctx)
			if err != nil {
				return err
			}
			page, err := apply(&lf, subs, subscriberFields)
			if err != nil {
				return err
			}

			t := table{header: []string{"id", "email", "active", "subscribed"}, footer: pageFooter(page)}
			for _, s := range page.Items {
				t.rows = append(t.rows, []string{itoa(s.ID), s.Email, strconv.FormatBool(s.IsActive), formatDate(s.SubscribedAt)})
			}
			return opts.printer(cmd).print(page, t)
		}),
	}
	lf.bind(cmd, "email", "subscribed")
	return cmd
}

func statsTable(stats []entity.PostStats, footer string) table {
	t := table{header: []string{"id", "post", "views", "likes", "shares", "comments"}, footer: footer}
	for _, s := range stats {
		t.rows = append(t.rows, []string{
			itoa(s.ID), itoa(s.Post), strconv.Itoa(s.Views), strconv.Itoa(s.Likes), strconv.Itoa(s.Shares), strconv.Itoa(s.Comments),
		})
	}
	return t
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags
	var postID int64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show post statistics",
		Args:  cobra.NoArgs,
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			stats, err := a.API.PostStats(ctx, postID)
			if err != nil {
				return err
			}
			page, err := apply(&lf, stats, statsFields)
			if err != nil {
				return err
			}
			return opts.printer(cmd).print(page, statsTable(page.Items, pageFooter(page)))
		}),
	}
	lf.bind(cmd, "post", "views", "likes")
	cmd.Flags().Int64Var(&postID, "post", 0, "only this post")

	postStatsCommand := func(use, short string, do func(ctx context.Context, a *app.App, post int64) (*entity.PostStats, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				s, err := do(ctx, a, id)
				if err != nil {
					return err
				}
				return opts.printer(cmd).print(s, statsTable([]entity.PostStats{*s}, ""))
			}),
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "week",
			Short: "Show the post of the week",
			Args:  cobra.NoArgs,
			RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
				s, err := a.API.PostOfTheWeek(ctx)
				if err != nil {
					return err
				}
				return opts.printer(cmd).print(s, statsTable([]entity.PostStats{*s}, ""))
			}),
		},
		postStatsCommand("view POST_ID", "Record one view of a post", func(ctx context.Context, a *app.App, post int64) (*entity.PostStats, error) {
			return a.BackOffice.RecordView(ctx, post)
		}),
		postStatsCommand("like POST_ID", "Toggle the current user's like on a post", func(ctx context.Context, a *app.App, post int64) (*entity.PostStats, error) {
			return a.BackOffice.ToggleLike(ctx, post)
		}),
	)
	return cmd
}

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard summary",
		Args:  cobra.NoArgs,
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			d, err := a.BackOffice.Dashboard(ctx)
			if err != nil {
				return err
			}

			t := table{
				header: []string{"id", "title", "author", "views", "created"},
				footer: fmt.Sprintf("users %d, posts %d, comments %d, total views %d", d.Users, d.Posts, d.Comments, d.TotalViews),
			}
			for _, p := range d.RecentPosts {
				t.rows = append(t.rows, []string{itoa(p.ID), p.Title, p.AuthorName(), strconv.Itoa(p.Views), formatDate(p.CreatedAt)})
			}
			return opts.printer(cmd).print(d, t)
		}),
	}
}

func newDeletePostCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-post ID",
		Short: "Delete a post and reload the post list",
		Args:  cobra.ExactArgs(1),
		RunE: opts.adminRun(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.BackOffice.DeletePost(ctx, id); err != nil {
				return err
			}
			return opts.printer(cmd).message(fmt.Sprintf("Deleted post %d", id), map[string]any{"deleted": id})
		}),
	}
}

func replyUser(r entity.Reply) string {
	if r.User == nil {
		return ""
	}
	return r.User.Username
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= contentPreview {
		return s
	}
	return string(r[:contentPreview-3]) + "..."
}
