package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/internal/app"
	"github.com/myblog/myblog/pkg/listview"
)

// postFields sorts the category key by the names in categories.
func postFields(categories map[int64]string) listview.Fields[entity.Post] {
	return listview.Fields[entity.Post]{
		Search: func(p entity.Post) []string {
			return []string{p.Title, p.Tags, p.AuthorName()}
		},
		Sort: map[string]func(a, b entity.Post) int{
			"id":       listview.ByOrdered(func(p entity.Post) int64 { return p.ID }),
			"title":    listview.ByString(func(p entity.Post) string { return p.Title }),
			"author":   listview.ByString(func(p entity.Post) string { return p.AuthorName() }),
			"category": listview.ByString(func(p entity.Post) string { return categories[p.Category] }),
			"status":   listview.ByString(func(p entity.Post) string { return p.Status }),
			"created":  listview.ByOrdered(func(p entity.Post) int64 { return p.CreatedAt.UnixNano() }),
		},
	}
}

var categoryFields = listview.Fields[entity.Category]{
	Search: func(c entity.Category) []string {
		return []string{c.Name, c.Slug}
	},
	Sort: map[string]func(a, b entity.Category) int{
		"id":   listview.ByOrdered(func(c entity.Category) int64 { return c.ID }),
		"name": listview.ByString(func(c entity.Category) string { return c.Name }),
	},
}

// cachedLists returns what the session's list load fetched, loading again
// when that load failed.
func cachedLists(ctx context.Context, a *app.App) (inbound.ListResult, error) {
	st := a.Lists.State()
	if st.IsDataFetched && st.Error == nil {
		return inbound.ListResult{Posts: st.Posts, Categories: st.Categories}, nil
	}
	a.Lists.ResetError()
	return a.Lists.Load(ctx)
}

func newPostsCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List blog posts",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			lists, err := cachedLists(ctx, a)
			if err != nil {
				return err
			}
			names := make(map[int64]string, len(lists.Categories))
			for _, c := range lists.Categories {
				names[c.ID] = c.Name
			}
			page, err := apply(&lf, lists.Posts, postFields(names))
			if err != nil {
				return err
			}

			t := table{header: []string{"id", "title", "author", "category", "status", "created"}, footer: pageFooter(page)}
			for _, p := range page.Items {
				t.rows = append(t.rows, []string{
					itoa(p.ID), p.Title, p.AuthorName(), names[p.Category], p.Status, formatDate(p.CreatedAt),
				})
			}
			return opts.printer(cmd).print(page, t)
		}),
	}
	lf.bind(cmd, "id", "title", "author", "category", "status", "created")
	return cmd
}

func newCategoriesCommand(opts *rootOptions) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List post categories",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			lists, err := cachedLists(ctx, a)
			if err != nil {
				return err
			}
			page, err := apply(&lf, lists.Categories, categoryFields)
			if err != nil {
				return err
			}

			t := table{header: []string{"id", "name", "slug"}, footer: pageFooter(page)}
			for _, c := range page.Items {
				t.rows = append(t.rows, []string{itoa(c.ID), c.Name, c.Slug})
			}
			return opts.printer(cmd).print(page, t)
		}),
	}
	lf.bind(cmd, "id", "name")
	return cmd
}

func newContactCommand(opts *rootOptions) *cobra.Command {
	var msg entity.ContactMessage

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message through the contact form",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			if err := a.API.SubmitContact(ctx, msg); err != nil {
				return err
			}
			return opts.printer(cmd).message("Message sent", map[string]any{"sent": true})
		}),
	}
	cmd.Flags().StringVar(&msg.Name, "name", "", "your name")
	cmd.Flags().StringVar(&msg.Email, "email", "", "your email")
	cmd.Flags().StringVar(&msg.Subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&msg.Message, "message", "", "message text")
	for _, f := range []string{"name", "email", "message"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newSubscribeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe EMAIL",
		Short: "Subscribe an email to the newsletter",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			var userID int64
			if s := a.Session.Session(); s.IsAuthenticated() {
				userID = s.User.ID
			}
			if err := a.API.Subscribe(ctx, args[0], userID); err != nil {
				return err
			}
			return opts.printer(cmd).message(fmt.Sprintf("Subscribed %s", args[0]), map[string]any{"email": args[0]})
		}),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
