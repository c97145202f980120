package blogapi

import (
	"context"
	"net/http"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/infrastructure/http/apiclient"
)

const (
	PostsPath      = "/api/posts/"
	CategoriesPath = "/api/categories/"
	ContactPath    = "/api/contact/"
	NewsletterPath = "/api/newsletter/"
)

func (a *API) Posts(ctx context.Context) ([]entity.Post, error) {
	var posts []entity.Post
	if err := a.get(ctx, PostsPath, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (a *API) Categories(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	if err := a.get(ctx, CategoriesPath, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (a *API) SubmitContact(ctx context.Context, msg entity.ContactMessage) error {
	return a.call(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      ContactPath,
		Body:      msg,
		Anonymous: true,
	}, nil)
}

// Subscribe adds email to the newsletter. userID 0 subscribes anonymously.
func (a *API) Subscribe(ctx context.Context, email string, userID int64) error {
	body := map[string]any{"email": email, "user": nil}
	if userID != 0 {
		body["user"] = userID
	}
	return a.call(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      NewsletterPath,
		Body:      body,
		Anonymous: true,
	}, nil)
}
