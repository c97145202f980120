package blogapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/http/apiclient"
	"github.com/myblog/myblog/infrastructure/tokenstore"
	"github.com/myblog/myblog/internal/fakeapi"
	apperror "github.com/myblog/myblog/pkg/error"
)

type fixture struct {
	srv   *fakeapi.Server
	store *tokenstore.MemoryStore
	api   *API
	admin entity.UserProfile
	user  entity.UserProfile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	admin := srv.AddUser(entity.UserProfile{FirstName: "Root", LastName: "Admin", Email: "admin@example.com", IsSuperuser: true}, "adminpass1")
	user := srv.AddUser(entity.UserProfile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, "password123")

	store := tokenstore.NewMemoryStore()
	return &fixture{
		srv:   srv,
		store: store,
		api:   New(apiclient.New(srv.URL, store)),
		admin: admin,
		user:  user,
	}
}

// signIn stores a fresh token pair for u.
func (f *fixture) signIn(t *testing.T, u entity.UserProfile) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), f.srv.Issue(u.ID)))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f.srv.QueueAccess("A1")
		creds, err := valueobject.NewCredentials("ada@example.com", "password123")
		require.NoError(t, err)

		res, err := f.api.Login(ctx, *creds)
		require.NoError(t, err)
		assert.Equal(t, "A1", res.Tokens.Access)
		assert.NotEmpty(t, res.Tokens.Refresh)
		assert.Equal(t, f.user.ID, res.User.ID)
		assert.Empty(t, res.Redirect)
	})

	t.Run("AdminRedirect", func(t *testing.T) {
		res, err := f.api.Login(ctx, valueobject.Credentials{Email: "admin@example.com", Password: "adminpass1"})
		require.NoError(t, err)
		assert.Equal(t, "/admin/dashboard", res.Redirect)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := f.api.Login(ctx, valueobject.Credentials{Email: "ada@example.com", Password: "not-the-password"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials))
		assert.Equal(t, http.StatusUnauthorized, apperror.StatusOf(err))
		assert.Equal(t, 0, f.srv.Calls(fakeapi.RouteRefresh))
	})

	t.Run("ServerError", func(t *testing.T) {
		f.srv.FailNext(fakeapi.RouteLogin, http.StatusInternalServerError)
		_, err := f.api.Login(ctx, valueobject.Credentials{Email: "ada@example.com", Password: "password123"})
		require.Error(t, err)
		assert.False(t, errors.Is(err, apperror.ErrInvalidCredentials))
		assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))
	})
}

func TestRegisterAndCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.api.Register(ctx, valueobject.Registration{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "cobol-rules",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Grace Hopper", created.FullName())

	_, err = f.api.Register(ctx, valueobject.Registration{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "cobol-rules",
	})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	f.signIn(t, *created)
	me, err := f.api.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, me.ID)
	assert.Equal(t, "grace@example.com", me.Email)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, f.user)

	pair, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, f.api.Logout(ctx, pair.Refresh))
	assert.Equal(t, 1, f.srv.Calls(fakeapi.RouteLogout))
}

func TestContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.AddCategory(entity.Category{Name: "Go", Slug: "go"})
	f.srv.AddPost(entity.Post{Title: "Hello", Author: &entity.Author{FirstName: "Ada", LastName: "Lovelace"}})

	posts, err := f.api.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Ada Lovelace", posts[0].AuthorName())

	categories, err := f.api.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "go", categories[0].Slug)

	require.NoError(t, f.api.SubmitContact(ctx, entity.ContactMessage{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Nice blog"}))
	require.Len(t, f.srv.Contacts(), 1)

	require.NoError(t, f.api.Subscribe(ctx, "ada@example.com", f.user.ID))
	err = f.api.Subscribe(ctx, "ada@example.com", 0)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	assert.Len(t, f.srv.Subscribers(), 1)
}

func TestAdminUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("ForbiddenForRegularUser", func(t *testing.T) {
		f.signIn(t, f.user)
		_, err := f.api.Users(ctx)
		assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))
	})

	f.signIn(t, f.admin)

	users, err := f.api.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	u, err := f.api.User(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	u.IsStaff = true
	updated, err := f.api.UpdateUser(ctx, u.ID, entity.NewUserUpdate(*u, ""))
	require.NoError(t, err)
	assert.True(t, updated.IsStaff)

	// the old password still works when none is sent
	_, err = f.api.Login(ctx, valueobject.Credentials{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, f.api.DeleteUser(ctx, u.ID))
	_, err = f.api.User(ctx, u.ID)
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestAdminComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, f.admin)

	post := f.srv.AddPost(entity.Post{Title: "Hello"})
	other := f.srv.AddPost(entity.Post{Title: "Other"})
	c := f.srv.AddComment(post.ID, entity.Comment{Content: "first", User: &entity.CommentAuthor{Username: "ada"}})
	f.srv.AddComment(other.ID, entity.Comment{Content: "elsewhere"})
	r := f.srv.AddReply(entity.Reply{Comment: c.ID, Content: "reply"})

	all, err := f.api.Comments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byPost, err := f.api.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, byPost, 1)
	assert.Equal(t, "Hello", byPost[0].Post)
	assert.Equal(t, "ada", byPost[0].Username())

	replies, err := f.api.Replies(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)

	require.NoError(t, f.api.DeleteReply(ctx, r.ID))
	require.NoError(t, f.api.DeleteComment(ctx, c.ID))
	remaining, err := f.api.Comments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestAdminPostStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, f.user)

	post := f.srv.AddPost(entity.Post{Title: "Hello"})

	created, err := f.api.CreatePostStats(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Views)
	assert.Equal(t, post.ID, created.Post)

	viewed, err := f.api.SetPostViews(ctx, created.ID, created.Views+1)
	require.NoError(t, err)
	assert.Equal(t, 2, viewed.Views)

	liked, err := f.api.ToggleLike(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.LikedByUser(f.user.ID))

	unliked, err := f.api.ToggleLike(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.Likes)

	stats, err := f.api.PostStats(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	best, err := f.api.PostOfTheWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, post.ID, best.Post)
}

func TestAdminDeletePostAndLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, f.admin)

	post := f.srv.AddPost(entity.Post{Title: "Doomed"})
	f.srv.AddContact(entity.Contact{Name: "Ada", Email: "ada@example.com", Message: "hi"})

	require.NoError(t, f.api.DeletePost(ctx, post.ID))
	assert.Empty(t, f.srv.Posts())

	err := f.api.DeletePost(ctx, post.ID)
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	contacts, err := f.api.Contacts(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	subs, err := f.api.Subscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
