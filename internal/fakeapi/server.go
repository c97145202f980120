// Package fakeapi runs an in-process stand-in for the MyBlog REST API. Tests
// seed it with users and content, steer failures per route and read back how
// often each route was hit.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
)

// Route names, usable with Calls, FailNext and OnRequest.
const (
	RouteLogin         = "login"
	RouteRefresh       = "refresh"
	RouteCurrentUser   = "current-user"
	RouteLogout        = "logout"
	RouteRegister      = "register"
	RoutePosts         = "posts"
	RouteDeletePost    = "delete-post"
	RouteCategories    = "categories"
	RouteUsers         = "users"
	RouteUser          = "user"
	RouteUpdateUser    = "update-user"
	RouteDeleteUser    = "delete-user"
	RouteComments      = "comments"
	RouteDeleteComment = "delete-comment"
	RouteReplies       = "replies"
	RouteDeleteReply   = "delete-reply"
	RouteContacts      = "contacts"
	RouteContact       = "contact"
	RouteNewsletter    = "newsletter"
	RouteSubscribe     = "subscribe"
	RoutePostStats     = "post-stats"
	RoutePostOfWeek    = "post-of-the-week"
	RouteCreateStats   = "create-post-stats"
	RouteUpdateStats   = "update-post-stats"
	RouteToggleLike    = "toggle-like"
)

const correlationHeader = "X-Correlation-ID"

type userRecord struct {
	profile entity.UserProfile
	hash    string
}

type commentRecord struct {
	comment entity.Comment
	postID  int64
}

type Server struct {
	*httptest.Server

	issuer *tokenIssuer

	mu          sync.Mutex
	nextID      int64
	users       map[int64]*userRecord
	access      map[string]int64
	refresh     map[string]int64
	queued      []string
	queuedRef   []string
	posts       []entity.Post
	categories  []entity.Category
	comments    []commentRecord
	replies     []entity.Reply
	contacts    []entity.Contact
	subscribers []entity.Subscriber
	stats       []entity.PostStats

	calls          map[string]int
	correlationIDs map[string][]string
	failures       map[string][]int
	hooks          map[string]func(*http.Request)
	refreshDown    bool
}

// New starts a server. Call Close when done.
func New() *Server {
	s := &Server{
		issuer:         newTokenIssuer("fakeapi-secret", 15*time.Minute),
		nextID:         1,
		users:          make(map[int64]*userRecord),
		access:         make(map[string]int64),
		refresh:        make(map[string]int64),
		calls:          make(map[string]int),
		correlationIDs: make(map[string][]string),
		failures:       make(map[string][]int),
		hooks:          make(map[string]func(*http.Request)),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.track)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login/", s.handleLogin).Methods(http.MethodPost).Name(RouteLogin)
	api.HandleFunc("/token/refresh/", s.handleRefresh).Methods(http.MethodPost).Name(RouteRefresh)
	api.HandleFunc("/register/", s.handleRegister).Methods(http.MethodPost).Name(RouteRegister)
	api.HandleFunc("/current-user/", s.requireAuth(s.handleCurrentUser)).Methods(http.MethodGet).Name(RouteCurrentUser)
	api.HandleFunc("/logout/", s.requireAuth(s.handleLogout)).Methods(http.MethodPost).Name(RouteLogout)

	api.HandleFunc("/posts/", s.handlePosts).Methods(http.MethodGet).Name(RoutePosts)
	api.HandleFunc("/posts/{id:[0-9]+}/", s.requireAdmin(s.handleDeletePost)).Methods(http.MethodDelete).Name(RouteDeletePost)
	api.HandleFunc("/categories/", s.handleCategories).Methods(http.MethodGet).Name(RouteCategories)

	api.HandleFunc("/users/", s.requireAdmin(s.handleUsers)).Methods(http.MethodGet).Name(RouteUsers)
	api.HandleFunc("/users/{id:[0-9]+}/", s.requireAdmin(s.handleUser)).Methods(http.MethodGet).Name(RouteUser)
	api.HandleFunc("/users/{id:[0-9]+}/", s.requireAdmin(s.handleUpdateUser)).Methods(http.MethodPut).Name(RouteUpdateUser)
	api.HandleFunc("/users/{id:[0-9]+}/", s.requireAdmin(s.handleDeleteUser)).Methods(http.MethodDelete).Name(RouteDeleteUser)

	api.HandleFunc("/comments/", s.handleComments).Methods(http.MethodGet).Name(RouteComments)
	api.HandleFunc("/comments/{id:[0-9]+}/", s.requireAdmin(s.handleDeleteComment)).Methods(http.MethodDelete).Name(RouteDeleteComment)
	api.HandleFunc("/replies/", s.handleReplies).Methods(http.MethodGet).Name(RouteReplies)
	api.HandleFunc("/replies/{id:[0-9]+}/", s.requireAdmin(s.handleDeleteReply)).Methods(http.MethodDelete).Name(RouteDeleteReply)

	api.HandleFunc("/contacts/", s.requireAdmin(s.handleContacts)).Methods(http.MethodGet).Name(RouteContacts)
	api.HandleFunc("/contact/", s.handleContact).Methods(http.MethodPost).Name(RouteContact)
	api.HandleFunc("/newsletter/", s.requireAdmin(s.handleNewsletter)).Methods(http.MethodGet).Name(RouteNewsletter)
	api.HandleFunc("/newsletter/", s.handleSubscribe).Methods(http.MethodPost).Name(RouteSubscribe)

	api.HandleFunc("/post-stats/", s.handlePostStats).Methods(http.MethodGet).Name(RoutePostStats)
	api.HandleFunc("/post-stats/post_of_the_week/", s.handlePostOfWeek).Methods(http.MethodGet).Name(RoutePostOfWeek)
	api.HandleFunc("/post-stats/", s.requireAuth(s.handleCreateStats)).Methods(http.MethodPost).Name(RouteCreateStats)
	api.HandleFunc("/post-stats/{id:[0-9]+}/", s.requireAuth(s.handleUpdateStats)).Methods(http.MethodPatch).Name(RouteUpdateStats)
	api.HandleFunc("/post-stats/{id:[0-9]+}/toggle_like/", s.requireAuth(s.handleToggleLike)).Methods(http.MethodPost).Name(RouteToggleLike)

	return r
}

// track counts the call, runs the route hook and serves a queued failure.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.calls[name]++
		s.correlationIDs[name] = append(s.correlationIDs[name], r.Header.Get(correlationHeader))
		hook := s.hooks[name]
		status := 0
		if queue := s.failures[name]; len(queue) > 0 {
			status, s.failures[name] = queue[0], queue[1:]
		}
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if status != 0 {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth resolves the bearer token to a user or answers 401.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *userRecord)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		s.mu.Lock()
		userID, known := s.access[token]
		user := s.users[userID]
		s.mu.Unlock()

		if !known || user == nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		if isJWT(token) {
			if err := s.issuer.validate(token); err != nil {
				writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
				return
			}
		}
		next(w, r, user)
	}
}

func (s *Server) requireAdmin(next func(http.ResponseWriter, *http.Request, *userRecord)) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, u *userRecord) {
		if !u.profile.IsSuperuser {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next(w, r, u)
	})
}

// AddUser stores a user with the given password. A zero ID is assigned.
func (s *Server) AddUser(profile entity.UserProfile, password string) entity.UserProfile {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == 0 {
		profile.ID = s.id()
	} else if profile.ID >= s.nextID {
		s.nextID = profile.ID + 1
	}
	if profile.JoinedOn.IsZero() {
		profile.JoinedOn = time.Now().UTC().Truncate(time.Second)
	}
	s.users[profile.ID] = &userRecord{profile: profile, hash: hash}
	return profile
}

// Grant makes the server accept access and refresh for userID. Opaque
// access values are valid until Revoke is called.
func (s *Server) Grant(userID int64, pair valueobject.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pair.Access != "" {
		s.access[pair.Access] = userID
	}
	if pair.Refresh != "" {
		s.refresh[pair.Refresh] = userID
	}
}

// Issue creates a signed token pair for userID.
func (s *Server) Issue(userID int64) valueobject.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	access, err := s.newAccess(userID)
	if err != nil {
		panic(err)
	}
	return valueobject.TokenPair{Access: access, Refresh: s.newRefresh(userID)}
}

// Revoke makes an access token answer 401, as if it expired.
func (s *Server) Revoke(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, access)
}

// QueueAccess sets the values handed out as the next access tokens by login
// and refresh, in order.
func (s *Server) QueueAccess(tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = append(s.queued, tokens...)
}

// QueueRefresh sets the values handed out as the next refresh tokens by
// login, in order.
func (s *Server) QueueRefresh(tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queuedRef = append(s.queuedRef, tokens...)
}

// FailNext makes the next calls to route answer with the given statuses.
func (s *Server) FailNext(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], statuses...)
}

// OnRequest runs fn at the start of every call to route, outside the server
// lock. Tests use it to hold requests at a barrier.
func (s *Server) OnRequest(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[route] = fn
}

// SetRefreshUnreachable makes the refresh endpoint drop the connection.
func (s *Server) SetRefreshUnreachable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDown = down
}

func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// CorrelationIDs returns the correlation header of every call to route.
func (s *Server) CorrelationIDs(route string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.correlationIDs[route]...)
}

func (s *Server) AddPost(p entity.Post) entity.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.posts = append(s.posts, p)
	return p
}

func (s *Server) AddCategory(c entity.Category) entity.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.categories = append(s.categories, c)
	return c
}

// AddComment attaches c to postID. Post is filled with the post title.
func (s *Server) AddComment(postID int64, c entity.Comment) entity.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	for _, p := range s.posts {
		if p.ID == postID {
			c.Post = p.Title
		}
	}
	s.comments = append(s.comments, commentRecord{comment: c, postID: postID})
	return c
}

func (s *Server) AddReply(r entity.Reply) entity.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	s.replies = append(s.replies, r)
	return r
}

func (s *Server) AddContact(c entity.Contact) entity.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.contacts = append(s.contacts, c)
	return c
}

func (s *Server) AddPostStats(st entity.PostStats) entity.PostStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.id()
	}
	if st.LikedBy == nil {
		st.LikedBy = []int64{}
	}
	s.stats = append(s.stats, st)
	return st
}

// Posts returns a copy of the stored posts.
func (s *Server) Posts() []entity.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Post(nil), s.posts...)
}

func (s *Server) Subscribers() []entity.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Subscriber(nil), s.subscribers...)
}

func (s *Server) Contacts() []entity.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Contact(nil), s.contacts...)
}

// id must be called with mu held.
func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// newAccess must be called with mu held.
func (s *Server) newAccess(userID int64) (string, error) {
	var access string
	if len(s.queued) > 0 {
		access, s.queued = s.queued[0], s.queued[1:]
	} else {
		signed, err := s.issuer.accessToken(userID)
		if err != nil {
			return "", err
		}
		access = signed
	}
	s.access[access] = userID
	return access, nil
}

// newRefresh must be called with mu held.
func (s *Server) newRefresh(userID int64) string {
	var refresh string
	if len(s.queuedRef) > 0 {
		refresh, s.queuedRef = s.queuedRef[0], s.queuedRef[1:]
	} else {
		refresh = randomToken(32)
	}
	s.refresh[refresh] = userID
	return refresh
}
