package fakeapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/myblog/myblog/domain/entity"
)

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func queryID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return id
}

func (s *Server) handlePosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	posts := append([]entity.Post{}, s.posts...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	id := pathID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Not found.")
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	categories := append([]entity.Category{}, s.categories...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	postID := queryID(r, "post")

	s.mu.Lock()
	comments := []entity.Comment{}
	for _, c := range s.comments {
		if postID == 0 || c.postID == postID {
			comments = append(comments, c.comment)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	id := pathID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.comment.ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Not found.")
}

func (s *Server) handleReplies(w http.ResponseWriter, r *http.Request) {
	commentID := queryID(r, "comment")

	s.mu.Lock()
	replies := []entity.Reply{}
	for _, rep := range s.replies {
		if commentID == 0 || rep.Comment == commentID {
			replies = append(replies, rep)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, replies)
}

func (s *Server) handleDeleteReply(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	id := pathID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rep := range s.replies {
		if rep.ID == id {
			s.replies = append(s.replies[:i], s.replies[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Not found.")
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg entity.ContactMessage
	if err := decodeBody(r, &msg); err != nil || msg.Email == "" || msg.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "email and message are required"})
		return
	}

	s.mu.Lock()
	c := entity.Contact{
		ID:        s.id(),
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Message:   msg.Message,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.contacts = append(s.contacts, c)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		User  *int64 `json:"user"`
	}
	if err := decodeBody(r, &req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.Email == req.Email {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"newsletter with this email already exists."}})
			return
		}
	}
	sub := entity.Subscriber{
		ID:           s.id(),
		Email:        req.Email,
		IsActive:     true,
		SubscribedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.subscribers = append(s.subscribers, sub)
	writeJSON(w, http.StatusCreated, sub)
}
