package fakeapi

import (
	"net/http"
	"slices"

	"github.com/myblog/myblog/domain/entity"
)

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request, _ *userRecord) {
	s.mu.Lock()
	users := make([]entity.UserProfile, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.profile)
	}
	s.mu.Unlock()

	slices.SortFunc(users, func(a, b entity.UserProfile) int {
		return int(a.ID - b.ID)
	})
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	s.mu.Lock()
	u, ok := s.users[pathID(r)]
	var profile entity.UserProfile
	if ok {
		profile = u.profile
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	var upd entity.UserUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var hash string
	if upd.Password != "" {
		h, err := hashPassword(upd.Password)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[pathID(r)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	u.profile.FirstName = upd.FirstName
	u.profile.LastName = upd.LastName
	u.profile.Email = upd.Email
	u.profile.IsSuperuser = upd.IsSuperuser
	u.profile.IsAdmin = upd.IsAdmin
	u.profile.IsStaff = upd.IsStaff
	if hash != "" {
		u.hash = hash
	}
	writeJSON(w, http.StatusOK, u.profile)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	id := pathID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.users, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContacts(w http.ResponseWriter, _ *http.Request, _ *userRecord) {
	s.mu.Lock()
	contacts := append([]entity.Contact{}, s.contacts...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleNewsletter(w http.ResponseWriter, _ *http.Request, _ *userRecord) {
	s.mu.Lock()
	subs := append([]entity.Subscriber{}, s.subscribers...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handlePostStats(w http.ResponseWriter, r *http.Request) {
	postID := queryID(r, "post")

	s.mu.Lock()
	stats := []entity.PostStats{}
	for _, st := range s.stats {
		if postID == 0 || st.Post == postID {
			stats = append(stats, st)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

// handlePostOfWeek answers with the most viewed post.
func (s *Server) handlePostOfWeek(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stats) == 0 {
		writeDetail(w, http.StatusNotFound, "No post stats available.")
		return
	}
	best := s.stats[0]
	for _, st := range s.stats[1:] {
		if st.Views > best.Views {
			best = st
		}
	}
	writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleCreateStats(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	var st entity.PostStats
	if err := decodeBody(r, &st); err != nil || st.Post == 0 {
		writeDetail(w, http.StatusBadRequest, "post is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.id()
	if st.LikedBy == nil {
		st.LikedBy = []int64{}
	}
	s.stats = append(s.stats, st)
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleUpdateStats(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	var req struct {
		Views *int `json:"views"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.statsIndex(pathID(r))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if req.Views != nil {
		s.stats[i].Views = *req.Views
	}
	writeJSON(w, http.StatusOK, s.stats[i])
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request, u *userRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.statsIndex(pathID(r))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	st := &s.stats[i]
	if j := slices.Index(st.LikedBy, u.profile.ID); j >= 0 {
		st.LikedBy = slices.Delete(st.LikedBy, j, j+1)
	} else {
		st.LikedBy = append(st.LikedBy, u.profile.ID)
	}
	st.Likes = len(st.LikedBy)
	writeJSON(w, http.StatusOK, *st)
}

// statsIndex must be called with mu held.
func (s *Server) statsIndex(id int64) int {
	for i, st := range s.stats {
		if st.ID == id {
			return i
		}
	}
	return -1
}
