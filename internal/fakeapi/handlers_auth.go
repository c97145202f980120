package fakeapi

import (
	"net/http"
	"strings"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	var user *userRecord
	for _, u := range s.users {
		if strings.EqualFold(u.profile.Email, req.Email) {
			user = u
		}
	}
	s.mu.Unlock()

	if user == nil || !verifyPassword(user.hash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.mu.Lock()
	access, err := s.newAccess(user.profile.ID)
	refresh := s.newRefresh(user.profile.ID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := map[string]interface{}{
		"tokens": valueobject.TokenPair{Access: access, Refresh: refresh},
		"user":   user.profile,
	}
	if user.profile.IsSuperuser {
		body["redirect"] = "/admin/dashboard"
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	down := s.refreshDown
	s.mu.Unlock()
	if down {
		dropConnection(w)
		return
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeBody(r, &req); err != nil || req.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[req.Refresh]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	access, err := s.newAccess(userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req valueobject.Registration
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"This field is required."}})
		return
	}

	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.profile.Email, req.Email) {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"user with this email already exists."}})
			return
		}
	}
	s.mu.Unlock()

	created := s.AddUser(entity.UserProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, req.Password)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, _ *http.Request, u *userRecord) {
	s.mu.Lock()
	profile := u.profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ *userRecord) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeBody(r, &req); err != nil || req.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh is required")
		return
	}

	s.mu.Lock()
	delete(s.refresh, req.Refresh)
	s.mu.Unlock()
	writeJSON(w, http.StatusResetContent, nil)
}
