package http

import (
	"net/http"
	"time"

	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/application/query"
	"github.com/ingvionio/fullstack/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH
// ══════════════════════════════════════════════════════════════════════════════

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        query.UserDTO `json:"user"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// handleLogin handles POST /api/v1/auth/login. The username field accepts
// an email too.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, "login", &req) {
		return
	}

	res, err := s.deps.Auth.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, loginResponse{
		User:        query.NewUserDTO(res.User),
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type createUserRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	AvatarURL *string `json:"avatar_url"`
}

type updateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	AvatarURL *string `json:"avatar_url"`
}

// handleCreateUser handles POST /api/v1/users.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, "user.create", &req) {
		return
	}

	u, err := s.deps.Users.Create(r.Context(), command.CreateUserCommand{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewUserDTO(u))
}

// handleListUsers handles GET /api/v1/users?skip=&limit=.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, err := s.deps.Content.ListUsers(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, users)
}

// handleGetUser handles GET /api/v1/users/{id}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.deps.Content.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

// handleUpdateUser handles PATCH /api/v1/users/{id}.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !s.requireSelf(w, r, id) {
		return
	}

	var req updateUserRequest
	if !s.decode(w, r, "user.update", &req) {
		return
	}

	u, err := s.deps.Users.Update(r.Context(), command.UpdateUserCommand{
		UserID:    id,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewUserDTO(u))
}

// handleDeleteUser handles DELETE /api/v1/users/{id}.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !s.requireSelf(w, r, id) {
		return
	}

	if err := s.deps.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// handleUploadAvatar handles POST /api/v1/users/{id}/avatar (multipart, field "file").
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !s.requireSelf(w, r, id) {
		return
	}

	uploads, cleanup, err := s.readUploads(w, r, "file", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	u, err := s.deps.Users.UploadAvatar(r.Context(), id, uploads[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewUserDTO(u))
}

// handleUserActivity handles GET /api/v1/users/{id}/activity?limit=.
func (s *Server) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", s.config.FeedDefaultLimit)
	if err == nil && !activity.ValidLimit(limit) {
		err = &paramError{name: "limit"}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := s.deps.Activity.Handle(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, items)
}

// handleUserComments handles GET /api/v1/users/{id}/comments.
func (s *Server) handleUserComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	comments, err := s.deps.Content.UserComments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, comments)
}

// requireSelf rejects changes to another user's account when
// authentication is enforced.
func (s *Server) requireSelf(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if !s.config.RequireAuth || s.deps.Tokens == nil {
		return true
	}
	if current, ok := currentUser(r); ok && current == userID {
		return true
	}
	writeJSONError(w, r, http.StatusForbidden, codeForbidden, "Not allowed to modify another user")
	return false
}

func pagination(r *http.Request) (skip, limit int, err error) {
	if skip, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if skip < 0 {
		return 0, 0, &paramError{name: "skip"}
	}
	if limit, err = queryInt(r, "limit", defaultPageSize); err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > maxPageSize {
		return 0, 0, &paramError{name: "limit"}
	}
	return skip, limit, nil
}
