package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/simple-blog/backend/internal/middleware"
	"github.com/ayush/simple-blog/backend/internal/models"
	"github.com/ayush/simple-blog/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]models.PublicUser, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds user and authentication HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *TokenService
}

func NewHandler(users UserStore, tokens *TokenService) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Pre-checks give precise messages; the unique constraints remain the
	// authoritative guard against races.
	if _, err := h.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		http.Error(w, `{"error":"email already registered"}`, http.StatusBadRequest)
		return
	}
	if _, err := h.users.GetUserByUsername(r.Context(), req.Username); err == nil {
		http.Error(w, `{"error":"username already taken"}`, http.StatusBadRequest)
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, hashed)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			http.Error(w, `{"error":"username or email already taken"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Token authenticates form credentials and returns a bearer token. The
// username field accepts either a username or an email.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"error":"invalid form body"}`, http.StatusBadRequest)
		return
	}
	identifier := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if identifier == "" || password == "" {
		http.Error(w, `{"error":"username and password are required"}`, http.StatusBadRequest)
		return
	}

	user := h.authenticate(r.Context(), identifier, password)
	if user == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, `{"error":"incorrect username or password"}`, http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, `{"error":"inactive user"}`, http.StatusBadRequest)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// authenticate tries the identifier as a username, then as an email. The nil
// result is the same for an unknown identifier and a wrong password, so
// callers can't tell which failed.
func (h *Handler) authenticate(ctx context.Context, identifier, password string) *models.User {
	user, err := h.users.GetUserByUsername(ctx, identifier)
	if err != nil {
		user, err = h.users.GetUserByEmail(ctx, identifier)
	}
	if err != nil {
		return nil
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil
	}
	return user
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.CurrentUser(r))
}

// UpdateMe applies a partial update to the authenticated user. Absent fields
// are untouched; an empty password leaves the stored hash unchanged.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if req.Email != nil && *req.Email != user.Email {
		if existing, err := h.users.GetUserByEmail(r.Context(), *req.Email); err == nil && existing.ID != user.ID {
			http.Error(w, `{"error":"email already registered by another user"}`, http.StatusBadRequest)
			return
		}
	}
	if req.Username != nil && *req.Username != user.Username {
		if existing, err := h.users.GetUserByUsername(r.Context(), *req.Username); err == nil && existing.ID != user.ID {
			http.Error(w, `{"error":"username already taken by another user"}`, http.StatusBadRequest)
			return
		}
	}

	patch := models.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		IsActive: req.IsActive,
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := HashPassword(*req.Password)
		if err != nil {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		patch.PasswordHash = &hashed
	}

	updated, err := h.users.UpdateUser(r.Context(), user.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			http.Error(w, `{"error":"username or email already taken"}`, http.StatusBadRequest)
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		default:
			http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteMe removes the authenticated user's account and, by cascade, all of
// their posts.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if _, err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetByID returns a user's minimal public information.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// List returns a page of users in minimal public form.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := clamp(queryInt(r, "limit", 100), 1, 200)

	users, err := h.users.ListUsers(r.Context(), skip, limit)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
