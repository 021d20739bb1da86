package posts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/simple-blog/backend/internal/auth"
	"github.com/ayush/simple-blog/backend/internal/middleware"
	"github.com/ayush/simple-blog/backend/internal/models"
	"github.com/ayush/simple-blog/backend/internal/store"
)

// PostStore defines the interface for post persistence.
type PostStore interface {
	CreatePost(ctx context.Context, title, content string, ownerID int64) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, skip, limit int) ([]models.Post, error)
	ListPostsByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]models.Post, error)
	UpdatePost(ctx context.Context, id int64, patch models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// UserStore defines the lookup used to 404 on unknown authors.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds post HTTP handlers.
type Handler struct {
	posts PostStore
	users UserStore
}

func NewHandler(posts PostStore, users UserStore) *Handler {
	return &Handler{posts: posts, users: users}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Create makes a new post owned by the authenticated caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req models.PostCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	post, err := h.posts.CreatePost(r.Context(), req.Title, req.Content, user.ID)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// List returns a page of posts, newest first. Publicly readable.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r, 20)

	posts, err := h.posts.ListPosts(r.Context(), skip, limit)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// Get returns a single post. Publicly readable.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Update applies a partial update to a post. Only the owner may update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if !auth.CanModify(middleware.CurrentUser(r), post.OwnerID) {
		http.Error(w, `{"error":"not authorized to update this post"}`, http.StatusForbidden)
		return
	}

	var req models.PostUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.posts.UpdatePost(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a post. Only the owner may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if !auth.CanModify(middleware.CurrentUser(r), post.OwnerID) {
		http.Error(w, `{"error":"not authorized to delete this post"}`, http.StatusForbidden)
		return
	}

	if err := h.posts.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByUser returns one author's posts, newest first. Publicly readable;
// 404 if the author doesn't exist.
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	skip, limit := pagination(r, 10)
	posts, err := h.posts.ListPostsByOwner(r.Context(), userID, skip, limit)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid post id"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// pagination reads skip/limit query params; limit is clamped to [1,100] so a
// caller can't force an unbounded scan.
func pagination(r *http.Request, defaultLimit int) (skip, limit int) {
	skip = queryInt(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit = queryInt(r, "limit", defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
