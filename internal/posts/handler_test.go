package posts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/simple-blog/backend/internal/auth"
	"github.com/ayush/simple-blog/backend/internal/middleware"
	"github.com/ayush/simple-blog/backend/internal/models"
	"github.com/ayush/simple-blog/backend/internal/posts"
	"github.com/ayush/simple-blog/backend/internal/store"
)

// newTestAPI wires the full route tree the way cmd/server does, on an
// in-memory SQLite store.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	tokens := auth.NewTokenService("test-secret", time.Hour)
	requireAuth := middleware.RequireAuth(tokens, st)
	authHandler := auth.NewHandler(st, tokens)
	postHandler := posts.NewHandler(st, st)

	r := chi.NewRouter()
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/token", authHandler.Token)
		r.With(requireAuth).Delete("/me", authHandler.DeleteMe)
		r.Get("/{id}", authHandler.GetByID)
	})
	r.Route("/api/v1/posts", func(r chi.Router) {
		r.With(requireAuth).Post("/", postHandler.Create)
		r.Get("/", postHandler.List)
		r.Get("/user/{userID}", postHandler.ListByUser)
		r.Get("/{id}", postHandler.Get)
		r.With(requireAuth).Put("/{id}", postHandler.Update)
		r.With(requireAuth).Delete("/{id}", postHandler.Delete)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin registers a user and returns a bearer token for them.
func registerAndLogin(t *testing.T, h http.Handler, username, email, password string) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/register", "", models.RegisterRequest{
		Username: username, Email: email, Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenRec := httptest.NewRecorder()
	h.ServeHTTP(tokenRec, req)
	require.Equal(t, http.StatusOK, tokenRec.Code, tokenRec.Body.String())

	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(tokenRec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func createPost(t *testing.T, h http.Handler, token, title, content string) models.Post {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/posts/", token, models.PostCreate{
		Title: title, Content: content,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	return post
}

func TestPostLifecycle(t *testing.T) {
	api := newTestAPI(t)

	aliceToken := registerAndLogin(t, api, "alice", "alice@x.com", "password123")
	bobToken := registerAndLogin(t, api, "bob", "bob@x.com", "password123")

	post := createPost(t, api, aliceToken, "Hi", "World")
	assert.Equal(t, "alice", post.Owner.Username)
	assert.Equal(t, post.Owner.ID, post.OwnerID)

	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	// Reads are public.
	rec := doJSON(t, api, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A different user may neither update nor delete it.
	rec = doJSON(t, api, http.MethodPut, path, bobToken, map[string]string{"title": "stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, api, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The post is unchanged after the forbidden attempts.
	rec = doJSON(t, api, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unchanged models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unchanged))
	assert.Equal(t, "Hi", unchanged.Title)

	// The owner updates just the title; content survives.
	rec = doJSON(t, api, http.MethodPut, path, aliceToken, map[string]string{"title": "new"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "World", updated.Content)

	// The owner deletes it.
	rec = doJSON(t, api, http.MethodDelete, path, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, api, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/posts/", "", models.PostCreate{
		Title: "Hi", Content: "World",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestCreatePostValidation(t *testing.T) {
	api := newTestAPI(t)
	token := registerAndLogin(t, api, "alice", "alice@x.com", "password123")

	cases := []models.PostCreate{
		{Title: "", Content: "World"},
		{Title: "Hi", Content: ""},
		{Title: strings.Repeat("x", 201), Content: "World"},
	}
	for _, c := range cases {
		rec := doJSON(t, api, http.MethodPost, "/api/v1/posts/", token, c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "request %+v", c)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	api := newTestAPI(t)
	token := registerAndLogin(t, api, "alice", "alice@x.com", "password123")

	for i := 1; i <= 3; i++ {
		createPost(t, api, token, fmt.Sprintf("post %d", i), "content")
	}

	rec := doJSON(t, api, http.MethodGet, "/api/v1/posts/?limit=500", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "post 3", list[0].Title)
	assert.Equal(t, "post 1", list[2].Title)
}

func TestListPostsByUser(t *testing.T) {
	api := newTestAPI(t)
	aliceToken := registerAndLogin(t, api, "alice", "alice@x.com", "password123")
	registerAndLogin(t, api, "bob", "bob@x.com", "password123")

	post := createPost(t, api, aliceToken, "Hi", "World")

	rec := doJSON(t, api, http.MethodGet, fmt.Sprintf("/api/v1/posts/user/%d", post.OwnerID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Owner.Username)

	rec = doJSON(t, api, http.MethodGet, "/api/v1/posts/user/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletedAuthorTokenIsRejected(t *testing.T) {
	api := newTestAPI(t)
	token := registerAndLogin(t, api, "alice", "alice@x.com", "password123")
	createPost(t, api, token, "Hi", "World")

	rec := doJSON(t, api, http.MethodDelete, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Cascade removed the posts, and the orphaned token no longer works.
	listRec := doJSON(t, api, http.MethodGet, "/api/v1/posts/", "", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var list []models.Post
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	assert.Empty(t, list)

	rec = doJSON(t, api, http.MethodPost, "/api/v1/posts/", token, models.PostCreate{
		Title: "ghost", Content: "post",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetPostInvalidID(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/posts/not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
