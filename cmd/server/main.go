package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ayush/simple-blog/backend/internal/auth"
	"github.com/ayush/simple-blog/backend/internal/config"
	"github.com/ayush/simple-blog/backend/internal/middleware"
	"github.com/ayush/simple-blog/backend/internal/posts"
	"github.com/ayush/simple-blog/backend/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── Database ─────────────────────────────────────────────
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN,
		store.WithLogger(slog.Default()),
		store.WithDefaultTracer(),
		store.WithDefaultMeter(),
	)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// ── Auth ─────────────────────────────────────────────────
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.TokenTTL)
	requireAuth := middleware.RequireAuth(tokens, st)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(st, tokens)
	postHandler := posts.NewHandler(st, st)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// User routes
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/token", authHandler.Token)
		r.With(requireAuth).Get("/me", authHandler.Me)
		r.With(requireAuth).Put("/me", authHandler.UpdateMe)
		r.With(requireAuth).Delete("/me", authHandler.DeleteMe)
		r.Get("/{id}", authHandler.GetByID)
		r.Get("/", authHandler.List)
	})

	// Post routes (reads public, mutations auth + ownership)
	r.Route("/api/v1/posts", func(r chi.Router) {
		r.With(requireAuth).Post("/", postHandler.Create)
		r.Get("/", postHandler.List)
		r.Get("/user/{userID}", postHandler.ListByUser)
		r.Get("/{id}", postHandler.Get)
		r.With(requireAuth).Put("/{id}", postHandler.Update)
		r.With(requireAuth).Delete("/{id}", postHandler.Delete)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
