package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"useradmin/internal/auth"
	"useradmin/internal/config"
	"useradmin/internal/middleware"
	"useradmin/internal/store"
	"useradmin/internal/users"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// The signing secret is the one piece of config the process cannot
	// run without.
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		// An unreachable store surfaces as 500s per request, not a dead process.
		log.Printf("mongo ping failed: %v", err)
	}
	cancelPing()

	userStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Printf("ensure indexes: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenService(cfg.JWTSecret)
	authHandler := auth.NewHandler(userStore, tokens)
	userHandler := users.NewHandler(userStore)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		// Lookup by id is deliberately left open; see DESIGN.md.
		r.Get("/users/{id}", userHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens, userStore))
			r.Get("/users", userHandler.List)
			r.Post("/users/block", userHandler.Action(users.ActionBlock))
			r.Post("/users/unblock", userHandler.Action(users.ActionUnblock))
			r.Post("/users/delete", userHandler.Action(users.ActionDelete))
		})
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("API listening on :%s", cfg.Port)
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
