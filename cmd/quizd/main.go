package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	api "github.com/micro2move/quiz-engine/internal/api/http"
	"github.com/micro2move/quiz-engine/internal/catalog"
	"github.com/micro2move/quiz-engine/internal/config"
	"github.com/micro2move/quiz-engine/internal/db"
	"github.com/micro2move/quiz-engine/internal/logger"
	"github.com/micro2move/quiz-engine/internal/quiz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		zlog.Fatal("load catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store quiz.Store
	switch cfg.Store.Backend {
	case "memory":
		store = quiz.NewMemoryStore()
	case "sql":
		dbh, err := db.Open(ctx, db.Driver(cfg.Store.DBDriver), cfg.Store.DBDSN)
		if err != nil {
			zlog.Fatal("db open", zap.Error(err))
		}
		store = quiz.NewSQLStore(dbh)
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr, DB: cfg.Store.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Fatal("redis ping", zap.Error(err))
		}
		store = quiz.NewRedisStore(rdb)
	}

	engine := quiz.NewEngine(cat, store, zlog)
	now := time.Now

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.HTTPTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/modules", api.ListModulesHandler(cat))
	r.Get("/modules/{moduleID}", api.GetModuleHandler(cat))
	r.Post("/modules/{moduleID}/attempts", api.SubmitAttemptHandler(engine, now))
	r.Get("/users/{userID}/modules/{moduleID}/progress", api.GetProgressHandler(engine, now))
	r.Get("/users/{userID}/modules/{moduleID}/attempts", api.ListAttemptsHandler(engine))
	r.Get("/users/{userID}/credits", api.GetCreditsHandler(engine, cat))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	zlog.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.Store.Backend),
		zap.Int("modules", len(cat.ListModules())))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		zlog.Fatal("http server", zap.Error(err))
	}
}
