package main

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/TheRealTwizzy/notification_ninja/config"
)

//go:embed public/*
var content embed.FS

var publicFS = mustSubFS(content, "public")

func mustSubFS(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

/* ======================
   main()
   ====================== */

func main() {
	var cfg ServerConfig
	if err := config.Load(&cfg); err != nil {
		log.Fatal("Failed to load config:", err)
	}
	log.Println("App environment:", cfg.AppEnv)
	log.Printf("Feature flags: score_stream=%t rate_limit=%t", cfg.Flags.ScoreStream, cfg.Flags.RateLimit)

	// Database
	var store ScoreStore
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL is not set; score endpoints will report a configuration error")
	} else {
		db, err := openDatabase(cfg)
		if err != nil {
			log.Fatal("Failed to open database:", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := ensureSchema(ctx, db); err != nil {
			cancel()
			log.Fatal("Failed to ensure schema:", err)
		}
		cancel()

		if cfg.Flags.RateLimit {
			startRateLimitPruner(db, time.Duration(cfg.ScoreRateWindowSeconds)*time.Second)
		}
		store = newPGStore(db)
	}

	// HTTP server
	mux := http.NewServeMux()
	registerRoutes(mux, store, cfg)

	addr := "0.0.0.0:" + cfg.Port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("server failed:", err)
	}
}

func openDatabase(cfg ServerConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Println("Connected to PostgreSQL")
	return db, nil
}

/* ======================
   Routes
   ====================== */

func registerRoutes(mux *http.ServeMux, store ScoreStore, cfg ServerConfig) {
	mux.HandleFunc("/", indexHandler(publicFS, cfg.Flags.ScoreStream))
	mux.HandleFunc("/health", healthHandler(store))
	mux.HandleFunc("/scores", scoresHandler(store, cfg))
	if cfg.Flags.ScoreStream {
		interval := time.Duration(cfg.StreamIntervalSeconds) * time.Second
		mux.HandleFunc("/scores/stream", scoreStreamHandler(store, interval))
	}
}
