package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/blog-service/internal/auth"
	"github.com/UkralStul/blog-service/internal/config"
	"github.com/UkralStul/blog-service/internal/content"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/UkralStul/blog-service/internal/storage/gormstore"
	"github.com/UkralStul/blog-service/internal/storage/inmemory"
	"github.com/UkralStul/blog-service/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Флаг перекрывает BLOG_STORAGE
	storageType := flag.String("storage", cfg.Storage, "Storage type (sqlite, postgres or in-memory)")
	flag.Parse()
	cfg.Storage = *storageType

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	log.Printf("Starting server with %s storage", cfg.Storage)
	store, closeStore, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.Storage, err)
	}
	defer closeStore()

	authSvc := auth.NewService(store, auth.Config{
		SignKey:    []byte(cfg.SignKey),
		SessionTTL: cfg.SessionTTL,
	})
	contentSvc := content.NewService(store, content.NewObserver())

	// Чистим просроченные сессии при старте
	if n, err := authSvc.PurgeExpiredSessions(context.Background()); err != nil {
		log.Printf("Warning: failed to clean up expired sessions: %v", err)
	} else if n > 0 {
		log.Printf("Removed %d expired sessions", n)
	}

	opts := web.Options{
		SignKey:       []byte(cfg.SignKey),
		SecureCookies: !cfg.IsDev(),
	}
	if cfg.IsDev() {
		opts.Dev = true
		opts.Templates = os.DirFS(cfg.TemplateDir)
		opts.WatchDirs = []string{cfg.TemplateDir}
	}
	server, err := web.New(store, authSvc, contentSvc, opts)
	if err != nil {
		log.Fatalf("failed to load templates: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("connect to http://localhost:%s/ for the blog", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed to start: %v", err)
	}
}

func openStorage(cfg config.Config) (storage.Storage, func(), error) {
	opts := gormstore.Options{Verbose: cfg.IsDev()}
	switch cfg.Storage {
	case config.StoragePostgres:
		s, err := gormstore.OpenPostgres(cfg.DatabaseURL, opts)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	case config.StorageInMemory:
		return inmemory.New(), func() {}, nil
	default:
		s, err := gormstore.OpenSQLite(cfg.SQLitePath, opts)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	}
}

func closer(s *gormstore.Store) func() {
	return func() {
		if err := s.Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}
}
