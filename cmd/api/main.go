package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ecovia.org/internal/auth"
	"ecovia.org/internal/config"
	"ecovia.org/internal/events"
	"ecovia.org/internal/httpapi"
	"ecovia.org/internal/mail"
	"ecovia.org/internal/obs"
	"ecovia.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	cfg := config.Load()

	// Observability init (metric registration, JSON logger, build info).
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("ECOVIA_COMMIT"))

	if cfg.PGDSN == "" {
		log.Fatal("missing database DSN: set ECOVIA_PG_DSN")
	}
	if os.Getenv("ECOVIA_AUTH_SECRET") == "" {
		log.Fatal("missing token secret: set ECOVIA_AUTH_SECRET")
	}
	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	accounts, err := auth.NewService(auth.NewPGStore(db),
		auth.WithMailer(mailer),
		auth.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	eventsSvc := events.NewService(pg.New(db))

	api, err := httpapi.New(httpapi.Options{
		ReadyProbe: httpapi.ReadyProbe{DB: db},
		Version:    version,
		Accounts:   accounts,
		Events:     eventsSvc,
		Sessions:   httpapi.NewSessionManager(cfg.Production()),
	})
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	handler := httpapi.Logging(
		httpapi.SecurityHeaders(
			httpapi.RateLimit(api.Handler(), 40, 20)))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Event("info", "starting ecovia-api", map[string]any{
		"version": version,
		"addr":    srv.Addr,
		"env":     cfg.Env,
	})

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Event("info", "shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	obs.Event("info", "stopped", nil)
}
