package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "campus/internal/adapters/email"
	web "campus/internal/adapters/http"
	"campus/internal/adapters/storage"
	absenceStore "campus/internal/adapters/storage/absence"
	accountStore "campus/internal/adapters/storage/account"
	attendanceStore "campus/internal/adapters/storage/attendance"
	examStore "campus/internal/adapters/storage/exam"
	holidayStore "campus/internal/adapters/storage/holiday"
	outboxStorePkg "campus/internal/adapters/storage/outbox"
	studentStore "campus/internal/adapters/storage/student"
	termStore "campus/internal/adapters/storage/term"
	"campus/internal/application/orchestrators"
	"campus/internal/config"
	"campus/internal/domain/absence"
	"campus/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	timedDB := storage.NewTimedDB(db, cfg.SlowQuery)
	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(timedDB),
		StudentStore:    studentStore.NewSQLiteStore(timedDB),
		RequestStore:    absenceStore.NewSQLiteStore(timedDB),
		AttendanceStore: attendanceStore.NewSQLiteStore(timedDB),
		HolidayStore:    holidayStore.NewSQLiteStore(timedDB),
		TermStore:       termStore.NewSQLiteStore(timedDB),
		ExamStore:       examStore.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStorePkg.NewSQLiteStore(timedDB),
	}

	// Seed default admin account if no accounts exist
	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   func() string { return uuid.New().String() },
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	sender := newSender(cfg)
	notifier := orchestrators.NewEmailNotifier(orchestrators.EmailNotifierDeps{
		Students:   stores.StudentStore,
		Staff:      stores.AccountStore,
		Sender:     sender,
		Outbox:     stores.OutboxStore,
		From:       cfg.MailFrom,
		Now:        time.Now,
		GenerateID: func() string { return uuid.New().String() },
	})

	// Outbox worker replays notification emails whose first delivery failed
	stopCh := make(chan struct{})
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender},
	})
	workerDone := orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, stopCh)

	handler := web.NewMux(stores, web.Deps{
		Config:   cfg,
		Router:   absence.NewRouter(cfg.TutorDayCap, cfg.Location),
		Notifier: notifier,
		Outbox:   processor,
		DBStats:  timedDB,
		Stop:     stopCh,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"schema", storage.LatestSchemaVersion(), "tz", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("server_stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
	close(stopCh)
	<-workerDone
	slog.Info("server_stopped")
}

// newSender picks Resend when an API key is set, SMTP when a relay host is
// set, and otherwise logs messages without delivering them.
func newSender(cfg config.Config) emailPkg.Sender {
	switch {
	case cfg.ResendKey != "":
		slog.Info("config_event", "event", "email_sender", "provider", "resend")
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.MailFrom)
	case cfg.SMTPHost != "":
		slog.Info("config_event", "event", "email_sender", "provider", "smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return emailPkg.NewSMTPSender(emailPkg.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}
	if cfg.IsProduction() {
		slog.Warn("config_event", "event", "email_disabled", "reason", "no CAMPUS_RESEND_KEY or CAMPUS_SMTP_HOST")
	} else {
		slog.Info("config_event", "event", "email_sender", "provider", "noop")
	}
	return emailPkg.NewNoopSender()
}

// setupLogging installs a JSON slog handler in production and a text one otherwise.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
