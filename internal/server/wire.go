package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/grindboard/internal/config"
	"github.com/sakif/grindboard/internal/dispatch"
	"github.com/sakif/grindboard/internal/notify"
	"github.com/sakif/grindboard/internal/repository"
	pgRepo "github.com/sakif/grindboard/internal/repository/postgres"
	sqliteRepo "github.com/sakif/grindboard/internal/repository/sqlite"
	"github.com/sakif/grindboard/internal/service"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Text output for a terminal, JSON for log collectors.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenStore picks the storage backend: Postgres when DATABASE_URL is set,
// otherwise the SQLite file at DB_PATH (its directory is created if needed).
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := pgRepo.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", slog.String("backend", "postgres"))
		return db, nil
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", slog.String("backend", "sqlite"), slog.String("path", cfg.DBPath))
	return db, nil
}

// NewChannels builds the delivery channels that are configured. An
// unconfigured channel is returned as nil and the dispatcher skips it.
func NewChannels(cfg config.Config, logger *slog.Logger) (email, whatsapp notify.Channel) {
	if cfg.SMTP.Host != "" {
		email = notify.NewEmail(notify.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		logger.Warn("SMTP_HOST not set, email channel disabled")
	}

	if cfg.WhatsApp.APIURL != "" {
		// The per-send context deadline bounds each call; the client timeout
		// is only a backstop.
		client := &http.Client{Timeout: cfg.Dispatch.SendTimeout + cfg.Dispatch.SendTimeout/2}
		whatsapp = notify.NewWhatsApp(cfg.WhatsApp.APIURL, cfg.WhatsApp.APIKey, client)
	} else {
		logger.Warn("WHATSAPP_API_URL not set, whatsapp channel disabled")
	}
	return email, whatsapp
}

// NewDispatchService assembles the dispatch run from config, store and channels.
func NewDispatchService(cfg config.Config, store repository.Store, email, whatsapp notify.Channel, logger *slog.Logger) *service.DispatchService {
	d := dispatch.NewDispatcher(email, whatsapp, dispatch.Options{
		BatchSize:   cfg.Dispatch.BatchSize,
		BatchPause:  cfg.Dispatch.BatchPause,
		SendTimeout: cfg.Dispatch.SendTimeout,
	}, logger)
	return service.NewDispatchService(store, store, d, service.NoopStats{}, cfg.Location(), logger)
}
