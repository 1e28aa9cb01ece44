// reminderd runs the reminder scheduler for one session: it polls
// the database for unresolved breeding records and pushes reminders
// to the configured Telegram chat until stopped.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Arletteportilla/PoliGer/internal/config"
	"github.com/Arletteportilla/PoliGer/internal/database"
	"github.com/Arletteportilla/PoliGer/internal/notify/telegram"
	"github.com/Arletteportilla/PoliGer/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}
	surface, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram surface")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(db, surface, scheduler.Options{
		RefreshInterval:     cfg.RefreshInterval(),
		ReopenCheckInterval: cfg.ReopenCheckInterval(),
		SurfaceDelay:        cfg.SurfaceDelay(),
		RenagAfter:          cfg.RenagAfter(),
	})
	sched.Start(ctx)

	logger.Info().
		Dur("refresh_interval", cfg.RefreshInterval()).
		Dur("renag_after", cfg.RenagAfter()).
		Msg("Reminder scheduler started")

	<-ctx.Done()

	// Both timers and any pending surfacing go down with the session.
	sched.Stop()
	logger.Info().Msg("Reminder scheduler stopped")
}
