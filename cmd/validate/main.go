// validate records the real outcome date of a breeding record,
// scores the prediction against it and finalizes the record.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Arletteportilla/PoliGer/internal/config"
	"github.com/Arletteportilla/PoliGer/internal/database"
	"github.com/Arletteportilla/PoliGer/internal/lifecycle"
	"github.com/Arletteportilla/PoliGer/internal/validation"
	"github.com/Arletteportilla/PoliGer/models"
)

func main() {
	recordID := flag.Int("id", 0, "record id (required)")
	outcome := flag.String("outcome", "", "real outcome date, YYYY-MM-DD (required)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Logger = logger

	if *recordID == 0 || *outcome == "" {
		flag.Usage()
		os.Exit(2)
	}
	outcomeDate, err := time.Parse("2006-01-02", *outcome)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid outcome date")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	rec, err := db.GetRecord(ctx, *recordID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load record")
	}

	calc := validation.NewCalculator(models.ValidationThresholds{
		ExcellentMaxDays:  cfg.ExcellentMaxDays,
		GoodMaxDays:       cfg.GoodMaxDays,
		AcceptableMaxDays: cfg.AcceptableMaxDays,
		SanityMaxDays:     cfg.SanityMaxDays,
	})

	result, err := calc.Validate(rec, outcomeDate)
	if err != nil {
		logger.Fatal().Err(err).Msg("Validation failed")
	}

	if err := db.SaveValidation(ctx, rec); err != nil {
		logger.Fatal().Err(err).Msg("Failed to persist validation")
	}

	fmt.Printf("Record %d validated\n", rec.ID)
	fmt.Printf("  predicted: %d days, real: %d days, difference: %d days\n",
		result.PredictedDays, result.RealDays, result.DifferenceDays)
	fmt.Printf("  accuracy: %.1f%%  quality: %s  progress: %d%%\n",
		result.AccuracyPercent, result.QualityLabel, lifecycle.ProgressPercent(rec.Status))
	if result.NeedsDateReview {
		fmt.Println("  warning: deviation is unusually large, verify the outcome date")
	}
}
