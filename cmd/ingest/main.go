// ingest registers a new breeding record: it requests a completion
// prediction from the estimation service and stores the record with
// the prediction attached.
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
	"github.com/Arletteportilla/PoliGer/internal/estimation"
	"github.com/Arletteportilla/PoliGer/models"
)

func main() {
	recordType := flag.String("type", "germination", "record type: pollination or germination")
	species := flag.String("species", "", "species name (required)")
	genus := flag.String("genus", "", "genus name")
	startDate := flag.String("start", "", "sowing or pollination date, YYYY-MM-DD (required)")
	location := flag.String("location", "", "location")
	responsible := flag.String("responsible", "", "responsible party")
	conditions := flag.String("conditions", "", "growing conditions passed to the estimator")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Logger = logger

	if *species == "" || *startDate == "" {
		flag.Usage()
		os.Exit(2)
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid start date")
	}
	rt := models.RecordType(*recordType)
	if rt != models.RecordPollination && rt != models.RecordGermination {
		logger.Fatal().Str("type", *recordType).Msg("Unknown record type")
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

	rec := &models.Record{
		Type:             rt,
		Species:          *species,
		Genus:            *genus,
		StartDate:        start,
		Location:         *location,
		Responsible:      *responsible,
		Status:           models.StatusInitial,
		ValidationStatus: models.ValidationUnvalidated,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	// A failed estimate is not fatal: the record is still tracked,
	// just without a prediction to validate later.
	if cfg.EstimationBaseURL != "" {
		estimator := estimation.NewClient(cfg.EstimationBaseURL, cfg.EstimationAPIKey,
			time.Duration(cfg.RequestTimeout)*time.Second)
		prediction, err := estimator.Estimate(ctx, models.EstimateRequest{
			Type:       rt,
			Species:    *species,
			Genus:      *genus,
			StartDate:  start,
			Conditions: *conditions,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Estimation failed, storing record without prediction")
		} else {
			prediction.ApplyTo(rec)
		}
	}

	if err := db.SaveRecord(ctx, rec); err != nil {
		logger.Fatal().Err(err).Msg("Failed to save record")
	}

	fmt.Printf("Record %d created (%s, %s)\n", rec.ID, rec.Species, rec.Status)
	if rec.PredictedOutcomeDate != nil {
		fmt.Printf("Predicted outcome: %s (%d days, %.0f%% confidence, %s)\n",
			rec.PredictedOutcomeDate.Format("2006-01-02"),
			*rec.PredictedDurationDays, *rec.PredictionConfidence, *rec.PredictionMethod)
	}
}
