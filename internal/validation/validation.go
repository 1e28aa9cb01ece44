// Package validation scores a record's prediction against its real
// observed outcome date.
package validation

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Arletteportilla/PoliGer/internal/lifecycle"
	"github.com/Arletteportilla/PoliGer/models"
)

// Calculator computes validation results. Zero retries, no I/O: the
// caller persists the updated record.
type Calculator struct {
	thresholds models.ValidationThresholds
	logger     zerolog.Logger
}

// NewCalculator creates a calculator with the given classification
// thresholds. Use models.DefaultThresholds() unless the deployment
// overrides them in config.
func NewCalculator(thresholds models.ValidationThresholds) *Calculator {
	return &Calculator{
		thresholds: thresholds,
		logger:     log.With().Str("component", "validation").Logger(),
	}
}

// Validate compares rec's prediction against realOutcomeDate.
//
// The accuracy score is relative to the real cycle length, so species
// with very different expected durations are comparable: an absolute
// day model would unfairly penalize long-cycle species.
//
// On success the record is finalized (if it was not already), its
// validation fields are filled in, and the full result is returned.
// On failure the record is left untouched.
func (c *Calculator) Validate(rec *models.Record, realOutcomeDate time.Time) (*models.ValidationResult, error) {
	if !rec.HasPrediction() {
		return nil, &models.MissingPredictionError{RecordID: rec.ID}
	}
	if realOutcomeDate.Before(rec.StartDate) {
		return nil, &models.InvalidDateRangeError{
			RecordID:    rec.ID,
			StartDate:   rec.StartDate,
			OutcomeDate: realOutcomeDate,
		}
	}

	realDays := daysBetween(rec.StartDate, realOutcomeDate)

	var predictedDays int
	if rec.PredictedDurationDays != nil {
		predictedDays = *rec.PredictedDurationDays
	} else {
		predictedDays = daysBetween(rec.StartDate, *rec.PredictedOutcomeDate)
	}

	diff := realDays - predictedDays
	if diff < 0 {
		diff = -diff
	}

	denominator := realDays
	if denominator < 1 {
		denominator = 1
	}
	accuracy := 100 - (float64(diff)/float64(denominator))*100
	accuracy = math.Max(0, math.Min(100, accuracy))

	result := &models.ValidationResult{
		RecordID:        rec.ID,
		PredictedDays:   predictedDays,
		RealDays:        realDays,
		DifferenceDays:  diff,
		AccuracyPercent: accuracy,
		QualityLabel:    c.classify(diff, accuracy),
		NeedsDateReview: diff > c.thresholds.SanityMaxDays,
	}

	// Validation implies completion.
	if rec.Status != models.StatusFinalized {
		if err := lifecycle.Transition(rec, models.StatusFinalized, &realOutcomeDate); err != nil {
			return nil, err
		}
	}

	rec.AccuracyPercent = &result.AccuracyPercent
	rec.QualityLabel = &result.QualityLabel
	rec.ValidationStatus = models.ValidationValidated

	c.logger.Debug().
		Int("record_id", rec.ID).
		Int("predicted_days", predictedDays).
		Int("real_days", realDays).
		Int("difference_days", diff).
		Float64("accuracy", accuracy).
		Str("quality", result.QualityLabel).
		Msg("Prediction validated")

	return result, nil
}

// Accuracy floors backing the day ladder. A small absolute miss on a
// short cycle is still a bad prediction relative to the cycle length,
// so the relative score can demote a label, never promote it.
const (
	excellentMinAccuracy  = 95.0
	goodMinAccuracy       = 85.0
	acceptableMinAccuracy = 70.0
)

var qualityRank = map[string]int{
	models.QualityExcellent:  0,
	models.QualityGood:       1,
	models.QualityAcceptable: 2,
	models.QualityPoor:       3,
}

// classify combines the day-threshold ladder (first match wins) with
// the relative-accuracy floors and keeps the worse of the two labels.
func (c *Calculator) classify(differenceDays int, accuracy float64) string {
	var byDays string
	switch {
	case differenceDays <= c.thresholds.ExcellentMaxDays:
		byDays = models.QualityExcellent
	case differenceDays <= c.thresholds.GoodMaxDays:
		byDays = models.QualityGood
	case differenceDays <= c.thresholds.AcceptableMaxDays:
		byDays = models.QualityAcceptable
	default:
		byDays = models.QualityPoor
	}

	var byAccuracy string
	switch {
	case accuracy >= excellentMinAccuracy:
		byAccuracy = models.QualityExcellent
	case accuracy >= goodMinAccuracy:
		byAccuracy = models.QualityGood
	case accuracy >= acceptableMinAccuracy:
		byAccuracy = models.QualityAcceptable
	default:
		byAccuracy = models.QualityPoor
	}

	if qualityRank[byAccuracy] > qualityRank[byDays] {
		return byAccuracy
	}
	return byDays
}

// daysBetween counts whole days between two dates, ignoring the
// time-of-day portion.
func daysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
