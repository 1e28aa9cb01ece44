package models

import (
	"time"
)

// RecordType distinguishes the two kinds of breeding attempts the
// tracker follows.
type RecordType string

const (
	RecordPollination RecordType = "pollination"
	RecordGermination RecordType = "germination"
)

// Record represents one pollination or germination attempt.
//
// OutcomeDate is non-nil exactly when Status is FINALIZED.
// AccuracyPercent and QualityLabel are non-nil exactly when
// ValidationStatus is VALIDATED, which additionally requires a
// finalized record with a prediction attached.
type Record struct {
	ID          int        `json:"id"`
	Type        RecordType `json:"type"`
	Species     string     `json:"species"`
	Genus       string     `json:"genus"`
	StartDate   time.Time  `json:"start_date"` // sowing or pollination date
	Location    string     `json:"location,omitempty"`
	Responsible string     `json:"responsible,omitempty"`

	Status      Status     `json:"status"`
	OutcomeDate *time.Time `json:"outcome_date,omitempty"`

	PredictedOutcomeDate  *time.Time `json:"predicted_outcome_date,omitempty"`
	PredictedDurationDays *int       `json:"predicted_duration_days,omitempty"`
	PredictionConfidence  *float64   `json:"prediction_confidence,omitempty"` // 0-100
	PredictionMethod      *string    `json:"prediction_method,omitempty"`

	ValidationStatus ValidationStatus `json:"validation_status"`
	AccuracyPercent  *float64         `json:"accuracy_percent,omitempty"`
	QualityLabel     *string          `json:"quality_label,omitempty"`
}

// HasPrediction reports whether the record carries enough prediction
// data to be validated against a real outcome.
func (r *Record) HasPrediction() bool {
	return r.PredictedOutcomeDate != nil && !r.StartDate.IsZero()
}

// Prediction is an estimate produced by the external estimation
// service and attached to a Record. A newer Prediction may supersede
// it before finalization; once validated it is immutable.
type Prediction struct {
	OutcomeDate  time.Time `json:"outcome_date"`
	DurationDays int       `json:"duration_days"`
	Confidence   float64   `json:"confidence"` // 0-100
	Method       string    `json:"method"`
}

// ApplyTo copies the prediction onto the record's prediction fields.
func (p *Prediction) ApplyTo(r *Record) {
	outcome := p.OutcomeDate
	days := p.DurationDays
	conf := p.Confidence
	method := p.Method
	r.PredictedOutcomeDate = &outcome
	r.PredictedDurationDays = &days
	r.PredictionConfidence = &conf
	r.PredictionMethod = &method
}

// ValidationResult is computed on demand from a record's prediction
// and its observed outcome date. Only the summarized fields
// (AccuracyPercent, QualityLabel) are persisted back onto the Record.
type ValidationResult struct {
	RecordID        int     `json:"record_id"`
	PredictedDays   int     `json:"predicted_days"`
	RealDays        int     `json:"real_days"`
	DifferenceDays  int     `json:"difference_days"`
	AccuracyPercent float64 `json:"accuracy_percent"`
	QualityLabel    string  `json:"quality_label"`
	// NeedsDateReview is set when the deviation exceeds the sanity
	// threshold; the caller decides whether to ask the user to
	// double-check the entered date.
	NeedsDateReview bool `json:"needs_date_review"`
}

// Quality labels, ordered best to worst.
const (
	QualityExcellent  = "Excellent"
	QualityGood       = "Good"
	QualityAcceptable = "Acceptable"
	QualityPoor       = "Poor"
)

// ValidationThresholds controls the quality classification ladder and
// the date-review sanity check, all in whole days. Defaults are
// calibrated to typical germination/pollination cycle lengths (weeks):
// a difference of at most 2 days is Excellent, at most 5 Good, at most
// 10 Acceptable, anything beyond is Poor; a deviation over 60 days
// additionally flags the outcome date for manual review.
type ValidationThresholds struct {
	ExcellentMaxDays  int
	GoodMaxDays       int
	AcceptableMaxDays int
	SanityMaxDays     int
}

// DefaultThresholds returns the documented default ladder.
func DefaultThresholds() ValidationThresholds {
	return ValidationThresholds{
		ExcellentMaxDays:  2,
		GoodMaxDays:       5,
		AcceptableMaxDays: 10,
		SanityMaxDays:     60,
	}
}

// Reminder is a transient projection: "record R is unresolved as of
// time T". Derived each scheduling cycle, never stored.
type Reminder struct {
	RecordID  int       `json:"record_id"`
	Record    Record    `json:"record"`
	RaisedAt  time.Time `json:"raised_at"`
	DaysSince int       `json:"days_since_start"`
}

// AcknowledgmentEntry marks a record whose reminder the user has
// dismissed. Cleared when the record finalizes or when the user
// explicitly re-opens it.
type AcknowledgmentEntry struct {
	RecordID       int       `json:"record_id"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

// EstimateRequest carries the species information the estimation
// service needs to produce a Prediction for a new record.
type EstimateRequest struct {
	Type       RecordType `json:"type"`
	Species    string     `json:"species"`
	Genus      string     `json:"genus"`
	StartDate  time.Time  `json:"start_date"`
	Conditions string     `json:"conditions,omitempty"`
}
