package models

import (
	"context"
	"time"
)

// RecordStore is the persistence/query collaborator. All operations
// are network-bound and may fail with a *TransportError.
type RecordStore interface {
	// ListUnresolved returns every record that is not FINALIZED and
	// whose reminder has not been acknowledged server-side.
	ListUnresolved(ctx context.Context) ([]Record, error)
	GetRecord(ctx context.Context, id int) (*Record, error)
	SaveRecord(ctx context.Context, rec *Record) error
	// ApplyTransition persists a lifecycle transition and returns the
	// updated record. outcomeDate is required when target is FINALIZED.
	ApplyTransition(ctx context.Context, id int, target Status, outcomeDate *time.Time) (*Record, error)
	// SaveValidation persists the validation summary fields of rec.
	SaveValidation(ctx context.Context, rec *Record) error
	MarkAcknowledged(ctx context.Context, id int) error
	ClearAcknowledgment(ctx context.Context, id int) error
}

// Estimator is the external prediction service. Consumed when a
// record is created; the core only reads its output.
type Estimator interface {
	Estimate(ctx context.Context, req EstimateRequest) (*Prediction, error)
}

// NotificationSurface is the display sink reminders are pushed to.
// Show must be safe to call with the full current reminder set; Hide
// is only invoked by the owning UI layer when the user closes the
// surface.
type NotificationSurface interface {
	Show(reminders []Reminder) error
	Hide()
}
