// Package lifecycle implements the record status state machine:
// INITIAL -> IN_PROGRESS -> FINALIZED, with a legacy shortcut
// INITIAL -> FINALIZED kept for historical callers that skip the
// intermediate stage.
package lifecycle

import (
	"time"

	"github.com/Arletteportilla/PoliGer/models"
)

// Transition moves rec to target, stamping dates as required.
//
// Re-requesting the current status is a no-op success, so retried
// client calls stay harmless. FINALIZED is terminal: no other target
// is legal from it. Finalizing requires outcomeDate; on success the
// record's OutcomeDate is set and no field is touched on failure.
func Transition(rec *models.Record, target models.Status, outcomeDate *time.Time) error {
	if !target.IsValid() {
		return &models.InvalidTransitionError{RecordID: rec.ID, From: rec.Status, To: target}
	}

	if rec.Status == target {
		return nil
	}

	legal := false
	switch rec.Status {
	case models.StatusInitial:
		legal = target == models.StatusInProgress || target == models.StatusFinalized
	case models.StatusInProgress:
		legal = target == models.StatusFinalized
	case models.StatusFinalized:
		// terminal
	}
	if !legal {
		return &models.InvalidTransitionError{RecordID: rec.ID, From: rec.Status, To: target}
	}

	if target == models.StatusFinalized {
		if outcomeDate == nil {
			return &models.MissingOutcomeDateError{RecordID: rec.ID}
		}
		d := *outcomeDate
		rec.OutcomeDate = &d
	}

	rec.Status = target
	return nil
}

// ProgressPercent maps a status onto a display-only completion
// percentage.
func ProgressPercent(s models.Status) int {
	switch s {
	case models.StatusInProgress:
		return 50
	case models.StatusFinalized:
		return 100
	default:
		return 0
	}
}
