package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/Arletteportilla/PoliGer/models"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newRecord(status models.Status) *models.Record {
	return &models.Record{
		ID:               7,
		Type:             models.RecordGermination,
		Species:          "Phalaenopsis amabilis",
		StartDate:        date("2024-01-01"),
		Status:           status,
		ValidationStatus: models.ValidationUnvalidated,
	}
}

func TestTransitionLegality(t *testing.T) {
	outcome := date("2024-02-01")

	tests := []struct {
		name        string
		from        models.Status
		to          models.Status
		outcome     *time.Time
		wantErr     error
		wantInvalid bool
	}{
		{name: "initial to in progress", from: models.StatusInitial, to: models.StatusInProgress},
		{name: "in progress to finalized", from: models.StatusInProgress, to: models.StatusFinalized, outcome: &outcome},
		{name: "initial straight to finalized", from: models.StatusInitial, to: models.StatusFinalized, outcome: &outcome},
		{name: "same state is a no-op", from: models.StatusInProgress, to: models.StatusInProgress},
		{name: "finalized to finalized is a no-op", from: models.StatusFinalized, to: models.StatusFinalized},
		{name: "in progress back to initial", from: models.StatusInProgress, to: models.StatusInitial, wantInvalid: true},
		{name: "leaving finalized", from: models.StatusFinalized, to: models.StatusInProgress, wantInvalid: true},
		{name: "unrecognized target", from: models.StatusInitial, to: models.Status("LISTA"), wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord(tt.from)
			err := Transition(rec, tt.to, tt.outcome)

			if tt.wantInvalid {
				var invErr *models.InvalidTransitionError
				if !errors.As(err, &invErr) {
					t.Fatalf("Transition() error = %v, want InvalidTransitionError", err)
				}
				if rec.Status != tt.from {
					t.Errorf("status changed to %s on failed transition", rec.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition() unexpected error: %v", err)
			}
			if rec.Status != tt.to {
				t.Errorf("status = %s, want %s", rec.Status, tt.to)
			}
		})
	}
}

func TestTransitionOutcomeDateInvariant(t *testing.T) {
	outcome := date("2024-01-21")

	t.Run("finalize stamps outcome date", func(t *testing.T) {
		rec := newRecord(models.StatusInProgress)
		if err := Transition(rec, models.StatusFinalized, &outcome); err != nil {
			t.Fatalf("Transition() error: %v", err)
		}
		if rec.OutcomeDate == nil || !rec.OutcomeDate.Equal(outcome) {
			t.Errorf("OutcomeDate = %v, want %v", rec.OutcomeDate, outcome)
		}
	})

	t.Run("finalize without date fails and leaves record untouched", func(t *testing.T) {
		rec := newRecord(models.StatusInProgress)
		err := Transition(rec, models.StatusFinalized, nil)
		var missingErr *models.MissingOutcomeDateError
		if !errors.As(err, &missingErr) {
			t.Fatalf("Transition() error = %v, want MissingOutcomeDateError", err)
		}
		if rec.Status != models.StatusInProgress {
			t.Errorf("status = %s, want IN_PROGRESS", rec.Status)
		}
		if rec.OutcomeDate != nil {
			t.Errorf("OutcomeDate = %v, want nil", rec.OutcomeDate)
		}
	})

	t.Run("in progress sets no dates", func(t *testing.T) {
		rec := newRecord(models.StatusInitial)
		if err := Transition(rec, models.StatusInProgress, nil); err != nil {
			t.Fatalf("Transition() error: %v", err)
		}
		if rec.OutcomeDate != nil {
			t.Errorf("OutcomeDate = %v, want nil", rec.OutcomeDate)
		}
	})

	// Invariant check after every legal move.
	t.Run("finalized iff outcome date set", func(t *testing.T) {
		rec := newRecord(models.StatusInitial)
		steps := []struct {
			target  models.Status
			outcome *time.Time
		}{
			{models.StatusInProgress, nil},
			{models.StatusFinalized, &outcome},
			{models.StatusFinalized, &outcome},
		}
		for _, s := range steps {
			if err := Transition(rec, s.target, s.outcome); err != nil {
				t.Fatalf("Transition(%s) error: %v", s.target, err)
			}
			finalized := rec.Status == models.StatusFinalized
			hasDate := rec.OutcomeDate != nil
			if finalized != hasDate {
				t.Errorf("invariant broken: status=%s outcomeDate=%v", rec.Status, rec.OutcomeDate)
			}
		}
	})
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		status models.Status
		want   int
	}{
		{models.StatusInitial, 0},
		{models.StatusInProgress, 50},
		{models.StatusFinalized, 100},
	}
	for _, tt := range tests {
		if got := ProgressPercent(tt.status); got != tt.want {
			t.Errorf("ProgressPercent(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}
}
