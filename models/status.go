package models

import "fmt"

// Status is the canonical lifecycle stage of a Record.
type Status string

const (
	StatusInitial    Status = "INITIAL"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinalized  Status = "FINALIZED"
)

// ValidationStatus tracks whether a Record's prediction has been
// checked against a real outcome date.
type ValidationStatus string

const (
	ValidationUnvalidated ValidationStatus = "UNVALIDATED"
	ValidationValidated   ValidationStatus = "VALIDATED"
)

// legacyStatuses maps the historical spellings still present in older
// rows and older API payloads onto the canonical values. Translation
// happens once, at the storage/transport boundary; nothing past it
// should ever see a legacy string.
var legacyStatuses = map[string]Status{
	"INGRESADO":  StatusInitial,
	"INICIAL":    StatusInitial,
	"EN_PROCESO": StatusInProgress,
	"PROCESO":    StatusInProgress,
	"LISTA":      StatusFinalized,
	"FINALIZADO": StatusFinalized,
}

// ParseStatus converts a raw status string (canonical or legacy) into
// a canonical Status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusInitial, StatusInProgress, StatusFinalized:
		return Status(raw), nil
	}
	if s, ok := legacyStatuses[raw]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unrecognized record status %q", raw)
}

// IsValid reports whether s is one of the three canonical statuses.
func (s Status) IsValid() bool {
	return s == StatusInitial || s == StatusInProgress || s == StatusFinalized
}
