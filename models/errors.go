package models

import (
	"fmt"
	"time"
)

// InvalidTransitionError reports a lifecycle transition that is not
// legal from the record's current status.
type InvalidTransitionError struct {
	RecordID int
	From     Status
	To       Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("record %d: invalid transition %s -> %s", e.RecordID, e.From, e.To)
}

// MissingOutcomeDateError reports an attempt to finalize a record
// without supplying the real outcome date.
type MissingOutcomeDateError struct {
	RecordID int
}

func (e *MissingOutcomeDateError) Error() string {
	return fmt.Sprintf("record %d: finalization requires a real outcome date", e.RecordID)
}

// MissingPredictionError reports a validation attempt on a record
// that has no prediction (or no reference start date) to validate
// against.
type MissingPredictionError struct {
	RecordID int
}

func (e *MissingPredictionError) Error() string {
	return fmt.Sprintf("record %d: no prediction to validate against", e.RecordID)
}

// InvalidDateRangeError reports an outcome date that precedes the
// record's reference start date.
type InvalidDateRangeError struct {
	RecordID    int
	StartDate   time.Time
	OutcomeDate time.Time
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("record %d: outcome date %s precedes start date %s",
		e.RecordID, e.OutcomeDate.Format("2006-01-02"), e.StartDate.Format("2006-01-02"))
}

// TransportError wraps a collaborator failure (network loss, bad
// response, database error). The scheduler treats it as "try again
// next cycle".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
