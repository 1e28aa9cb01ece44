package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Arletteportilla/PoliGer/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS breeding_records (
			id SERIAL PRIMARY KEY,
			record_type TEXT NOT NULL,
			species TEXT NOT NULL,
			genus TEXT,
			start_date DATE NOT NULL,
			location TEXT,
			responsible TEXT,
			status TEXT NOT NULL,
			outcome_date DATE,
			predicted_outcome_date DATE,
			predicted_duration_days INT,
			prediction_confidence DOUBLE PRECISION,
			prediction_method TEXT,
			validation_status TEXT NOT NULL DEFAULT 'UNVALIDATED',
			accuracy_percent DOUBLE PRECISION,
			quality_label TEXT,
			acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
			acknowledged_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)

	return err
}

const recordColumns = `
	id, record_type, species, genus, start_date, location, responsible,
	status, outcome_date,
	predicted_outcome_date, predicted_duration_days, prediction_confidence, prediction_method,
	validation_status, accuracy_percent, quality_label
`

// ListUnresolved returns every record that has not finalized and
// whose reminder is still unread.
func (db *DB) ListUnresolved(ctx context.Context) ([]models.Record, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM breeding_records
		WHERE status NOT IN ('FINALIZED', 'LISTA', 'FINALIZADO')
		  AND NOT acknowledged
		ORDER BY id
	`)
	if err != nil {
		return nil, &models.TransportError{Op: "list unresolved records", Err: err}
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &models.TransportError{Op: "scan record", Err: err}
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.TransportError{Op: "list unresolved records", Err: err}
	}

	return records, nil
}

// GetRecord retrieves a single record by id.
func (db *DB) GetRecord(ctx context.Context, id int) (*models.Record, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM breeding_records
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.TransportError{Op: "get record", Err: fmt.Errorf("record %d not found", id)}
		}
		return nil, &models.TransportError{Op: "get record", Err: err}
	}
	return rec, nil
}

// SaveRecord inserts a new record (or updates an existing one) with
// its current prediction fields.
func (db *DB) SaveRecord(ctx context.Context, rec *models.Record) error {
	if rec.ID == 0 {
		err := db.QueryRowContext(ctx, `
			INSERT INTO breeding_records (
				record_type, species, genus, start_date, location, responsible,
				status, predicted_outcome_date, predicted_duration_days,
				prediction_confidence, prediction_method, validation_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`,
			rec.Type, rec.Species, rec.Genus, rec.StartDate, rec.Location, rec.Responsible,
			string(rec.Status), rec.PredictedOutcomeDate, rec.PredictedDurationDays,
			rec.PredictionConfidence, rec.PredictionMethod, string(rec.ValidationStatus),
		).Scan(&rec.ID)
		if err != nil {
			return &models.TransportError{Op: "insert record", Err: err}
		}
		return nil
	}

	_, err := db.ExecContext(ctx, `
		UPDATE breeding_records
		SET record_type = $1, species = $2, genus = $3, start_date = $4,
			location = $5, responsible = $6,
			predicted_outcome_date = $7, predicted_duration_days = $8,
			prediction_confidence = $9, prediction_method = $10,
			updated_at = NOW()
		WHERE id = $11
	`,
		rec.Type, rec.Species, rec.Genus, rec.StartDate, rec.Location, rec.Responsible,
		rec.PredictedOutcomeDate, rec.PredictedDurationDays,
		rec.PredictionConfidence, rec.PredictionMethod, rec.ID,
	)
	if err != nil {
		return &models.TransportError{Op: "update record", Err: err}
	}
	return nil
}

// ApplyTransition persists a status change. Finalizing also stamps
// the outcome date and clears the acknowledgment: a finalized record
// needs no further reminders.
func (db *DB) ApplyTransition(ctx context.Context, id int, target models.Status, outcomeDate *time.Time) (*models.Record, error) {
	var err error
	if target == models.StatusFinalized {
		_, err = db.ExecContext(ctx, `
			UPDATE breeding_records
			SET status = $1, outcome_date = $2,
				acknowledged = FALSE, acknowledged_at = NULL,
				updated_at = NOW()
			WHERE id = $3
		`, string(target), outcomeDate, id)
	} else {
		_, err = db.ExecContext(ctx, `
			UPDATE breeding_records
			SET status = $1, updated_at = NOW()
			WHERE id = $2
		`, string(target), id)
	}
	if err != nil {
		return nil, &models.TransportError{Op: "apply transition", Err: err}
	}

	return db.GetRecord(ctx, id)
}

// SaveValidation persists the validation summary computed by the
// calculator.
func (db *DB) SaveValidation(ctx context.Context, rec *models.Record) error {
	_, err := db.ExecContext(ctx, `
		UPDATE breeding_records
		SET validation_status = $1, accuracy_percent = $2, quality_label = $3,
			status = $4, outcome_date = $5, updated_at = NOW()
		WHERE id = $6
	`,
		string(rec.ValidationStatus), rec.AccuracyPercent, rec.QualityLabel,
		string(rec.Status), rec.OutcomeDate, rec.ID,
	)
	if err != nil {
		return &models.TransportError{Op: "save validation", Err: err}
	}
	return nil
}

// MarkAcknowledged marks a record's reminder as read.
func (db *DB) MarkAcknowledged(ctx context.Context, id int) error {
	_, err := db.ExecContext(ctx, `
		UPDATE breeding_records
		SET acknowledged = TRUE, acknowledged_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return &models.TransportError{Op: "mark acknowledged", Err: err}
	}
	return nil
}

// ClearAcknowledgment re-opens a record's reminder.
func (db *DB) ClearAcknowledgment(ctx context.Context, id int) error {
	_, err := db.ExecContext(ctx, `
		UPDATE breeding_records
		SET acknowledged = FALSE, acknowledged_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return &models.TransportError{Op: "clear acknowledgment", Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one record row, translating legacy status
// spellings exactly once at this boundary.
func scanRecord(row rowScanner) (*models.Record, error) {
	var rec models.Record
	var rawStatus, rawValidation string
	var genus, location, responsible sql.NullString
	var outcomeDate, predictedDate sql.NullTime
	var predictedDays sql.NullInt64
	var confidence, accuracy sql.NullFloat64
	var method, quality sql.NullString

	err := row.Scan(
		&rec.ID, &rec.Type, &rec.Species, &genus, &rec.StartDate, &location, &responsible,
		&rawStatus, &outcomeDate,
		&predictedDate, &predictedDays, &confidence, &method,
		&rawValidation, &accuracy, &quality,
	)
	if err != nil {
		return nil, err
	}

	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	rec.ValidationStatus = models.ValidationStatus(rawValidation)

	if genus.Valid {
		rec.Genus = genus.String
	}
	if location.Valid {
		rec.Location = location.String
	}
	if responsible.Valid {
		rec.Responsible = responsible.String
	}
	if outcomeDate.Valid {
		d := outcomeDate.Time
		rec.OutcomeDate = &d
	}
	if predictedDate.Valid {
		d := predictedDate.Time
		rec.PredictedOutcomeDate = &d
	}
	if predictedDays.Valid {
		v := int(predictedDays.Int64)
		rec.PredictedDurationDays = &v
	}
	if confidence.Valid {
		v := confidence.Float64
		rec.PredictionConfidence = &v
	}
	if method.Valid {
		v := method.String
		rec.PredictionMethod = &v
	}
	if accuracy.Valid {
		v := accuracy.Float64
		rec.AccuracyPercent = &v
	}
	if quality.Valid {
		v := quality.String
		rec.QualityLabel = &v
	}

	return &rec, nil
}
