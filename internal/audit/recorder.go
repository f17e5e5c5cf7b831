// internal/audit/recorder.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/wizard"
)

const schema = `
CREATE TABLE IF NOT EXISTS submission_audit (
	id           BIGSERIAL PRIMARY KEY,
	draft_id     TEXT        NOT NULL,
	wizard       TEXT        NOT NULL,
	property_id  TEXT,
	owner        TEXT        NOT NULL,
	receipt_id   TEXT,
	outcome      TEXT        NOT NULL,
	error        TEXT,
	file_fields  TEXT[]      NOT NULL DEFAULT '{}',
	details      JSONB       NOT NULL DEFAULT '{}',
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS submission_audit_owner_idx ON submission_audit (owner, submitted_at DESC);`

// Entry is one audit row as returned to its owner.
type Entry struct {
	DraftID     string    `json:"draftId"`
	Wizard      string    `json:"wizard"`
	PropertyID  string    `json:"propertyId,omitempty"`
	ReceiptID   string    `json:"receiptId,omitempty"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	FileFields  []string  `json:"fileFields"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Recorder writes one row per submit attempt to postgres.
type Recorder struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRecorder(db *sql.DB, log logger.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (r *Recorder) RecordSubmission(ctx context.Context, rec wizard.SubmissionRecord) error {
	fileFields := rec.FileFields
	if fileFields == nil {
		fileFields = []string{}
	}
	details, err := json.Marshal(map[string]interface{}{
		"files": len(fileFields),
	})
	if err != nil {
		details = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO submission_audit (
			draft_id, wizard, property_id, owner, receipt_id,
			outcome, error, file_fields, details, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.DraftID,
		rec.Wizard,
		nullString(rec.PropertyID),
		rec.Owner,
		nullString(rec.ReceiptID),
		rec.Outcome,
		nullString(rec.Error),
		pq.Array(fileFields),
		details,
		rec.SubmittedAt,
	)
	if err != nil {
		metrics.AuditWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("insert audit entry: %w", err)
	}

	metrics.AuditWrites.WithLabelValues(rec.Outcome).Inc()
	r.logger.Debug("Submission recorded", map[string]interface{}{
		"draftId": rec.DraftID,
		"outcome": rec.Outcome,
	})
	return nil
}

// Recent lists the owner's latest submit attempts, newest first.
func (r *Recorder) Recent(ctx context.Context, owner string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT draft_id, wizard, property_id, receipt_id, outcome, error, file_fields, submitted_at
		FROM submission_audit
		WHERE owner = $1
		ORDER BY submitted_at DESC
		LIMIT $2`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                          Entry
			propertyID, receipt, cause sql.NullString
			files                      pq.StringArray
		)
		if err := rows.Scan(&e.DraftID, &e.Wizard, &propertyID, &receipt, &e.Outcome, &cause, &files, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.PropertyID = propertyID.String
		e.ReceiptID = receipt.String
		e.Error = cause.String
		e.FileFields = []string(files)
		if e.FileFields == nil {
			e.FileFields = []string{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
