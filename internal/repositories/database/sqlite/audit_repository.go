// Package sqlite stores audit records in a local append-only SQLite file.
// It is used when audit trails must survive independently of the ledger database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	_ "github.com/mattn/go-sqlite3"
)

// AuditRepository appends audit records to SQLite. Records are never updated or deleted.
type AuditRepository struct {
	db *sql.DB
}

var _ portsrepo.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository opens (and creates if needed) the audit database at path.
// Use ":memory:" for a throwaway database.
func NewAuditRepository(path string) (*AuditRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	repo := &AuditRepository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate audit database: %w", err)
	}
	return repo, nil
}

func (r *AuditRepository) migrate() error {
	_, err := r.db.Exec(`
	CREATE TABLE IF NOT EXISTS audit_records (
		audit_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		actor TEXT NOT NULL,
		input TEXT,
		output TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_records_recorded_at ON audit_records(recorded_at);
	`)
	return err
}

// Close closes the database connection.
func (r *AuditRepository) Close() error {
	return r.db.Close()
}

func nullableText(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

// SaveAuditRecord appends one record.
func (r *AuditRepository) SaveAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_records (audit_id, name, recorded_at, actor, input, output)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Name,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.Actor,
		nullableText(record.Input),
		nullableText(record.Output),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit record %s: %w", record.Name, err)
	}
	return nil
}

// ListAuditRecords returns the records recorded at or after since, oldest first.
func (r *AuditRepository) ListAuditRecords(ctx context.Context, since time.Time) ([]domain.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT audit_id, name, recorded_at, actor, input, output
		FROM audit_records
		WHERE recorded_at >= ?
		ORDER BY recorded_at, audit_id`, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	out := []domain.AuditRecord{}
	for rows.Next() {
		var (
			rec           domain.AuditRecord
			recordedAt    string
			input, output sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &recordedAt, &rec.Actor, &input, &output); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("audit record %s has a malformed timestamp: %w", rec.ID, err)
		}
		if input.Valid {
			rec.Input = []byte(input.String)
		}
		if output.Valid {
			rec.Output = []byte(output.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
