package pgsql

import (
	"context"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepository = (*PgxAuditRepository)(nil)

// SaveAuditRecord appends a record; audit rows are never updated.
func (r *PgxAuditRepository) SaveAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO audit_records (audit_id, name, recorded_at, actor, input, output)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.Name, record.Timestamp, record.Actor, nullableJSON(record.Input), nullableJSON(record.Output),
	)
	if err != nil {
		return wrapDBError("failed to save audit record "+record.Name, err)
	}
	return nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
