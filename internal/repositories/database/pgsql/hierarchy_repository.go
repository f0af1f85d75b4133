package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTagRepository struct {
	BaseRepository
}

func newPgxTagRepository(pool *pgxpool.Pool) portsrepo.TagRepositoryFacade {
	return &PgxTagRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TagRepositoryFacade = (*PgxTagRepository)(nil)

func (r *PgxTagRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.Pool.Query(ctx, `SELECT name, parent_name FROM tags ORDER BY name`)
	if err != nil {
		return nil, wrapDBError("failed to list tags", err)
	}
	defer rows.Close()

	out := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.Name, &t.ParentName); err != nil {
			return nil, wrapDBError("failed to scan tag", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating tags", err)
	}
	return out, nil
}

func (r *PgxTagRepository) SaveTag(ctx context.Context, tag domain.Tag) error {
	_, err := r.Pool.Exec(ctx, `INSERT INTO tags (name, parent_name) VALUES ($1, $2)`, tag.Name, tag.ParentName)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: tag %q", apperrors.ErrDuplicate, tag.Name)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: parent tag %q does not exist", apperrors.ErrValidation, *tag.ParentName)
		}
		return wrapDBError("failed to save tag "+tag.Name, err)
	}
	return nil
}

// UpdateTagParent reparents a tag. Concurrent reparents are serialized by a
// self-conflicting table lock, and the move is rejected when the new parent
// already descends from the tag.
func (r *PgxTagRepository) UpdateTagParent(ctx context.Context, name string, parentName *string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		// Plain reads still go through; other reparents, inserts and deletes wait.
		if _, err := tx.Exec(ctx, `LOCK TABLE tags IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return wrapDBError("failed to lock tags", err)
		}

		if parentName != nil {
			var cycle bool
			err := tx.QueryRow(ctx, `
				WITH RECURSIVE ancestors (name, parent_name) AS (
					SELECT name, parent_name FROM tags WHERE name = $1
					UNION
					SELECT t.name, t.parent_name
					FROM tags t JOIN ancestors a ON t.name = a.parent_name
				)
				SELECT EXISTS (SELECT 1 FROM ancestors WHERE name = $2)`,
				*parentName, name).Scan(&cycle)
			if err != nil {
				return wrapDBError("failed to walk tag ancestors", err)
			}
			if cycle {
				return fmt.Errorf("%w: moving tag %q under %q would create a cycle", apperrors.ErrValidation, name, *parentName)
			}
		}

		ct, err := tx.Exec(ctx, `UPDATE tags SET parent_name = $2 WHERE name = $1`, name, parentName)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgForeignKeyViolation && parentName != nil {
				return fmt.Errorf("%w: parent tag %q does not exist", apperrors.ErrValidation, *parentName)
			}
			return wrapDBError("failed to reparent tag "+name, err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("tag %q", name))
		}
		return nil
	})
}

// DeleteTag removes a leaf tag that no entity carries.
func (r *PgxTagRepository) DeleteTag(ctx context.Context, name string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT name FROM tags WHERE name = $1 FOR UPDATE`, name).Scan(&locked)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("tag %q", name), "failed to lock")
		}

		var child string
		err = tx.QueryRow(ctx, `SELECT name FROM tags WHERE parent_name = $1 ORDER BY name LIMIT 1`, name).Scan(&child)
		if err == nil {
			return apperrors.NewConflictError(apperrors.ConflictTagInUse, 0, fmt.Sprintf("tag %q has child tag %q", name, child))
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return wrapDBError("failed to look up child tags", err)
		}

		var entityID int64
		err = tx.QueryRow(ctx, `SELECT entity_id FROM entities WHERE tag_name = $1 ORDER BY entity_id LIMIT 1`, name).Scan(&entityID)
		if err == nil {
			return apperrors.NewConflictError(apperrors.ConflictTagInUse, 0, fmt.Sprintf("tag %q is assigned to entity %d", name, entityID))
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return wrapDBError("failed to look up tagged entities", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tags WHERE name = $1`, name); err != nil {
			return wrapDBError("failed to delete tag "+name, err)
		}
		return nil
	})
}

type PgxEntityRepository struct {
	BaseRepository
}

func newPgxEntityRepository(pool *pgxpool.Pool) portsrepo.EntityRepositoryFacade {
	return &PgxEntityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntityRepositoryFacade = (*PgxEntityRepository)(nil)

const selectEntityFields = `entity_id, name, tag_name, created_at, created_by, last_updated_at, last_updated_by`

func scanEntity(row rowScanner) (domain.Entity, error) {
	var e domain.Entity
	err := row.Scan(&e.ID, &e.Name, &e.TagName, &e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy)
	return e, err
}

func (r *PgxEntityRepository) queryEntities(ctx context.Context, query string, args ...any) ([]domain.Entity, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("failed to query entities", err)
	}
	defer rows.Close()

	out := []domain.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, wrapDBError("failed to scan entity", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating entities", err)
	}
	return out, nil
}

func (r *PgxEntityRepository) SaveEntity(ctx context.Context, entity *domain.Entity) error {
	err := r.Pool.QueryRow(ctx, `
		INSERT INTO entities (name, tag_name, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING entity_id`,
		entity.Name, entity.TagName, entity.CreatedAt, entity.CreatedBy, entity.LastUpdatedAt, entity.LastUpdatedBy,
	).Scan(&entity.ID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return fmt.Errorf("%w: tag %q does not exist", apperrors.ErrValidation, entity.TagName)
		}
		return wrapDBError("failed to save entity "+entity.Name, err)
	}
	return nil
}

func (r *PgxEntityRepository) FindEntityByID(ctx context.Context, entityID int64) (*domain.Entity, error) {
	e, err := scanEntity(r.Pool.QueryRow(ctx, `SELECT `+selectEntityFields+` FROM entities WHERE entity_id = $1`, entityID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("entity %d", entityID), "failed to find")
	}
	return &e, nil
}

// FindEntitiesByIDs returns the entities found; missing ids are skipped.
func (r *PgxEntityRepository) FindEntitiesByIDs(ctx context.Context, entityIDs []int64) (map[int64]domain.Entity, error) {
	out := make(map[int64]domain.Entity, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	entities, err := r.queryEntities(ctx, `SELECT `+selectEntityFields+` FROM entities WHERE entity_id = ANY($1)`, entityIDs)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.ID] = e
	}
	return out, nil
}

func (r *PgxEntityRepository) ListEntities(ctx context.Context, tagNames []string) ([]domain.Entity, error) {
	if tagNames == nil {
		return r.queryEntities(ctx, `SELECT `+selectEntityFields+` FROM entities ORDER BY entity_id`)
	}
	return r.queryEntities(ctx, `SELECT `+selectEntityFields+` FROM entities WHERE tag_name = ANY($1) ORDER BY entity_id`, tagNames)
}

func (r *PgxEntityRepository) UpdateEntity(ctx context.Context, entity domain.Entity) error {
	ct, err := r.Pool.Exec(ctx, `
		UPDATE entities SET name = $2, tag_name = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entity_id = $1`,
		entity.ID, entity.Name, entity.TagName, entity.LastUpdatedAt, entity.LastUpdatedBy,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return fmt.Errorf("%w: tag %q does not exist", apperrors.ErrValidation, entity.TagName)
		}
		return wrapDBError(fmt.Sprintf("failed to update entity %d", entity.ID), err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("entity %d", entity.ID))
	}
	return nil
}

// DeleteEntity refuses to delete an entity referenced by any transaction and
// names the oldest such transaction. Its balance cells go with it; they can only
// exist without movements once no transaction references the entity.
func (r *PgxEntityRepository) DeleteEntity(ctx context.Context, entityID int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT entity_id FROM entities WHERE entity_id = $1 FOR UPDATE`, entityID).Scan(&id)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("entity %d", entityID), "failed to lock")
		}

		var blocking *int64
		err = tx.QueryRow(ctx, `
			SELECT MIN(transaction_id) FROM transactions
			WHERE from_entity_id = $1 OR to_entity_id = $1 OR operator_entity_id = $1`, entityID).Scan(&blocking)
		if err != nil {
			return wrapDBError("failed to look up transactions of entity", err)
		}
		if blocking != nil {
			return apperrors.NewConflictError(apperrors.ConflictEntityInUse, *blocking, fmt.Sprintf("entity %d is referenced by a transaction", entityID))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM balances WHERE entity_id = $1`, entityID); err != nil {
			return wrapDBError(fmt.Sprintf("failed to delete balance cells of entity %d", entityID), err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM entities WHERE entity_id = $1`, entityID); err != nil {
			return wrapDBError(fmt.Sprintf("failed to delete entity %d", entityID), err)
		}
		return nil
	})
}
