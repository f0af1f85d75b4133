package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAPITokenRepository struct {
	BaseRepository
}

// newPgxAPITokenRepository creates a new instance of PgxAPITokenRepository
func newPgxAPITokenRepository(db *pgxpool.Pool) portsrepo.APITokenRepository {
	return &PgxAPITokenRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

const (
	apiTokensTable = "api_tokens"

	selectAPITokenFields = `
		api_token_id, user_id, name, token_hash,
		last_used_at, expires_at, created_at
	`

	insertAPITokenQuery = `
		INSERT INTO ` + apiTokensTable + ` (
			api_token_id, user_id, name, token_hash, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	findAPITokenByIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE api_token_id = $1
	`

	findAPITokenByUserIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	touchAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET last_used_at = $2
		WHERE api_token_id = $1
	`

	deleteAPITokenQuery = `
		DELETE FROM ` + apiTokensTable + `
		WHERE api_token_id = $1
	`
)

// Create persists a new API token
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.Pool.Exec(ctx, insertAPITokenQuery,
		token.ID,
		token.UserID,
		token.Name,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return fmt.Errorf("%w: api token %s", apperrors.ErrDuplicate, token.ID)
		}
		return wrapDBError("failed to create api token", err)
	}
	return nil
}

// FindByID retrieves an API token by its ID
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	token, err := scanAPIToken(r.Pool.QueryRow(ctx, findAPITokenByIDQuery, id))
	if err != nil {
		return nil, notFoundOr(err, "api token "+id, "failed to find")
	}
	return token, nil
}

// FindByUserID retrieves all API tokens for a specific user
func (r *PgxAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error) {
	rows, err := r.Pool.Query(ctx, findAPITokenByUserIDQuery, userID)
	if err != nil {
		return nil, wrapDBError("failed to list api tokens", err)
	}
	defer rows.Close()

	tokens := []domain.APIToken{}
	for rows.Next() {
		token, err := scanAPIToken(rows)
		if err != nil {
			return nil, wrapDBError("failed to scan api token", err)
		}
		tokens = append(tokens, *token)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError("error iterating api tokens", err)
	}
	return tokens, nil
}

// TouchLastUsed records a successful use of the token.
func (r *PgxAPITokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	result, err := r.Pool.Exec(ctx, touchAPITokenQuery, id, at)
	if err != nil {
		return wrapDBError("failed to update api token", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("api token " + id)
	}
	return nil
}

// Delete removes an API token by ID
func (r *PgxAPITokenRepository) Delete(ctx context.Context, id string) error {
	result, err := r.Pool.Exec(ctx, deleteAPITokenQuery, id)
	if err != nil {
		return wrapDBError("failed to delete api token", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("api token " + id)
	}
	return nil
}

// scanAPIToken scans an API token from a row
func scanAPIToken(row rowScanner) (*domain.APIToken, error) {
	var token domain.APIToken
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Name,
		&token.TokenHash,
		&token.LastUsedAt,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
