package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// PermissionRepositoryFacade defines persistence for roles and grants.
type PermissionRepositoryFacade interface {
	// ListUserPermissions returns the user's direct grants plus those of its role.
	ListUserPermissions(ctx context.Context, userID string) ([]domain.Permission, error)
	ListDirectUserPermissions(ctx context.Context, userID string) ([]domain.Permission, error)
	ReplaceUserPermissions(ctx context.Context, userID string, perms []domain.Permission) error
	ListRolePermissions(ctx context.Context, roleName string) ([]domain.Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleName string, perms []domain.Permission) error
	AssignUserRole(ctx context.Context, userID, roleName string) error
}

// ExchangeRateRepositoryFacade defines persistence for ingested rates.
type ExchangeRateRepositoryFacade interface {
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error
	// ListLatestExchangeRates returns the most recent rate of every currency.
	ListLatestExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error)
}

// APITokenRepository defines the interface for API token data access operations
type APITokenRepository interface {
	// Create persists a new API token
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)

	// FindByUserID retrieves all API tokens for a specific user
	FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error)

	// TouchLastUsed records a successful use of the token.
	TouchLastUsed(ctx context.Context, id string, at time.Time) error

	// Delete removes an API token by ID
	Delete(ctx context.Context, id string) error
}

// AuditRepository stores audit records.
type AuditRepository interface {
	SaveAuditRecord(ctx context.Context, record domain.AuditRecord) error
}
