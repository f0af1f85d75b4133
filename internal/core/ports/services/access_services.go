package services

import (
	"context"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/dto"
)

// PermissionSvcFacade resolves and manages grants.
type PermissionSvcFacade interface {
	// ResolveActor loads the effective permissions of an authenticated user.
	ResolveActor(ctx context.Context, userID string) (domain.Actor, error)
	GetUserPermissions(ctx context.Context, actor domain.Actor, userID string) ([]domain.Permission, error)
	ReplaceUserPermissions(ctx context.Context, actor domain.Actor, userID string, perms []domain.Permission) error
	ReplaceRolePermissions(ctx context.Context, actor domain.Actor, roleName string, perms []domain.Permission) error
	AssignRole(ctx context.Context, actor domain.Actor, userID, roleName string) error
}

// ExchangeRateSvcFacade ingests and serves exchange rates.
type ExchangeRateSvcFacade interface {
	CreateExchangeRate(ctx context.Context, actor domain.Actor, req dto.CreateExchangeRateRequest) (*domain.ExchangeRate, error)
	ListLatestExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error)
}

// APITokenSvc defines operations for API token management
type APITokenSvc interface {
	// CreateToken generates a new API token for the user
	// Returns the plaintext token (only shown once) and the token details
	CreateToken(ctx context.Context, actor domain.Actor, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error)

	// ListTokens returns all API tokens for a user
	ListTokens(ctx context.Context, actor domain.Actor, userID string) ([]domain.APIToken, error)

	// RevokeToken deletes a specific API token
	RevokeToken(ctx context.Context, actor domain.Actor, tokenID string) error

	// ValidateToken checks a plaintext token and returns the owning user id.
	// Updates the last_used_at timestamp if the token is valid
	ValidateToken(ctx context.Context, tokenString string) (string, error)
}

// AuditSink receives an immutable record after every committed mutation.
type AuditSink interface {
	Record(ctx context.Context, name, actor string, input, output any)
}

// Invalidator is signalled after every committed ledger write.
type Invalidator interface {
	Invalidate(ctx context.Context, prefixes ...string)
}
