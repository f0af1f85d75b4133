package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/utils"
	"github.com/google/uuid"
)

// tokenSecretBytes is the entropy of the secret half of an API token.
const tokenSecretBytes = 32

// apiTokenService implements the APITokenSvc interface.
// Tokens have the form "<id>.<secret>"; only a bcrypt hash of the secret is stored.
type apiTokenService struct {
	BaseService
	tokenRepo repositories.APITokenRepository
}

// NewAPITokenService creates a new instance of apiTokenService
func NewAPITokenService(tokenRepo repositories.APITokenRepository, base BaseService) portssvc.APITokenSvc {
	return &apiTokenService{BaseService: base, tokenRepo: tokenRepo}
}

// CreateToken generates a new API token for the user
func (s *apiTokenService) CreateToken(ctx context.Context, actor domain.Actor, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
		return "", nil, err
	}
	if userID == "" {
		return "", nil, fmt.Errorf("%w: user ID is required", apperrors.ErrValidation)
	}
	if name == "" {
		return "", nil, fmt.Errorf("%w: token name is required", apperrors.ErrValidation)
	}

	secret, err := utils.NewTokenSecret(tokenSecretBytes)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	tokenHash, err := utils.HashSecret(secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash token: %w", err)
	}

	now := s.now()
	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := now.Add(*expiresIn)
		expiresAt = &expiry
	}

	apiToken := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, apiToken); err != nil {
		return "", nil, fmt.Errorf("failed to save token: %w", err)
	}
	s.afterWrite(ctx, "createAPIToken", actor, map[string]string{"userId": userID, "name": name}, apiToken)
	s.LogInfo(ctx, "API token created", slog.String("token_id", apiToken.ID), slog.String("target_user_id", userID))

	// The plaintext token is only available here.
	return utils.JoinAPIToken(apiToken.ID, secret), apiToken, nil
}

// ListTokens returns all API tokens for a user
func (s *apiTokenService) ListTokens(ctx context.Context, actor domain.Actor, userID string) ([]domain.APIToken, error) {
	if actor.UserID != userID {
		if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
			return nil, err
		}
	}
	tokens, err := s.tokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// RevokeToken deletes a token. Owners may revoke their own tokens.
func (s *apiTokenService) RevokeToken(ctx context.Context, actor domain.Actor, tokenID string) error {
	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to find token: %w", err)
	}
	if token.UserID != actor.UserID {
		if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
			return err
		}
	}
	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.afterWrite(ctx, "revokeAPIToken", actor, tokenID, nil)
	return nil
}

var errInvalidToken = fmt.Errorf("%w: invalid api token", apperrors.ErrUnauthorized)

// ValidateToken checks a plaintext token and returns the owning user id.
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	id, secret, ok := utils.SplitAPIToken(tokenString)
	if !ok {
		return "", errInvalidToken
	}
	token, err := s.tokenRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", errInvalidToken
		}
		return "", fmt.Errorf("failed to find token: %w", err)
	}
	if !utils.CheckSecretHash(secret, token.TokenHash) {
		return "", errInvalidToken
	}
	if token.IsExpired() {
		// Auto-revoke expired tokens
		if err := s.tokenRepo.Delete(ctx, token.ID); err != nil {
			s.LogError(ctx, err, "Failed to delete expired token", slog.String("token_id", token.ID))
		}
		return "", fmt.Errorf("%w: api token has expired", apperrors.ErrUnauthorized)
	}
	if err := s.tokenRepo.TouchLastUsed(ctx, token.ID, s.now()); err != nil {
		s.LogError(ctx, err, "Failed to update token last use", slog.String("token_id", token.ID))
	}
	return token.UserID, nil
}
