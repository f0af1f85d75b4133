package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
)

type permissionService struct {
	BaseService
	permRepo portsrepo.PermissionRepositoryFacade
}

// NewPermissionService creates the service that resolves and manages grants.
func NewPermissionService(permRepo portsrepo.PermissionRepositoryFacade, base BaseService) portssvc.PermissionSvcFacade {
	return &permissionService{BaseService: base, permRepo: permRepo}
}

// ResolveActor loads the role and direct grants of an authenticated user.
func (s *permissionService) ResolveActor(ctx context.Context, userID string) (domain.Actor, error) {
	perms, err := s.permRepo.ListUserPermissions(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load user permissions", slog.String("user_id", userID))
		return domain.Actor{}, fmt.Errorf("failed to load permissions: %w", err)
	}
	if perms == nil {
		perms = []domain.Permission{}
	}
	return domain.Actor{UserID: userID, Permissions: perms}, nil
}

// GetUserPermissions returns the direct grants of a user. Users may read their own.
func (s *permissionService) GetUserPermissions(ctx context.Context, actor domain.Actor, userID string) ([]domain.Permission, error) {
	if actor.UserID != userID {
		if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
			return nil, err
		}
	}
	perms, err := s.permRepo.ListDirectUserPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	if perms == nil {
		perms = []domain.Permission{}
	}
	return perms, nil
}

func validatePermissions(perms []domain.Permission) error {
	for i, p := range perms {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("permission %d: %w", i, err)
		}
	}
	return nil
}

func (s *permissionService) ReplaceUserPermissions(ctx context.Context, actor domain.Actor, userID string, perms []domain.Permission) error {
	if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	if err := validatePermissions(perms); err != nil {
		return err
	}
	if err := s.permRepo.ReplaceUserPermissions(ctx, userID, perms); err != nil {
		s.LogError(ctx, err, "Failed to replace user permissions", slog.String("target_user_id", userID))
		return fmt.Errorf("failed to replace permissions: %w", err)
	}
	// Visibility of cached operations depends on grants.
	s.afterWrite(ctx, "replaceUserPermissions", actor, map[string]any{"userId": userID, "permissions": perms}, nil, PrefixOperations)
	s.LogInfo(ctx, "User permissions replaced", slog.String("target_user_id", userID), slog.Int("count", len(perms)))
	return nil
}

func (s *permissionService) ReplaceRolePermissions(ctx context.Context, actor domain.Actor, roleName string, perms []domain.Permission) error {
	if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
		return err
	}
	if strings.TrimSpace(roleName) == "" {
		return fmt.Errorf("%w: role name is required", apperrors.ErrValidation)
	}
	if err := validatePermissions(perms); err != nil {
		return err
	}
	if err := s.permRepo.ReplaceRolePermissions(ctx, roleName, perms); err != nil {
		s.LogError(ctx, err, "Failed to replace role permissions", slog.String("role", roleName))
		return fmt.Errorf("failed to replace permissions: %w", err)
	}
	s.afterWrite(ctx, "replaceRolePermissions", actor, map[string]any{"role": roleName, "permissions": perms}, nil, PrefixOperations)
	return nil
}

func (s *permissionService) AssignRole(ctx context.Context, actor domain.Actor, userID, roleName string) error {
	if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
		return err
	}
	if err := s.permRepo.AssignUserRole(ctx, userID, roleName); err != nil {
		s.LogError(ctx, err, "Failed to assign role", slog.String("target_user_id", userID), slog.String("role", roleName))
		return fmt.Errorf("failed to assign role: %w", err)
	}
	s.afterWrite(ctx, "assignRole", actor, map[string]string{"userId": userID, "role": roleName}, nil, PrefixOperations)
	return nil
}
