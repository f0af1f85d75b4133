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
	"github.com/SscSPs/maika_backend/internal/dto"
)

type entityService struct {
	BaseService
	entityRepo portsrepo.EntityRepositoryFacade
	tags       portssvc.TagTreeProvider
}

// NewEntityService creates a new entity service.
func NewEntityService(entityRepo portsrepo.EntityRepositoryFacade, tags portssvc.TagTreeProvider, base BaseService) portssvc.EntitySvcFacade {
	return &entityService{BaseService: base, entityRepo: entityRepo, tags: tags}
}

func (s *entityService) GetEntity(ctx context.Context, entityID int64) (*domain.Entity, error) {
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %d: %w", entityID, err)
	}
	return entity, nil
}

func (s *entityService) GetEntitiesByIDs(ctx context.Context, entityIDs []int64) (map[int64]domain.Entity, error) {
	entities, err := s.entityRepo.FindEntitiesByIDs(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get entities: %w", err)
	}
	return entities, nil
}

// ListEntities lists every entity, or those whose tag lies under params.Tag.
func (s *entityService) ListEntities(ctx context.Context, params dto.ListEntitiesParams) ([]domain.Entity, error) {
	var tagNames []string
	if params.Tag != nil && *params.Tag != "" {
		tree, err := s.tags.Tree(ctx)
		if err != nil {
			return nil, err
		}
		if !tree.Contains(*params.Tag) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("tag %q", *params.Tag))
		}
		tagNames = tree.Descendants(*params.Tag)
	}
	entities, err := s.entityRepo.ListEntities(ctx, tagNames)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	return entities, nil
}

func (s *entityService) checkTag(ctx context.Context, tagName string) error {
	if strings.TrimSpace(tagName) == "" {
		return fmt.Errorf("%w: an entity needs a tag", apperrors.ErrValidation)
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return err
	}
	if !tree.Contains(tagName) {
		return fmt.Errorf("%w: tag %q does not exist", apperrors.ErrValidation, tagName)
	}
	return nil
}

func (s *entityService) CreateEntity(ctx context.Context, actor domain.Actor, req dto.CreateEntityRequest) (*domain.Entity, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermEntitiesManage); err != nil {
		return nil, err
	}
	if err := s.checkTag(ctx, req.TagName); err != nil {
		return nil, err
	}
	now := s.now()
	entity := domain.Entity{
		Name:    strings.TrimSpace(req.Name),
		TagName: req.TagName,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.entityRepo.SaveEntity(ctx, &entity); err != nil {
		s.LogError(ctx, err, "Failed to save entity", slog.String("name", entity.Name))
		return nil, fmt.Errorf("failed to save entity: %w", err)
	}
	s.afterWrite(ctx, "createEntity", actor, req, entity, PrefixEntities)
	s.LogInfo(ctx, "Entity created", slog.Int64("entity_id", entity.ID), slog.String("tag", entity.TagName))
	return &entity, nil
}

// UpdateEntity renames an entity or moves it to another tag.
func (s *entityService) UpdateEntity(ctx context.Context, actor domain.Actor, entityID int64, req dto.UpdateEntityRequest) (*domain.Entity, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermEntitiesManage); err != nil {
		return nil, err
	}
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %d: %w", entityID, err)
	}

	updated := *entity
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
		if updated.Name == "" {
			return nil, fmt.Errorf("%w: entity name cannot be empty", apperrors.ErrValidation)
		}
	}
	if req.TagName != nil {
		if err := s.checkTag(ctx, *req.TagName); err != nil {
			return nil, err
		}
		updated.TagName = *req.TagName
	}
	if updated.Name == entity.Name && updated.TagName == entity.TagName {
		return entity, nil
	}
	updated.LastUpdatedAt = s.now()
	updated.LastUpdatedBy = actor.UserID

	if err := s.entityRepo.UpdateEntity(ctx, updated); err != nil {
		s.LogError(ctx, err, "Failed to update entity", slog.Int64("entity_id", entityID))
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}
	prefixes := []string{PrefixEntities}
	if updated.TagName != entity.TagName {
		// Permission scopes and tag rollups follow the entity's tag.
		prefixes = append(prefixes, PrefixBalances, PrefixOperations)
	}
	s.afterWrite(ctx, "updateEntity", actor, req, updated, prefixes...)
	return &updated, nil
}

// DeleteEntity removes an entity that no transaction references.
func (s *entityService) DeleteEntity(ctx context.Context, actor domain.Actor, entityID int64) error {
	if err := s.RequireGlobal(ctx, actor, domain.PermEntitiesManage); err != nil {
		return err
	}
	if err := s.entityRepo.DeleteEntity(ctx, entityID); err != nil {
		s.LogError(ctx, err, "Failed to delete entity", slog.Int64("entity_id", entityID))
		return fmt.Errorf("failed to delete entity %d: %w", entityID, err)
	}
	s.afterWrite(ctx, "deleteEntity", actor, entityID, nil, PrefixEntities, PrefixBalances)
	return nil
}
