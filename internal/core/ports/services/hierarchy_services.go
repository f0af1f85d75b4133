package services

import (
	"context"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/dto"
)

// TagTreeProvider hands out the current tag tree.
type TagTreeProvider interface {
	Tree(ctx context.Context) (*domain.TagTree, error)
}

// TagSvcFacade manages the tag hierarchy.
type TagSvcFacade interface {
	TagTreeProvider
	ListTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, actor domain.Actor, req dto.CreateTagRequest) (*domain.Tag, error)
	ReparentTag(ctx context.Context, actor domain.Actor, name string, req dto.UpdateTagRequest) (*domain.Tag, error)
	DeleteTag(ctx context.Context, actor domain.Actor, name string) error
}

// EntityReaderSvc defines read operations for entities.
type EntityReaderSvc interface {
	GetEntity(ctx context.Context, entityID int64) (*domain.Entity, error)
	GetEntitiesByIDs(ctx context.Context, entityIDs []int64) (map[int64]domain.Entity, error)
	ListEntities(ctx context.Context, params dto.ListEntitiesParams) ([]domain.Entity, error)
}

// EntityWriterSvc defines write operations for entities.
type EntityWriterSvc interface {
	CreateEntity(ctx context.Context, actor domain.Actor, req dto.CreateEntityRequest) (*domain.Entity, error)
	UpdateEntity(ctx context.Context, actor domain.Actor, entityID int64, req dto.UpdateEntityRequest) (*domain.Entity, error)
	DeleteEntity(ctx context.Context, actor domain.Actor, entityID int64) error
}

// EntitySvcFacade combines all entity-related service interfaces
type EntitySvcFacade interface {
	EntityReaderSvc
	EntityWriterSvc
}
