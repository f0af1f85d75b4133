package repositories

import (
	"context"

	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// TagRepositoryFacade defines persistence operations for tags.
type TagRepositoryFacade interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	SaveTag(ctx context.Context, tag domain.Tag) error
	// UpdateTagParent rejects a parent that descends from the tag, checked
	// against the stored tags at write time.
	UpdateTagParent(ctx context.Context, name string, parentName *string) error
	// DeleteTag removes a tag that has neither children nor entities.
	// Otherwise it returns a conflict.
	DeleteTag(ctx context.Context, name string) error
}

// EntityRepositoryFacade defines persistence operations for entities.
type EntityRepositoryFacade interface {
	SaveEntity(ctx context.Context, entity *domain.Entity) error
	FindEntityByID(ctx context.Context, entityID int64) (*domain.Entity, error)
	FindEntitiesByIDs(ctx context.Context, entityIDs []int64) (map[int64]domain.Entity, error)
	// ListEntities lists entities whose tag is in tagNames; nil lists all of them.
	ListEntities(ctx context.Context, tagNames []string) ([]domain.Entity, error)
	UpdateEntity(ctx context.Context, entity domain.Entity) error
	// DeleteEntity removes an entity unless a transaction references it, in which
	// case it returns a conflict naming that transaction and deletes nothing.
	DeleteEntity(ctx context.Context, entityID int64) error
}
