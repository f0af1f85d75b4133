package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
)

// tagService keeps the tag tree in memory and rebuilds it lazily after any mutation.
type tagService struct {
	BaseService
	tagRepo portsrepo.TagRepositoryFacade

	mu    sync.RWMutex
	tree  *domain.TagTree
	stale bool
}

// NewTagService creates a new tag service.
func NewTagService(tagRepo portsrepo.TagRepositoryFacade, base BaseService) portssvc.TagSvcFacade {
	return &tagService{BaseService: base, tagRepo: tagRepo, stale: true}
}

// Tree returns the current tag tree, loading it when a mutation made it stale.
func (s *tagService) Tree(ctx context.Context) (*domain.TagTree, error) {
	s.mu.RLock()
	if !s.stale && s.tree != nil {
		tree := s.tree
		s.mu.RUnlock()
		return tree, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stale && s.tree != nil {
		return s.tree, nil
	}
	tags, err := s.tagRepo.ListTags(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load tags")
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	tree, err := domain.NewTagTree(tags)
	if err != nil {
		s.LogError(ctx, err, "Stored tags do not form a forest")
		return nil, err
	}
	s.tree = tree
	s.stale = false
	s.LogDebug(ctx, "Tag tree rebuilt", slog.Int("tags", len(tags)))
	return tree, nil
}

func (s *tagService) markStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *tagService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Tags(), nil
}

func (s *tagService) CreateTag(ctx context.Context, actor domain.Actor, req dto.CreateTagRequest) (*domain.Tag, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermEntitiesManage); err != nil {
		return nil, err
	}
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if tree.Contains(req.Name) {
		return nil, fmt.Errorf("%w: tag %q", apperrors.ErrDuplicate, req.Name)
	}
	if req.ParentName != nil && !tree.Contains(*req.ParentName) {
		return nil, fmt.Errorf("%w: parent tag %q does not exist", apperrors.ErrValidation, *req.ParentName)
	}

	tag := domain.Tag{Name: req.Name, ParentName: req.ParentName}
	if err := s.tagRepo.SaveTag(ctx, tag); err != nil {
		s.LogError(ctx, err, "Failed to save tag", slog.String("tag", req.Name))
		return nil, fmt.Errorf("failed to save tag: %w", err)
	}
	s.markStale()
	s.afterWrite(ctx, "createTag", actor, req, tag, PrefixTags)
	s.LogInfo(ctx, "Tag created", slog.String("tag", tag.Name))
	return &tag, nil
}

// ReparentTag moves a tag under another parent, or to the root when the parent is nil.
// Moves that would make a tag its own ancestor are rejected.
func (s *tagService) ReparentTag(ctx context.Context, actor domain.Actor, name string, req dto.UpdateTagRequest) (*domain.Tag, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermEntitiesManage); err != nil {
		return nil, err
	}
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if !tree.Contains(name) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("tag %q", name))
	}
	parent := req.ParentName
	if parent != nil && *parent == "" {
		parent = nil
	}

	candidate := tree.Tags()
	for i := range candidate {
		if candidate[i].Name == name {
			candidate[i].ParentName = parent
		}
	}
	if _, err := domain.NewTagTree(candidate); err != nil {
		return nil, err
	}

	if err := s.tagRepo.UpdateTagParent(ctx, name, parent); err != nil {
		// The cached tree may be behind the stored one.
		s.markStale()
		s.LogError(ctx, err, "Failed to reparent tag", slog.String("tag", name))
		return nil, fmt.Errorf("failed to reparent tag: %w", err)
	}
	s.markStale()
	tag := domain.Tag{Name: name, ParentName: parent}
	// Rollups by tag depend on the shape of the tree.
	s.afterWrite(ctx, "reparentTag", actor, req, tag, PrefixTags, PrefixBalances)
	return &tag, nil
}

func (s *tagService) DeleteTag(ctx context.Context, actor domain.Actor, name string) error {
	if err := s.RequireGlobal(ctx, actor, domain.PermEntitiesManage); err != nil {
		return err
	}
	if err := s.tagRepo.DeleteTag(ctx, name); err != nil {
		s.LogError(ctx, err, "Failed to delete tag", slog.String("tag", name))
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	s.markStale()
	s.afterWrite(ctx, "deleteTag", actor, name, nil, PrefixTags, PrefixBalances)
	return nil
}
