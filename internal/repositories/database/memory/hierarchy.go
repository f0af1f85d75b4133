package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// ListTags implements repositories.TagRepositoryFacade.
func (s *Store) ListTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Tag, 0, len(s.st.tags))
	for _, t := range s.st.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveTag implements repositories.TagRepositoryFacade.
func (s *Store) SaveTag(_ context.Context, tag domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.tags[tag.Name]; ok {
		return fmt.Errorf("%w: tag %q", apperrors.ErrDuplicate, tag.Name)
	}
	if tag.ParentName != nil {
		if _, ok := s.st.tags[*tag.ParentName]; !ok {
			return fmt.Errorf("%w: parent tag %q does not exist", apperrors.ErrValidation, *tag.ParentName)
		}
	}
	s.st.tags[tag.Name] = tag
	return nil
}

// UpdateTagParent implements repositories.TagRepositoryFacade.
func (s *Store) UpdateTagParent(_ context.Context, name string, parentName *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.st.tags[name]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("tag %q", name))
	}
	if parentName != nil {
		if _, ok := s.st.tags[*parentName]; !ok {
			return fmt.Errorf("%w: parent tag %q does not exist", apperrors.ErrValidation, *parentName)
		}
		if s.descendsFrom(*parentName, name) {
			return fmt.Errorf("%w: moving tag %q under %q would create a cycle", apperrors.ErrValidation, name, *parentName)
		}
	}
	tag.ParentName = parentName
	s.st.tags[name] = tag
	return nil
}

// descendsFrom walks the parents of tag and reports whether it reaches ancestor.
// tag counts as its own descendant. Must be called with s.mu held.
func (s *Store) descendsFrom(tag, ancestor string) bool {
	seen := map[string]struct{}{}
	for cur := &tag; cur != nil; {
		if *cur == ancestor {
			return true
		}
		if _, ok := seen[*cur]; ok {
			return false
		}
		seen[*cur] = struct{}{}
		cur = s.st.tags[*cur].ParentName
	}
	return false
}

// DeleteTag implements repositories.TagRepositoryFacade.
func (s *Store) DeleteTag(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.tags[name]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("tag %q", name))
	}
	for _, t := range s.st.tags {
		if t.ParentName != nil && *t.ParentName == name {
			return apperrors.NewConflictError(apperrors.ConflictTagInUse, 0, fmt.Sprintf("tag %q has child tag %q", name, t.Name))
		}
	}
	for _, e := range s.st.entities {
		if e.TagName == name {
			return apperrors.NewConflictError(apperrors.ConflictTagInUse, 0, fmt.Sprintf("tag %q is assigned to entity %d", name, e.ID))
		}
	}
	delete(s.st.tags, name)
	return nil
}

// SaveEntity implements repositories.EntityRepositoryFacade.
func (s *Store) SaveEntity(_ context.Context, entity *domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.tags[entity.TagName]; !ok {
		return fmt.Errorf("%w: tag %q does not exist", apperrors.ErrValidation, entity.TagName)
	}
	entity.ID = s.st.id("entities")
	s.st.entities[entity.ID] = *entity
	return nil
}

// FindEntityByID implements repositories.EntityRepositoryFacade.
func (s *Store) FindEntityByID(_ context.Context, entityID int64) (*domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.entities[entityID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity %d", entityID))
	}
	return &e, nil
}

// FindEntitiesByIDs implements repositories.EntityRepositoryFacade. Missing ids are skipped.
func (s *Store) FindEntitiesByIDs(_ context.Context, entityIDs []int64) (map[int64]domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]domain.Entity, len(entityIDs))
	for _, id := range entityIDs {
		if e, ok := s.st.entities[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

// ListEntities implements repositories.EntityRepositoryFacade.
func (s *Store) ListEntities(_ context.Context, tagNames []string) ([]domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tags map[string]struct{}
	if tagNames != nil {
		tags = make(map[string]struct{}, len(tagNames))
		for _, t := range tagNames {
			tags[t] = struct{}{}
		}
	}
	out := []domain.Entity{}
	for _, e := range s.st.entities {
		if tags != nil {
			if _, ok := tags[e.TagName]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateEntity implements repositories.EntityRepositoryFacade.
func (s *Store) UpdateEntity(_ context.Context, entity domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.entities[entity.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("entity %d", entity.ID))
	}
	if _, ok := s.st.tags[entity.TagName]; !ok {
		return fmt.Errorf("%w: tag %q does not exist", apperrors.ErrValidation, entity.TagName)
	}
	s.st.entities[entity.ID] = entity
	return nil
}

// DeleteEntity implements repositories.EntityRepositoryFacade.
func (s *Store) DeleteEntity(_ context.Context, entityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.entities[entityID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("entity %d", entityID))
	}
	var blocking int64
	for _, t := range s.st.transactions {
		if t.FromEntityID != entityID && t.ToEntityID != entityID && t.OperatorEntityID != entityID {
			continue
		}
		if blocking == 0 || t.ID < blocking {
			blocking = t.ID
		}
	}
	if blocking != 0 {
		return apperrors.NewConflictError(apperrors.ConflictEntityInUse, blocking, fmt.Sprintf("entity %d is referenced by a transaction", entityID))
	}
	delete(s.st.entities, entityID)
	return nil
}
