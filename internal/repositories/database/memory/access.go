package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// ListUserPermissions implements repositories.PermissionRepositoryFacade.
func (s *Store) ListUserPermissions(_ context.Context, userID string) ([]domain.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := clonePermissions(s.st.userPerms[userID])
	if role, ok := s.st.userRoles[userID]; ok {
		out = append(out, clonePermissions(s.st.rolePerms[role])...)
	}
	return out, nil
}

// ListDirectUserPermissions implements repositories.PermissionRepositoryFacade.
func (s *Store) ListDirectUserPermissions(_ context.Context, userID string) ([]domain.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePermissions(s.st.userPerms[userID]), nil
}

// ReplaceUserPermissions implements repositories.PermissionRepositoryFacade.
func (s *Store) ReplaceUserPermissions(_ context.Context, userID string, perms []domain.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.userPerms[userID] = clonePermissions(perms)
	return nil
}

// ListRolePermissions implements repositories.PermissionRepositoryFacade.
func (s *Store) ListRolePermissions(_ context.Context, roleName string) ([]domain.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePermissions(s.st.rolePerms[roleName]), nil
}

// ReplaceRolePermissions implements repositories.PermissionRepositoryFacade.
func (s *Store) ReplaceRolePermissions(_ context.Context, roleName string, perms []domain.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.rolePerms[roleName] = clonePermissions(perms)
	return nil
}

// AssignUserRole implements repositories.PermissionRepositoryFacade.
func (s *Store) AssignUserRole(_ context.Context, userID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.rolePerms[roleName]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("role %q", roleName))
	}
	s.st.userRoles[userID] = roleName
	return nil
}

// SaveExchangeRate implements repositories.ExchangeRateRepositoryFacade.
func (s *Store) SaveExchangeRate(_ context.Context, rate domain.ExchangeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.rates = append(s.st.rates, rate)
	return nil
}

// ListLatestExchangeRates implements repositories.ExchangeRateRepositoryFacade.
func (s *Store) ListLatestExchangeRates(_ context.Context) ([]domain.ExchangeRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[string]domain.ExchangeRate{}
	for _, r := range s.st.rates {
		code := strings.ToLower(r.CurrencyCode)
		if cur, ok := latest[code]; ok && r.DateEffective.Before(cur.DateEffective) {
			continue
		}
		latest[code] = r
	}
	out := make([]domain.ExchangeRate, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, nil
}

// apiTokenStore exposes the token methods under the names the port expects,
// which would otherwise clash with other repositories on Store.
type apiTokenStore Store

func (a *apiTokenStore) Create(_ context.Context, token *domain.APIToken) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.tokens[token.ID]; ok {
		return fmt.Errorf("%w: api token %s", apperrors.ErrDuplicate, token.ID)
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = s.now()
	}
	s.st.tokens[token.ID] = *token
	return nil
}

func (a *apiTokenStore) FindByID(_ context.Context, id string) (*domain.APIToken, error) {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.tokens[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("api token %s", id))
	}
	return &t, nil
}

func (a *apiTokenStore) FindByUserID(_ context.Context, userID string) ([]domain.APIToken, error) {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.APIToken{}
	for _, t := range s.st.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (a *apiTokenStore) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.tokens[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("api token %s", id))
	}
	t.LastUsedAt = &at
	s.st.tokens[id] = t
	return nil
}

func (a *apiTokenStore) Delete(_ context.Context, id string) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.tokens[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("api token %s", id))
	}
	delete(s.st.tokens, id)
	return nil
}
