package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/SscSPs/maika_backend/internal/utils/permissions"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Audit       portssvc.AuditSink
	Invalidator portssvc.Invalidator
	Now         func() time.Time
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// now returns the service clock, UTC.
func (s *BaseService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// RequireGlobal turns a missing global grant into ErrForbidden.
func (s *BaseService) RequireGlobal(ctx context.Context, actor domain.Actor, name domain.PermissionName) error {
	if permissions.HasGlobal(actor.Permissions, name) {
		return nil
	}
	s.LogDebug(ctx, "Permission denied", slog.String("user_id", actor.UserID), slog.String("permission", string(name)))
	return fmt.Errorf("%w: %s required", apperrors.ErrForbidden, name)
}

// afterWrite signals cache invalidation and records the audit trail of a committed write.
func (s *BaseService) afterWrite(ctx context.Context, name string, actor domain.Actor, input, output any, prefixes ...string) {
	if s.Invalidator != nil && len(prefixes) > 0 {
		s.Invalidator.Invalidate(ctx, prefixes...)
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, name, actor.UserID, input, output)
	}
}

// Cache key prefixes invalidated by writers.
const (
	PrefixBalances   = "balances"
	PrefixOperations = "operations"
	PrefixEntities   = "entities"
	PrefixTags       = "tags"
)
