package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/google/uuid"
)

// auditService writes audit records after a mutation has committed. Failures are
// logged and never reach the caller.
type auditService struct {
	repo portsrepo.AuditRepository
	now  func() time.Time
}

// NewAuditService creates an audit sink backed by the given repository.
// A nil repository yields a sink that only logs at debug level.
func NewAuditService(repo portsrepo.AuditRepository) portssvc.AuditSink {
	return &auditService{repo: repo, now: time.Now}
}

func marshalPayload(v any) json.RawMessage {
	if v == nil {
		return json.RawMessage("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"marshalError": err.Error()})
	}
	return b
}

func (a *auditService) Record(ctx context.Context, name, actor string, input, output any) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if a.repo == nil {
		logger.Debug("Audit sink disabled", slog.String("audit_name", name))
		return
	}
	record := domain.AuditRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: a.now().UTC(),
		Actor:     actor,
		Input:     marshalPayload(input),
		Output:    marshalPayload(output),
	}
	// The request may already be finishing; the record must still be written.
	if err := a.repo.SaveAuditRecord(context.WithoutCancel(ctx), record); err != nil {
		logger.Error("Failed to write audit record", slog.String("audit_name", name), slog.String("error", err.Error()))
	}
}
