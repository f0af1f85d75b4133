package accounting

import (
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// MirrorTransaction builds the reversal of orig: endpoints swapped, everything
// else monetary kept, status cancelled and fresh metadata carrying the extra data.
func MirrorTransaction(orig domain.Transaction, actor string, now time.Time) domain.Transaction {
	origID := orig.ID
	return domain.Transaction{
		OperationID:      orig.OperationID,
		Type:             orig.Type,
		FromEntityID:     orig.ToEntityID,
		ToEntityID:       orig.FromEntityID,
		OperatorEntityID: orig.OperatorEntityID,
		Currency:         orig.Currency,
		Amount:           orig.Amount,
		Method:           orig.Method,
		Status:           domain.StatusCancelled,
		Date:             now,
		ReversalOfID:     &origID,
		Metadata: domain.TransactionMetadata{
			UploadedBy:    actor,
			UploadedDate:  now,
			CancelledBy:   &actor,
			CancelledDate: &now,
			History:       []domain.ChangeRecord{},
			Extra:         orig.Metadata.Extra.Normalize(),
		},
	}
}

// MarkCancelled stamps the cancellation fields on the original transaction.
func MarkCancelled(tx domain.Transaction, actor string, now time.Time) domain.Transaction {
	tx.Status = domain.StatusCancelled
	tx.Metadata.CancelledBy = &actor
	tx.Metadata.CancelledDate = &now
	return tx
}

// MarkConfirmed stamps the confirmation fields.
func MarkConfirmed(tx domain.Transaction, actor string, now time.Time) domain.Transaction {
	tx.Status = domain.StatusConfirmed
	tx.Metadata.ConfirmedBy = &actor
	tx.Metadata.ConfirmedDate = &now
	return tx
}
