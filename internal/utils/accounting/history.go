package accounting

import (
	"strconv"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// DiffTransaction compares the editable fields of two versions of a transaction.
func DiffTransaction(before, after domain.Transaction) []domain.FieldChange {
	var changes []domain.FieldChange
	idField := func(key string, b, a int64) {
		if b != a {
			changes = append(changes, domain.FieldChange{Key: key, Before: strconv.FormatInt(b, 10), After: strconv.FormatInt(a, 10)})
		}
	}
	idField("fromEntityId", before.FromEntityID, after.FromEntityID)
	idField("toEntityId", before.ToEntityID, after.ToEntityID)
	idField("operatorEntityId", before.OperatorEntityID, after.OperatorEntityID)
	if before.Currency != after.Currency {
		changes = append(changes, domain.FieldChange{Key: "currency", Before: before.Currency, After: after.Currency})
	}
	if !before.Amount.Equal(after.Amount) {
		changes = append(changes, domain.FieldChange{Key: "amount", Before: before.Amount.String(), After: after.Amount.String()})
	}
	return changes
}

// AppendHistory adds a change record for the diff, skipping empty diffs.
// It reports whether anything was appended.
func AppendHistory(meta *domain.TransactionMetadata, changes []domain.FieldChange, actor string, now time.Time) bool {
	if len(changes) == 0 {
		return false
	}
	meta.History = append(meta.History, domain.ChangeRecord{
		ChangeDate: now,
		ChangedBy:  actor,
		ChangeData: changes,
	})
	return true
}
