package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// TransactionMetadata is the 1:1 bookkeeping record of a transaction.
type TransactionMetadata struct {
	UploadedBy           string         `json:"uploadedBy"`
	UploadedDate         time.Time      `json:"uploadedDate"`
	ConfirmedBy          *string        `json:"confirmedBy,omitempty"`
	ConfirmedDate        *time.Time     `json:"confirmedDate,omitempty"`
	CancelledBy          *string        `json:"cancelledBy,omitempty"`
	CancelledDate        *time.Time     `json:"cancelledDate,omitempty"`
	RelatedTransactionID *int64         `json:"relatedTransactionID,omitempty"`
	History              []ChangeRecord `json:"history"`
	Extra                Extra          `json:"extra"`
}

// ChangeRecord is one entry of the append-only edit history.
type ChangeRecord struct {
	ChangeDate time.Time     `json:"changeDate"`
	ChangedBy  string        `json:"changedBy"`
	ChangeData []FieldChange `json:"changeData"`
}

// FieldChange holds the before and after value of one edited field.
type FieldChange struct {
	Key    string `json:"key"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ExtraKind discriminates the free-form metadata attached to a transaction.
type ExtraKind string

const (
	ExtraNone     ExtraKind = "none"
	ExtraExchange ExtraKind = "exchange"
)

// Extra is the typed replacement of the free-form metadata blob.
type Extra struct {
	Kind         ExtraKind        `json:"kind"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
}

// NoExtra is the zero metadata.
func NoExtra() Extra { return Extra{Kind: ExtraNone} }

// ExchangeExtra builds exchange metadata for a currency swap leg.
func ExchangeExtra(rate decimal.Decimal) Extra {
	return Extra{Kind: ExtraExchange, ExchangeRate: &rate}
}

// Validate checks that the payload matches its kind.
func (e Extra) Validate() error {
	switch e.Kind {
	case "", ExtraNone:
		if e.ExchangeRate != nil {
			return fmt.Errorf("%w: exchange rate given without exchange kind", apperrors.ErrValidation)
		}
		return nil
	case ExtraExchange:
		if e.ExchangeRate == nil || !e.ExchangeRate.IsPositive() {
			return fmt.Errorf("%w: exchange metadata requires a positive rate", apperrors.ErrValidation)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown metadata kind %q", apperrors.ErrValidation, string(e.Kind))
}

// Normalize turns the empty kind into ExtraNone.
func (e Extra) Normalize() Extra {
	if e.Kind == "" {
		e.Kind = ExtraNone
	}
	return e
}

// ParseExtra decodes stored or submitted metadata once and validates it.
// It accepts null, an empty object, the tagged form and the legacy
// untagged {"exchangeRate": n} form.
func ParseExtra(raw []byte) (Extra, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NoExtra(), nil
	}
	var e Extra
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return Extra{}, fmt.Errorf("%w: malformed metadata: %v", apperrors.ErrValidation, err)
	}
	if e.Kind == "" && e.ExchangeRate != nil {
		e.Kind = ExtraExchange
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return Extra{}, err
	}
	return e, nil
}
