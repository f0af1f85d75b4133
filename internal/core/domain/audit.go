package domain

import (
	"encoding/json"
	"time"
)

// AuditRecord is the immutable trace of a mutating call.
type AuditRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
}
