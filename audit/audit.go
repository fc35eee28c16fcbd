// Package audit records verification outcomes for later review.
//
// Entries carry enough detail to reconstruct why a payment was accepted or
// rejected. They never carry the payment signature.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// Entry is one audited verification.
type Entry struct {
	ID          string            `json:"id"`
	Operation   string            `json:"operation"`
	Path        string            `json:"path"`
	Nonce       string            `json:"nonce,omitempty"`
	Payer       string            `json:"payer,omitempty"`
	Recipient   string            `json:"recipient"`
	Asset       string            `json:"asset"`
	Network     string            `json:"network"`
	Amount      string            `json:"amount,omitempty"`
	Required    string            `json:"required"`
	Outcome     types.OutcomeKind `json:"outcome"`
	Category    types.Category    `json:"category,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Transaction string            `json:"transaction,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// NewEntry returns an entry with a fresh ID and timestamp.
func NewEntry(now time.Time) Entry {
	return Entry{
		ID:         uuid.NewString(),
		OccurredAt: now.UTC(),
	}
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store is a recorder that can also list recent entries.
type Store interface {
	Recorder
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// LogRecorder writes entries to a structured logger.
type LogRecorder struct {
	Logger *slog.Logger
}

// Record implements Recorder.
func (l LogRecorder) Record(ctx context.Context, e Entry) error {
	if l.Logger == nil {
		return nil
	}
	l.Logger.InfoContext(ctx, "payment audit",
		"audit_id", e.ID,
		"operation", e.Operation,
		"path", e.Path,
		"nonce", e.Nonce,
		"payer", e.Payer,
		"recipient", e.Recipient,
		"asset", e.Asset,
		"network", e.Network,
		"amount", e.Amount,
		"required", e.Required,
		"outcome", e.Outcome,
		"category", e.Category,
		"reason", e.Reason,
		"transaction", e.Transaction,
	)
	return nil
}

// Multi fans an entry out to several recorders. Every recorder is tried and
// the errors are joined.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
