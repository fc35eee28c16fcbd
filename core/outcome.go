package core

import (
	"fmt"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// Outcome is the result of checking a proof against a requirement.
type Outcome struct {
	Kind     types.OutcomeKind
	Category types.Category
	// Reason is the structural reason, the mismatched field, or the
	// facilitator reason depending on Kind.
	Reason string
	// Detail is logged and audited but never returned to the caller.
	Detail string

	// Set on accepted outcomes.
	Payer       string
	Transaction string
}

// Accepted returns an accepted outcome.
func Accepted(payer, transaction string) Outcome {
	return Outcome{
		Kind:        types.OutcomeAccepted,
		Payer:       payer,
		Transaction: transaction,
	}
}

// RejectedStructural returns a structural rejection.
func RejectedStructural(reason types.InvalidReason) Outcome {
	return Outcome{
		Kind:     types.OutcomeRejectedStructural,
		Category: types.CategoryStructuralInvalid,
		Reason:   string(reason),
	}
}

// RejectedExpired returns an expiry rejection.
func RejectedExpired() Outcome {
	return Outcome{
		Kind:     types.OutcomeRejectedExpired,
		Category: types.CategoryExpired,
		Reason:   "expired",
	}
}

// RejectedMismatch returns a mismatch rejection for the given field.
func RejectedMismatch(field types.MismatchField) Outcome {
	return Outcome{
		Kind:     types.OutcomeRejectedMismatch,
		Category: types.CategoryMismatch,
		Reason:   string(field),
	}
}

// RejectedByFacilitator returns a facilitator rejection. unavailable
// separates infrastructure failures from explicit denials.
func RejectedByFacilitator(reason types.InvalidReason, detail string, unavailable bool) Outcome {
	category := types.CategoryFacilitatorRejected
	if unavailable {
		category = types.CategoryFacilitatorUnavailable
	}
	return Outcome{
		Kind:     types.OutcomeRejectedByFacilitator,
		Category: category,
		Reason:   string(reason),
		Detail:   detail,
	}
}

// IsAccepted reports whether the gated handler may run.
func (o Outcome) IsAccepted() bool {
	return o.Kind == types.OutcomeAccepted
}

// ChallengeError returns the rejection detail returned to the caller.
func (o Outcome) ChallengeError() *types.ChallengeError {
	if o.IsAccepted() {
		return nil
	}
	return &types.ChallengeError{
		Category: o.Category,
		Reason:   o.Reason,
	}
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Reason)
}
