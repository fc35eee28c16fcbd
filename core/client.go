package core

import (
	"context"
	"errors"
)

var (
	// ErrFacilitatorUnavailable marks transport failures, timeouts and
	// unexpected responses from the facilitator.
	ErrFacilitatorUnavailable = errors.New("facilitator unavailable")

	// ErrFacilitatorRejected marks an explicit denial by the facilitator.
	ErrFacilitatorRejected = errors.New("facilitator rejected payment")
)

// VerifyResult is the facilitator's answer to a verify call.
type VerifyResult struct {
	Valid  bool
	Reason string
	Payer  string
}

// SettleResult is the facilitator's answer to a settle call.
type SettleResult struct {
	Success     bool
	Reason      string
	Transaction string
	Payer       string
}

// Facilitator defines the external service that verifies signatures and
// settles authorizations on-chain. It owns nonce replay state.
type Facilitator interface {
	Verify(ctx context.Context, proof *Proof, req *Requirement) (VerifyResult, error)
	Settle(ctx context.Context, proof *Proof, req *Requirement) (SettleResult, error)
}
