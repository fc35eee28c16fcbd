package core

import (
	"context"
	"errors"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// facilitate asks the facilitator to verify and then settle the proof under
// the gate timeout. Nothing is retained if the call fails part way: a later
// request with the same proof is verified from scratch.
func (g *Gate) facilitate(ctx context.Context, p *Proof, r *Requirement) Outcome {

	// Create the context for the facilitator round trip with timeout
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// Verify the payment with the facilitator
	verified, err := g.facilitator.Verify(callCtx, p, r)
	if err != nil {
		return facilitatorFailure(ctx, err)
	}

	// Check the facilitator accepted the authorization
	if !verified.Valid {
		return RejectedByFacilitator(types.InvalidReasonFacilitatorDenied, verified.Reason, false)
	}

	// Settle the payment with the facilitator
	settled, err := g.facilitator.Settle(callCtx, p, r)
	if err != nil {
		return facilitatorFailure(ctx, err)
	}

	// Check the settlement succeeded
	if !settled.Success {
		return RejectedByFacilitator(types.InvalidReasonSettlementFailed, settled.Reason, false)
	}

	// Prefer the payer reported by the facilitator
	payer := settled.Payer
	if payer == "" {
		payer = verified.Payer
	}
	if payer == "" {
		payer = p.From
	}

	return Accepted(payer, settled.Transaction)
}

// facilitatorFailure maps a facilitator error to an outcome. parent is the
// request context, used to tell a client disconnect from a timeout.
func facilitatorFailure(parent context.Context, err error) Outcome {
	switch {
	case errors.Is(err, ErrFacilitatorRejected):
		return RejectedByFacilitator(types.InvalidReasonFacilitatorDenied, err.Error(), false)
	case parent.Err() != nil:
		return RejectedByFacilitator(types.InvalidReasonRequestAbandoned, err.Error(), true)
	case errors.Is(err, context.DeadlineExceeded):
		return RejectedByFacilitator(types.InvalidReasonFacilitatorTimeout, err.Error(), true)
	default:
		return RejectedByFacilitator(types.InvalidReasonFacilitatorDown, err.Error(), true)
	}
}
