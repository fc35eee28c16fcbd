package core

import (
	"strings"
	"time"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// CheckProof runs the local checks of a proof against a requirement at the
// given time. The checks short-circuit on the first failure and never call
// out to the facilitator. A zero Outcome means every check passed.
func CheckProof(p *Proof, r *Requirement, now time.Time) Outcome {

	// A missing proof is treated as a structural rejection
	if p == nil {
		return RejectedStructural(types.InvalidReasonMissing)
	}

	// Verify the x402 version is supported
	if p.Version != types.X402Version1 {
		return RejectedStructural(types.InvalidReasonInvalidX402Version)
	}

	// Verify the payee matches the required recipient
	if !strings.EqualFold(strings.TrimSpace(p.To), strings.TrimSpace(r.recipient)) {
		return RejectedMismatch(types.MismatchRecipient)
	}

	// Verify the asset matches the required asset
	if !strings.EqualFold(strings.TrimSpace(p.Asset), strings.TrimSpace(r.asset)) {
		return RejectedMismatch(types.MismatchAsset)
	}

	// Verify the amount covers the required amount
	if p.Amount == nil || p.Amount.Cmp(r.amount) < 0 {
		return RejectedMismatch(types.MismatchAmount)
	}

	// Verify the authorization is inside its validity window
	unix := now.Unix()
	if unix < p.ValidAfter || unix > p.ValidBefore {
		return RejectedExpired()
	}

	// Verify the scheme is supported
	if p.Scheme != types.SchemeExact {
		return RejectedStructural(types.InvalidReasonInvalidScheme)
	}

	// Verify the network matches the required network
	if !strings.EqualFold(string(p.Network), string(r.network)) {
		return RejectedMismatch(types.MismatchNetwork)
	}

	return Outcome{}
}
