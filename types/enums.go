package types

// X402Version is the x402 version enum.
type X402Version int

const (
	X402Version1 X402Version = 1
)

// Scheme is the scheme enum.
type Scheme string

const (
	SchemeExact Scheme = "exact"
)

// Network is the network enum.
type Network string

const (
	NetworkAvalanche     Network = "avalanche"
	NetworkAvalancheFuji Network = "avalanche-fuji"
)

// OutcomeKind is the verification outcome enum.
type OutcomeKind string

const (
	OutcomeAccepted              OutcomeKind = "accepted"
	OutcomeRejectedStructural    OutcomeKind = "rejected_structural"
	OutcomeRejectedExpired       OutcomeKind = "rejected_expired"
	OutcomeRejectedMismatch      OutcomeKind = "rejected_mismatch"
	OutcomeRejectedByFacilitator OutcomeKind = "rejected_by_facilitator"
)

// Category is the rejection category enum reported to callers and metrics.
type Category string

const (
	CategoryNone                   Category = ""
	CategoryStructuralInvalid      Category = "structural_invalid"
	CategoryExpired                Category = "expired"
	CategoryMismatch               Category = "mismatch"
	CategoryFacilitatorUnavailable Category = "facilitator_unavailable"
	CategoryFacilitatorRejected    Category = "facilitator_rejected"
)

// MismatchField names the requirement field a proof disagreed with.
type MismatchField string

const (
	MismatchRecipient MismatchField = "recipient"
	MismatchAsset     MismatchField = "asset"
	MismatchAmount    MismatchField = "amount"
	MismatchNetwork   MismatchField = "network"
)

// InvalidReason is the structural invalid reason enum.
type InvalidReason string

const (
	InvalidReasonMissing             InvalidReason = "missing"
	InvalidReasonInvalidEncoding     InvalidReason = "invalid_encoding"
	InvalidReasonInvalidPayload      InvalidReason = "invalid_payment_payload"
	InvalidReasonInvalidX402Version  InvalidReason = "invalid_x402_version"
	InvalidReasonInvalidScheme       InvalidReason = "invalid_scheme"
	InvalidReasonInvalidAmount       InvalidReason = "invalid_amount"
	InvalidReasonInvalidValidAfter   InvalidReason = "invalid_valid_after"
	InvalidReasonInvalidValidBefore  InvalidReason = "invalid_valid_before"
	InvalidReasonInvalidNonce        InvalidReason = "invalid_nonce"
	InvalidReasonInvalidNonceLength  InvalidReason = "invalid_nonce_length"
	InvalidReasonInvalidSignature    InvalidReason = "invalid_signature"
	InvalidReasonInvalidFromAddress  InvalidReason = "invalid_from_address"
	InvalidReasonSignerMismatch      InvalidReason = "signer_mismatch"
	InvalidReasonFacilitatorTimeout  InvalidReason = "facilitator_timeout"
	InvalidReasonFacilitatorDown     InvalidReason = "facilitator_unavailable"
	InvalidReasonFacilitatorDenied   InvalidReason = "facilitator_denied"
	InvalidReasonSettlementFailed    InvalidReason = "settlement_failed"
	InvalidReasonRequestAbandoned    InvalidReason = "request_abandoned"
)
