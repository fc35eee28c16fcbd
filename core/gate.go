package core

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/raid-guild/x402-payment-gate-go/audit"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

// DefaultFacilitatorTimeout bounds the facilitator round trip.
const DefaultFacilitatorTimeout = 30 * time.Second

const auditTimeout = 5 * time.Second

// ChallengeResponse is a 402 Payment Required response.
type ChallengeResponse struct {
	Status int
	Body   []byte
}

// GateConfig is the configuration of a Gate.
type GateConfig struct {
	Facilitator Facilitator
	// Timeout bounds verify and settle together. Zero means
	// DefaultFacilitatorTimeout.
	Timeout time.Duration
	// Signatures enables local signer recovery when set.
	Signatures *SignatureChecker
	Recorder   audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Gate guards priced operations behind an x402 challenge. It keeps no
// per-request state; replay protection belongs to the facilitator.
type Gate struct {
	prices      atomic.Pointer[PriceTable]
	facilitator Facilitator
	timeout     time.Duration
	signatures  *SignatureChecker
	recorder    audit.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewGate creates a gate serving the given price table.
func NewGate(prices *PriceTable, c GateConfig) (*Gate, error) {
	if prices == nil {
		return nil, errors.New("price table is required")
	}
	if c.Facilitator == nil {
		return nil, errors.New("facilitator is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultFacilitatorTimeout
	}
	if c.Recorder == nil {
		c.Recorder = audit.Nop{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	g := &Gate{
		facilitator: c.Facilitator,
		timeout:     c.Timeout,
		signatures:  c.Signatures,
		recorder:    c.Recorder,
		logger:      c.Logger,
		now:         c.Now,
	}
	g.prices.Store(prices)
	return g, nil
}

// Prices returns the current price table.
func (g *Gate) Prices() *PriceTable {
	return g.prices.Load()
}

// SwapPrices replaces the price table atomically. Requests already being
// verified keep the requirement they started with.
func (g *Gate) SwapPrices(t *PriceTable) {
	if t == nil {
		return
	}
	g.prices.Store(t)
}

// Lookup returns the requirement pricing path.
func (g *Gate) Lookup(path string) (*Requirement, bool) {
	return g.prices.Load().Lookup(path)
}

// Challenge builds the 402 response for a requirement. The output depends
// only on the requirement.
func (g *Gate) Challenge(r *Requirement) ChallengeResponse {
	return challenge(types.ChallengeBody{X402: r.Wire()})
}

// Reject builds the 402 response for a requirement after a rejected proof,
// adding the rejection category and reason.
func (g *Gate) Reject(r *Requirement, o Outcome) ChallengeResponse {
	return challenge(types.ChallengeBody{
		X402:  r.Wire(),
		Error: o.ChallengeError(),
	})
}

func challenge(body types.ChallengeBody) ChallengeResponse {
	// The body holds only strings and ints so marshalling cannot fail
	b, _ := json.Marshal(body)
	return ChallengeResponse{
		Status: http.StatusPaymentRequired,
		Body:   b,
	}
}

// Verify checks a proof against a requirement and, when the local checks
// pass, delegates verification and settlement to the facilitator. Only an
// accepted outcome permits the protected handler to run.
func (g *Gate) Verify(ctx context.Context, p *Proof, r *Requirement) Outcome {
	outcome := g.verify(ctx, p, r)
	g.report(ctx, p, r, outcome)
	return outcome
}

// VerifyHeader decodes an X-PAYMENT header and verifies the proof it
// carries. Malformed headers are reported like any other rejection.
func (g *Gate) VerifyHeader(ctx context.Context, header string, r *Requirement) Outcome {
	p, outcome := DecodeProof(header)
	if p == nil {
		g.report(ctx, nil, r, outcome)
		return outcome
	}
	return g.Verify(ctx, p, r)
}

func (g *Gate) verify(ctx context.Context, p *Proof, r *Requirement) Outcome {

	// Run the ordered local checks
	if o := CheckProof(p, r, g.now()); o.Kind != "" {
		return o
	}

	// Recover the signer locally when enabled
	if g.signatures != nil {
		if o := g.signatures.Check(p, r); o.Kind != "" {
			return o
		}
	}

	return g.facilitate(ctx, p, r)
}

// report logs and audits an outcome. The signature is never included.
func (g *Gate) report(ctx context.Context, p *Proof, r *Requirement, o Outcome) {
	entry := audit.NewEntry(g.now())
	entry.Operation = r.operation
	entry.Path = r.path
	entry.Recipient = r.recipient
	entry.Asset = r.asset
	entry.Network = string(r.network)
	entry.Required = r.amount.String()
	entry.Outcome = o.Kind
	entry.Category = o.Category
	entry.Reason = o.Reason
	entry.Transaction = o.Transaction
	entry.Payer = o.Payer
	if p != nil {
		entry.Nonce = p.NonceHex()
		if entry.Payer == "" {
			entry.Payer = p.From
		}
		if p.Amount != nil {
			entry.Amount = p.Amount.String()
		}
	}

	attrs := []any{
		"audit_id", entry.ID,
		"operation", entry.Operation,
		"nonce", entry.Nonce,
		"payer", entry.Payer,
		"recipient", entry.Recipient,
		"asset", entry.Asset,
		"network", entry.Network,
		"amount", entry.Amount,
		"required", entry.Required,
		"outcome", o.Kind,
		"category", o.Category,
		"reason", o.Reason,
	}
	switch {
	case o.IsAccepted():
		g.logger.InfoContext(ctx, "payment accepted", append(attrs, "transaction", o.Transaction)...)
	case o.Category == types.CategoryFacilitatorUnavailable:
		g.logger.ErrorContext(ctx, "payment rejected", append(attrs, "detail", o.Detail)...)
	default:
		g.logger.InfoContext(ctx, "payment rejected", append(attrs, "detail", o.Detail)...)
	}

	// Audit writes outlive a disconnected client but stay bounded
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := g.recorder.Record(auditCtx, entry); err != nil {
		g.logger.WarnContext(ctx, "audit record failed", "audit_id", entry.ID, "error", err)
	}
}
