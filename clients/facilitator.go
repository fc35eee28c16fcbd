package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
	v1 "github.com/raid-guild/x402-payment-gate-go/types/v1"
)

// maxResponseBytes caps how much of a facilitator response is read.
const maxResponseBytes = 64 << 10

// FacilitatorConfig is the configuration for the facilitator client.
type FacilitatorConfig struct {
	// URL is the base URL; /verify and /settle are appended.
	URL string
	// APIKey is sent as X-API-Key when set.
	APIKey string
	// Timeout caps each HTTP call. The gate applies its own overall bound.
	Timeout time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Facilitator calls a remote x402 facilitator over HTTP.
type Facilitator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFacilitator creates a facilitator client.
func NewFacilitator(c FacilitatorConfig) (*Facilitator, error) {
	if strings.TrimSpace(c.URL) == "" {
		return nil, fmt.Errorf("facilitator URL is required")
	}

	client := c.HTTPClient
	if client == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = core.DefaultFacilitatorTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Facilitator{
		baseURL: strings.TrimRight(c.URL, "/"),
		apiKey:  c.APIKey,
		client:  client,
	}, nil
}

// Verify implements core.Facilitator.
func (f *Facilitator) Verify(ctx context.Context, p *core.Proof, r *core.Requirement) (core.VerifyResult, error) {
	var response types.VerifyResponse
	if err := f.post(ctx, "/verify", p, r, &response); err != nil {
		return core.VerifyResult{}, err
	}
	return core.VerifyResult{
		Valid:  response.IsValid,
		Reason: response.InvalidReason,
		Payer:  response.Payer,
	}, nil
}

// Settle implements core.Facilitator.
func (f *Facilitator) Settle(ctx context.Context, p *core.Proof, r *core.Requirement) (core.SettleResult, error) {
	var response types.SettleResponse
	if err := f.post(ctx, "/settle", p, r, &response); err != nil {
		return core.SettleResult{}, err
	}
	return core.SettleResult{
		Success:     response.Success,
		Reason:      response.ErrorReason,
		Transaction: response.Transaction,
		Payer:       response.Payer,
	}, nil
}

func (f *Facilitator) post(ctx context.Context, path string, p *core.Proof, r *core.Requirement, out any) error {

	// Build the request body
	body, err := BuildRequestBody(p, r)
	if err != nil {
		return fmt.Errorf("build facilitator request: %w", err)
	}

	// Create the request bound to the caller context
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrFacilitatorUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	// Send the request
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrFacilitatorUnavailable, err)
	}
	defer resp.Body.Close()

	// Read a bounded amount of the response body
	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", core.ErrFacilitatorUnavailable, err)
	}

	// Check the status code
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusPaymentRequired, http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s returned status %d: %s",
			core.ErrFacilitatorRejected, path, resp.StatusCode, strings.TrimSpace(string(respBytes)))
	default:
		return fmt.Errorf("%w: %s returned status %d", core.ErrFacilitatorUnavailable, path, resp.StatusCode)
	}

	// Decode the response
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", core.ErrFacilitatorUnavailable, path, err)
	}

	return nil
}

// BuildRequestBody builds the facilitator request for a proof and requirement.
func BuildRequestBody(p *core.Proof, r *core.Requirement) ([]byte, error) {

	// Marshal the payment payload
	paymentPayload, err := json.Marshal(v1.PaymentPayload{
		Scheme:  v1.Scheme(p.Scheme),
		Network: v1.Network(p.Network),
		Payload: v1.Payload{
			Signature: p.SignatureHex(),
			Authorization: v1.Authorization{
				From:        p.From,
				To:          p.To,
				Value:       p.Amount.String(),
				ValidAfter:  strconv.FormatInt(p.ValidAfter, 10),
				ValidBefore: strconv.FormatInt(p.ValidBefore, 10),
				Nonce:       p.NonceHex(),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	// Overpayment is accepted, so the ceiling is raised to the authorized value
	maxAmount := r.Amount()
	if p.Amount.Cmp(maxAmount) > 0 {
		maxAmount.Set(p.Amount)
	}

	// Marshal the payment requirements
	paymentRequirements, err := json.Marshal(v1.PaymentRequirements{
		Scheme:            v1.SchemeExact,
		Network:           v1.Network(r.Network()),
		Asset:             r.Asset(),
		PayTo:             r.Recipient(),
		MaxAmountRequired: maxAmount.String(),
		Resource:          r.Path(),
		Description:       r.Description(),
		MaxTimeoutSeconds: r.MaxTimeoutSeconds(),
		Extra: v1.Extra{
			Name:    r.AssetName(),
			Version: r.AssetVersion(),
		},
	})
	if err != nil {
		return nil, err
	}

	return json.Marshal(types.RequestBody{
		X402Version:         types.X402Version1,
		PaymentPayload:      paymentPayload,
		PaymentRequirements: paymentRequirements,
	})
}
