package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

const (
	testRecipient = "0x0000000000000000000000000000000000000001"
	testAsset     = "0x0000000000000000000000000000000000000002"
	testPayer     = "0x0000000000000000000000000000000000000003"
)

type mockFacilitator struct {
	verify func(ctx context.Context, p *core.Proof, r *core.Requirement) (core.VerifyResult, error)
	calls  atomic.Int32
}

func (m *mockFacilitator) Verify(ctx context.Context, p *core.Proof, r *core.Requirement) (core.VerifyResult, error) {
	m.calls.Add(1)
	if m.verify != nil {
		return m.verify(ctx, p, r)
	}
	return core.VerifyResult{Valid: true, Payer: p.From}, nil
}

func (m *mockFacilitator) Settle(ctx context.Context, p *core.Proof, r *core.Requirement) (core.SettleResult, error) {
	return core.SettleResult{Success: true, Transaction: "0xfeed", Payer: p.From}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupGate(t *testing.T, f core.Facilitator) *core.Gate {
	t.Helper()

	r, err := core.NewRequirement(core.RequirementParams{
		Operation:   "premium",
		Path:        "/api/premium",
		Amount:      big.NewInt(10000),
		Asset:       testAsset,
		Recipient:   testRecipient,
		Network:     types.NetworkAvalanche,
		Facilitator: "https://facilitator.example.com",
		Description: "premium content",
		Decimals:    6,
	})
	if err != nil {
		t.Fatalf("failed to build requirement: %v", err)
	}
	table, err := core.NewPriceTable(r)
	if err != nil {
		t.Fatalf("failed to build price table: %v", err)
	}

	gate, err := core.NewGate(table, core.GateConfig{
		Facilitator: f,
		Timeout:     time.Second,
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("failed to build gate: %v", err)
	}
	return gate
}

func paymentHeader(t *testing.T, amount int64) string {
	t.Helper()

	now := time.Now()
	p := &core.Proof{
		Version:     types.X402Version1,
		Scheme:      types.SchemeExact,
		Network:     types.NetworkAvalanche,
		Asset:       testAsset,
		From:        testPayer,
		To:          testRecipient,
		Amount:      big.NewInt(amount),
		ValidAfter:  now.Add(-2 * time.Minute).Unix(),
		ValidBefore: now.Add(2 * time.Minute).Unix(),
		Signature:   make([]byte, 65),
	}
	p.Nonce[31] = 9

	header, err := core.EncodeProof(p)
	if err != nil {
		t.Fatalf("failed to encode proof: %v", err)
	}
	return header
}

func decodeChallenge(t *testing.T, rr *httptest.ResponseRecorder) types.ChallengeBody {
	t.Helper()

	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status %d, got %d: %s", http.StatusPaymentRequired, rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
	var body types.ChallengeBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode challenge: %v", err)
	}
	return body
}

func decodeReceipt(t *testing.T, rr *httptest.ResponseRecorder) types.PaymentResponse {
	t.Helper()

	raw, err := base64.StdEncoding.DecodeString(rr.Header().Get(types.HeaderPaymentResponse))
	if err != nil {
		t.Fatalf("failed to decode receipt: %v", err)
	}
	var receipt types.PaymentResponse
	if err := json.Unmarshal(raw, &receipt); err != nil {
		t.Fatalf("failed to decode receipt: %v", err)
	}
	return receipt
}
