package core

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/raid-guild/x402-payment-gate-go/audit"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

const (
	testRecipient   = "0x0000000000000000000000000000000000000001"
	testAsset       = "0x0000000000000000000000000000000000000002"
	testPayer       = "0x0000000000000000000000000000000000000003"
	testFacilitator = "https://facilitator.example.com"
	testChainID     = 43114
)

var testNow = time.Unix(1_700_000_000, 0)

func testRequirement(t *testing.T, amount int64) *Requirement {
	t.Helper()
	r, err := NewRequirement(RequirementParams{
		Operation:    "premium",
		Path:         "/api/premium",
		Amount:       big.NewInt(amount),
		Asset:        testAsset,
		Recipient:    testRecipient,
		Network:      types.NetworkAvalanche,
		Facilitator:  testFacilitator,
		Description:  "premium content",
		AssetName:    "USD Coin",
		AssetVersion: "2",
		Decimals:     6,
	})
	if err != nil {
		t.Fatalf("failed to build requirement: %v", err)
	}
	return r
}

// testProof returns a proof that passes every local check of r at testNow.
func testProof(r *Requirement) *Proof {
	p := &Proof{
		Version:     types.X402Version1,
		Scheme:      types.SchemeExact,
		Network:     r.Network(),
		Asset:       r.Asset(),
		From:        testPayer,
		To:          r.Recipient(),
		Amount:      r.Amount(),
		ValidAfter:  testNow.Add(-2 * time.Minute).Unix(),
		ValidBefore: testNow.Add(2 * time.Minute).Unix(),
		Signature:   make([]byte, 65),
	}
	p.Nonce[31] = 1
	return p
}

// signProof signs p as an EIP-3009 authorization with a fresh key and sets
// From to the signer.
func signProof(t *testing.T, p *Proof, r *Requirement, chainID int64) *ecdsa.PrivateKey {
	t.Helper()

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	p.From = crypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	hexChainID := math.HexOrDecimal256(*big.NewInt(chainID))
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TransferWithAuthorization": []apitypes.Type{
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
			},
		},
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              r.AssetName(),
			Version:           r.AssetVersion(),
			ChainId:           &hexChainID,
			VerifyingContract: r.Asset(),
		},
		Message: apitypes.TypedDataMessage{
			"from":        p.From,
			"to":          p.To,
			"value":       new(big.Int).Set(p.Amount),
			"validAfter":  big.NewInt(p.ValidAfter),
			"validBefore": big.NewInt(p.ValidBefore),
			"nonce":       p.Nonce,
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		t.Fatalf("failed to hash domain: %v", err)
	}
	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		t.Fatalf("failed to hash message: %v", err)
	}
	rawData := append(append([]byte("\x19\x01"), domainSeparator...), typedDataHash...)

	signature, err := crypto.Sign(crypto.Keccak256(rawData), privateKey)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	p.Signature = signature
	return privateKey
}

type fakeFacilitator struct {
	verify func(ctx context.Context, p *Proof, r *Requirement) (VerifyResult, error)
	settle func(ctx context.Context, p *Proof, r *Requirement) (SettleResult, error)

	verifyCalls atomic.Int32
	settleCalls atomic.Int32
}

func (f *fakeFacilitator) Verify(ctx context.Context, p *Proof, r *Requirement) (VerifyResult, error) {
	f.verifyCalls.Add(1)
	if f.verify != nil {
		return f.verify(ctx, p, r)
	}
	return VerifyResult{Valid: true, Payer: p.From}, nil
}

func (f *fakeFacilitator) Settle(ctx context.Context, p *Proof, r *Requirement) (SettleResult, error) {
	f.settleCalls.Add(1)
	if f.settle != nil {
		return f.settle(ctx, p, r)
	}
	return SettleResult{Success: true, Transaction: "0xabc", Payer: p.From}, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memoryRecorder) Record(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) all() []audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Entry(nil), m.entries...)
}

func newTestGate(t *testing.T, r *Requirement, f Facilitator, c GateConfig) *Gate {
	t.Helper()
	table, err := NewPriceTable(r)
	if err != nil {
		t.Fatalf("failed to build price table: %v", err)
	}
	c.Facilitator = f
	if c.Now == nil {
		c.Now = func() time.Time { return testNow }
	}
	g, err := NewGate(table, c)
	if err != nil {
		t.Fatalf("failed to build gate: %v", err)
	}
	return g
}

func expectOutcome(t *testing.T, got Outcome, kind types.OutcomeKind, reason string) {
	t.Helper()
	if got.Kind != kind {
		t.Fatalf("expected outcome %s, got %s", kind, got)
	}
	if reason != "" && got.Reason != reason {
		t.Fatalf("expected reason %q, got %q", reason, got.Reason)
	}
}

func upper(address string) string {
	return "0x" + strings.ToUpper(strings.TrimPrefix(address, "0x"))
}
