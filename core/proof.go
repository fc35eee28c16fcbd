package core

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// Proof is a decoded payment proof. It is request-scoped and never stored.
type Proof struct {
	Version     types.X402Version
	Scheme      types.Scheme
	Network     types.Network
	Asset       string
	From        string
	To          string
	Amount      *big.Int
	ValidAfter  int64
	ValidBefore int64
	Nonce       [32]byte
	Signature   []byte
}

// NonceHex returns the nonce as a 0x-prefixed hex string.
func (p *Proof) NonceHex() string {
	return "0x" + hex.EncodeToString(p.Nonce[:])
}

// SignatureHex returns the signature as a 0x-prefixed hex string.
func (p *Proof) SignatureHex() string {
	return "0x" + hex.EncodeToString(p.Signature)
}

// DecodeProof decodes the X-PAYMENT header. A non-accepted outcome is
// returned with a nil proof when the header is absent or malformed.
func DecodeProof(header string) (*Proof, Outcome) {

	// Check the header is present
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, RejectedStructural(types.InvalidReasonMissing)
	}

	// Decode the header from base64
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(header)
		if err != nil {
			return nil, RejectedStructural(types.InvalidReasonInvalidEncoding)
		}
	}

	// Unmarshal the payment header
	var ph types.PaymentHeader
	if err := json.Unmarshal(raw, &ph); err != nil {
		return nil, RejectedStructural(types.InvalidReasonInvalidPayload)
	}
	auth := ph.Payload.Payload

	// Convert the amount to big.Int
	amount := new(big.Int)
	if _, ok := amount.SetString(auth.Amount.String(), 10); !ok {
		return nil, RejectedStructural(types.InvalidReasonInvalidAmount)
	}

	// Verify the amount is non-negative
	if amount.Sign() < 0 {
		return nil, RejectedStructural(types.InvalidReasonInvalidAmount)
	}

	// Convert the valid after to int64
	validAfter, err := strconv.ParseInt(auth.ValidAfter.String(), 10, 64)
	if err != nil {
		return nil, RejectedStructural(types.InvalidReasonInvalidValidAfter)
	}

	// Convert the valid before to int64
	validBefore, err := strconv.ParseInt(auth.ValidBefore.String(), 10, 64)
	if err != nil {
		return nil, RejectedStructural(types.InvalidReasonInvalidValidBefore)
	}

	// Decode the nonce from hex to bytes
	nonceBytes, err := hex.DecodeString(strings.TrimPrefix(auth.Nonce, "0x"))
	if err != nil {
		return nil, RejectedStructural(types.InvalidReasonInvalidNonce)
	}

	// Validate the nonce is exactly 32 bytes
	if len(nonceBytes) != 32 {
		return nil, RejectedStructural(types.InvalidReasonInvalidNonceLength)
	}

	// Parse the signature
	signature, err := hex.DecodeString(strings.TrimPrefix(ph.Payload.Signature, "0x"))
	if err != nil || len(signature) == 0 {
		return nil, RejectedStructural(types.InvalidReasonInvalidSignature)
	}

	proof := &Proof{
		Version:     ph.X402Version,
		Scheme:      auth.Scheme,
		Network:     auth.Network,
		Asset:       auth.Asset,
		From:        auth.From,
		To:          auth.To,
		Amount:      amount,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Signature:   signature,
	}
	copy(proof.Nonce[:], nonceBytes)

	return proof, Outcome{}
}

// EncodeProof encodes a proof into an X-PAYMENT header value. It is the
// inverse of DecodeProof and is used by clients and tests.
func EncodeProof(p *Proof) (string, error) {
	ph := types.PaymentHeader{
		X402Version: p.Version,
		Payload: types.SignedPayload{
			Signature: p.SignatureHex(),
			Payload: types.AuthorizationRaw{
				Scheme:      p.Scheme,
				Network:     p.Network,
				Asset:       p.Asset,
				From:        p.From,
				To:          p.To,
				Amount:      json.Number(p.Amount.String()),
				ValidAfter:  json.Number(strconv.FormatInt(p.ValidAfter, 10)),
				ValidBefore: json.Number(strconv.FormatInt(p.ValidBefore, 10)),
				Nonce:       p.NonceHex(),
			},
		},
	}
	raw, err := json.Marshal(ph)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
