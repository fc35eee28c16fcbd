package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// SignatureChecker recovers the signer of an EIP-3009
// TransferWithAuthorization before the proof is sent to the facilitator.
// It rejects proofs the facilitator would reject anyway without spending a
// round trip. The facilitator remains the authority on validity.
type SignatureChecker struct {
	ChainID int64
}

// TransferTypedData builds the EIP-712 typed data signed by the payer.
func TransferTypedData(chainID int64, p *Proof, r *Requirement) apitypes.TypedData {

	// Convert the chain ID to hex or decimal
	bigChainID := big.NewInt(chainID)
	hexChainID := math.HexOrDecimal256(*bigChainID)

	return apitypes.TypedData{
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
			Name:              r.assetName,
			Version:           r.assetVersion,
			ChainId:           &hexChainID,
			VerifyingContract: r.asset,
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
}

// TransferSigHash returns the digest the payer signs.
func TransferSigHash(chainID int64, p *Proof, r *Requirement) ([]byte, error) {
	typedData := TransferTypedData(chainID, p, r)

	// Compute the domain hash
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, err
	}

	// Compute the message hash
	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, err
	}

	// Construct the signature hash
	rawData := append(append([]byte("\x19\x01"), domainSeparator...), typedDataHash...)
	return crypto.Keccak256(rawData), nil
}

// Check recovers the signer and compares it with the proof's payer.
func (c SignatureChecker) Check(p *Proof, r *Requirement) Outcome {

	// Verify the payer is a valid address
	if !common.IsHexAddress(p.From) {
		return RejectedStructural(types.InvalidReasonInvalidFromAddress)
	}

	// Verify the amount is present
	if p.Amount == nil {
		return RejectedStructural(types.InvalidReasonInvalidAmount)
	}

	// Verify the signature is exactly 65 bytes (32 bytes r + 32 bytes s + 1 byte v)
	if len(p.Signature) != 65 {
		return RejectedStructural(types.InvalidReasonInvalidSignature)
	}

	sighash, err := TransferSigHash(c.ChainID, p, r)
	if err != nil {
		return RejectedStructural(types.InvalidReasonInvalidSignature)
	}

	// Copy so the proof forwarded to the facilitator keeps the original V
	signature := make([]byte, len(p.Signature))
	copy(signature, p.Signature)

	// Convert the V value of the signature if necessary (27/28 → 0/1)
	if signature[64] == 27 || signature[64] == 28 {
		signature[64] -= 27
	}

	// Recover the public key
	pubkey, err := crypto.SigToPub(sighash, signature)
	if err != nil {
		return RejectedStructural(types.InvalidReasonInvalidSignature)
	}

	// Verify the sender matches the authorization from
	if crypto.PubkeyToAddress(*pubkey) != common.HexToAddress(p.From) {
		return RejectedStructural(types.InvalidReasonSignerMismatch)
	}

	return Outcome{}
}
