package types

import "encoding/json"

// Header names used by the x402 transport.
const (
	HeaderPayment         = "X-PAYMENT"
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// ChallengeBody is the JSON body of a 402 Payment Required response.
type ChallengeBody struct {
	X402  PaymentRequirement `json:"x402"`
	Error *ChallengeError    `json:"error,omitempty"`
}

// PaymentRequirement is the serialized requirement inside a challenge.
type PaymentRequirement struct {
	Version     X402Version `json:"version"`
	Amount      string      `json:"amount"`
	Asset       string      `json:"asset"`
	Recipient   string      `json:"recipient"`
	Network     Network     `json:"network"`
	Facilitator string      `json:"facilitator"`
	Description string      `json:"description"`
}

// ChallengeError tells the caller why a submitted proof was not accepted.
type ChallengeError struct {
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
}

// PaymentHeader is the decoded content of the X-PAYMENT header.
type PaymentHeader struct {
	X402Version X402Version   `json:"x402Version"`
	Payload     SignedPayload `json:"payload"`
}

// SignedPayload is the signed part of the payment header.
type SignedPayload struct {
	Signature string           `json:"signature"`
	Payload   AuthorizationRaw `json:"payload"`
}

// AuthorizationRaw is the transfer authorization as submitted by the client.
// Numeric fields accept both JSON numbers and decimal strings.
type AuthorizationRaw struct {
	Scheme      Scheme      `json:"scheme"`
	Network     Network     `json:"network"`
	Asset       string      `json:"asset"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Amount      json.Number `json:"amount"`
	ValidAfter  json.Number `json:"validAfter"`
	ValidBefore json.Number `json:"validBefore"`
	Nonce       string      `json:"nonce"`
}

// PaymentResponse is the content of the X-PAYMENT-RESPONSE header.
type PaymentResponse struct {
	Success     bool    `json:"success"`
	Transaction string  `json:"transaction,omitempty"`
	Network     Network `json:"network"`
	Payer       string  `json:"payer,omitempty"`
}

// RequestBody is the request body sent to the facilitator.
type RequestBody struct {
	X402Version         X402Version     `json:"x402Version"`
	PaymentPayload      json.RawMessage `json:"paymentPayload"`
	PaymentRequirements json.RawMessage `json:"paymentRequirements"`
}

// SettleResponse is the response of the facilitator settle operation.
type SettleResponse struct {
	Scheme      string `json:"scheme,omitempty"`
	Network     string `json:"network,omitempty"`
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Payer       string `json:"payer,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

// VerifyResponse is the response of the facilitator verify operation.
type VerifyResponse struct {
	Scheme        string `json:"scheme,omitempty"`
	Network       string `json:"network,omitempty"`
	IsValid       bool   `json:"isValid"`
	Payer         string `json:"payer,omitempty"`
	InvalidReason string `json:"invalidReason,omitempty"`
}

// PriceListing is one entry of the price discovery document.
type PriceListing struct {
	Path          string             `json:"path"`
	Operation     string             `json:"operation"`
	DisplayAmount string             `json:"displayAmount"`
	X402          PaymentRequirement `json:"x402"`
}

// PriceList is the price discovery document.
type PriceList struct {
	Operations []PriceListing `json:"operations"`
}
