package handler

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

// Paywall guards every priced path of the gate's price table. Paths without
// a price pass straight through to next.
func Paywall(gate *core.Gate, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		// Look up the price of the requested path
		requirement, ok := gate.Lookup(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		// Issue a challenge when no proof was sent
		header := r.Header.Get(types.HeaderPayment)
		if header == "" {
			writeChallenge(w, gate.Challenge(requirement))
			return
		}

		// Decode and verify the proof, abandoning the facilitator call if the client goes away
		outcome := gate.VerifyHeader(r.Context(), header, requirement)

		// Reject with a fresh challenge and the rejection reason
		if !outcome.IsAccepted() {
			writeChallenge(w, gate.Reject(requirement, outcome))
			return
		}

		// Attach the settlement receipt and run the protected handler
		receipt, err := json.Marshal(types.PaymentResponse{
			Success:     true,
			Transaction: outcome.Transaction,
			Network:     requirement.Network(),
			Payer:       outcome.Payer,
		})
		if err == nil {
			w.Header().Set(types.HeaderPaymentResponse, base64.StdEncoding.EncodeToString(receipt))
		}

		next.ServeHTTP(w, r)
	})
}

// writeChallenge writes a 402 challenge to the response body.
func writeChallenge(w http.ResponseWriter, c core.ChallengeResponse) {

	// Set the content type and write the status code
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c.Status)

	// Write the challenge bytes to the response body
	if _, err := w.Write(c.Body); err != nil {
		// Header already written so we log the error
		log.Printf("failed to write challenge: %v", err)
	}
}
