package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/raid-guild/x402-payment-gate-go/config"
	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

// agentCard describes the agent and the operations it sells.
type agentCard struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Payments    string       `json:"payments"`
	Skills      []agentSkill `json:"skills"`
}

type agentSkill struct {
	ID          string                   `json:"id"`
	Path        string                   `json:"path"`
	Description string                   `json:"description"`
	Price       string                   `json:"price"`
	X402        types.PaymentRequirement `json:"x402"`
}

// newAgentMux serves the agent endpoints. Priced paths only run once the
// paywall has accepted a payment.
func newAgentMux(gate *core.Gate) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /.well-known/agent-card.json", func(w http.ResponseWriter, r *http.Request) {
		card := agentCard{
			Name:        "x402 payment gate",
			Description: "Agent operations paid per call with EIP-3009 authorizations",
			Payments:    "x402",
		}
		for _, req := range gate.Prices().All() {
			card.Skills = append(card.Skills, agentSkill{
				ID:          req.Operation(),
				Path:        req.Path(),
				Description: req.Description(),
				Price:       config.DisplayAmount(req.Amount(), req.Decimals()),
				X402:        req.Wire(),
			})
		}
		writeJSON(w, http.StatusOK, card)
	})

	mux.HandleFunc("GET /api/public", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "free content",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/premium", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "premium content unlocked",
			"receipt": w.Header().Get(types.HeaderPaymentResponse) != "",
		})
	})

	mux.HandleFunc("POST /api/agent/analyze", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"words":      len(strings.Fields(body.Text)),
			"characters": len(body.Text),
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
