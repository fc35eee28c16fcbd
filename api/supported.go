package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/raid-guild/x402-payment-gate-go/config"
	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

// Supported returns the handler listing every priced operation.
func Supported(gate *core.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		// Build the price list from the current table
		response := buildPriceList(gate.Prices())

		// Marshal the response to JSON bytes
		responseBytes, err := json.Marshal(response)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Set the content type and write the status code
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		// Write the response bytes to the response body
		if _, err := w.Write(responseBytes); err != nil {
			// Header already written so we log the error
			log.Printf("failed to write response: %v", err)
		}
	}
}

// buildPriceList builds the price discovery document.
func buildPriceList(table *core.PriceTable) types.PriceList {
	operations := make([]types.PriceListing, 0)
	for _, r := range table.All() {
		operations = append(operations, types.PriceListing{
			Path:          r.Path(),
			Operation:     r.Operation(),
			DisplayAmount: config.DisplayAmount(r.Amount(), r.Decimals()),
			X402:          r.Wire(),
		})
	}
	return types.PriceList{Operations: operations}
}
