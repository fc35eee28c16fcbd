package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/raid-guild/x402-payment-gate-go/audit"
	"github.com/raid-guild/x402-payment-gate-go/utils"
)

const defaultRecentLimit = 50

// RecentAudit returns the handler listing recent audit entries. store may
// be nil, in which case the endpoint reports not found.
func RecentAudit(store audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		// Check an audit store is configured
		if store == nil {
			utils.WriteError(w, utils.NewStatusError(
				errors.New("audit store is not configured"),
				http.StatusNotFound,
			))
			return
		}

		// Parse the limit query parameter
		limit := defaultRecentLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				utils.WriteError(w, utils.NewStatusError(
					errors.New("limit must be a positive integer"),
					http.StatusBadRequest,
				))
				return
			}
			limit = n
		}

		// Query the audit store
		entries, err := store.Recent(r.Context(), limit)
		if err != nil {
			log.Printf("failed to list audit entries: %v", err)
			utils.WriteError(w, err)
			return
		}
		if entries == nil {
			entries = []audit.Entry{}
		}

		// Marshal the entries into JSON bytes
		responseBytes, err := json.Marshal(map[string]any{"entries": entries})
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
