package auth

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"

	"github.com/raid-guild/x402-payment-gate-go/utils"
)

// HeaderAPIKey is the header carrying operator API keys.
const HeaderAPIKey = "X-API-Key"

const selectOperatorKey = "SELECT api_key FROM operators WHERE api_key = ?"

// Authenticator checks operator API keys. Either a static key or a database
// of operator keys is used, never both.
type Authenticator struct {
	StaticKey string
	DB        *sql.DB
	Driver    string
}

// Authenticate authenticates the request.
func (a Authenticator) Authenticate(r *http.Request) error {

	// Get the API key from the request header
	providedKey := r.Header.Get(HeaderAPIKey)

	// Check if the authenticator is misconfigured
	if a.StaticKey != "" && a.DB != nil {
		return utils.NewStatusError(
			errors.New("both static API key and operator database are set"),
			http.StatusInternalServerError,
		)
	}

	// Operator endpoints are closed unless a key source is configured
	if a.StaticKey == "" && a.DB == nil {
		return utils.NewStatusError(
			errors.New("operator access is not configured"),
			http.StatusForbidden,
		)
	}

	// Check if the provided key is empty
	if providedKey == "" {
		return utils.NewStatusError(
			errors.New("unauthorized"),
			http.StatusUnauthorized,
		)
	}

	// Check the provided key against the static key
	if a.StaticKey != "" {
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(a.StaticKey)) != 1 {
			return utils.NewStatusError(
				errors.New("unauthorized"),
				http.StatusUnauthorized,
			)
		}
		return nil
	}

	// Check the API key exists in the database
	var apiKey string
	err := a.DB.QueryRowContext(
		r.Context(),
		utils.Rebind(a.Driver, selectOperatorKey),
		providedKey,
	).Scan(&apiKey)

	// Check if the query returned a no rows error
	if errors.Is(err, sql.ErrNoRows) {
		return utils.NewStatusError(
			errors.New("unauthorized"),
			http.StatusUnauthorized,
		)
	}

	// Check if the query returned a different error
	if err != nil {
		return utils.NewStatusError(
			errors.New("failed to get key from database"),
			http.StatusInternalServerError,
		)
	}

	return nil
}

// Middleware rejects requests that fail authentication.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.Authenticate(r); err != nil {
			utils.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
