package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func authenticate(t *testing.T, a Authenticator, apiKey string, expectedStatus int) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/audit/recent", nil)
	if apiKey != "" {
		req.Header.Set(HeaderAPIKey, apiKey)
	}
	rr := httptest.NewRecorder()

	a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)

	if rr.Code != expectedStatus {
		t.Fatalf("expected status %d, got %d: %s", expectedStatus, rr.Code, rr.Body.String())
	}
}

func TestAuthenticator(t *testing.T) {

	t.Run("no key source configured", func(t *testing.T) {
		authenticate(t, Authenticator{}, "any-key", http.StatusForbidden)
	})

	t.Run("static api key required and valid api key provided", func(t *testing.T) {
		authenticate(t, Authenticator{StaticKey: "valid-api-key"}, "valid-api-key", http.StatusOK)
	})

	t.Run("static api key required and invalid api key provided", func(t *testing.T) {
		authenticate(t, Authenticator{StaticKey: "valid-api-key"}, "invalid-api-key", http.StatusUnauthorized)
	})

	t.Run("static api key required and no api key provided", func(t *testing.T) {
		authenticate(t, Authenticator{StaticKey: "valid-api-key"}, "", http.StatusUnauthorized)
	})

	t.Run("both key sources configured", func(t *testing.T) {
		db, _, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock database: %v", err)
		}
		defer db.Close()

		authenticate(t, Authenticator{StaticKey: "valid-api-key", DB: db, Driver: "postgres"}, "valid-api-key", http.StatusInternalServerError)
	})

	t.Run("database api key required and valid api key provided", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock database: %v", err)
		}
		defer db.Close()

		rows := sqlmock.NewRows([]string{"api_key"}).AddRow("valid-api-key")
		mock.ExpectQuery("SELECT api_key FROM operators WHERE api_key = \\$1").
			WithArgs("valid-api-key").
			WillReturnRows(rows)

		authenticate(t, Authenticator{DB: db, Driver: "postgres"}, "valid-api-key", http.StatusOK)

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("database api key required and invalid api key provided", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock database: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery("SELECT api_key FROM operators WHERE api_key = \\?").
			WithArgs("invalid-api-key").
			WillReturnError(sql.ErrNoRows)

		authenticate(t, Authenticator{DB: db, Driver: "mysql"}, "invalid-api-key", http.StatusUnauthorized)

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("database api key required and database fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock database: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery("SELECT api_key FROM operators").
			WillReturnError(errors.New("connection refused"))

		authenticate(t, Authenticator{DB: db, Driver: "postgres"}, "valid-api-key", http.StatusInternalServerError)
	})

	t.Run("database api key required and no api key provided", func(t *testing.T) {
		db, _, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock database: %v", err)
		}
		defer db.Close()

		authenticate(t, Authenticator{DB: db, Driver: "postgres"}, "", http.StatusUnauthorized)
	})
}
