package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {

	t.Run("postgres", func(t *testing.T) {
		got := Rebind(DriverPostgres, "SELECT a FROM t WHERE b = ? AND c = ?")
		if got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
			t.Fatalf("unexpected query %q", got)
		}
	})

	t.Run("mysql", func(t *testing.T) {
		query := "SELECT a FROM t WHERE b = ?"
		if got := Rebind(DriverMySQL, query); got != query {
			t.Fatalf("unexpected query %q", got)
		}
	})
}

func TestStatusError(t *testing.T) {

	t.Run("status is carried through wrapping", func(t *testing.T) {
		base := errors.New("unauthorized")
		err := fmt.Errorf("auth: %w", NewStatusError(base, http.StatusUnauthorized))
		if StatusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", StatusOf(err))
		}
		if !errors.Is(err, base) {
			t.Fatal("expected the wrapped error to be reachable")
		}
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		if StatusOf(errors.New("boom")) != http.StatusInternalServerError {
			t.Fatal("expected 500")
		}
	})

	t.Run("write error hides plain errors", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, errors.New("dial tcp 10.0.0.1:5432: refused"))
		if rr.Code != http.StatusInternalServerError || strings.Contains(rr.Body.String(), "10.0.0.1") {
			t.Fatalf("unexpected response %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("write error uses the status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, NewStatusError(errors.New("limit must be a positive integer"), http.StatusBadRequest))
		if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "limit") {
			t.Fatalf("unexpected response %d: %s", rr.Code, rr.Body.String())
		}
	})
}
