package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

func TestPaywall(t *testing.T) {

	protected := func(ran *bool) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*ran = true
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("premium"))
		})
	}

	serve := func(gate *core.Gate, next http.Handler, path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set(types.HeaderPayment, header)
		}
		rr := httptest.NewRecorder()
		Paywall(gate, next).ServeHTTP(rr, req)
		return rr
	}

	t.Run("no payment returns a challenge", func(t *testing.T) {
		f := &mockFacilitator{}
		var ran bool
		rr := serve(setupGate(t, f), protected(&ran), "/api/premium", "")

		body := decodeChallenge(t, rr)
		if body.Error != nil {
			t.Fatalf("expected no error, got %+v", body.Error)
		}
		if body.X402.Amount != "10000" || body.X402.Recipient != testRecipient || body.X402.Version != types.X402Version1 {
			t.Fatalf("unexpected requirement: %+v", body.X402)
		}
		if ran || f.calls.Load() != 0 {
			t.Fatal("expected neither the handler nor the facilitator to run")
		}
	})

	t.Run("valid payment runs the handler with a receipt", func(t *testing.T) {
		var ran bool
		rr := serve(setupGate(t, &mockFacilitator{}), protected(&ran), "/api/premium", paymentHeader(t, 10000))

		if rr.Code != http.StatusOK || !ran {
			t.Fatalf("expected the handler to run, got %d: %s", rr.Code, rr.Body.String())
		}
		receipt := decodeReceipt(t, rr)
		if !receipt.Success || receipt.Transaction != "0xfeed" || receipt.Payer != testPayer || receipt.Network != types.NetworkAvalanche {
			t.Fatalf("unexpected receipt: %+v", receipt)
		}
	})

	t.Run("underpayment is rejected without a facilitator call", func(t *testing.T) {
		f := &mockFacilitator{}
		var ran bool
		rr := serve(setupGate(t, f), protected(&ran), "/api/premium", paymentHeader(t, 9999))

		body := decodeChallenge(t, rr)
		if body.Error == nil || body.Error.Category != types.CategoryMismatch || body.Error.Reason != string(types.MismatchAmount) {
			t.Fatalf("unexpected error: %+v", body.Error)
		}
		if ran || f.calls.Load() != 0 {
			t.Fatal("expected neither the handler nor the facilitator to run")
		}
	})

	t.Run("malformed payment is rejected", func(t *testing.T) {
		var ran bool
		rr := serve(setupGate(t, &mockFacilitator{}), protected(&ran), "/api/premium", "not-a-proof")

		body := decodeChallenge(t, rr)
		if body.Error == nil || body.Error.Category != types.CategoryStructuralInvalid {
			t.Fatalf("unexpected error: %+v", body.Error)
		}
		if ran {
			t.Fatal("expected the handler not to run")
		}
	})

	t.Run("unavailable facilitator fails closed", func(t *testing.T) {
		f := &mockFacilitator{
			verify: func(ctx context.Context, p *core.Proof, r *core.Requirement) (core.VerifyResult, error) {
				return core.VerifyResult{}, fmt.Errorf("%w: dial tcp: connection refused", core.ErrFacilitatorUnavailable)
			},
		}
		var ran bool
		rr := serve(setupGate(t, f), protected(&ran), "/api/premium", paymentHeader(t, 10000))

		body := decodeChallenge(t, rr)
		if body.Error == nil || body.Error.Category != types.CategoryFacilitatorUnavailable {
			t.Fatalf("unexpected error: %+v", body.Error)
		}
		if ran {
			t.Fatal("expected the handler not to run")
		}
		if rr.Header().Get(types.HeaderPaymentResponse) != "" {
			t.Fatal("expected no receipt")
		}
	})

	t.Run("unpriced path passes through", func(t *testing.T) {
		f := &mockFacilitator{}
		var ran bool
		rr := serve(setupGate(t, f), protected(&ran), "/api/public", "")

		if rr.Code != http.StatusOK || !ran {
			t.Fatalf("expected the handler to run, got %d", rr.Code)
		}
		if f.calls.Load() != 0 {
			t.Fatal("expected the facilitator not to be called")
		}
	})
}
