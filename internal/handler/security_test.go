package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/dto"
)

func TestSecurity_Headers(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestSecurity_MalformedBodies(t *testing.T) {
	s := newTestServer(t)
	o := s.createObligation(t, "100.00", testNow.Add(24*time.Hour))

	bodies := map[string]string{
		"truncated json":      `{"requested_amount": "10.00", "method":`,
		"amount as object":    `{"requested_amount": {"$gt": 0}, "method": "pix"}`,
		"amount as text":      `{"requested_amount": "ten", "method": "pix"}`,
		"installments string": `{"requested_amount": "10.00", "method": "creditCard", "installments": "3"}`,
		"array body":          `[1, 2, 3]`,
		"empty body":          ``,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/obligations/"+o.ID+"/settlements", body, "Idempotency-Key", "k-"+name)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "InvalidInput", decode[errorBody](t, w).Kind)
		})
	}

	w := s.do(t, http.MethodGet, "/api/v1/obligations/"+o.ID+"/settlements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.SettlementHistoryResponse](t, w).Data)
}

func TestSecurity_Boundaries(t *testing.T) {
	s := newTestServer(t)
	o := s.createObligation(t, "100.00", testNow.Add(24*time.Hour))
	path := "/api/v1/obligations/" + o.ID + "/settlements"

	t.Run("oversized idempotency key", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path,
			map[string]any{"requested_amount": "1.00", "method": "cash"}, "Idempotency-Key", strings.Repeat("k", 129))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "idempotency_key", decode[errorBody](t, w).Field)
	})

	t.Run("oversized request_id", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path,
			map[string]any{"requested_amount": "1.00", "method": "cash", "request_id": strings.Repeat("k", 129)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request_id", decode[errorBody](t, w).Field)
	})

	t.Run("injection text is stored verbatim", func(t *testing.T) {
		ref := "x'; DROP TABLE obligations; --"
		w := s.do(t, http.MethodPost, "/api/v1/obligations", map[string]any{
			"direction":        "receivable",
			"counterparty_ref": ref,
			"original_amount":  "5.00",
			"due_date":         "2024-04-01T00:00:00Z",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, ref, decode[dto.ObligationResponse](t, w).CounterpartyRef)
	})

	t.Run("huge amount is an overpayment not a crash", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path,
			map[string]any{"requested_amount": "99999999999999999999.99", "method": "cash", "request_id": "huge"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "OverpaymentRejected", decode[errorBody](t, w).Kind)
	})
}
