package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/dto"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/lock"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/middleware"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/service"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	store := repository.NewMemoryStore()
	for _, s := range model.DefaultFeeSchedules() {
		s := s
		require.NoError(t, store.SaveFeeSchedule(context.Background(), &s))
	}

	clock := service.ClockFunc(func() time.Time { return testNow })
	locker := lock.NewKeyedMutex(5 * time.Second)
	ledger := service.NewLedgerService(store, store, locker, clock)
	settlements := service.NewSettlementService(store, store, service.NewFeeResolver(store), locker, clock)
	fees := service.NewFeeScheduleService(store, clock)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Secure(false))
	router.GET("/health", NewHealthHandler(store).Health)
	RegisterRoutes(router.Group("/api/v1"),
		NewObligationHandler(ledger),
		NewSettlementHandler(settlements),
		NewFeeScheduleHandler(fees))

	return &testServer{router: router, store: store}
}

// do sends body as JSON unless it is already a string.
func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createObligation(t *testing.T, amount string, due time.Time) dto.ObligationResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/obligations", map[string]any{
		"direction":        "receivable",
		"counterparty_ref": "customer-42",
		"original_amount":  amount,
		"due_date":         due.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.ObligationResponse](t, w)
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Field     string `json:"field"`
	Retryable bool   `json:"retryable"`
}
