package handler

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/dto"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/export"
)

func TestObligationHandler_Create(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/obligations", map[string]any{
		"direction":        "payable",
		"counterparty_ref": "  supplier-7 ",
		"description":      "march invoice",
		"original_amount":  "250.5",
		"due_date":         "2024-04-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[dto.ObligationResponse](t, w)
	assert.Equal(t, "/api/v1/obligations/"+resp.ID, w.Header().Get("Location"))
	assert.Equal(t, "payable", resp.Direction)
	assert.Equal(t, "supplier-7", resp.CounterpartyRef)
	assert.Equal(t, "250.50", resp.OriginalAmount)
	assert.Equal(t, "0.00", resp.SettledAmount)
	assert.Equal(t, "250.50", resp.RemainingPrincipal)
	assert.Equal(t, "pending", resp.Status)
}

func TestObligationHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	valid := func() map[string]any {
		return map[string]any{
			"direction":        "receivable",
			"counterparty_ref": "c-1",
			"original_amount":  "10.00",
			"due_date":         "2024-04-01T00:00:00Z",
		}
	}

	tests := []struct {
		name  string
		edit  func(map[string]any)
		field string
	}{
		{"unknown direction", func(b map[string]any) { b["direction"] = "sideways" }, "direction"},
		{"missing counterparty", func(b map[string]any) { delete(b, "counterparty_ref") }, "counterparty_ref"},
		{"zero amount", func(b map[string]any) { b["original_amount"] = "0" }, "original_amount"},
		{"negative amount", func(b map[string]any) { b["original_amount"] = "-5.00" }, "original_amount"},
		{"fractional cents", func(b map[string]any) { b["original_amount"] = "10.001" }, "original_amount"},
		{"missing amount", func(b map[string]any) { delete(b, "original_amount") }, "original_amount"},
		{"missing due date", func(b map[string]any) { delete(b, "due_date") }, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.edit(body)
			w := s.do(t, http.MethodPost, "/api/v1/obligations", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decode[errorBody](t, w)
			assert.Equal(t, "InvalidInput", resp.Kind)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestObligationHandler_GetDetail(t *testing.T) {
	s := newTestServer(t)
	o := s.createObligation(t, "100.00", testNow.Add(24*time.Hour))

	w := s.do(t, http.MethodPost, "/api/v1/obligations/"+o.ID+"/settlements",
		map[string]any{"requested_amount": "40.00", "method": "pix"}, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/obligations/"+o.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[dto.ObligationDetailResponse](t, w)
	assert.Equal(t, "partially_settled", detail.EffectiveStatus)
	assert.Equal(t, "60.00", detail.Obligation.RemainingPrincipal)
	require.Len(t, detail.Settlements, 1)
	assert.Equal(t, "k-1", detail.Settlements[0].IdempotencyKey)

	t.Run("unknown id", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/obligations/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ObligationNotFound", decode[errorBody](t, w).Kind)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/obligations/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "id", decode[errorBody](t, w).Field)
	})
}

func TestObligationHandler_StatusDerivesOverdue(t *testing.T) {
	s := newTestServer(t)
	late := s.createObligation(t, "80.00", testNow.Add(-time.Hour))

	w := s.do(t, http.MethodGet, "/api/v1/obligations/"+late.ID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.StatusResponse](t, w)
	assert.Equal(t, late.ID, resp.ObligationID)
	assert.Equal(t, "overdue", resp.Status)
}

func TestObligationHandler_List(t *testing.T) {
	s := newTestServer(t)
	s.createObligation(t, "10.00", testNow.Add(48*time.Hour))
	s.createObligation(t, "20.00", testNow.Add(72*time.Hour))
	late := s.createObligation(t, "30.00", testNow.Add(-48*time.Hour))

	w := s.do(t, http.MethodGet, "/api/v1/obligations?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[dto.ObligationListResponse](t, w)
	assert.Equal(t, 3, all.Pagination.TotalItems)
	assert.Equal(t, 2, all.Pagination.TotalPages)
	assert.Len(t, all.Data, 2)

	w = s.do(t, http.MethodGet, "/api/v1/obligations?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[dto.ObligationListResponse](t, w)
	assert.Len(t, pending.Data, 2)

	w = s.do(t, http.MethodGet, "/api/v1/obligations?status=overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overdue := decode[dto.ObligationListResponse](t, w)
	require.Len(t, overdue.Data, 1)
	assert.Equal(t, late.ID, overdue.Data[0].ID)
	assert.Equal(t, "overdue", overdue.Data[0].Status)

	w = s.do(t, http.MethodGet, "/api/v1/obligations/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.ObligationListResponse](t, w).Data, 1)

	w = s.do(t, http.MethodGet, "/api/v1/obligations?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", decode[errorBody](t, w).Field)
}

func TestObligationHandler_Cancel(t *testing.T) {
	s := newTestServer(t)
	o := s.createObligation(t, "100.00", testNow.Add(24*time.Hour))

	w := s.do(t, http.MethodPost, "/api/v1/obligations/"+o.ID+"/cancel", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reason", decode[errorBody](t, w).Field)

	w = s.do(t, http.MethodPost, "/api/v1/obligations/"+o.ID+"/cancel", map[string]any{"reason": "duplicate invoice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	canceled := decode[dto.ObligationResponse](t, w)
	assert.Equal(t, "canceled", canceled.Status)
	require.NotNil(t, canceled.CancelReason)
	assert.Equal(t, "duplicate invoice", *canceled.CancelReason)

	w = s.do(t, http.MethodPost, "/api/v1/obligations/"+o.ID+"/settlements",
		map[string]any{"requested_amount": "10.00", "method": "cash", "request_id": "after-cancel"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ObligationCanceled", decode[errorBody](t, w).Kind)
}

func TestObligationHandler_Aging(t *testing.T) {
	s := newTestServer(t)
	s.createObligation(t, "100.00", testNow.Add(24*time.Hour))
	s.createObligation(t, "40.00", testNow.Add(-10*24*time.Hour))
	s.createObligation(t, "25.00", testNow.Add(-100*24*time.Hour))

	w := s.do(t, http.MethodGet, "/api/v1/obligations/aging", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[dto.AgingResponse](t, w)
	assert.Equal(t, "100.00", report.Receivable.Current)
	assert.Equal(t, "40.00", report.Receivable.Days1To30)
	assert.Equal(t, "25.00", report.Receivable.Over90)
	assert.Equal(t, "165.00", report.Receivable.Total)
	assert.Equal(t, "0.00", report.Payable.Total)

	w = s.do(t, http.MethodGet, "/api/v1/obligations/aging?as_of=2024-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	early := decode[dto.AgingResponse](t, w)
	assert.Equal(t, "0.00", early.Receivable.Over90)

	w = s.do(t, http.MethodGet, "/api/v1/obligations/aging?as_of=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/obligations/aging?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "format", decode[errorBody](t, w).Field)
}

func TestObligationHandler_AgingSpreadsheet(t *testing.T) {
	s := newTestServer(t)
	s.createObligation(t, "40.00", testNow.Add(-10*24*time.Hour))

	w := s.do(t, http.MethodGet, "/api/v1/obligations/aging?format=xlsx&as_of=2024-03-15", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "aging-2024-03-15.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	total, err := f.GetCellValue(export.AgingSheet, "G4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "40", total)
}
