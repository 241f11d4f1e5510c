package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// Money renders an amount with exactly two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type ObligationResponse struct {
	ID                 string     `json:"id"`
	Direction          string     `json:"direction"`
	CounterpartyRef    string     `json:"counterparty_ref"`
	Description        string     `json:"description,omitempty"`
	OriginalAmount     string     `json:"original_amount"`
	SettledAmount      string     `json:"settled_amount"`
	RemainingPrincipal string     `json:"remaining_principal"`
	DueDate            time.Time  `json:"due_date"`
	Status             string     `json:"status"`
	CancelReason       *string    `json:"cancel_reason,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func NewObligationResponse(o *model.Obligation) ObligationResponse {
	return ObligationResponse{
		ID:                 o.ID.String(),
		Direction:          string(o.Direction),
		CounterpartyRef:    o.CounterpartyRef,
		Description:        o.Description,
		OriginalAmount:     Money(o.OriginalAmount),
		SettledAmount:      Money(o.SettledAmount),
		RemainingPrincipal: Money(o.RemainingPrincipal()),
		DueDate:            o.DueDate,
		Status:             string(o.Status),
		CancelReason:       o.CancelReason,
		CanceledAt:         o.CanceledAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

type ObligationListResponse struct {
	Data       []ObligationResponse `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

func NewObligationListResponse(items []model.Obligation, page PaginationParams, total int) ObligationListResponse {
	data := make([]ObligationResponse, len(items))
	for i := range items {
		data[i] = NewObligationResponse(&items[i])
	}
	return ObligationListResponse{Data: data, Pagination: NewPagination(page.Page, page.PageSize, total)}
}

type ObligationDetailResponse struct {
	Obligation      ObligationResponse   `json:"obligation"`
	EffectiveStatus string               `json:"effective_status"`
	Settlements     []SettlementResponse `json:"settlements"`
}

func NewObligationDetailResponse(d *model.ObligationDetail) ObligationDetailResponse {
	return ObligationDetailResponse{
		Obligation:      NewObligationResponse(&d.Obligation),
		EffectiveStatus: string(d.EffectiveStatus),
		Settlements:     NewSettlementResponses(d.Settlements),
	}
}

type StatusResponse struct {
	ObligationID string `json:"obligation_id"`
	Status       string `json:"status"`
}

type SettlementResponse struct {
	ID                    string    `json:"id"`
	ObligationID          string    `json:"obligation_id"`
	IdempotencyKey        string    `json:"idempotency_key"`
	RequestedAmount       string    `json:"requested_amount"`
	MethodType            string    `json:"method"`
	Installments          *int      `json:"installments,omitempty"`
	FeePercentApplied     string    `json:"fee_percent_applied"`
	GrossAmountCharged    string    `json:"gross_amount_charged"`
	InstallmentAmount     string    `json:"installment_amount"`
	LastInstallmentAmount string    `json:"last_installment_amount"`
	AppliedToPrincipal    string    `json:"applied_to_principal"`
	RemainingPrincipal    string    `json:"remaining_principal"`
	ResultingStatus       string    `json:"resulting_status"`
	SettledAt             time.Time `json:"settled_at"`
	Note                  string    `json:"note,omitempty"`
}

func NewSettlementResponse(ev *model.SettlementEvent) SettlementResponse {
	return SettlementResponse{
		ID:                    ev.ID.String(),
		ObligationID:          ev.ObligationID.String(),
		IdempotencyKey:        ev.IdempotencyKey,
		RequestedAmount:       Money(ev.RequestedAmount),
		MethodType:            string(ev.MethodType),
		Installments:          ev.Installments,
		FeePercentApplied:     ev.FeePercentApplied.String(),
		GrossAmountCharged:    Money(ev.GrossAmountCharged),
		InstallmentAmount:     Money(ev.InstallmentAmount),
		LastInstallmentAmount: Money(ev.LastInstallmentAmount),
		AppliedToPrincipal:    Money(ev.AppliedToPrincipal),
		RemainingPrincipal:    Money(ev.RemainingPrincipal),
		ResultingStatus:       string(ev.ResultingStatus),
		SettledAt:             ev.SettledAt,
		Note:                  ev.Note,
	}
}

func NewSettlementResponses(events []model.SettlementEvent) []SettlementResponse {
	out := make([]SettlementResponse, len(events))
	for i := range events {
		out[i] = NewSettlementResponse(&events[i])
	}
	return out
}

type SettlementHistoryResponse struct {
	ObligationID string               `json:"obligation_id"`
	Data         []SettlementResponse `json:"data"`
}

type QuoteResponse struct {
	ObligationID          string   `json:"obligation_id"`
	RequestedAmount       string   `json:"requested_amount"`
	MethodType            string   `json:"method"`
	Installments          int      `json:"installments"`
	FeePercentApplied     string   `json:"fee_percent_applied"`
	GrossAmount           string   `json:"gross_amount"`
	InstallmentAmount     string   `json:"installment_amount"`
	LastInstallmentAmount string   `json:"last_installment_amount"`
	Plan                  []string `json:"plan"`
	RemainingPrincipal    string   `json:"remaining_principal_after"`
}

func NewQuoteResponse(q *model.Quote) QuoteResponse {
	plan := make([]string, len(q.Plan))
	for i, p := range q.Plan {
		plan[i] = Money(p)
	}
	return QuoteResponse{
		ObligationID:          q.ObligationID.String(),
		RequestedAmount:       Money(q.RequestedAmount),
		MethodType:            string(q.MethodType),
		Installments:          q.Installments,
		FeePercentApplied:     q.FeePercentApplied.String(),
		GrossAmount:           Money(q.GrossAmount),
		InstallmentAmount:     Money(q.InstallmentAmount),
		LastInstallmentAmount: Money(q.LastInstallmentAmount),
		Plan:                  plan,
		RemainingPrincipal:    Money(q.RemainingPrincipal),
	}
}

type AgingBucketResponse struct {
	Current    string `json:"current"`
	Days1To30  string `json:"days_1_30"`
	Days31To60 string `json:"days_31_60"`
	Days61To90 string `json:"days_61_90"`
	Over90     string `json:"over_90"`
	Total      string `json:"total"`
}

type AgingResponse struct {
	AsOf       time.Time           `json:"as_of"`
	Receivable AgingBucketResponse `json:"receivable"`
	Payable    AgingBucketResponse `json:"payable"`
}

func NewAgingResponse(r *model.AgingReport) AgingResponse {
	bucket := func(b model.AgingBucket) AgingBucketResponse {
		return AgingBucketResponse{
			Current:    Money(b.Current),
			Days1To30:  Money(b.Bucket30),
			Days31To60: Money(b.Bucket60),
			Days61To90: Money(b.Bucket90),
			Over90:     Money(b.Bucket120),
			Total:      Money(b.Total),
		}
	}
	return AgingResponse{AsOf: r.AsOf, Receivable: bucket(r.Receivable), Payable: bucket(r.Payable)}
}

type FeeTierResponse struct {
	Installments int    `json:"installments"`
	FeePercent   string `json:"fee_percent"`
	Active       bool   `json:"active"`
}

type FeeScheduleResponse struct {
	MethodType     string            `json:"method"`
	FlatFeePercent string            `json:"flat_fee_percent"`
	Tiers          []FeeTierResponse `json:"tiers"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func NewFeeScheduleResponse(s *model.FeeSchedule) FeeScheduleResponse {
	tiers := make([]FeeTierResponse, len(s.Tiers))
	for i, t := range s.Tiers {
		tiers[i] = FeeTierResponse{Installments: t.Installments, FeePercent: t.FeePercent.String(), Active: t.Active}
	}
	return FeeScheduleResponse{
		MethodType:     string(s.MethodType),
		FlatFeePercent: s.FlatFeePercent.String(),
		Tiers:          tiers,
		UpdatedAt:      s.UpdatedAt,
	}
}
