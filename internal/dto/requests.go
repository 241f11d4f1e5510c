package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateObligationRequest struct {
	Direction       string          `json:"direction" binding:"required,direction"`
	CounterpartyRef string          `json:"counterparty_ref" binding:"required,max=128"`
	Description     string          `json:"description" binding:"max=500"`
	OriginalAmount  decimal.Decimal `json:"original_amount" binding:"money"`
	DueDate         time.Time       `json:"due_date" binding:"required"`
}

// SettleRequest may carry its idempotency key in the body; the
// Idempotency-Key header takes precedence.
type SettleRequest struct {
	RequestID       string          `json:"request_id" binding:"max=128"`
	RequestedAmount decimal.Decimal `json:"requested_amount" binding:"money"`
	Method          string          `json:"method" binding:"required,payment_method"`
	Installments    *int            `json:"installments"`
	Note            string          `json:"note" binding:"max=500"`
}

type QuoteRequest struct {
	RequestedAmount decimal.Decimal `json:"requested_amount" binding:"money"`
	Method          string          `json:"method" binding:"required,payment_method"`
	Installments    *int            `json:"installments"`
}

type CancelObligationRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type ListObligationsQuery struct {
	Status string `form:"status" binding:"omitempty,obligation_status"`
}

type AgingQuery struct {
	AsOf   time.Time `form:"as_of" time_format:"2006-01-02" time_utc:"1"`
	Format string    `form:"format" binding:"omitempty,oneof=json xlsx"`
}

type FeeTierRequest struct {
	Installments int             `json:"installments" binding:"required,min=1,max=48"`
	FeePercent   decimal.Decimal `json:"fee_percent"`
	Active       *bool           `json:"active"`
}

type SaveFeeScheduleRequest struct {
	FlatFeePercent decimal.Decimal  `json:"flat_fee_percent"`
	Tiers          []FeeTierRequest `json:"tiers" binding:"max=48,dive"`
}
