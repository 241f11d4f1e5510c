package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionReceivable Direction = "receivable"
	DirectionPayable    Direction = "payable"
)

func (d Direction) Valid() bool {
	return d == DirectionReceivable || d == DirectionPayable
}

// ObligationStatus is the lifecycle state of an obligation. Overdue is never
// stored; it is derived on read from the due date.
type ObligationStatus string

const (
	StatusPending          ObligationStatus = "pending"
	StatusPartiallySettled ObligationStatus = "partially_settled"
	StatusSettled          ObligationStatus = "settled"
	StatusOverdue          ObligationStatus = "overdue"
	StatusCanceled         ObligationStatus = "canceled"
)

func (s ObligationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPartiallySettled, StatusSettled, StatusOverdue, StatusCanceled:
		return true
	}
	return false
}

func (s ObligationStatus) Terminal() bool {
	return s == StatusSettled || s == StatusCanceled
}

type Obligation struct {
	ID              uuid.UUID        `json:"id"`
	Direction       Direction        `json:"direction"`
	CounterpartyRef string           `json:"counterparty_ref"`
	Description     string           `json:"description,omitempty"`
	OriginalAmount  decimal.Decimal  `json:"original_amount"`
	SettledAmount   decimal.Decimal  `json:"settled_amount"`
	DueDate         time.Time        `json:"due_date"`
	Status          ObligationStatus `json:"status"`
	CancelReason    *string          `json:"cancel_reason,omitempty"`
	CanceledAt      *time.Time       `json:"canceled_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// RemainingPrincipal is the part of the original amount not yet satisfied.
func (o *Obligation) RemainingPrincipal() decimal.Decimal {
	return o.OriginalAmount.Sub(o.SettledAmount)
}

// IsOverdue reports whether the obligation is past due and still open at now.
func (o *Obligation) IsOverdue(now time.Time) bool {
	if o.Status.Terminal() {
		return false
	}
	return o.DueDate.Before(now) && o.SettledAmount.LessThan(o.OriginalAmount)
}

// EffectiveStatus returns the stored status with overdue derived lazily.
func (o *Obligation) EffectiveStatus(now time.Time) ObligationStatus {
	if o.IsOverdue(now) {
		return StatusOverdue
	}
	return o.Status
}

// SettlementEvent is an immutable record of one settlement against an obligation.
type SettlementEvent struct {
	ID                    uuid.UUID         `json:"id"`
	ObligationID          uuid.UUID         `json:"obligation_id"`
	IdempotencyKey        string            `json:"idempotency_key"`
	RequestedAmount       decimal.Decimal   `json:"requested_amount"`
	MethodType            PaymentMethodType `json:"method_type"`
	Installments          *int              `json:"installments,omitempty"`
	FeePercentApplied     decimal.Decimal   `json:"fee_percent_applied"`
	GrossAmountCharged    decimal.Decimal   `json:"gross_amount_charged"`
	InstallmentAmount     decimal.Decimal   `json:"installment_amount"`
	LastInstallmentAmount decimal.Decimal   `json:"last_installment_amount"`
	AppliedToPrincipal    decimal.Decimal   `json:"applied_to_principal"`
	RemainingPrincipal    decimal.Decimal   `json:"remaining_principal"`
	ResultingStatus       ObligationStatus  `json:"resulting_status"`
	SettledAt             time.Time         `json:"settled_at"`
	Note                  string            `json:"note,omitempty"`
}

// Quote is a read-only preview of what a settlement would charge.
type Quote struct {
	ObligationID          uuid.UUID         `json:"obligation_id"`
	RequestedAmount       decimal.Decimal   `json:"requested_amount"`
	MethodType            PaymentMethodType `json:"method_type"`
	Installments          int               `json:"installments"`
	FeePercentApplied     decimal.Decimal   `json:"fee_percent_applied"`
	GrossAmount           decimal.Decimal   `json:"gross_amount"`
	InstallmentAmount     decimal.Decimal   `json:"installment_amount"`
	LastInstallmentAmount decimal.Decimal   `json:"last_installment_amount"`
	Plan                  []decimal.Decimal `json:"plan"`
	RemainingPrincipal    decimal.Decimal   `json:"remaining_principal"`
}

type AgingBucket struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"bucket_30"`
	Bucket60  decimal.Decimal `json:"bucket_60"`
	Bucket90  decimal.Decimal `json:"bucket_90"`
	Bucket120 decimal.Decimal `json:"bucket_120"`
	Total     decimal.Decimal `json:"total"`
}

// AgingReport splits remaining principal of open obligations by days past due.
type AgingReport struct {
	AsOf       time.Time   `json:"as_of"`
	Receivable AgingBucket `json:"receivable"`
	Payable    AgingBucket `json:"payable"`
}

// ObligationDetail is an obligation with its derived state and history.
type ObligationDetail struct {
	Obligation         Obligation        `json:"obligation"`
	EffectiveStatus    ObligationStatus  `json:"effective_status"`
	RemainingPrincipal decimal.Decimal   `json:"remaining_principal"`
	Settlements        []SettlementEvent `json:"settlements"`
}
