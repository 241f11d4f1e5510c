package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/dto"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

type SettlementHandler struct {
	svc *service.SettlementService
}

func NewSettlementHandler(svc *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{svc: svc}
}

// Settle takes the idempotency key from the Idempotency-Key header, or
// from request_id when the header is absent. A replayed key answers 200 with
// the original event instead of 201.
func (h *SettlementHandler) Settle(c *gin.Context) {
	id, ok := obligationID(c)
	if !ok {
		return
	}
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	key := c.GetHeader(idempotencyHeader)
	if key == "" {
		key = req.RequestID
	}

	out, err := h.svc.Apply(c.Request.Context(), service.SettleCommand{
		ObligationID:    id,
		RequestedAmount: req.RequestedAmount,
		Method:          model.PaymentMethodType(req.Method),
		Installments:    req.Installments,
		IdempotencyKey:  key,
		Note:            req.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewSettlementResponse(out.Event))
}

func (h *SettlementHandler) Quote(c *gin.Context) {
	id, ok := obligationID(c)
	if !ok {
		return
	}
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	q, err := h.svc.Quote(c.Request.Context(), service.QuoteCommand{
		ObligationID:    id,
		RequestedAmount: req.RequestedAmount,
		Method:          model.PaymentMethodType(req.Method),
		Installments:    req.Installments,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

func (h *SettlementHandler) History(c *gin.Context) {
	id, ok := obligationID(c)
	if !ok {
		return
	}

	events, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SettlementHistoryResponse{
		ObligationID: id.String(),
		Data:         dto.NewSettlementResponses(events),
	})
}
