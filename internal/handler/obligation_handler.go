package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/dto"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/export"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/service"
)

type ObligationHandler struct {
	svc *service.LedgerService
}

func NewObligationHandler(svc *service.LedgerService) *ObligationHandler {
	return &ObligationHandler{svc: svc}
}

func (h *ObligationHandler) Create(c *gin.Context) {
	var req dto.CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	o, err := h.svc.CreateObligation(c.Request.Context(), service.CreateObligationCommand{
		Direction:       model.Direction(req.Direction),
		CounterpartyRef: req.CounterpartyRef,
		Description:     req.Description,
		OriginalAmount:  req.OriginalAmount,
		DueDate:         req.DueDate,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Location", "/api/v1/obligations/"+o.ID.String())
	c.JSON(http.StatusCreated, dto.NewObligationResponse(o))
}

func (h *ObligationHandler) Get(c *gin.Context) {
	id, ok := obligationID(c)
	if !ok {
		return
	}

	detail, err := h.svc.Detail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewObligationDetailResponse(detail))
}

func (h *ObligationHandler) Status(c *gin.Context) {
	id, ok := obligationID(c)
	if !ok {
		return
	}

	status, err := h.svc.Status(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{ObligationID: id.String(), Status: string(status)})
}

func (h *ObligationHandler) List(c *gin.Context) {
	var q dto.ListObligationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, bindingError(err))
		return
	}
	page := dto.ParsePagination(c)

	items, total, err := h.svc.ListByStatus(c.Request.Context(), model.ObligationStatus(q.Status), page.PageSize, page.Offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewObligationListResponse(items, page, total))
}

func (h *ObligationHandler) ListOverdue(c *gin.Context) {
	page := dto.ParsePagination(c)

	items, total, err := h.svc.ListOverdue(c.Request.Context(), page.PageSize, page.Offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewObligationListResponse(items, page, total))
}

func (h *ObligationHandler) Cancel(c *gin.Context) {
	id, ok := obligationID(c)
	if !ok {
		return
	}
	var req dto.CancelObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	o, err := h.svc.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewObligationResponse(o))
}

// Aging reports open principal by days past due; as_of defaults to today.
// format=xlsx returns the report as a spreadsheet.
func (h *ObligationHandler) Aging(c *gin.Context) {
	var q dto.AgingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, bindingError(err))
		return
	}

	report, err := h.svc.Aging(c.Request.Context(), q.AsOf)
	if err != nil {
		fail(c, err)
		return
	}
	if q.Format == "xlsx" {
		buf, err := export.AgingWorkbook(report)
		if err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="aging-`+report.AsOf.Format("2006-01-02")+`.xlsx"`)
		c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, dto.NewAgingResponse(report))
}
