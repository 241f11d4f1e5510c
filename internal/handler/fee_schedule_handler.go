package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/dto"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/service"
)

type FeeScheduleHandler struct {
	svc *service.FeeScheduleService
}

func NewFeeScheduleHandler(svc *service.FeeScheduleService) *FeeScheduleHandler {
	return &FeeScheduleHandler{svc: svc}
}

func (h *FeeScheduleHandler) List(c *gin.Context) {
	schedules, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	data := make([]dto.FeeScheduleResponse, len(schedules))
	for i := range schedules {
		data[i] = dto.NewFeeScheduleResponse(&schedules[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *FeeScheduleHandler) Get(c *gin.Context) {
	method, err := model.ParsePaymentMethodType(c.Param("method"))
	if err != nil {
		fail(c, err)
		return
	}

	sched, err := h.svc.Get(c.Request.Context(), method)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFeeScheduleResponse(sched))
}

// Put replaces the schedule for one method. Tiers default to active.
func (h *FeeScheduleHandler) Put(c *gin.Context) {
	method, err := model.ParsePaymentMethodType(c.Param("method"))
	if err != nil {
		fail(c, err)
		return
	}
	var req dto.SaveFeeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	sched := &model.FeeSchedule{
		MethodType:     method,
		FlatFeePercent: req.FlatFeePercent,
		Tiers:          make([]model.FeeTier, len(req.Tiers)),
	}
	for i, t := range req.Tiers {
		active := true
		if t.Active != nil {
			active = *t.Active
		}
		sched.Tiers[i] = model.FeeTier{Installments: t.Installments, FeePercent: t.FeePercent, Active: active}
	}

	saved, err := h.svc.Save(c.Request.Context(), sched)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFeeScheduleResponse(saved))
}
