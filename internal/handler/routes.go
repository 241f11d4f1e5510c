package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the engine's API on api.
func RegisterRoutes(api *gin.RouterGroup, obligations *ObligationHandler, settlements *SettlementHandler, fees *FeeScheduleHandler) {
	api.POST("/obligations", obligations.Create)
	api.GET("/obligations", obligations.List)
	api.GET("/obligations/overdue", obligations.ListOverdue)
	api.GET("/obligations/aging", obligations.Aging)
	api.GET("/obligations/:id", obligations.Get)
	api.GET("/obligations/:id/status", obligations.Status)
	api.POST("/obligations/:id/cancel", obligations.Cancel)

	api.POST("/obligations/:id/settlements", settlements.Settle)
	api.GET("/obligations/:id/settlements", settlements.History)
	api.POST("/obligations/:id/quote", settlements.Quote)

	api.GET("/fee-schedules", fees.List)
	api.GET("/fee-schedules/:method", fees.Get)
	api.PUT("/fee-schedules/:method", fees.Put)
}
