package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// fail hands err to middleware.ErrorHandler and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func obligationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, model.NewError(model.KindInvalidInput, "id", "obligation id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
