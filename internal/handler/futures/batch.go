package futures

import (
	"alertflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// Batches 所有分批订单的执行进度
func (h *Handler) Batches() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.OK(c, "batch orders", gin.H{"batch_orders": h.svc.Batches()})
	}
}

// BatchByID 单个分批订单
func (h *Handler) BatchByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("batch_id")
		batch, ok := h.svc.Batch(id)
		if !ok {
			response.NotFound(c, "batch order not found: "+id)
			return
		}
		response.OK(c, "batch order", batch)
	}
}
