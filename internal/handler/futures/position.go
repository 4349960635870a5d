package futures

import (
	"errors"
	"strings"

	"alertflow/internal/model"
	"alertflow/internal/service"
	"alertflow/pkg/response"
	"alertflow/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Positions 全部持仓
func (h *Handler) Positions() gin.HandlerFunc {
	return func(c *gin.Context) {
		positions, err := h.svc.Positions(c.Request.Context(), "")
		if err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "positions", gin.H{"positions": positions})
	}
}

// PositionBySymbol 指定合约的持仓，没有时返回404
func (h *Handler) PositionBySymbol() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.ToUpper(c.Param("symbol"))
		positions, err := h.svc.Positions(c.Request.Context(), symbol)
		if err != nil {
			fail(c, err)
			return
		}
		if len(positions) == 0 {
			response.NotFound(c, "no open position for "+symbol)
			return
		}
		response.OK(c, "position", gin.H{"symbol": symbol, "positions": positions})
	}
}

// ClosePosition 按数量或百分比平仓
func (h *Handler) ClosePosition() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CloseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, validator.Translate(err))
			return
		}
		if req.Percentage < 0 || req.Percentage > 100 {
			response.BadRequest(c, "percentage must be between 0 and 100")
			return
		}
		req.Symbol = strings.ToUpper(req.Symbol)

		closed, err := h.svc.ClosePosition(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, service.ErrNoPosition) {
				response.NotFound(c, "no open position for "+req.Symbol)
				return
			}
			fail(c, err)
			return
		}
		response.OK(c, "position closed", closed)
	}
}

// CloseAll 一键平仓，部分失败时仍返回200和失败清单
func (h *Handler) CloseAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := h.svc.CloseAll(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "close all finished", summary)
	}
}
