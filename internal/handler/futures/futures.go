package futures

import (
	"strings"

	"alertflow/conf"
	"alertflow/internal/consts"
	"alertflow/internal/exchange"
	"alertflow/internal/model"
	"alertflow/internal/order"
	"alertflow/internal/service"
	"alertflow/pkg/logger"
	"alertflow/pkg/response"
	"alertflow/pkg/validator"

	"github.com/gin-gonic/gin"
)

// 合约交易接口，请求经normalizer校验后交给FuturesService执行

type Handler struct {
	svc    *service.FuturesService
	limits conf.BatchConfig
}

func NewHandler(svc *service.FuturesService, limits conf.BatchConfig) *Handler {
	return &Handler{svc: svc, limits: limits}
}

// fail 把服务层错误翻译成HTTP响应。
// 交易所拒单和参数问题归400，适配器不可用归503，其余一律500并只在日志留细节
func fail(c *gin.Context, err error) {
	if re, ok := exchange.IsRejected(err); ok {
		response.BadRequest(c, re.Error())
		return
	}
	if exchange.IsUnavailable(err) {
		response.Unavailable(c, "exchange not configured or unreachable")
		return
	}
	logger.Error("futures api error",
		logger.Pair(consts.RequestId, c.GetString(consts.RequestId)),
		logger.Pair("path", c.Request.URL.Path),
		logger.Pair("error", err))
	response.Internal(c)
}

// PlaceOrder 下单入口，普通单和分批单共用
func (h *Handler) PlaceOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}

		intent, verr := order.Normalize(req)
		if verr != nil {
			response.BadRequest(c, verr.Error())
			return
		}

		if req.IsBatchOrder {
			h.placeBatchOrder(c, req, intent)
			return
		}

		plan := service.StopPlan{
			TakeProfitPct: req.TakeProfitPct,
			StopLossPct:   req.StopLossPct,
			IsPartialTP:   req.IsPartialTP,
			IsPartialSL:   req.IsPartialSL,
			PartialPct:    req.PartialPercentage,
		}

		placed, err := h.svc.PlaceOrder(c.Request.Context(), intent, plan)
		if err != nil {
			// 主单成交但条件单失败时placed非空，此时不能按失败返回
			if len(placed) == 0 {
				fail(c, err)
				return
			}
			logger.Warnf("条件单挂单失败，主单已成交: %v", err)
		}
		response.OK(c, "order placed", gin.H{"orders": placed})
	}
}

func (h *Handler) placeBatchOrder(c *gin.Context, req model.OrderRequest, intent *model.OrderIntent) {
	params, err := service.ValidateBatch(req, h.limits)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.svc.StartBatch(c.Request.Context(), intent, params)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, "batch order started", gin.H{
		"batch_id":     id,
		"total_amount": intent.Amount,
		"batch_count":  params.Count,
	})
}

// SetLeverage 单独的杠杆设置接口
func (h *Handler) SetLeverage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LeverageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, validator.Translate(err))
			return
		}
		if err := h.svc.SetLeverage(c.Request.Context(), strings.ToUpper(req.Symbol), req.Leverage); err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "leverage updated", gin.H{
			"symbol":   strings.ToUpper(req.Symbol),
			"leverage": req.Leverage,
		})
	}
}

// Balance 合约账户余额
func (h *Handler) Balance() gin.HandlerFunc {
	return func(c *gin.Context) {
		balances, err := h.svc.Balance(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "balance", gin.H{"balances": balances})
	}
}

// OpenOrders 指定合约的当前挂单
func (h *Handler) OpenOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.ToUpper(c.Param("symbol"))
		orders, err := h.svc.OpenOrders(c.Request.Context(), symbol)
		if err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "open orders", gin.H{"symbol": symbol, "orders": orders})
	}
}

// CancelOrder 撤单，symbol放在query里
func (h *Handler) CancelOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		symbol := strings.ToUpper(c.Query("symbol"))
		if symbol == "" {
			response.BadRequest(c, "query parameter symbol is required")
			return
		}
		if err := h.svc.CancelOrder(c.Request.Context(), orderID, symbol); err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "order cancelled", gin.H{"order_id": orderID, "symbol": symbol})
	}
}
