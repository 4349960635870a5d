package router

import (
	"alertflow/internal/handler/futures"
	"alertflow/internal/handler/ping"
	"alertflow/internal/handler/ticker"
	"alertflow/internal/handler/webhook"
	"alertflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

type ApiRouter struct {
	futuresHandler *futures.Handler
	tickerHandler  *ticker.Handler
	webhookHandler *webhook.Handler
}

func NewApiRouter(fh *futures.Handler, th *ticker.Handler, wh *webhook.Handler) *ApiRouter {
	return &ApiRouter{futuresHandler: fh, tickerHandler: th, webhookHandler: wh}
}

func (api *ApiRouter) Load(g *gin.Engine) {

	g.GET("/ping", ping.Ping())

	// TradingView 告警接收
	g.POST("/webhook/tradingview", api.webhookHandler.Handle())

	f := g.Group("/api/futures")
	{
		f.POST("/order", api.futuresHandler.PlaceOrder())
		f.POST("/leverage", api.futuresHandler.SetLeverage())

		f.GET("/positions", api.futuresHandler.Positions())
		f.GET("/positions/:symbol", api.futuresHandler.PositionBySymbol())
		f.POST("/positions/close", api.futuresHandler.ClosePosition())
		f.POST("/positions/close-all", api.futuresHandler.CloseAll())

		f.GET("/balance", middleware.AntiDuplicateMiddleware(), api.futuresHandler.Balance())
		f.GET("/orders/:symbol", api.futuresHandler.OpenOrders())
		f.DELETE("/orders/:order_id", api.futuresHandler.CancelOrder())

		f.GET("/ticker/ws", api.tickerHandler.ServeWS) // 通过websocket连接获取价格
		f.GET("/ticker/:symbol", api.tickerHandler.Get())

		f.GET("/batch-orders", api.futuresHandler.Batches())
		f.GET("/batch-orders/:batch_id", api.futuresHandler.BatchByID())
	}
}
