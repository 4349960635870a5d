package ticker

import (
	"net/http"
	"strings"
	"time"

	"alertflow/internal/exchange"
	"alertflow/internal/service"
	"alertflow/pkg/logger"
	"alertflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// 行情接口：单次查询走REST，持续订阅走websocket推送

const (
	pushInterval = 2 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
)

type Handler struct {
	svc      *service.TickerService
	upgrader websocket.Upgrader
}

func fail(c *gin.Context, err error) {
	if re, ok := exchange.IsRejected(err); ok {
		response.BadRequest(c, re.Error())
		return
	}
	if exchange.IsUnavailable(err) {
		response.Unavailable(c, "exchange not configured or unreachable")
		return
	}
	logger.Errorf("ticker api error: %v", err)
	response.Internal(c)
}

func NewHandler(svc *service.TickerService) *Handler {
	return &Handler{
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Get 最新成交价
func (h *Handler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.ToUpper(c.Param("symbol"))
		ticker, err := h.svc.Ticker(c.Request.Context(), symbol)
		if err != nil {
			fail(c, err)
			return
		}
		response.OK(c, "ticker", ticker)
	}
}

// ServeWS 按固定间隔向客户端推送symbol的最新价格，
// symbol通过query传入，连接断开即停止
func (h *Handler) ServeWS(c *gin.Context) {
	symbol := strings.ToUpper(c.Query("symbol"))
	if symbol == "" {
		response.BadRequest(c, "query parameter symbol is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("ticker ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	// 读协程只为感知客户端关闭
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(pushInterval)
	defer tick.Stop()

	for {
		select {
		case <-done:
			return
		case <-tick.C:
			ticker, err := h.svc.Ticker(c.Request.Context(), symbol)
			if err != nil {
				logger.Warnf("ticker ws fetch %s failed: %v", symbol, err)
				continue
			}
			payload, err := json.Marshal(map[string]interface{}{
				"action": "price_update",
				"data":   ticker,
			})
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
