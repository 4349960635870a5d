package webhook

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"alertflow/internal/model"
	"alertflow/pkg/logger"
	"alertflow/pkg/notify"
	"alertflow/pkg/response"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// TradingView告警入口：收原始body，整理成可读文本后转发到钉钉群

type Handler struct {
	ding   *notify.DingTalkClient
	router notify.Router
	node   *snowflake.Node
}

func NewHandler(ding *notify.DingTalkClient, router notify.Router) *Handler {
	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatal("snowflake node init failed", logger.Pair("error", err))
	}
	return &Handler{ding: ding, router: router, node: node}
}

// Handle 接收告警并转发，响应里带回告警id和原始内容
func (h *Handler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			response.BadRequest(c, "read request body: "+err.Error())
			return
		}

		content, received := FormatAlert(raw)
		webhookURL := h.router.Pick(content)

		if err := h.ding.SendText(c.Request.Context(), webhookURL, content); err != nil {
			logger.Errorf("钉钉消息发送失败: %v", err)
			response.Detail(c, http.StatusInternalServerError, "failed to send message to DingTalk")
			return
		}

		ack := model.AlertAck{
			AlertId:      h.node.Generate().String(),
			ReceivedData: received,
			Timestamp:    time.Now(),
		}
		logger.Infof("告警已转发 alert_id=%s", ack.AlertId)
		response.OK(c, "alert forwarded", ack)
	}
}

// FormatAlert 把告警body整理成推送文本：
// JSON对象转成 key: value 行（key排序保证稳定），其他JSON原样缩进输出，
// 非JSON按纯文本处理，空body给占位文案。
// 第二个返回值是回执中携带的原始数据
func FormatAlert(raw []byte) (string, interface{}) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "Empty message", ""
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		// 空对象原样转发，钉钉拒收空文本
		if len(obj) == 0 {
			return "{}", obj
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+": "+cast.ToString(obj[k]))
		}
		return strings.Join(lines, "\n"), obj
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err == nil {
		if pretty, err := json.MarshalIndent(value, "", "  "); err == nil {
			return string(pretty), value
		}
	}

	return text, text
}
