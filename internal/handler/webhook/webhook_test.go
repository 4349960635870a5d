package webhook

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alertflow/pkg/notify"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAlertJSONObject(t *testing.T) {
	content, received := FormatAlert([]byte(`{"symbol":"BTCUSD.P","price":45000,"side":"buy"}`))

	// key排序后逐行输出
	assert.Equal(t, "price: 45000\nside: buy\nsymbol: BTCUSD.P", content)
	m, ok := received.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "buy", m["side"])
}

func TestFormatAlertPlainText(t *testing.T) {
	content, received := FormatAlert([]byte("BTC breakout, go long"))
	assert.Equal(t, "BTC breakout, go long", content)
	assert.Equal(t, "BTC breakout, go long", received)
}

func TestFormatAlertEmpty(t *testing.T) {
	content, received := FormatAlert(nil)
	assert.Equal(t, "Empty message", content)
	assert.Equal(t, "", received)

	content, _ = FormatAlert([]byte("   \n  "))
	assert.Equal(t, "Empty message", content)
}

func TestFormatAlertEmptyJSONObject(t *testing.T) {
	content, received := FormatAlert([]byte(`{}`))
	assert.Equal(t, "{}", content)
	m, ok := received.(map[string]interface{})
	require.True(t, ok)
	assert.Empty(t, m)
}

func TestFormatAlertJSONArray(t *testing.T) {
	content, _ := FormatAlert([]byte(`["a","b"]`))
	assert.Contains(t, content, `"a"`)
	assert.Contains(t, content, "\n")
}

// dingTalkStub 记录收到的消息体，按配置回errcode
type dingTalkStub struct {
	errCode  int
	received []string
}

func (s *dingTalkStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var msg struct {
			MsgType string `json:"msgtype"`
			Text    struct {
				Content string `json:"content"`
			} `json:"text"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "text", msg.MsgType)
		s.received = append(s.received, msg.Text.Content)
		json.NewEncoder(w).Encode(map[string]interface{}{"errcode": s.errCode, "errmsg": "ok"})
	}))
}

func newWebhookRouter(router notify.Router) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(notify.NewDingTalkClient(), router)
	g := gin.New()
	g.POST("/webhook/tradingview", h.Handle())
	return g
}

func post(g *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/tradingview", strings.NewReader(body))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestHandleForwardsAlert(t *testing.T) {
	stub := &dingTalkStub{}
	srv := stub.server(t)
	defer srv.Close()

	g := newWebhookRouter(notify.Router{Default: srv.URL})
	w := post(g, `{"symbol":"SOLUSDT","side":"sell"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string `json:"status"`
		Data   struct {
			AlertId string `json:"alert_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.NotEmpty(t, body.Data.AlertId)

	require.Len(t, stub.received, 1)
	assert.Equal(t, "side: sell\nsymbol: SOLUSDT", stub.received[0])
}

func TestHandleKeywordRouting(t *testing.T) {
	btcStub, defStub := &dingTalkStub{}, &dingTalkStub{}
	btcSrv, defSrv := btcStub.server(t), defStub.server(t)
	defer btcSrv.Close()
	defer defSrv.Close()

	g := newWebhookRouter(notify.Router{Default: defSrv.URL, BTC: btcSrv.URL})

	post(g, `{"symbol":"BTCUSD.P","side":"buy"}`)
	post(g, "nothing to route here")

	assert.Len(t, btcStub.received, 1)
	assert.Len(t, defStub.received, 1)
}

func TestHandleDingTalkFailure(t *testing.T) {
	stub := &dingTalkStub{errCode: 310000}
	srv := stub.server(t)
	defer srv.Close()

	g := newWebhookRouter(notify.Router{Default: srv.URL})
	w := post(g, "alert")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "DingTalk")
}
