package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// 钉钉群机器人客户端，text消息，发送失败不重试

type DingTalkClient struct {
	httpClient *http.Client
}

func NewDingTalkClient() *DingTalkClient {
	return &DingTalkClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type textMessage struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

type robotResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// SendText 推送一条文本消息到指定webhook，
// HTTP 200 且 errcode==0 才算成功
func (c *DingTalkClient) SendText(ctx context.Context, webhookURL, content string) error {
	var msg textMessage
	msg.MsgType = "text"
	msg.Text.Content = content

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dingtalk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dingtalk http %d", resp.StatusCode)
	}

	var result robotResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode dingtalk response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk api error %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// Router 按告警内容选择目标群，BTC优先于ETH匹配
type Router struct {
	Default string
	BTC     string
	ETH     string
}

func (r Router) Pick(content string) string {
	switch {
	case r.BTC != "" && (strings.Contains(content, "BTCUSD.P") || strings.Contains(content, "BTC")):
		return r.BTC
	case r.ETH != "" && (strings.Contains(content, "ETHUSD.P") || strings.Contains(content, "ETH")):
		return r.ETH
	default:
		return r.Default
	}
}
