package model

import "time"

// TradingView告警转发后的回执
type AlertAck struct {
	AlertId      string      `json:"alert_id"`
	ReceivedData interface{} `json:"received_data"`
	Timestamp    time.Time   `json:"timestamp"`
}
