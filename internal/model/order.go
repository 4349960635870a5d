package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

type OrderType string

const (
	// 市价单
	Market OrderType = "market"
	// 限价单
	Limit OrderType = "limit"
	// 止损单，触发价成交
	Stop OrderType = "stop"
	// 止盈单，触发价成交
	TakeProfit OrderType = "take_profit"
)

/*
来源于外部请求

	{
	  "symbol": "BTCUSDT",
	  "side": "buy",
	  "type": "limit",
	  "amount": 0.01,
	  "price": 45000,
	  "reduce_only": false,
	  "leverage": 10
	}
*/
type OrderRequest struct {
	Symbol     string           `json:"symbol"`               // 合约标的，例如 BTCUSDT
	Side       string           `json:"side"`                 // buy / sell
	Type       string           `json:"type"`                 // market / limit / stop / take_profit
	Amount     decimal.Decimal  `json:"amount"`               // 下单数量
	Price      *decimal.Decimal `json:"price,omitempty"`      // 限价单价格
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"` // 止损/止盈触发价
	ReduceOnly *bool            `json:"reduce_only,omitempty"`
	Leverage   *int             `json:"leverage,omitempty"` // 杠杆倍数，存在时下单前先设置

	// 止盈止损参数（按当前价的百分比挂出条件单）
	TakeProfitPct     float64 `json:"take_profit_percentage,omitempty"`
	StopLossPct       float64 `json:"stop_loss_percentage,omitempty"`
	IsPartialTP       bool    `json:"is_partial_tp,omitempty"`
	IsPartialSL       bool    `json:"is_partial_sl,omitempty"`
	PartialPercentage float64 `json:"partial_percentage,omitempty"` // 部分平仓百分比 (0-100)

	// 分批下单参数
	IsBatchOrder         bool             `json:"is_batch_order,omitempty"`
	BatchCount           int              `json:"batch_count,omitempty"`
	BatchDurationMinutes int              `json:"batch_duration_minutes,omitempty"`
	MinAmountPerBatch    *decimal.Decimal `json:"min_amount_per_batch,omitempty"`
	MaxAmountPerBatch    *decimal.Decimal `json:"max_amount_per_batch,omitempty"`
}

// OrderIntent 校验完成的下单意图，类型相关的必填字段齐备且为正数，
// 可以直接交给交易所适配器
type OrderIntent struct {
	Symbol     string
	Side       OrderSide
	Type       OrderType
	Amount     decimal.Decimal
	Price      *decimal.Decimal // 限价单必有，其他类型原样透传
	StopPrice  *decimal.Decimal // stop / take_profit 必有
	ReduceOnly bool
	Leverage   int // 0 表示请求未携带
}

// RequiresLeverageCall 下单前是否需要先调一次杠杆设置
func (it *OrderIntent) RequiresLeverageCall() bool {
	return it.Leverage > 0
}

type LeverageRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Leverage int    `json:"leverage" binding:"required,gt=0"`
}

// 平仓请求，percentage为空时全平
type CloseRequest struct {
	Symbol     string           `json:"symbol" binding:"required"`
	Percentage float64          `json:"percentage,omitempty"` // 0-100
	Amount     *decimal.Decimal `json:"amount,omitempty"`     // 指定平仓数量
}

type OrderResult struct {
	OrderID       string          `json:"order_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Price         decimal.Decimal `json:"price"`
	OrigQty       decimal.Decimal `json:"orig_qty"`
	ExecutedQty   decimal.Decimal `json:"executed_qty"`
	ReduceOnly    bool            `json:"reduce_only"`
	UpdateTime    time.Time       `json:"update_time"`
}

type Position struct {
	Symbol           string          `json:"symbol"`
	Side             string          `json:"side"` // long / short
	Contracts        decimal.Decimal `json:"contracts"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	MarkPrice        decimal.Decimal `json:"mark_price"`
	UnrealizedProfit decimal.Decimal `json:"unrealized_profit"`
	Leverage         int             `json:"leverage"`
	LiquidationPrice decimal.Decimal `json:"liquidation_price"`
}

type Balance struct {
	Asset            string          `json:"asset"`
	Total            decimal.Decimal `json:"total"`
	Available        decimal.Decimal `json:"available"`
	CrossUnrealized  decimal.Decimal `json:"cross_unrealized"`
}

type Ticker struct {
	Symbol string          `json:"symbol"`
	Last   decimal.Decimal `json:"last"`
	Time   time.Time       `json:"time"`
}
