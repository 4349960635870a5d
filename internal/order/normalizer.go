package order

import (
	"fmt"
	"strings"

	"alertflow/internal/model"
)

// 订单请求的校验与归一化，纯函数，无任何I/O，
// 校验失败的请求不会触达交易所

type ErrorKind string

const (
	MissingField ErrorKind = "missing_field"
	InvalidEnum  ErrorKind = "invalid_enum"
	InvalidValue ErrorKind = "invalid_value"
)

// ValidationError 描述第一个违反约束的字段
type ValidationError struct {
	Field  string
	Kind   ErrorKind
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("missing field: %s", e.Field)
	case InvalidEnum:
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
}

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Kind: MissingField}
}

func invalidEnum(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Kind: InvalidEnum, Reason: reason}
}

func invalidValue(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Kind: InvalidValue, Reason: reason}
}

// Normalize 校验原始下单请求并产出规范化的下单意图。
// 全有或全无：任何一个约束不满足都不会产生意图，第一个violations即返回。
func Normalize(req model.OrderRequest) (*model.OrderIntent, *ValidationError) {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return nil, missing("symbol")
	}

	var side model.OrderSide
	switch strings.ToLower(strings.TrimSpace(req.Side)) {
	case string(model.Buy):
		side = model.Buy
	case string(model.Sell):
		side = model.Sell
	case "":
		return nil, missing("side")
	default:
		return nil, invalidEnum("side", fmt.Sprintf("%q is not one of buy, sell", req.Side))
	}

	var typ model.OrderType
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case string(model.Market):
		typ = model.Market
	case string(model.Limit):
		typ = model.Limit
	case string(model.Stop):
		typ = model.Stop
	case string(model.TakeProfit):
		typ = model.TakeProfit
	case "":
		return nil, missing("type")
	default:
		return nil, invalidEnum("type", fmt.Sprintf("%q is not one of market, limit, stop, take_profit", req.Type))
	}

	if !req.Amount.IsPositive() {
		return nil, invalidValue("amount", "must be a positive number")
	}

	// price 仅限价单必填；其他类型带了也透传，但出现即必须为正
	if typ == model.Limit && req.Price == nil {
		return nil, missing("price")
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, invalidValue("price", "must be a positive number")
	}

	// stop_price 在止损/止盈单必填
	if (typ == model.Stop || typ == model.TakeProfit) && req.StopPrice == nil {
		return nil, missing("stop_price")
	}
	if req.StopPrice != nil && !req.StopPrice.IsPositive() {
		return nil, invalidValue("stop_price", "must be a positive number")
	}

	reduceOnly := false
	if req.ReduceOnly != nil {
		reduceOnly = *req.ReduceOnly
	}

	leverage := 0
	if req.Leverage != nil {
		if *req.Leverage <= 0 {
			return nil, invalidValue("leverage", "must be a positive integer")
		}
		leverage = *req.Leverage
	}

	return &model.OrderIntent{
		Symbol:     symbol,
		Side:       side,
		Type:       typ,
		Amount:     req.Amount,
		Price:      req.Price,
		StopPrice:  req.StopPrice,
		ReduceOnly: reduceOnly,
		Leverage:   leverage,
	}, nil
}
