package exchange

import (
	"context"
	"errors"
	"fmt"

	"alertflow/internal/model"
)

// 核心只依赖这个窄接口，币安实现在binance子包
type Exchange interface {
	// 下单，intent已经过校验
	PlaceOrder(ctx context.Context, intent *model.OrderIntent) (*model.OrderResult, error)
	// 设置合约杠杆
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	// 查询仓位，symbol为空时返回全部
	Positions(ctx context.Context, symbol string) ([]model.Position, error)
	// 合约账户余额
	Balance(ctx context.Context) ([]model.Balance, error)
	// 当前挂单
	OpenOrders(ctx context.Context, symbol string) ([]model.OrderResult, error)
	// 撤销订单
	CancelOrder(ctx context.Context, orderID, symbol string) error
	// 最新价格
	Ticker(ctx context.Context, symbol string) (*model.Ticker, error)
}

// ErrUnavailable 交易所未配置或不可达，HTTP层译为503
var ErrUnavailable = errors.New("exchange unavailable")

// RejectedError 交易所以业务原因拒绝请求（保证金不足等），HTTP层译为400
type RejectedError struct {
	Code int    // 交易所错误码
	Msg  string // 交易所原始信息
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("exchange rejected (%d): %s", e.Code, e.Msg)
}

// IsRejected 判断是否为交易所拒单
func IsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsUnavailable 判断是否为不可达/未配置
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
