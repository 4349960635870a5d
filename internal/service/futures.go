package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alertflow/internal/exchange"
	"alertflow/internal/model"
	"alertflow/pkg/kafka"
	"alertflow/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// ErrNoPosition 平仓时没有对应的持仓
var ErrNoPosition = errors.New("no open position")

var hundred = decimal.NewFromInt(100)

// StopPlan 主单成交后按百分比挂出的止盈止损计划
type StopPlan struct {
	TakeProfitPct float64
	StopLossPct   float64
	IsPartialTP   bool
	IsPartialSL   bool
	PartialPct    float64 // 0-100
}

func (p StopPlan) Empty() bool {
	return p.TakeProfitPct <= 0 && p.StopLossPct <= 0
}

// PlacedOrder 一次下单动作产生的子订单
type PlacedOrder struct {
	Role   string            `json:"role"` // main_order / take_profit / stop_loss
	Result model.OrderResult `json:"result"`
}

type FuturesService struct {
	ex       exchange.Exchange
	producer kafka.ProducerService
	batches  *BatchRegistry
}

// NewFuturesService producer可以为nil，表示不发布订单事件
func NewFuturesService(ex exchange.Exchange, producer kafka.ProducerService) *FuturesService {
	return &FuturesService{
		ex:       ex,
		producer: producer,
		batches:  NewBatchRegistry(),
	}
}

func (s *FuturesService) guard() error {
	if s.ex == nil {
		return exchange.ErrUnavailable
	}
	return nil
}

// PlaceOrder 执行一个已校验的下单意图。
// 带杠杆的意图先设置杠杆再下单；stop计划非空时基于当前价追加条件单
func (s *FuturesService) PlaceOrder(ctx context.Context, intent *model.OrderIntent, plan StopPlan) ([]PlacedOrder, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	if intent.RequiresLeverageCall() {
		if err := s.ex.SetLeverage(ctx, intent.Symbol, intent.Leverage); err != nil {
			return nil, fmt.Errorf("set leverage: %w", err)
		}
	}

	main, err := s.ex.PlaceOrder(ctx, intent)
	if err != nil {
		return nil, err
	}
	placed := []PlacedOrder{{Role: "main_order", Result: *main}}
	s.publish(intent.Symbol, "main_order", main)

	if !plan.Empty() {
		stops, err := s.placeStopOrders(ctx, intent, plan)
		if err != nil {
			// 主单已成交，条件单失败不回滚，原样上报
			return placed, fmt.Errorf("place stop orders: %w", err)
		}
		placed = append(placed, stops...)
	}
	return placed, nil
}

// 按百分比计算止盈止损触发价并挂reduce-only条件单
func (s *FuturesService) placeStopOrders(ctx context.Context, intent *model.OrderIntent, plan StopPlan) ([]PlacedOrder, error) {
	ticker, err := s.ex.Ticker(ctx, intent.Symbol)
	if err != nil {
		return nil, err
	}
	current := ticker.Last

	closeSide := model.Sell
	if intent.Side == model.Sell {
		closeSide = model.Buy
	}

	tpAmount := intent.Amount
	slAmount := intent.Amount
	if plan.PartialPct > 0 {
		partial := decimal.NewFromFloat(plan.PartialPct).Div(hundred)
		if plan.IsPartialTP {
			tpAmount = intent.Amount.Mul(partial)
		}
		if plan.IsPartialSL {
			slAmount = intent.Amount.Mul(partial)
		}
	}

	var placed []PlacedOrder

	if plan.TakeProfitPct > 0 {
		pct := decimal.NewFromFloat(plan.TakeProfitPct).Div(hundred)
		// 多单止盈在上方，空单止盈在下方
		tpPrice := current.Mul(decimal.NewFromInt(1).Add(pct))
		if intent.Side == model.Sell {
			tpPrice = current.Mul(decimal.NewFromInt(1).Sub(pct))
		}
		result, err := s.ex.PlaceOrder(ctx, &model.OrderIntent{
			Symbol:     intent.Symbol,
			Side:       closeSide,
			Type:       model.TakeProfit,
			Amount:     tpAmount,
			StopPrice:  &tpPrice,
			ReduceOnly: true,
		})
		if err != nil {
			return placed, err
		}
		placed = append(placed, PlacedOrder{Role: "take_profit", Result: *result})
		s.publish(intent.Symbol, "take_profit", result)
	}

	if plan.StopLossPct > 0 {
		pct := decimal.NewFromFloat(plan.StopLossPct).Div(hundred)
		slPrice := current.Mul(decimal.NewFromInt(1).Sub(pct))
		if intent.Side == model.Sell {
			slPrice = current.Mul(decimal.NewFromInt(1).Add(pct))
		}
		result, err := s.ex.PlaceOrder(ctx, &model.OrderIntent{
			Symbol:     intent.Symbol,
			Side:       closeSide,
			Type:       model.Stop,
			Amount:     slAmount,
			StopPrice:  &slPrice,
			ReduceOnly: true,
		})
		if err != nil {
			return placed, err
		}
		placed = append(placed, PlacedOrder{Role: "stop_loss", Result: *result})
		s.publish(intent.Symbol, "stop_loss", result)
	}
	return placed, nil
}

func (s *FuturesService) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.ex.SetLeverage(ctx, symbol, leverage)
}

func (s *FuturesService) Positions(ctx context.Context, symbol string) ([]model.Position, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.ex.Positions(ctx, symbol)
}

func (s *FuturesService) Balance(ctx context.Context) ([]model.Balance, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.ex.Balance(ctx)
}

func (s *FuturesService) OpenOrders(ctx context.Context, symbol string) ([]model.OrderResult, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.ex.OpenOrders(ctx, symbol)
}

func (s *FuturesService) CancelOrder(ctx context.Context, orderID, symbol string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.ex.CancelOrder(ctx, orderID, symbol)
}

// ClosedPosition 单个仓位的平仓结果
type ClosedPosition struct {
	Symbol  string          `json:"symbol"`
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Side    string          `json:"side"`
}

// ClosePosition 按数量或百分比平仓，两者都缺省时全平
func (s *FuturesService) ClosePosition(ctx context.Context, req model.CloseRequest) (*ClosedPosition, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	positions, err := s.ex.Positions(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	var current *model.Position
	for i := range positions {
		if positions[i].Contracts.IsPositive() {
			current = &positions[i]
			break
		}
	}
	if current == nil {
		return nil, ErrNoPosition
	}

	closeAmount := current.Contracts
	switch {
	case req.Percentage > 0:
		closeAmount = current.Contracts.Mul(decimal.NewFromFloat(req.Percentage)).Div(hundred)
	case req.Amount != nil && req.Amount.IsPositive():
		closeAmount = *req.Amount
	}

	result, err := s.closePositionOrder(ctx, current.Symbol, current.Side, closeAmount)
	if err != nil {
		return nil, err
	}
	return &ClosedPosition{
		Symbol:  current.Symbol,
		OrderID: result.OrderID,
		Amount:  closeAmount,
		Side:    current.Side,
	}, nil
}

// 与持仓方向相反的reduce-only市价单
func (s *FuturesService) closePositionOrder(ctx context.Context, symbol, posSide string, amount decimal.Decimal) (*model.OrderResult, error) {
	closeSide := model.Sell
	if posSide == "short" {
		closeSide = model.Buy
	}
	result, err := s.ex.PlaceOrder(ctx, &model.OrderIntent{
		Symbol:     symbol,
		Side:       closeSide,
		Type:       model.Market,
		Amount:     amount,
		ReduceOnly: true,
	})
	if err == nil {
		s.publish(symbol, "close", result)
	}
	return result, err
}

// CloseAllSummary 批量平仓的汇总
type CloseAllSummary struct {
	Closed []ClosedPosition  `json:"closed_positions"`
	Failed map[string]string `json:"failed_positions,omitempty"`
	Total  int               `json:"total_positions"`
}

// CloseAll 一键平掉所有持仓，逐个下单，失败的汇总返回
func (s *FuturesService) CloseAll(ctx context.Context) (*CloseAllSummary, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	positions, err := s.ex.Positions(ctx, "")
	if err != nil {
		return nil, err
	}

	summary := &CloseAllSummary{
		Failed: make(map[string]string),
		Total:  len(positions),
	}
	var errs error
	for _, pos := range positions {
		result, err := s.closePositionOrder(ctx, pos.Symbol, pos.Side, pos.Contracts)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", pos.Symbol, err))
			summary.Failed[pos.Symbol] = err.Error()
			logger.Errorf("仓位 %s 平仓失败: %v", pos.Symbol, err)
			continue
		}
		summary.Closed = append(summary.Closed, ClosedPosition{
			Symbol:  pos.Symbol,
			OrderID: result.OrderID,
			Amount:  pos.Contracts,
			Side:    pos.Side,
		})
	}
	if len(summary.Failed) == 0 {
		errs = nil
	}
	// 部分失败不算整体失败，errs仅用于日志侧的聚合展示
	if errs != nil {
		logger.Error("close-all finished with failures", logger.Pair("error", errs))
	}
	return summary, nil
}

// 订单事件发布，尽力而为，不阻塞请求路径
func (s *FuturesService) publish(symbol, role string, result *model.OrderResult) {
	if s.producer == nil || result == nil {
		return
	}
	event := struct {
		Role  string            `json:"role"`
		Order model.OrderResult `json:"order"`
	}{Role: role, Order: *result}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.producer.Produce(ctx, []byte(symbol), event); err != nil {
			logger.Warnf("publish order event failed: %v", err)
		}
	}()
}
