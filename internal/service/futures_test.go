package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"alertflow/internal/exchange"
	"alertflow/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExchange 记录调用顺序和下单意图，便于断言
type stubExchange struct {
	mu         sync.Mutex
	calls      []string
	intents    []model.OrderIntent
	positions  []model.Position
	tickerLast decimal.Decimal
	orderErr   error
	failSymbol string // 平仓时该symbol下单报错
}

func (s *stubExchange) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubExchange) PlaceOrder(_ context.Context, intent *model.OrderIntent) (*model.OrderResult, error) {
	s.record("place_order")
	s.mu.Lock()
	s.intents = append(s.intents, *intent)
	s.mu.Unlock()
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	if s.failSymbol != "" && intent.Symbol == s.failSymbol {
		return nil, &exchange.RejectedError{Code: -2019, Msg: "Margin is insufficient."}
	}
	return &model.OrderResult{
		OrderID: "1001",
		Symbol:  intent.Symbol,
		Side:    intent.Side,
		OrigQty: intent.Amount,
	}, nil
}

func (s *stubExchange) SetLeverage(_ context.Context, symbol string, leverage int) error {
	s.record("set_leverage")
	return nil
}

func (s *stubExchange) Positions(_ context.Context, symbol string) ([]model.Position, error) {
	s.record("positions")
	if symbol == "" {
		return s.positions, nil
	}
	var out []model.Position
	for _, p := range s.positions {
		if p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubExchange) Balance(context.Context) ([]model.Balance, error) { return nil, nil }

func (s *stubExchange) OpenOrders(context.Context, string) ([]model.OrderResult, error) {
	return nil, nil
}

func (s *stubExchange) CancelOrder(context.Context, string, string) error { return nil }

func (s *stubExchange) Ticker(_ context.Context, symbol string) (*model.Ticker, error) {
	s.record("ticker")
	return &model.Ticker{Symbol: symbol, Last: s.tickerLast}, nil
}

func marketIntent(leverage int) *model.OrderIntent {
	return &model.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     model.Buy,
		Type:     model.Market,
		Amount:   d("0.5"),
		Leverage: leverage,
	}
}

func TestPlaceOrderLeverageFirst(t *testing.T) {
	ex := &stubExchange{}
	svc := NewFuturesService(ex, nil)

	placed, err := svc.PlaceOrder(context.Background(), marketIntent(10), StopPlan{})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, "main_order", placed[0].Role)
	// 杠杆设置必须先于下单
	assert.Equal(t, []string{"set_leverage", "place_order"}, ex.calls)
}

func TestPlaceOrderWithoutLeverage(t *testing.T) {
	ex := &stubExchange{}
	svc := NewFuturesService(ex, nil)

	_, err := svc.PlaceOrder(context.Background(), marketIntent(0), StopPlan{})
	require.NoError(t, err)
	assert.Equal(t, []string{"place_order"}, ex.calls)
}

func TestPlaceOrderStopPlan(t *testing.T) {
	ex := &stubExchange{tickerLast: d("50000")}
	svc := NewFuturesService(ex, nil)

	placed, err := svc.PlaceOrder(context.Background(), marketIntent(0), StopPlan{
		TakeProfitPct: 5,
		StopLossPct:   2,
	})
	require.NoError(t, err)
	require.Len(t, placed, 3)

	tp := placed[1]
	assert.Equal(t, "take_profit", tp.Role)
	sl := placed[2]
	assert.Equal(t, "stop_loss", sl.Role)

	// 多单：止盈挂上方 +5%，止损挂下方 -2%，方向相反且只减仓
	tpIntent := ex.intents[1]
	require.NotNil(t, tpIntent.StopPrice)
	assert.True(t, tpIntent.StopPrice.Equal(d("52500")), "tp price %s", tpIntent.StopPrice)
	assert.Equal(t, model.Sell, tpIntent.Side)
	assert.Equal(t, model.TakeProfit, tpIntent.Type)
	assert.True(t, tpIntent.ReduceOnly)

	slIntent := ex.intents[2]
	require.NotNil(t, slIntent.StopPrice)
	assert.True(t, slIntent.StopPrice.Equal(d("49000")), "sl price %s", slIntent.StopPrice)
	assert.Equal(t, model.Stop, slIntent.Type)
	assert.True(t, slIntent.ReduceOnly)
}

func TestPlaceOrderShortStopPlan(t *testing.T) {
	ex := &stubExchange{tickerLast: d("3000")}
	svc := NewFuturesService(ex, nil)

	intent := &model.OrderIntent{
		Symbol: "ETHUSDT", Side: model.Sell, Type: model.Market, Amount: d("2"),
	}
	_, err := svc.PlaceOrder(context.Background(), intent, StopPlan{TakeProfitPct: 10, StopLossPct: 5})
	require.NoError(t, err)

	// 空单方向镜像：止盈在下方，止损在上方，平仓方向为买入
	tpIntent := ex.intents[1]
	assert.True(t, tpIntent.StopPrice.Equal(d("2700")))
	assert.Equal(t, model.Buy, tpIntent.Side)
	slIntent := ex.intents[2]
	assert.True(t, slIntent.StopPrice.Equal(d("3150")))
	assert.Equal(t, model.Buy, slIntent.Side)
}

func TestPlaceOrderPartialStops(t *testing.T) {
	ex := &stubExchange{tickerLast: d("50000")}
	svc := NewFuturesService(ex, nil)

	_, err := svc.PlaceOrder(context.Background(), marketIntent(0), StopPlan{
		TakeProfitPct: 5,
		StopLossPct:   2,
		IsPartialTP:   true,
		PartialPct:    40,
	})
	require.NoError(t, err)

	// 止盈只挂40%数量，止损仍为全量
	assert.True(t, ex.intents[1].Amount.Equal(d("0.2")), "tp amount %s", ex.intents[1].Amount)
	assert.True(t, ex.intents[2].Amount.Equal(d("0.5")), "sl amount %s", ex.intents[2].Amount)
}

func TestPlaceOrderNilExchange(t *testing.T) {
	svc := NewFuturesService(nil, nil)
	_, err := svc.PlaceOrder(context.Background(), marketIntent(0), StopPlan{})
	assert.True(t, exchange.IsUnavailable(err))
}

func TestClosePositionFull(t *testing.T) {
	ex := &stubExchange{positions: []model.Position{
		{Symbol: "BTCUSDT", Side: "long", Contracts: d("1.5")},
	}}
	svc := NewFuturesService(ex, nil)

	closed, err := svc.ClosePosition(context.Background(), model.CloseRequest{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.True(t, closed.Amount.Equal(d("1.5")))

	intent := ex.intents[0]
	assert.Equal(t, model.Sell, intent.Side)
	assert.Equal(t, model.Market, intent.Type)
	assert.True(t, intent.ReduceOnly)
}

func TestClosePositionPercentage(t *testing.T) {
	ex := &stubExchange{positions: []model.Position{
		{Symbol: "ETHUSDT", Side: "short", Contracts: d("10")},
	}}
	svc := NewFuturesService(ex, nil)

	closed, err := svc.ClosePosition(context.Background(), model.CloseRequest{
		Symbol: "ETHUSDT", Percentage: 25,
	})
	require.NoError(t, err)
	assert.True(t, closed.Amount.Equal(d("2.5")))
	// 空头平仓用买入
	assert.Equal(t, model.Buy, ex.intents[0].Side)
}

func TestClosePositionNone(t *testing.T) {
	ex := &stubExchange{}
	svc := NewFuturesService(ex, nil)

	_, err := svc.ClosePosition(context.Background(), model.CloseRequest{Symbol: "BTCUSDT"})
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestCloseAll(t *testing.T) {
	ex := &stubExchange{
		positions: []model.Position{
			{Symbol: "BTCUSDT", Side: "long", Contracts: d("1")},
			{Symbol: "ETHUSDT", Side: "short", Contracts: d("5")},
			{Symbol: "SOLUSDT", Side: "long", Contracts: d("100")},
		},
		failSymbol: "ETHUSDT",
	}
	svc := NewFuturesService(ex, nil)

	summary, err := svc.CloseAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Len(t, summary.Closed, 2)
	require.Contains(t, summary.Failed, "ETHUSDT")
}

func TestStartBatch(t *testing.T) {
	ex := &stubExchange{}
	svc := NewFuturesService(ex, nil)

	params := &BatchParams{
		Count:       3,
		Duration:    3 * time.Millisecond,
		MinPerBatch: d("0.1"),
		MaxPerBatch: d("0.5"),
	}
	id, err := svc.StartBatch(context.Background(), marketIntent(5), params)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// 等后台执行完成
	require.Eventually(t, func() bool {
		b, ok := svc.Batch(id)
		return ok && b.Status == BatchCompleted
	}, time.Second, 5*time.Millisecond)

	ex.mu.Lock()
	assert.Equal(t, "set_leverage", ex.calls[0])
	ex.mu.Unlock()

	b, _ := svc.Batch(id)
	require.Len(t, b.Orders, 3)
	assert.True(t, b.ExecutedAmount.Equal(d("0.5")))
	assert.Len(t, svc.Batches(), 1)
}
