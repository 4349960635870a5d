package binance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alertflow/internal/exchange"
	"alertflow/internal/model"
	"alertflow/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// 币安USDT本位合约REST客户端
// 所有私有接口都走签名的query string，错误响应 {code,msg} 译为拒单

const (
	BaseURL    = "https://fapi.binance.com"
	TestnetURL = "https://testnet.binancefuture.com"
)

type Client struct {
	baseURL    string
	signer     *Signer
	httpClient *http.Client
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func NewClient(apiKey, secretKey string, testnet bool, opts ...Option) *Client {
	baseURL := BaseURL
	if testnet {
		baseURL = TestnetURL
	}
	c := &Client{
		baseURL: baseURL,
		signer:  NewSigner(apiKey, secretKey),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError 币安的错误响应体
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	query := c.signer.SignedQuery(params).Encode()

	var req *http.Request
	var err error
	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path,
			bytes.NewBufferString(query))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.signer.APIKey())
	return c.do(req)
}

func (c *Client) doPublic(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 网络层失败视为交易所不可达
		return nil, fmt.Errorf("%w: %v", exchange.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", exchange.ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return body, nil
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: http %d", exchange.ErrUnavailable, resp.StatusCode)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return nil, &exchange.RejectedError{Code: apiErr.Code, Msg: apiErr.Msg}
	}
	return nil, &exchange.RejectedError{Code: -resp.StatusCode, Msg: strings.TrimSpace(string(body))}
}

// 下单意图到币安参数的映射。市价单不带price，
// 规范化层透传的多余字段原样发给交易所，由交易所裁决
func buildOrderParams(intent *model.OrderIntent) url.Values {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(intent.Symbol))
	params.Set("side", strings.ToUpper(string(intent.Side)))
	params.Set("quantity", intent.Amount.String())

	switch intent.Type {
	case model.Limit:
		params.Set("type", "LIMIT")
		params.Set("timeInForce", "GTC")
	case model.Stop:
		params.Set("type", "STOP_MARKET")
	case model.TakeProfit:
		params.Set("type", "TAKE_PROFIT_MARKET")
	default:
		params.Set("type", "MARKET")
	}

	if intent.Price != nil && intent.Type != model.Market {
		params.Set("price", intent.Price.String())
	}
	if intent.StopPrice != nil {
		params.Set("stopPrice", intent.StopPrice.String())
	}
	if intent.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	return params
}

type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	ReduceOnly    bool   `json:"reduceOnly"`
	UpdateTime    int64  `json:"updateTime"`
}

func toDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (r orderResponse) toResult() model.OrderResult {
	side := model.Buy
	if strings.EqualFold(r.Side, "SELL") {
		side = model.Sell
	}
	return model.OrderResult{
		OrderID:       fmt.Sprintf("%d", r.OrderID),
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Side:          side,
		Type:          r.Type,
		Status:        r.Status,
		Price:         toDecimal(r.Price),
		OrigQty:       toDecimal(r.OrigQty),
		ExecutedQty:   toDecimal(r.ExecutedQty),
		ReduceOnly:    r.ReduceOnly,
		UpdateTime:    time.UnixMilli(r.UpdateTime),
	}
}

func (c *Client) PlaceOrder(ctx context.Context, intent *model.OrderIntent) (*model.OrderResult, error) {
	body, err := c.doSigned(ctx, http.MethodPost, "/fapi/v1/order", buildOrderParams(intent))
	if err != nil {
		return nil, err
	}
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	result := resp.toResult()
	logger.Info("order placed",
		logger.Pair("symbol", result.Symbol),
		logger.Pair("order_id", result.OrderID),
		logger.Pair("status", result.Status))
	return &result, nil
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("leverage", fmt.Sprintf("%d", leverage))
	_, err := c.doSigned(ctx, http.MethodPost, "/fapi/v1/leverage", params)
	if err == nil {
		logger.Infof("杠杆设置为 %dx，交易对: %s", leverage, symbol)
	}
	return err
}

type positionRisk struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	UnRealizedProfit string `json:"unRealizedProfit"`
	LiquidationPrice string `json:"liquidationPrice"`
	Leverage         string `json:"leverage"`
}

// Positions 返回有持仓的仓位，amt为0的忽略
func (c *Client) Positions(ctx context.Context, symbol string) ([]model.Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", strings.ToUpper(symbol))
	}
	body, err := c.doSigned(ctx, http.MethodGet, "/fapi/v2/positionRisk", params)
	if err != nil {
		return nil, err
	}
	var raw []positionRisk
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	positions := make([]model.Position, 0, len(raw))
	for _, p := range raw {
		amt := toDecimal(p.PositionAmt)
		if amt.IsZero() {
			continue
		}
		side := "long"
		contracts := amt
		if amt.IsNegative() {
			side = "short"
			contracts = amt.Neg()
		}
		lev, _ := toDecimal(p.Leverage).Float64()
		positions = append(positions, model.Position{
			Symbol:           p.Symbol,
			Side:             side,
			Contracts:        contracts,
			EntryPrice:       toDecimal(p.EntryPrice),
			MarkPrice:        toDecimal(p.MarkPrice),
			UnrealizedProfit: toDecimal(p.UnRealizedProfit),
			Leverage:         int(lev),
			LiquidationPrice: toDecimal(p.LiquidationPrice),
		})
	}
	return positions, nil
}

type futuresBalance struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"availableBalance"`
	CrossUnPnl       string `json:"crossUnPnl"`
}

func (c *Client) Balance(ctx context.Context) ([]model.Balance, error) {
	body, err := c.doSigned(ctx, http.MethodGet, "/fapi/v2/balance", nil)
	if err != nil {
		return nil, err
	}
	var raw []futuresBalance
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	balances := make([]model.Balance, 0, len(raw))
	for _, b := range raw {
		balances = append(balances, model.Balance{
			Asset:           b.Asset,
			Total:           toDecimal(b.Balance),
			Available:       toDecimal(b.AvailableBalance),
			CrossUnrealized: toDecimal(b.CrossUnPnl),
		})
	}
	return balances, nil
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]model.OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	body, err := c.doSigned(ctx, http.MethodGet, "/fapi/v1/openOrders", params)
	if err != nil {
		return nil, err
	}
	var raw []orderResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode open orders: %w", err)
	}
	orders := make([]model.OrderResult, 0, len(raw))
	for _, r := range raw {
		orders = append(orders, r.toResult())
	}
	return orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID, symbol string) error {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("orderId", orderID)
	_, err := c.doSigned(ctx, http.MethodDelete, "/fapi/v1/order", params)
	return err
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Time   int64  `json:"time"`
}

func (c *Client) Ticker(ctx context.Context, symbol string) (*model.Ticker, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	body, err := c.doPublic(ctx, "/fapi/v1/ticker/price", params)
	if err != nil {
		return nil, err
	}
	var raw tickerPrice
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}
	return &model.Ticker{
		Symbol: raw.Symbol,
		Last:   toDecimal(raw.Price),
		Time:   time.UnixMilli(raw.Time),
	}, nil
}

// 编译期确认实现了交易所接口
var _ exchange.Exchange = (*Client)(nil)
