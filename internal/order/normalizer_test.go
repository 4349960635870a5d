package order

import (
	"testing"

	"alertflow/internal/model"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func TestNormalize(t *testing.T) {
	cases := []struct {
		name      string
		req       model.OrderRequest
		wantField string
		wantKind  ErrorKind
	}{
		{
			name: "market order with leverage",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "market",
				Amount: dec("0.001"), Leverage: intPtr(10),
			},
		},
		{
			name: "limit order without price",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "sell", Type: "limit",
				Amount: dec("0.001"),
			},
			wantField: "price", wantKind: MissingField,
		},
		{
			name: "limit order with price",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "sell", Type: "limit",
				Amount: dec("0.001"), Price: decPtr("45000"),
			},
		},
		{
			name: "stop order with negative stop price",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "stop",
				Amount: dec("0.001"), StopPrice: decPtr("-5"),
			},
			wantField: "stop_price", wantKind: InvalidValue,
		},
		{
			name: "stop order without stop price",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "stop",
				Amount: dec("0.001"),
			},
			wantField: "stop_price", wantKind: MissingField,
		},
		{
			name: "take profit without stop price",
			req: model.OrderRequest{
				Symbol: "ETHUSDT", Side: "sell", Type: "take_profit",
				Amount: dec("0.5"),
			},
			wantField: "stop_price", wantKind: MissingField,
		},
		{
			name: "take profit with stop price",
			req: model.OrderRequest{
				Symbol: "ETHUSDT", Side: "sell", Type: "take_profit",
				Amount: dec("0.5"), StopPrice: decPtr("4200"),
			},
		},
		{
			name: "empty symbol",
			req: model.OrderRequest{
				Symbol: "   ", Side: "buy", Type: "market", Amount: dec("1"),
			},
			wantField: "symbol", wantKind: MissingField,
		},
		{
			name: "unknown side",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "hold", Type: "market", Amount: dec("1"),
			},
			wantField: "side", wantKind: InvalidEnum,
		},
		{
			name: "unknown type",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "iceberg", Amount: dec("1"),
			},
			wantField: "type", wantKind: InvalidEnum,
		},
		{
			name: "zero amount",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "market", Amount: dec("0"),
			},
			wantField: "amount", wantKind: InvalidValue,
		},
		{
			name: "negative amount on limit",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "limit",
				Amount: dec("-0.1"), Price: decPtr("100"),
			},
			wantField: "amount", wantKind: InvalidValue,
		},
		{
			name: "zero leverage",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "market",
				Amount: dec("1"), Leverage: intPtr(0),
			},
			wantField: "leverage", wantKind: InvalidValue,
		},
		{
			name: "negative leverage",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "market",
				Amount: dec("1"), Leverage: intPtr(-3),
			},
			wantField: "leverage", wantKind: InvalidValue,
		},
		{
			name: "market order with stray price passes through",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "market",
				Amount: dec("1"), Price: decPtr("30000"),
			},
		},
		{
			name: "stray price must still be positive",
			req: model.OrderRequest{
				Symbol: "BTCUSDT", Side: "buy", Type: "market",
				Amount: dec("1"), Price: decPtr("0"),
			},
			wantField: "price", wantKind: InvalidValue,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent, verr := Normalize(tc.req)
			if tc.wantField == "" {
				if verr != nil {
					t.Fatalf("expected success, got %v", verr)
				}
				if intent == nil {
					t.Fatal("expected intent, got nil")
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected error on field %s, got intent %+v", tc.wantField, intent)
			}
			if verr.Field != tc.wantField || verr.Kind != tc.wantKind {
				t.Fatalf("want (%s,%s), got (%s,%s)", tc.wantField, tc.wantKind, verr.Field, verr.Kind)
			}
			if intent != nil {
				t.Fatal("validation is all-or-nothing, intent must be nil on error")
			}
		})
	}
}

// 大小写不敏感的枚举匹配
func TestNormalizeCaseInsensitiveEnums(t *testing.T) {
	req := model.OrderRequest{
		Symbol: "BTCUSDT", Side: "BUY", Type: "Market", Amount: dec("0.01"),
	}
	intent, verr := Normalize(req)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if intent.Side != model.Buy || intent.Type != model.Market {
		t.Fatalf("enums not canonicalized: %+v", intent)
	}
}

func TestNormalizeMarketIntentShape(t *testing.T) {
	req := model.OrderRequest{
		Symbol: "BTCUSDT", Side: "buy", Type: "market",
		Amount: dec("0.001"), Leverage: intPtr(10),
	}
	intent, verr := Normalize(req)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if intent.Price != nil || intent.StopPrice != nil {
		t.Fatalf("market intent must not require price/stop_price: %+v", intent)
	}
	if !intent.RequiresLeverageCall() || intent.Leverage != 10 {
		t.Fatalf("leverage must be carried through unchanged: %+v", intent)
	}
	if intent.ReduceOnly {
		t.Fatal("reduce_only must default to false")
	}
}

func TestNormalizeReduceOnly(t *testing.T) {
	req := model.OrderRequest{
		Symbol: "BTCUSDT", Side: "sell", Type: "market",
		Amount: dec("0.5"), ReduceOnly: boolPtr(true),
	}
	intent, verr := Normalize(req)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if !intent.ReduceOnly {
		t.Fatal("reduce_only true must be preserved")
	}
}

// 校验是纯函数，相同输入重复校验结果一致
func TestNormalizeIdempotent(t *testing.T) {
	req := model.OrderRequest{
		Symbol: "BTCUSDT", Side: "sell", Type: "limit",
		Amount: dec("0.001"), Price: decPtr("45000"),
	}
	first, err1 := Normalize(req)
	second, err2 := Normalize(req)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	if *first != *second {
		// 指针字段指向同一底层值，结构体相等即可
		t.Fatalf("normalization must be idempotent: %+v vs %+v", first, second)
	}
}
