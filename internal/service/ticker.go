package service

import (
	"context"
	"strings"
	"time"

	"alertflow/internal/exchange"
	"alertflow/internal/model"
	"alertflow/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// 行情查询，可选redis短缓存，挡掉高频轮询

const tickerCacheTTL = 2 * time.Second

type TickerService struct {
	ex    exchange.Exchange
	cache *redis.Client // 可以为nil
}

func NewTickerService(ex exchange.Exchange, cache *redis.Client) *TickerService {
	return &TickerService{ex: ex, cache: cache}
}

func (s *TickerService) cacheKey(symbol string) string {
	return "ticker:" + strings.ToUpper(symbol)
}

func (s *TickerService) Ticker(ctx context.Context, symbol string) (*model.Ticker, error) {
	if s.ex == nil {
		return nil, exchange.ErrUnavailable
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cacheKey(symbol)).Bytes(); err == nil {
			var t model.Ticker
			if err := json.Unmarshal(raw, &t); err == nil {
				return &t, nil
			}
		}
	}

	ticker, err := s.ex.Ticker(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(ticker); err == nil {
			if err := s.cache.Set(ctx, s.cacheKey(symbol), raw, tickerCacheTTL).Err(); err != nil {
				logger.Warnf("ticker cache set failed: %v", err)
			}
		}
	}
	return ticker, nil
}
