package api

import (
	"alertflow/conf"
	"alertflow/internal/exchange"
	"alertflow/internal/exchange/binance"
	"alertflow/internal/handler/futures"
	"alertflow/internal/handler/ticker"
	"alertflow/internal/handler/webhook"
	"alertflow/internal/router"
	"alertflow/internal/service"
	"alertflow/pkg/cache"
	"alertflow/pkg/kafka"
	"alertflow/pkg/logger"
	"alertflow/pkg/notify"
)

// InitRouter 组装交易所适配器、服务和各个handler。
// producer可以为nil，表示不发布订单事件
func InitRouter(producer kafka.ProducerService) Router {
	appCfg := conf.AppConfig

	// API密钥缺失时适配器为nil，交易接口统一返回503，webhook转发不受影响
	var ex exchange.Exchange
	if appCfg.Binance.ApiKey != "" && appCfg.Binance.SecretKey != "" {
		ex = binance.NewClient(appCfg.Binance.ApiKey, appCfg.Binance.SecretKey, appCfg.Binance.Testnet)
		if appCfg.Binance.Testnet {
			logger.Infof("币安适配器使用测试网")
		}
	} else {
		logger.Warnf("币安API密钥未配置，交易接口不可用")
	}

	futuresService := service.NewFuturesService(ex, producer)
	tickerService := service.NewTickerService(ex, cache.GetRedisClient())

	futuresHandler := futures.NewHandler(futuresService, appCfg.Batch)
	tickerHandler := ticker.NewHandler(tickerService)

	ding := notify.NewDingTalkClient()
	dingRouter := notify.Router{
		Default: appCfg.DingTalk.Default,
		BTC:     appCfg.DingTalk.BTC,
		ETH:     appCfg.DingTalk.ETH,
	}
	webhookHandler := webhook.NewHandler(ding, dingRouter)

	return router.NewApiRouter(futuresHandler, tickerHandler, webhookHandler)
}
