package main

import (
	"log"
	"os"

	api "alertflow/cmd/alertflow"
	"alertflow/conf"
	"alertflow/internal/middleware"
	"alertflow/pkg/cache"
	"alertflow/pkg/kafka"
	"alertflow/pkg/logger"
)

// 启动服务（接收TradingView告警并代理币安合约接口）

/*
测试

curl -X POST http://localhost:8000/webhook/tradingview \
  -H "Content-Type: application/json" \
  -d '{"symbol":"BTCUSD.P","side":"buy","price":45000,"message":"突破进场"}'

curl -X POST http://localhost:8000/api/futures/order \
  -H "Content-Type: application/json" \
  -d '{"symbol":"BTCUSDT","side":"buy","type":"limit","amount":0.01,"price":45000,"leverage":10}'
*/

func main() {

	// 加载配置文件
	err := conf.LoadConfig("conf/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appCfg := &conf.AppConfig
	logger.InitLogger(&appCfg.Log, appCfg.AppName)
	defer logger.Sync()

	// 密钥优先走环境变量，配置文件只作为本地开发兜底
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		appCfg.Binance.ApiKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		appCfg.Binance.SecretKey = v
	}

	// redis缓存可选，连不上只降级不退出
	if appCfg.Redis.Addr != "" {
		if err := cache.InitRedis(appCfg.Redis); err != nil {
			logger.Warnf("redis初始化失败，行情缓存关闭: %v", err)
		}
	}

	// kafka订单事件可选
	var producer kafka.ProducerService
	if appCfg.Kafka.Broker != "" {
		producer = kafka.NewKafkaProducer(appCfg.Kafka.Broker)
	}

	// 创建并启动服务
	srv := api.NewServer(appCfg)
	srv.RegisterOnShutdown(func() {
		if producer != nil {
			producer.Close()
		}
		cache.CloseRedis()
	})
	srvRouter := api.InitRouter(producer)

	srv.Run(middleware.NewMiddleware(), srvRouter)
}
