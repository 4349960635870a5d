package conf

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

// 配置加载（API密钥、钉钉webhook等），启动时一次性读入，
// 请求处理过程中不做任何全局配置查找

type BinanceConfig struct {
	ApiKey    string `yaml:"apiKey"`
	SecretKey string `yaml:"secretKey"`
	Testnet   bool   `yaml:"testnet"` // 是否使用币安测试网
}

// 钉钉机器人webhook，按告警内容分群推送
type DingTalkConfig struct {
	Default string `yaml:"default"` // 默认群
	BTC     string `yaml:"btc"`     // BTC相关告警群
	ETH     string `yaml:"eth"`     // ETH相关告警群
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Addr         string `yaml:"address"`
	Password     string `yaml:"password"`
	Db           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool-size"`
	MinIdleConns int    `yaml:"min-idle-conns"`
	IdleTimeout  int    `yaml:"idle-timeout"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
}

// 分批下单的全局限制
type BatchConfig struct {
	MaxCount           int `yaml:"max-count"`            // 单笔请求允许的最大分批数
	MaxDurationMinutes int `yaml:"max-duration-minutes"` // 允许的最长分批时长
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	Language     string `yaml:"language"`
	MaxPingCount int    `yaml:"max-ping-count"`

	Binance  BinanceConfig  `yaml:"binance"`
	DingTalk DingTalkConfig `yaml:"dingtalk"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Batch    BatchConfig    `yaml:"batch"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	return nil
}
