package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/common/tracing"
)

// Config 应用配置
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Server  ServerConfig   `mapstructure:"server"`
	MySQL   MySQLConfig    `mapstructure:"mysql"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Lmstfy  LmstfyConfig   `mapstructure:"lmstfy"`
	Pricing PricingConfig  `mapstructure:"pricing"`
	Batch   BatchConfig    `mapstructure:"batch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	MachineID int64  `mapstructure:"machine_id"` // 雪花 ID 机器号 0-99
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MySQLConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"` // 启动时同步 rate_cards / quote_batches 表结构
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LmstfyConfig struct {
	Host          string        `mapstructure:"host"`
	Namespace     string        `mapstructure:"namespace"`
	Queue         string        `mapstructure:"queue"`
	CallbackQueue string        `mapstructure:"callback_queue"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"` // HTTP 请求超时
}

// PricingConfig 单笔报价使用的规则与费率表缓存
type PricingConfig struct {
	CacheTTL       time.Duration         `mapstructure:"cache_ttl"` // Redis 中当前费率表的过期时间
	Rules          pricing.Rules         `mapstructure:"rules"`
	NorthEastBands []pricing.PincodeBand `mapstructure:"north_east_bands"`
	RefreshChannel string                `mapstructure:"refresh_channel"`
}

// BatchConfig 批量报价
type BatchConfig struct {
	MaxItems    int           `mapstructure:"max_items"`
	DefaultWait time.Duration `mapstructure:"default_wait"` // 未传 wait 参数时的 Smart Wait 时长
	MaxWait     time.Duration `mapstructure:"max_wait"`
}

// Load 从配置文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	// 先填默认规则，配置文件只需覆盖变更项
	cfg := Config{Pricing: PricingConfig{Rules: pricing.DefaultRules()}}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// LoadDefault 加载默认配置文件路径
func LoadDefault() (*Config, error) {
	return Load("config/config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.machine_id", 1)
	v.SetDefault("server.port", "8080")
	v.SetDefault("lmstfy.timeout", 5*time.Second)
	v.SetDefault("pricing.cache_ttl", 10*time.Minute)
	v.SetDefault("pricing.refresh_channel", model.ChannelRateTableUpdated)
	v.SetDefault("batch.max_items", 500)
	v.SetDefault("batch.max_wait", 30*time.Second)
}

// Validate 验证配置完整性
func (c *Config) Validate() error {
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql dsn is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy host is required")
	}
	if c.Lmstfy.Token == "" {
		return fmt.Errorf("lmstfy token is required")
	}
	if c.Lmstfy.Queue == "" || c.Lmstfy.CallbackQueue == "" {
		return fmt.Errorf("lmstfy queue and callback_queue are required")
	}
	if c.Batch.DefaultWait > c.Batch.MaxWait {
		return fmt.Errorf("batch.default_wait %s exceeds batch.max_wait %s", c.Batch.DefaultWait, c.Batch.MaxWait)
	}
	for _, b := range c.Pricing.NorthEastBands {
		if b.From > b.To {
			return fmt.Errorf("pricing.north_east_bands: from %d > to %d", b.From, b.To)
		}
	}
	return nil
}
