package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/common/tracing"
)

// Config 全局配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lmstfy    LmstfyConfig    `mapstructure:"lmstfy"`
	RateTable RateTableConfig `mapstructure:"rate_table"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
	Workers   []WorkerConfig  `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig Redis 配置（为空时不订阅费率表更新）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// RateTableConfig 费率表来源
// Endpoint 与 File 二选一，File 优先（本地联调用）
type RateTableConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	File           string        `mapstructure:"file"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`       // 广播丢失时的兜底刷新周期，0 表示只靠广播
	RefreshChannel string        `mapstructure:"refresh_channel"` // Redis 广播频道
}

// PricingConfig 计费规则覆盖
type PricingConfig struct {
	Rules          pricing.Rules         `mapstructure:"rules"`
	NorthEastBands []pricing.PincodeBand `mapstructure:"north_east_bands"`
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name          string           `mapstructure:"name"`
	QueueName     string           `mapstructure:"queue_name"`
	CallbackQueue string           `mapstructure:"callback_queue"` // 回调队列名称
	MaxItems      int              `mapstructure:"max_items"`      // 单批最大条数，0 不限制
	Subscriber    SubscriberConfig `mapstructure:"subscriber"`
	Processor     ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// Load 加载配置文件
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

	cfg.applyWorkerDefaults()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("lmstfy.port", 7777)
	v.SetDefault("rate_table.timeout", 5*time.Second)
	v.SetDefault("rate_table.cache_ttl", 5*time.Minute)
	v.SetDefault("rate_table.refresh_channel", model.ChannelRateTableUpdated)
}

// applyWorkerDefaults 未配置的调优参数使用默认值
func (c *Config) applyWorkerDefaults() {
	for i := range c.Workers {
		w := &c.Workers[i]
		if w.Subscriber.Threads <= 0 {
			w.Subscriber.Threads = 1
		}
		if w.Subscriber.Timeout <= 0 {
			w.Subscriber.Timeout = 3 * time.Second
		}
		if w.Subscriber.TTR <= 0 {
			w.Subscriber.TTR = 30 * time.Second
		}
		if w.Subscriber.ErrorBackoff <= 0 {
			w.Subscriber.ErrorBackoff = time.Second
		}
		if w.Processor.Threads <= 0 {
			w.Processor.Threads = 1
		}
		if w.Processor.BufferSize < 0 {
			w.Processor.BufferSize = 0
		}
		if w.Processor.Timeout <= 0 {
			w.Processor.Timeout = 30 * time.Second
		}
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if c.RateTable.Endpoint == "" && c.RateTable.File == "" {
		return fmt.Errorf("rate_table.endpoint or rate_table.file is required")
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	for _, w := range c.Workers {
		if w.QueueName == "" {
			return fmt.Errorf("worker %q: queue_name is required", w.Name)
		}
		if w.CallbackQueue == "" {
			return fmt.Errorf("worker %q: callback_queue is required", w.Name)
		}
	}
	for _, b := range c.Pricing.NorthEastBands {
		if b.From > b.To {
			return fmt.Errorf("pricing.north_east_bands: from %d > to %d", b.From, b.To)
		}
	}
	return nil
}
