package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"lobook.com/internal/matching"
)

// Config 对应 config/lobook.yaml
type Config struct {
	Name string `mapstructure:"name"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"` // 为空只写 stdout
	} `mapstructure:"log"`

	Engine struct {
		MailboxSize int     `mapstructure:"mailbox_size"`
		BatchMax    int     `mapstructure:"batch_max"`
		RatePerSec  float64 `mapstructure:"rate_per_sec"`
		Burst       int     `mapstructure:"burst"`
	} `mapstructure:"engine"`

	Metrics struct {
		Addr string `mapstructure:"addr"` // 例如 127.0.0.1:9100，为空不启动
	} `mapstructure:"metrics"`

	Trace struct {
		Exporter string `mapstructure:"exporter"` // "" / stdout / otlp
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"trace"`

	Scenario []Step `mapstructure:"scenario"`
}

// 场景里的一步
const (
	OpLimit     = "limit"      // 只挂单
	OpFillLimit = "fill_limit" // 同价撮合，剩余挂单
	OpMarket    = "market"     // 市价吃单，剩余丢弃
)

type Step struct {
	Op    string `mapstructure:"op"`
	Side  string `mapstructure:"side"`
	Price string `mapstructure:"price"` // 字符串，避免 yaml 把价格解析成 float
	Qty   string `mapstructure:"qty"`
}

// Defaults 未配置的字段给默认值
func (c *Config) Defaults() {
	if c.Name == "" {
		c.Name = "lobook"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Engine.MailboxSize <= 0 {
		c.Engine.MailboxSize = 4096
	}
	if c.Engine.BatchMax <= 0 {
		c.Engine.BatchMax = 256
	}
}

// Parsed 解析后的场景步骤
type Parsed struct {
	Op    string
	Side  matching.Side
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// Parse 校验并解析一步，市价单不需要价格
func (s Step) Parse() (Parsed, error) {
	var p Parsed
	p.Op = strings.ToLower(strings.TrimSpace(s.Op))
	switch p.Op {
	case OpLimit, OpFillLimit, OpMarket:
	default:
		return p, fmt.Errorf("unknown op %q", s.Op)
	}

	side, err := matching.ParseSide(s.Side)
	if err != nil {
		return p, err
	}
	p.Side = side

	if p.Qty, err = decimal.NewFromString(s.Qty); err != nil {
		return p, fmt.Errorf("qty %q: %w", s.Qty, err)
	}
	if p.Op != OpMarket {
		if p.Price, err = decimal.NewFromString(s.Price); err != nil {
			return p, fmt.Errorf("price %q: %w", s.Price, err)
		}
	}
	return p, nil
}

// Validate 在启动前把所有步骤解析一遍，尽早报错
func (c *Config) Validate() error {
	switch c.Trace.Exporter {
	case "", "stdout":
	case "otlp":
		if c.Trace.Endpoint == "" {
			return fmt.Errorf("trace: otlp exporter needs an endpoint")
		}
	default:
		return fmt.Errorf("trace: unknown exporter %q", c.Trace.Exporter)
	}
	for i, s := range c.Scenario {
		if _, err := s.Parse(); err != nil {
			return fmt.Errorf("scenario[%d]: %w", i, err)
		}
	}
	return nil
}
