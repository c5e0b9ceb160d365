package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Engine struct {
		Pair                string        `yaml:"pair" default:"EUR/USD"`
		Interval            string        `yaml:"interval" default:"1m" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
		LookbackWindow      int           `yaml:"lookback_window" default:"100" validate:"gte=50,lte=500"`
		AnalysisInterval    time.Duration `yaml:"analysis_interval" default:"2m"`
		FetchMode           string        `yaml:"fetch_mode" default:"sequential" validate:"oneof=sequential parallel"`
		SourceTimeout       time.Duration `yaml:"source_timeout" default:"10s"`
		FetchAttempts       int           `yaml:"fetch_attempts" default:"2" validate:"gte=1,lte=5"`
		TradingHoursEnabled bool          `yaml:"trading_hours_enabled" default:"true"`
		TradingStartHour    int           `yaml:"trading_start_hour" default:"0" validate:"gte=0,lte=23"`
		TradingEndHour      int           `yaml:"trading_end_hour" default:"23" validate:"gte=0,lte=23"`
	} `yaml:"engine"`
	Thresholds struct {
		MinBuyScore               float64 `yaml:"min_buy_score" default:"60" validate:"gt=50,lte=100"`
		MaxSellScore              float64 `yaml:"max_sell_score" default:"40" validate:"gte=0,lt=50"`
		MinConfidence             float64 `yaml:"min_confidence" default:"65" validate:"gte=0,lte=100"`
		MinConfirmations          int     `yaml:"min_confirmations" default:"4" validate:"gte=2,lte=6"`
		TrendTierDiscount         int     `yaml:"trend_tier_discount" default:"1" validate:"gte=0,lte=2"`
		RSIOversold               float64 `yaml:"rsi_oversold" default:"35"`
		RSIOverbought             float64 `yaml:"rsi_overbought" default:"65"`
		BBOversold                float64 `yaml:"bb_oversold" default:"25"`
		BBOverbought              float64 `yaml:"bb_overbought" default:"75"`
		StochOversold             float64 `yaml:"stoch_oversold" default:"25"`
		StochOverbought           float64 `yaml:"stoch_overbought" default:"75"`
		ADXTrendFloor             float64 `yaml:"adx_trend_floor" default:"25"`
		MACDStrongThreshold       float64 `yaml:"macd_strong_threshold" default:"0.0001"`
		MomentumLookback          int     `yaml:"momentum_lookback" default:"3" validate:"gte=1,lte=20"`
		MomentumDeadBandPct       float64 `yaml:"momentum_dead_band_pct" default:"0.01"`
		MomentumPenaltyScore      float64 `yaml:"momentum_penalty_score" default:"7"`
		MomentumPenaltyConfidence float64 `yaml:"momentum_penalty_confidence" default:"5"`
		AdaptiveThresholds        bool    `yaml:"adaptive_thresholds" default:"true"`
		VolumeBonus               bool    `yaml:"volume_bonus" default:"true"`
	} `yaml:"thresholds"`
	Risk struct {
		ATRStopMultiplier float64 `yaml:"atr_stop_multiplier" default:"2.0" validate:"gt=0"`
		RewardRiskRatio   float64 `yaml:"reward_risk_ratio" default:"1.8" validate:"gt=0"`
	} `yaml:"risk"`
	Advisory struct {
		Enabled  bool          `yaml:"enabled" default:"false"`
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
		JoinWait time.Duration `yaml:"join_wait" default:"500ms"`
		Weight   float64       `yaml:"weight" default:"0.35" validate:"gte=0,lte=1"`
	} `yaml:"advisory"`
	Cache struct {
		Backend             string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		CandleMaxEntries    int           `yaml:"candle_max_entries" default:"10"`
		IndicatorTTL        time.Duration `yaml:"indicator_ttl" default:"30s"`
		IndicatorMaxEntries int           `yaml:"indicator_max_entries" default:"5"`
		TTLVolatile         time.Duration `yaml:"ttl_volatile" default:"30s"`
		TTLNormal           time.Duration `yaml:"ttl_normal" default:"90s"`
		TTLCalm             time.Duration `yaml:"ttl_calm" default:"180s"`
		HighVolPct          float64       `yaml:"high_vol_pct" default:"0.15"`
		LowVolPct           float64       `yaml:"low_vol_pct" default:"0.05"`
		Redis               struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"sigpulse"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Pacing struct {
		MaxSignalsPerHour int `yaml:"max_signals_per_hour" default:"12" validate:"gte=1"`
	} `yaml:"pacing"`
	Sources struct {
		TwelveData struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://api.twelvedata.com"`
		} `yaml:"twelvedata"`
		AlphaVantage struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://www.alphavantage.co"`
		} `yaml:"alphavantage"`
		Binance struct {
			BaseURL     string `yaml:"base_url" default:"https://api.binance.com"`
			ProxySymbol string `yaml:"proxy_symbol" default:"EURUSDT"`
		} `yaml:"binance"`
	} `yaml:"sources"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled" default:"false"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"signals"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled" default:"false"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"sigpulse"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults and
// validates ranges.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// Default returns a config entirely from default tags. Used in tests.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
		c.Sources.TwelveData.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_KEY"); v != "" {
		c.Sources.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("PAIR"); v != "" {
		c.Engine.Pair = v
	}
	if v := os.Getenv("ADVISORY_URL"); v != "" {
		c.Advisory.URL = v
		c.Advisory.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}

	return c, nil
}

// Validate checks structural and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Thresholds.MaxSellScore >= c.Thresholds.MinBuyScore {
		return fmt.Errorf("max_sell_score (%.1f) must be below min_buy_score (%.1f)",
			c.Thresholds.MaxSellScore, c.Thresholds.MinBuyScore)
	}
	if !strings.Contains(c.Engine.Pair, "/") {
		return fmt.Errorf("pair must be BASE/QUOTE, got %q", c.Engine.Pair)
	}
	if c.Advisory.Enabled && c.Advisory.URL == "" {
		return fmt.Errorf("advisory.url is required when advisory is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
