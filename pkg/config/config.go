package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	APIKey      string `yaml:"api_key"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TicksTopic   string   `yaml:"ticks_topic"`
		NewsTopic    string   `yaml:"news_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	RateStream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Pairs          []string      `yaml:"pairs"`
		Backend        string        `yaml:"backend"` // kafka or clickhouse
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"rate_stream"`
	Features struct {
		Pairs             []string `yaml:"pairs"`
		LookbackMinutes   int      `yaml:"lookback_minutes"`
		EventHorizonHours int      `yaml:"event_horizon_hours"`
		Cron              string   `yaml:"cron"`
	} `yaml:"features"`
	News struct {
		Enabled       bool   `yaml:"enabled"`
		Cron          string `yaml:"cron"`
		LookbackHours int    `yaml:"lookback_hours"`
		Sources       []struct {
			Name   string `yaml:"name"`
			Type   string `yaml:"type"` // rss or json
			URL    string `yaml:"url"`
			APIKey string `yaml:"api_key"`
		} `yaml:"sources"`
	} `yaml:"news"`
	LLM struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		Temperature float64       `yaml:"temperature"`
		MaxTokens   int           `yaml:"max_tokens"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxRPS      float64       `yaml:"max_rps"`
	} `yaml:"llm"`
	Models struct {
		ServiceURL     string        `yaml:"service_url"`
		Timeout        time.Duration `yaml:"timeout"`
		DefaultModelID string        `yaml:"default_model_id"`
	} `yaml:"models"`
	Decision struct {
		Policy         string  `yaml:"policy"` // expected or prob
		SpreadBps      float64 `yaml:"spread_bps"`
		ProbThreshold  float64 `yaml:"prob_threshold"`
		EmbargoMinutes int     `yaml:"embargo_minutes"`
	} `yaml:"decision"`
	Hybrid struct {
		Enabled             bool          `yaml:"enabled"`
		MaxLLMWeight        float64       `yaml:"max_llm_weight"`
		MinConfidence       float64       `yaml:"min_confidence"`
		HighImpactThreshold float64       `yaml:"high_impact_threshold"`
		CacheTTL            time.Duration `yaml:"cache_ttl"`
		LookbackHours       int           `yaml:"lookback_hours"`
	} `yaml:"hybrid"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Env names match the deployment conventions of the forecasting stack.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("DEFAULT_MODEL_ID"); v != "" {
		c.Models.DefaultModelID = v
	}
	if v := os.Getenv("DECISION_POLICY"); v != "" {
		c.Decision.Policy = strings.ToLower(v)
	}
	if v := os.Getenv("DECISION_SPREAD_BPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Decision.SpreadBps = f
		}
	}
	if v := os.Getenv("DECISION_PROB_TH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Decision.ProbThreshold = f
		}
	}
	if v := os.Getenv("DECISION_EMBARGO_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Decision.EmbargoMinutes = n
		}
	}
	if v := os.Getenv("ENABLE_LLM_FUSION"); v != "" {
		c.Hybrid.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("LLM_MAX_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Hybrid.MaxLLMWeight = f
		}
	}
	if v := os.Getenv("LLM_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Hybrid.MinConfidence = f
		}
	}
	if v := os.Getenv("LLM_HIGH_IMPACT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Hybrid.HighImpactThreshold = f
		}
	}
	if v := os.Getenv("LLM_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Hybrid.CacheTTL = time.Duration(n) * time.Second
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Decision.Policy == "" {
		c.Decision.Policy = "expected"
	}
	if c.Decision.SpreadBps == 0 {
		c.Decision.SpreadBps = 2.0
	}
	if c.Decision.ProbThreshold == 0 {
		c.Decision.ProbThreshold = 0.6
	}
	if c.Hybrid.MaxLLMWeight == 0 {
		c.Hybrid.MaxLLMWeight = 0.4
	}
	if c.Hybrid.MinConfidence == 0 {
		c.Hybrid.MinConfidence = 0.3
	}
	if c.Hybrid.HighImpactThreshold == 0 {
		c.Hybrid.HighImpactThreshold = 7.0
	}
	if c.Hybrid.CacheTTL == 0 {
		c.Hybrid.CacheTTL = 5 * time.Minute
	}
	if c.Hybrid.LookbackHours == 0 {
		c.Hybrid.LookbackHours = 1
	}
	if c.Features.LookbackMinutes == 0 {
		c.Features.LookbackMinutes = 360
	}
	if c.Features.EventHorizonHours == 0 {
		c.Features.EventHorizonHours = 48
	}
	if c.News.LookbackHours == 0 {
		c.News.LookbackHours = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Decision.Policy != "expected" && c.Decision.Policy != "prob" {
		return fmt.Errorf("decision.policy must be 'expected' or 'prob', got '%s'", c.Decision.Policy)
	}
	if c.Hybrid.MaxLLMWeight < 0 || c.Hybrid.MaxLLMWeight > 1 {
		return fmt.Errorf("hybrid.max_llm_weight must be in [0,1]")
	}
	if c.RateStream.Enabled {
		if len(c.RateStream.Pairs) == 0 {
			return fmt.Errorf("rate_stream.pairs cannot be empty")
		}
		if c.RateStream.Backend != "kafka" && c.RateStream.Backend != "clickhouse" {
			return fmt.Errorf("rate_stream.backend must be 'kafka' or 'clickhouse', got '%s'", c.RateStream.Backend)
		}
	}
	return nil
}
