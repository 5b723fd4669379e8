package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Sources   SourcesConfig   `yaml:"sources"`
	Predictor PredictorConfig `yaml:"predictor"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	API       APIConfig       `yaml:"api"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Report    ReportConfig    `yaml:"report"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	File   string `yaml:"file"`   // optional JSON log file
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`      // "postgres" or "sqlite"
	SQLitePath string `yaml:"sqlite_path"` // ":memory:" is allowed
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // how long source payloads stay cached
}

type SourcesConfig struct {
	Enabled         []string        `yaml:"enabled"` // fixtures, odds, tips
	UserAgent       string          `yaml:"user_agent"`
	Timeout         time.Duration   `yaml:"timeout"`
	RateLimit       float64         `yaml:"rate_limit"` // requests per second per host
	Burst           int             `yaml:"burst"`
	BreakerFailures uint32          `yaml:"breaker_failures"` // consecutive failures before the breaker opens
	BreakerTimeout  time.Duration   `yaml:"breaker_timeout"`
	Fixtures        APISourceConfig `yaml:"fixtures"`
	Odds            APISourceConfig `yaml:"odds"`
	Tips            TipsConfig      `yaml:"tips"`
}

type APISourceConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Leagues []string `yaml:"leagues"`
	Regions string   `yaml:"regions"` // odds feed only
}

type TipsConfig struct {
	URL          string        `yaml:"url"`
	Headless     bool          `yaml:"headless"`
	WaitSelector string        `yaml:"wait_selector"`
	Timeout      time.Duration `yaml:"timeout"`
}

type PredictorConfig struct {
	EdgeThreshold       float64       `yaml:"edge_threshold"`       // value mode: minimum model-market edge
	ConfidenceThreshold float64       `yaml:"confidence_threshold"` // value mode: minimum model probability
	MinConfidence       int           `yaml:"min_confidence"`       // weighted mode: 0..100
	HomeAdvantage       float64       `yaml:"home_advantage"`
	Workers             int           `yaml:"workers"`
	Weights             WeightsConfig `yaml:"weights"`
}

type WeightsConfig struct {
	Form       float64 `yaml:"form"`
	HomeAway   float64 `yaml:"home_away"`
	HeadToHead float64 `yaml:"head_to_head"`
	Injury     float64 `yaml:"injury"`
	League     float64 `yaml:"league"`
}

// Sum returns the total weight.
func (w WeightsConfig) Sum() float64 {
	return w.Form + w.HomeAway + w.HeadToHead + w.Injury + w.League
}

type SchedulerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Cron       string        `yaml:"cron"`
	Timezone   string        `yaml:"timezone"`
	RunOnStart bool          `yaml:"run_on_start"`
	RunTimeout time.Duration `yaml:"run_timeout"`
}

type APIConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RunTimeout        time.Duration `yaml:"run_timeout"` // bounds POST /runs; defaults to scheduler.run_timeout
	CORSOrigins       []string      `yaml:"cors_origins"`
	RateLimit         float64       `yaml:"rate_limit"` // requests per second per client IP
	Burst             int           `yaml:"burst"`
}

type TelegramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BotToken      string `yaml:"bot_token"`
	ChatID        int64  `yaml:"chat_id"`
	MinConfidence int    `yaml:"min_confidence"` // only alert at or above this confidence
	TestOnStart   bool   `yaml:"test_on_start"`  // send a test alert when the service starts
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ReportConfig struct {
	OutDir  string   `yaml:"out_dir"`
	Formats []string `yaml:"formats"` // html, csv
}

// Load reads the YAML config, applies .env and environment overrides,
// fills defaults and validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes the same way Load does.
func Parse(data []byte) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			c.Telegram.ChatID = chatID
		}
	}
	if key := os.Getenv("FIXTURES_API_KEY"); key != "" {
		c.Sources.Fixtures.APIKey = key
	}
	if key := os.Getenv("ODDS_API_KEY"); key != "" {
		c.Sources.Odds.APIKey = key
	}
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Storage.Driver == "" {
		if c.Postgres.DSN != "" {
			c.Storage.Driver = "postgres"
		} else {
			c.Storage.Driver = "sqlite"
		}
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "footytips.db"
	}

	if c.Redis.TTL <= 0 {
		c.Redis.TTL = 15 * time.Minute
	}

	if len(c.Sources.Enabled) == 0 {
		c.Sources.Enabled = []string{"fixtures", "odds"}
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = "footytips/1.0"
	}
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 15 * time.Second
	}
	if c.Sources.RateLimit <= 0 {
		c.Sources.RateLimit = 2
	}
	if c.Sources.Burst <= 0 {
		c.Sources.Burst = 4
	}
	if c.Sources.BreakerFailures == 0 {
		c.Sources.BreakerFailures = 5
	}
	if c.Sources.BreakerTimeout <= 0 {
		c.Sources.BreakerTimeout = 60 * time.Second
	}
	if c.Sources.Odds.Regions == "" {
		c.Sources.Odds.Regions = "eu,uk"
	}
	if c.Sources.Tips.WaitSelector == "" {
		c.Sources.Tips.WaitSelector = "table"
	}
	if c.Sources.Tips.Timeout <= 0 {
		c.Sources.Tips.Timeout = 45 * time.Second
	}

	p := &c.Predictor
	if p.EdgeThreshold == 0 {
		p.EdgeThreshold = 0.08
	}
	if p.ConfidenceThreshold == 0 {
		p.ConfidenceThreshold = 0.65
	}
	if p.MinConfidence == 0 {
		p.MinConfidence = 60
	}
	if p.HomeAdvantage == 0 {
		p.HomeAdvantage = 1.10
	}
	if p.Workers == 0 {
		p.Workers = 4
	}
	if p.Weights == (WeightsConfig{}) {
		p.Weights = WeightsConfig{Form: 0.30, HomeAway: 0.25, HeadToHead: 0.20, Injury: 0.15, League: 0.10}
	}

	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = "0 */6 * * *"
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "UTC"
	}
	if c.Scheduler.RunTimeout <= 0 {
		c.Scheduler.RunTimeout = 10 * time.Minute
	}

	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.API.ReadHeaderTimeout <= 0 {
		c.API.ReadHeaderTimeout = 5 * time.Second
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = 60 * time.Second
	}
	if c.API.RunTimeout <= 0 {
		c.API.RunTimeout = c.Scheduler.RunTimeout
	}
	if len(c.API.CORSOrigins) == 0 {
		c.API.CORSOrigins = []string{"*"}
	}
	if c.API.RateLimit <= 0 {
		c.API.RateLimit = 10
	}
	if c.API.Burst <= 0 {
		c.API.Burst = 20
	}

	if c.Telegram.MinConfidence == 0 {
		c.Telegram.MinConfidence = 75
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "footytips.recommendations"
	}

	if c.Report.OutDir == "" {
		c.Report.OutDir = "reports"
	}
	if len(c.Report.Formats) == 0 {
		c.Report.Formats = []string{"html", "csv"}
	}
}

// Validate rejects knobs outside their meaningful range.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	switch c.Storage.Driver {
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required when storage.driver is postgres")
		}
	case "sqlite":
	default:
		return fmt.Errorf("storage.driver must be one of: postgres, sqlite")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	p := c.Predictor
	if p.EdgeThreshold <= 0 || p.EdgeThreshold >= 1 {
		return fmt.Errorf("predictor.edge_threshold must be between 0.0 and 1.0")
	}
	if p.ConfidenceThreshold <= 0 || p.ConfidenceThreshold >= 1 {
		return fmt.Errorf("predictor.confidence_threshold must be between 0.0 and 1.0")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		return fmt.Errorf("predictor.min_confidence must be between 0 and 100")
	}
	if p.HomeAdvantage <= 0 {
		return fmt.Errorf("predictor.home_advantage must be positive")
	}
	if p.Workers < 1 {
		return fmt.Errorf("predictor.workers must be at least 1")
	}
	w := p.Weights
	if w.Form < 0 || w.HomeAway < 0 || w.HeadToHead < 0 || w.Injury < 0 || w.League < 0 {
		return fmt.Errorf("predictor.weights must not be negative")
	}
	if math.Abs(w.Sum()-1) > 0.01 {
		return fmt.Errorf("predictor.weights must sum to 1.0, got %.3f", w.Sum())
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}

	for _, f := range c.Report.Formats {
		if f != "html" && f != "csv" {
			return fmt.Errorf("report.formats must contain only html or csv, got %q", f)
		}
	}
	return nil
}
