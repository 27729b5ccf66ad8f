/*
config.go - Application configuration

PURPOSE:
  Central configuration for the insight engine. Tunables load from an
  optional insight.yaml in the working directory, overridden by environment
  variables, with sensible local-dev defaults so the binary runs with zero
  configuration.

ENVIRONMENT VARIABLES (prefix FPX_):
  FPX_SERVER_ADDR           Listen address          (default :8080)
  FPX_DB_PATH               SQLite database path    (default insight.db)
  FPX_LLM_API_KEY           Provider API key        (required for real runs)
  FPX_LLM_BASE_URL          Override provider URL   (default empty = OpenAI)
  FPX_LLM_MODEL             Model name              (default gpt-4o-mini)
  FPX_LLM_TEMPERATURE       Sampling temperature    (default 0.7)
  FPX_LLM_MAX_TOKENS        Completion token cap    (default 0 = provider max)
  FPX_REPORT_COST           Credits per report      (default 250)
  FPX_REPORT_LOOKBACK_DAYS  Record window           (default 60)
  FPX_REPORT_GEN_TIMEOUT    Generation timeout      (default 2m)
  FPX_CREDITS_MONTHLY_PLAN  Monthly grant amount    (default 1000)
  FPX_ACCRUAL_ENABLED       Run the accrual loop    (default true)
  FPX_ACCRUAL_INTERVAL      Accrual check interval  (default 1h)
  FPX_LOG_LEVEL             zerolog level string    (default info)
  FPX_LOG_PRETTY            Console-format logs     (default false)

SEE ALSO:
  - cmd/server/main.go: Consumes this at startup
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	LLM     LLMConfig
	Report  ReportConfig
	Credits CreditsConfig
	Log     LogConfig
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Path string
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

type ReportConfig struct {
	Cost              int64
	LookbackDays      int
	GenerationTimeout time.Duration
}

type CreditsConfig struct {
	MonthlyPlan     int64
	AccrualEnabled  bool
	AccrualInterval time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load resolves configuration from an optional insight.yaml in the working
// directory, overridden by FPX_-prefixed environment variables.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FPX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("insight")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute) // Generation can be slow
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("db.path", "insight.db")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 0)

	v.SetDefault("report.cost", int64(250))
	v.SetDefault("report.lookback_days", 60)
	v.SetDefault("report.gen_timeout", 2*time.Minute)

	v.SetDefault("credits.monthly_plan", int64(1000))
	v.SetDefault("accrual.enabled", true)
	v.SetDefault("accrual.interval", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	cfg := Config{
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		DB: DBConfig{
			Path: v.GetString("db.path"),
		},
		LLM: LLMConfig{
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Report: ReportConfig{
			Cost:              v.GetInt64("report.cost"),
			LookbackDays:      v.GetInt("report.lookback_days"),
			GenerationTimeout: v.GetDuration("report.gen_timeout"),
		},
		Credits: CreditsConfig{
			MonthlyPlan:     v.GetInt64("credits.monthly_plan"),
			AccrualEnabled:  v.GetBool("accrual.enabled"),
			AccrualInterval: v.GetDuration("accrual.interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Report.Cost <= 0 {
		return fmt.Errorf("report cost must be positive, got %d", c.Report.Cost)
	}
	if c.Report.LookbackDays <= 0 {
		return fmt.Errorf("lookback days must be positive, got %d", c.Report.LookbackDays)
	}
	if c.Credits.MonthlyPlan < 0 {
		return fmt.Errorf("monthly plan must not be negative, got %d", c.Credits.MonthlyPlan)
	}
	return nil
}
