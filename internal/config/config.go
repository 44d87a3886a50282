package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Bot      BotConfig      `mapstructure:"bot"`
	Backend  BackendConfig  `mapstructure:"backend"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Security SecurityConfig `mapstructure:"security"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Dialog   DialogConfig   `mapstructure:"dialog"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Prefix            string        `mapstructure:"prefix"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TelegramConfig configures the messenger transport.
// An empty WebhookURL switches the bot to long polling.
type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	WebhookURL    string `mapstructure:"webhook_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PollTimeout   int    `mapstructure:"poll_timeout"`
	Debug         bool   `mapstructure:"debug"`
}

func (c TelegramConfig) UseWebhook() bool {
	return c.WebhookURL != ""
}

// BotConfig holds texts and links shown by the dialogs
type BotConfig struct {
	Username          string `mapstructure:"username"`
	AgreementURL      string `mapstructure:"agreement_url"`
	PrivacyURL        string `mapstructure:"privacy_url"`
	DataProcessingURL string `mapstructure:"data_processing_url"`
}

// BackendConfig holds base URLs of the collaborator services
type BackendConfig struct {
	AccountsURL       string        `mapstructure:"accounts_url"`
	EmployeesURL      string        `mapstructure:"employees_url"`
	OrganizationsURL  string        `mapstructure:"organizations_url"`
	ContentURL        string        `mapstructure:"content_url"`
	InterserverSecret string        `mapstructure:"interserver_secret"`
	Timeout           time.Duration `mapstructure:"timeout"`
	HeavyTimeout      time.Duration `mapstructure:"heavy_timeout"`
}

type LLMConfig struct {
	DefaultProvider  string          `mapstructure:"default_provider"`
	Model            string          `mapstructure:"model"`
	SummaryModel     string          `mapstructure:"summary_model"`
	MaxTokens        int             `mapstructure:"max_tokens"`
	ThinkingTokens   int             `mapstructure:"thinking_tokens"`
	Temperature      float64         `mapstructure:"temperature"`
	EnableWebSearch  bool            `mapstructure:"enable_web_search"`
	ContextThreshold int             `mapstructure:"context_threshold"`
	OpenAI           OpenAIConfig    `mapstructure:"openai"`
	Anthropic        AnthropicConfig `mapstructure:"anthropic"`
	Gemini           GeminiConfig    `mapstructure:"gemini"`
	Ollama           OllamaConfig    `mapstructure:"ollama"`
	DeepSeek         DeepSeekConfig  `mapstructure:"deepseek"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type SecurityConfig struct {
	TokenEncryptionSecret string          `mapstructure:"token_encryption_secret"`
	RateLimit             RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// QueueConfig bounds the per-chat update lanes
type QueueConfig struct {
	MaxConcurrent int64 `mapstructure:"max_concurrent"`
	LaneSize      int   `mapstructure:"lane_size"`
}

type DialogConfig struct {
	StackTTL time.Duration `mapstructure:"stack_ttl"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	FilePath     string        `mapstructure:"file_path"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.Prefix = normalizePrefix(cfg.Server.Prefix)

	return &cfg, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	return "/" + strings.Trim(prefix, "/")
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.prefix", "/api/tg-bot")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.middleware_timeout", "60s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "smmbot")
	v.SetDefault("database.database", "smmbot")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	// Redis
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Telegram
	v.SetDefault("telegram.poll_timeout", 30)

	// Backend
	v.SetDefault("backend.accounts_url", "http://localhost:8001/api/account")
	v.SetDefault("backend.employees_url", "http://localhost:8002/api/employee")
	v.SetDefault("backend.organizations_url", "http://localhost:8003/api/organization")
	v.SetDefault("backend.content_url", "http://localhost:8004/api/content")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.heavy_timeout", "15m")

	// LLM
	v.SetDefault("llm.default_provider", "anthropic")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.max_tokens", 15000)
	v.SetDefault("llm.thinking_tokens", 0)
	v.SetDefault("llm.temperature", 1.0)
	v.SetDefault("llm.context_threshold", 30000)
	v.SetDefault("llm.ollama.default_model", "llama3")

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
	v.SetDefault("security.rate_limit.burst", 10)

	// Queue
	v.SetDefault("queue.max_concurrent", 64)
	v.SetDefault("queue.lane_size", 100)

	// Dialog
	v.SetDefault("dialog.stack_ttl", "720h")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.prefix", "SERVICE_PREFIX")
	v.BindEnv("server.port", "SERVER_PORT")

	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.port", "POSTGRES_PORT")
	v.BindEnv("database.user", "POSTGRES_USER")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")
	v.BindEnv("database.database", "POSTGRES_DB")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Telegram
	v.BindEnv("telegram.token", "TG_BOT_TOKEN")
	v.BindEnv("telegram.webhook_url", "TG_WEBHOOK_URL")
	v.BindEnv("telegram.webhook_secret", "TG_WEBHOOK_SECRET")

	// Bot
	v.BindEnv("bot.username", "TG_BOT_USERNAME")
	v.BindEnv("bot.agreement_url", "USER_AGREEMENT_URL")
	v.BindEnv("bot.privacy_url", "PRIVACY_POLICY_URL")
	v.BindEnv("bot.data_processing_url", "DATA_PROCESSING_URL")

	// Backend
	v.BindEnv("backend.accounts_url", "ACCOUNT_SERVICE_URL")
	v.BindEnv("backend.employees_url", "EMPLOYEE_SERVICE_URL")
	v.BindEnv("backend.organizations_url", "ORGANIZATION_SERVICE_URL")
	v.BindEnv("backend.content_url", "CONTENT_SERVICE_URL")
	v.BindEnv("backend.interserver_secret", "INTERSERVER_SECRET")

	// LLM
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.context_threshold", "LLM_CONTEXT_THRESHOLD")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Security
	v.BindEnv("security.token_encryption_secret", "TOKEN_ENCRYPTION_SECRET")
}
