package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"

	// DefaultAssistantID is the hosted assistant used when none is configured.
	DefaultAssistantID = "asst_P1ZorWdiyaKNI9LapQiwSsz7"
)

// Config aggregates the service configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	AI         AIConfig         `toml:"ai"`
	Chat       ChatConfig       `toml:"chat"`
	Database   DatabaseConfig   `toml:"database"`
	ImageProxy ImageProxyConfig `toml:"image_proxy"`
	Log        LogConfig        `toml:"log"`
}

// Load reads the optional TOML file named by CONFIG_FILE, then applies
// environment variables over it. Defaults fill whatever is still unset.
func Load() (*Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{SetDefaultsForZeroValuesOnly: true}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr
	cfg.Chat.Provider = strings.ToLower(strings.TrimSpace(cfg.Chat.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Chat.Provider {
	case ProviderOpenAI:
	case ProviderArk:
		if !c.AI.Enabled() {
			result = multierror.Append(result, fmt.Errorf("ASSISTANT_PROVIDER=ark requires ARK_MODEL and ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("invalid ASSISTANT_PROVIDER %q", c.Chat.Provider))
	}
	if c.Chat.PollInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("CHAT_POLL_INTERVAL must be positive"))
	}
	if c.Chat.Timeout < c.Chat.PollInterval {
		result = multierror.Append(result, fmt.Errorf("CHAT_TIMEOUT must not be shorter than CHAT_POLL_INTERVAL"))
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "pg", "postgresql", "sqlite", "sqlite3":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid DATABASE_DRIVER %q", c.Database.Driver))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid LOG_LEVEL %q", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" {
		result = multierror.Append(result, fmt.Errorf("invalid LOG_FORMAT %q", c.Log.Format))
	}
	if c.ImageProxy.MaxBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("IMAGE_PROXY_MAX_BYTES must be positive"))
	}

	return result.ErrorOrNil()
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port              string        `env:"PORT" envDefault:"8080" toml:"port"`
	Addr              string        `toml:"-"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*" toml:"allowed_origins"`
	PublicURL         string        `env:"PUBLIC_BASE_URL" toml:"public_url"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s" toml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" toml:"shutdown_timeout"`
}

// normalizeAddr accepts a bare port, ":port" or "host:port".
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	return ":" + port, nil
}

// OpenAIConfig holds the hosted assistant credentials.
type OpenAIConfig struct {
	APIKey      string `env:"OPENAI_API_KEY" toml:"api_key"`
	AssistantID string `env:"OPENAI_ASSISTANT_ID" envDefault:"asst_P1ZorWdiyaKNI9LapQiwSsz7" toml:"assistant_id"`
	BaseURL     string `env:"OPENAI_BASE_URL" toml:"base_url"`
	OrgID       string `env:"OPENAI_ORG_ID" toml:"org_id"`
}

// Enabled reports whether an API key was supplied.
func (c OpenAIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// AIConfig describes the Ark model used by the local assistant backend.
type AIConfig struct {
	APIKey      string   `env:"ARK_API_KEY" toml:"api_key"`
	AccessKey   string   `env:"ARK_ACCESS_KEY" toml:"access_key"`
	SecretKey   string   `env:"ARK_SECRET_KEY" toml:"secret_key"`
	Model       string   `env:"ARK_MODEL" toml:"model"`
	BaseURL     string   `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3" toml:"base_url"`
	Region      string   `env:"ARK_REGION" envDefault:"cn-beijing" toml:"region"`
	Temperature *float64 `env:"ARK_TEMPERATURE" toml:"temperature"`
	TopP        *float64 `env:"ARK_TOP_P" toml:"top_p"`
	MaxTokens   *int     `env:"ARK_MAX_TOKENS" toml:"max_tokens"`
	AgencyName  string   `env:"AGENCY_NAME" envDefault:"Nexus AI" toml:"agency_name"`

	// ThreadTTL and MaxThreads bound the in-memory conversations kept
	// for the Ark backend.
	ThreadTTL  time.Duration `env:"ARK_THREAD_TTL" envDefault:"30m" toml:"thread_ttl"`
	MaxThreads int           `env:"ARK_MAX_THREADS" envDefault:"10000" toml:"max_threads"`
}

// Enabled reports whether a model and a credential were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates the Ark chat model.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing, provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}

// ChatConfig selects the assistant backend and tunes exchange polling.
type ChatConfig struct {
	Provider     string        `env:"ASSISTANT_PROVIDER" envDefault:"openai" toml:"provider"`
	PollInterval time.Duration `env:"CHAT_POLL_INTERVAL" envDefault:"1s" toml:"poll_interval"`
	Timeout      time.Duration `env:"CHAT_TIMEOUT" envDefault:"60s" toml:"timeout"`
}

// DatabaseConfig points at the content database.
type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite" toml:"driver"`
	URL    string `env:"DATABASE_URL" envDefault:"file:help-center.db?_pragma=busy_timeout(5000)" toml:"url"`

	// SkipMigrations disables applying migrations at startup.
	SkipMigrations bool `env:"DATABASE_SKIP_MIGRATIONS" toml:"skip_migrations"`
}

// ImageProxyConfig tunes the image relay.
type ImageProxyConfig struct {
	AllowedHosts []string      `env:"IMAGE_PROXY_ALLOWED_HOSTS" envSeparator:"," toml:"allowed_hosts"`
	Timeout      time.Duration `env:"IMAGE_PROXY_TIMEOUT" envDefault:"15s" toml:"timeout"`
	MaxBytes     int64         `env:"IMAGE_PROXY_MAX_BYTES" envDefault:"20971520" toml:"max_bytes"`
	UserAgent    string        `env:"IMAGE_PROXY_USER_AGENT" toml:"user_agent"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" toml:"level"`
	Format string `env:"LOG_FORMAT" envDefault:"json" toml:"format"`
}
