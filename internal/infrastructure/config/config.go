package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"recipe-assistant/internal/pkg/common"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Spoonacular SpoonacularConfig `mapstructure:"spoonacular"`
	YouTube     YouTubeConfig     `mapstructure:"youtube"`
	Invidious   InvidiousConfig   `mapstructure:"invidious"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Persist     PersistConfig     `mapstructure:"persist"`
	Resolver    ResolverConfig    `mapstructure:"resolver"`
	Tools       ToolsConfig       `mapstructure:"tools"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	RandomSeed  int64             `mapstructure:"random_seed"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// LLMConfig 語言模型設定
type LLMConfig struct {
	Provider    string           `mapstructure:"provider"` // gemini | openrouter | none
	Temperature float32          `mapstructure:"temperature"`
	MaxTokens   int              `mapstructure:"max_tokens"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Gemini      GeminiConfig     `mapstructure:"gemini"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SpoonacularConfig 食材圖片服務設定
type SpoonacularConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// YouTubeConfig YouTube 直連設定
type YouTubeConfig struct {
	Cookie        string `mapstructure:"cookie"`
	BaseURL       string `mapstructure:"base_url"`
	OEmbedURL     string `mapstructure:"oembed_url"`
	ClientVersion string `mapstructure:"client_version"`
}

// InvidiousConfig Invidious 鏡像設定
type InvidiousConfig struct {
	InstancesURL     string `mapstructure:"instances_url"`
	FallbackInstance string `mapstructure:"fallback_instance"`
}

// TimeoutsConfig 各層逾時
type TimeoutsConfig struct {
	Tool          time.Duration `mapstructure:"tool"`
	Generation    time.Duration `mapstructure:"generation"`
	ImageLookup   time.Duration `mapstructure:"image_lookup"`
	VideoSearch   time.Duration `mapstructure:"video_search"`
	VideoMetadata time.Duration `mapstructure:"video_metadata"`
	QueryRewrite  time.Duration `mapstructure:"query_rewrite"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	IngredientTTL         time.Duration `mapstructure:"ingredient_ttl"`
	DishTTL               time.Duration `mapstructure:"dish_ttl"`
	VideoTTL              time.Duration `mapstructure:"video_ttl"`
	DetailTTL             time.Duration `mapstructure:"detail_ttl"`
	InvidiousSearchTTL    time.Duration `mapstructure:"invidious_search_ttl"`
	InvidiousInstancesTTL time.Duration `mapstructure:"invidious_instances_ttl"`
	Redis                 RedisConfig   `mapstructure:"redis"`
}

// RedisConfig 第二層快取
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// DatabaseConfig 資料庫設定
type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// PersistConfig 背景寫入設定
type PersistConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// ResolverConfig 圖片解析設定
type ResolverConfig struct {
	DefaultCategory    string `mapstructure:"default_category"`
	PlaceholderBaseURL string `mapstructure:"placeholder_base_url"`
}

// ToolsConfig 工具層設定
type ToolsConfig struct {
	SingleFlight bool `mapstructure:"single_flight"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// envBindings 慣用環境變數名稱
var envBindings = map[string]string{
	"spoonacular.api_key":    "SPOONACULAR_API_KEY",
	"youtube.cookie":         "YOUTUBE_COOKIE",
	"llm.provider":           "LLM_PROVIDER",
	"llm.openrouter.api_key": "OPENROUTER_API_KEY",
	"llm.openrouter.model":   "OPENROUTER_MODEL",
	"llm.gemini.api_key":     "GEMINI_API_KEY",
	"llm.gemini.model":       "GEMINI_MODEL",
	"llm.max_tokens":         "MODEL_MAX_TOKENS",
	"database.url":           "POSTGRES_URL",
	"database.enabled":       "DATABASE_ENABLED",
	"cache.redis.addr":       "REDIS_ADDR",
	"cache.redis.enabled":    "REDIS_ENABLED",
	"cache.redis.password":   "REDIS_PASSWORD",
	"rate_limit.enabled":     "RATE_LIMIT_ENABLED",
	"rate_limit.requests":    "RATE_LIMIT_REQUESTS",
	"rate_limit.window":      "RATE_LIMIT_WINDOW",
	"tools.single_flight":    "SINGLE_FLIGHT",
	"dedup_window":           "DEDUP_WINDOW",
	"log_level":              "LOG_LEVEL",
	"server.port":            "PORT",
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Budget 由設定建立逾時預算
func (c *Config) Budget() common.Budget {
	return common.Budget{
		Tool:          c.Timeouts.Tool,
		Generation:    c.Timeouts.Generation,
		ImageLookup:   c.Timeouts.ImageLookup,
		VideoSearch:   c.Timeouts.VideoSearch,
		VideoMetadata: c.Timeouts.VideoMetadata,
		QueryRewrite:  c.Timeouts.QueryRewrite,
	}
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	budget := common.DefaultBudget()

	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-assistant")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 語言模型
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("llm.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")

	// 外部服務
	v.SetDefault("spoonacular.base_url", "https://api.spoonacular.com")
	v.SetDefault("youtube.base_url", "https://www.youtube.com")
	v.SetDefault("youtube.oembed_url", "https://www.youtube.com/oembed")
	v.SetDefault("youtube.client_version", "2.20250403.01.00")
	v.SetDefault("invidious.instances_url", "https://api.invidious.io/instances.json?pretty=1&sort_by=type,users")
	v.SetDefault("invidious.fallback_instance", "inv.nadeko.net")

	// 逾時預算
	v.SetDefault("timeouts.tool", budget.Tool)
	v.SetDefault("timeouts.generation", budget.Generation)
	v.SetDefault("timeouts.image_lookup", budget.ImageLookup)
	v.SetDefault("timeouts.video_search", budget.VideoSearch)
	v.SetDefault("timeouts.video_metadata", budget.VideoMetadata)
	v.SetDefault("timeouts.query_rewrite", budget.QueryRewrite)

	// 快取設定
	v.SetDefault("cache.ingredient_ttl", "24h")
	v.SetDefault("cache.dish_ttl", "24h")
	v.SetDefault("cache.video_ttl", "30m")
	v.SetDefault("cache.detail_ttl", "1h")
	v.SetDefault("cache.invidious_search_ttl", "10m")
	v.SetDefault("cache.invidious_instances_ttl", "30m")
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "recipe-assistant:")

	// 資料庫
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_open_conns", 10)

	// 背景寫入
	v.SetDefault("persist.workers", 2)
	v.SetDefault("persist.queue_size", 100)

	v.SetDefault("resolver.default_category", "other")
	v.SetDefault("resolver.placeholder_base_url", "/api/ingredient-image")
	v.SetDefault("tools.single_flight", false)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("random_seed", 0)
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.LLM.Provider {
	case "gemini", "openrouter", "none":
	default:
		return fmt.Errorf("unknown llm provider %q", config.LLM.Provider)
	}

	switch config.Resolver.DefaultCategory {
	case "other", "vegetable":
	default:
		return fmt.Errorf("invalid resolver default category %q", config.Resolver.DefaultCategory)
	}

	if config.Timeouts.Tool <= 0 || config.Timeouts.Generation <= 0 {
		return fmt.Errorf("tool and generation timeouts must be positive")
	}

	if config.Database.Enabled && config.Database.URL == "" {
		return fmt.Errorf("database url is required when database is enabled")
	}

	if config.Persist.Workers <= 0 {
		return fmt.Errorf("invalid persist workers")
	}
	if config.Persist.QueueSize <= 0 {
		return fmt.Errorf("invalid persist queue size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
