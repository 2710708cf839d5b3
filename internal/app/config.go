package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (PAZAR_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (PAZAR_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr    string `default:"127.0.0.1:6379" usage:"Redis address for chat realtime and background tasks" flag:"redis-addr"`
	TokenSecret  string `usage:"HS256 secret shared with the identity provider (PAZAR_TOKEN_SECRET)" flag:"token-secret"`
	APIKeyPepper string `usage:"HMAC pepper for admin API key hashing (PAZAR_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Netpay       NetpayConfig
	Kartpos      KartposConfig
	Email        EmailConfig
	Boost        BoostCfg
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// NetpayConfig configures the tokenized-card gateway client.
type NetpayConfig struct {
	BaseURL string `usage:"Netpay gateway base URL" flag:"netpay-url"`
	APIKey  string `usage:"Netpay bearer key" flag:"netpay-key"`
}

// KartposConfig configures the legacy form-encoded gateway client.
type KartposConfig struct {
	BaseURL    string `usage:"Kartpos gateway base URL" flag:"kartpos-url"`
	MerchantID string `usage:"Kartpos merchant id" flag:"kartpos-merchant"`
	Secret     string `usage:"Kartpos HMAC secret" flag:"kartpos-secret"`
}

// EmailConfig configures the e-mail delivery service. An empty endpoint makes
// the worker log messages instead of sending them.
type EmailConfig struct {
	Endpoint string `usage:"E-mail delivery service endpoint" flag:"email-endpoint"`
	APIKey   string `usage:"E-mail delivery service bearer key" flag:"email-key"`
}

// BoostCfg prices the paid listing promotion.
type BoostCfg struct {
	Price    string        `default:"25" usage:"Boost price in TRY" flag:"boost-price"`
	Duration time.Duration `default:"72h" usage:"How long one boost purchase lasts" flag:"boost-duration"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PAZAR",
		Files:     []string{"config.yaml", "/etc/pazaryeri/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PAZAR_DATABASE_URL or DATABASE_URL")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("token secret is required: set PAZAR_TOKEN_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's PAZAR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisAddr == "127.0.0.1:6379" {
		if v := os.Getenv("REDIS_ADDR"); v != "" {
			c.RedisAddr = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
