package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config はアプリケーション設定を保持する
type Config struct {
	// Valkey接続設定
	RedisHost string `envconfig:"REDIS_HOST" required:"true"`
	RedisPort string `envconfig:"REDIS_PORT" required:"true"`
	RedisPass string `envconfig:"REDIS_PASS"`

	// Multifactor API設定
	MFAAPIURL    string `envconfig:"MFA_API_URL" required:"true"`
	MFAAPIKey    string `envconfig:"MFA_API_KEY" required:"true"`
	MFAAPISecret string `envconfig:"MFA_API_SECRET" required:"true"`

	// RADIUS設定
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":1812"`
	RadiusSecret string `envconfig:"RADIUS_SECRET"`

	// デフォルトクライアント設定（Valkey未登録NAS向けフォールバック）
	DefaultAuthSource  string `envconfig:"DEFAULT_AUTH_SOURCE" default:"none"`
	DefaultPreAuthMode string `envconfig:"DEFAULT_PREAUTH_MODE" default:"none"`

	// ログ設定
	LogMaskUserName bool `envconfig:"LOG_MASK_USER_NAME" default:"true"`
}

// Load は環境変数から設定を読み込む
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ValkeyAddr はValkey接続アドレスを "host:port" 形式で返す
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// DefaultClient はValkeyに未登録のNASに適用するClientConfigを返す。
// RADIUS_SECRETが未設定の場合はフォールバック無効としてnilを返す。
func (c *Config) DefaultClient() *ClientConfig {
	if c.RadiusSecret == "" {
		return nil
	}
	return &ClientConfig{
		Name:                 "default",
		Secret:               c.RadiusSecret,
		AuthenticationSource: c.DefaultAuthSource,
		PreAuthMode:          c.DefaultPreAuthMode,
	}
}

// validate は設定値のバリデーションを行う
func (c *Config) validate() error {
	if !strings.HasPrefix(c.MFAAPIURL, "http://") && !strings.HasPrefix(c.MFAAPIURL, "https://") {
		return fmt.Errorf("MFA_API_URL must start with http:// or https://")
	}
	if _, err := ParseAuthenticationSource(c.DefaultAuthSource); err != nil {
		return fmt.Errorf("DEFAULT_AUTH_SOURCE: %w", err)
	}
	if _, err := ParsePreAuthMode(c.DefaultPreAuthMode); err != nil {
		return fmt.Errorf("DEFAULT_PREAUTH_MODE: %w", err)
	}
	return nil
}
