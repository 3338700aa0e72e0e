package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/generator"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Imagen       ImagenConfig       `mapstructure:"imagen"`
	Pollinations PollinationsConfig `mapstructure:"pollinations"`
	Cache        CacheConfig        `mapstructure:"cache"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	GalleryLimit    int           `mapstructure:"gallery_limit"`
	BodyLimitMB     int           `mapstructure:"body_limit_mb"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ImagenConfig はホスト型プロバイダーの設定です。APIKey が空の場合はプロバイダーを構成しません。
type ImagenConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	ContentModel   string        `mapstructure:"content_model"`
	MaxImages      int           `mapstructure:"max_images"`
	NegativePrompt bool          `mapstructure:"negative_prompt"`
	SafetyFilter   bool          `mapstructure:"safety_filter"`
	SafetyLevel    string        `mapstructure:"safety_level"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// PollinationsConfig は公開画像APIの設定です。
// 既定のHTTPクライアントはループバックやプライベートアドレスへの接続を拒否するため、
// 自前でホストしたエンドポイントを base_url に指定する場合は allow_private_network を true にします。
type PollinationsConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	BaseURL             string        `mapstructure:"base_url"`
	AllowPrivateNetwork bool          `mapstructure:"allow_private_network"`
	Model               string        `mapstructure:"model"`
	Size                int           `mapstructure:"size"`
	MaxImages           int           `mapstructure:"max_images"`
	Workers             int           `mapstructure:"workers"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// Options は設定ローダーの挙動を制御します。
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load は既定値、YAML、.env、環境変数の順に設定をマージして返します。
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("load env file %s: %v", opts.EnvFile, err)}
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("load .env: %v", err)}
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else if cfg := os.Getenv("IMAGEGEN_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
	} else {
		v.SetConfigName("imagegen")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("IMAGEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 一般的なキー名もそのまま受け付ける
	_ = v.BindEnv("imagen.api_key", "IMAGEGEN_IMAGEN_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Imagen.APIKey = strings.TrimSpace(cfg.Imagen.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.gallery_limit", 100)
	v.SetDefault("server.body_limit_mb", 20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("imagen.api_key", "")
	v.SetDefault("imagen.model", generator.DefaultImagenModel)
	v.SetDefault("imagen.content_model", generator.DefaultImagenContentModel)
	v.SetDefault("imagen.max_images", generator.DefaultImagenMaxImages)
	v.SetDefault("imagen.negative_prompt", false)
	v.SetDefault("imagen.safety_filter", true)
	v.SetDefault("imagen.safety_level", string(domain.SafetyBlockMediumAndAbove))
	v.SetDefault("imagen.timeout", 2*time.Minute)

	v.SetDefault("pollinations.enabled", true)
	v.SetDefault("pollinations.base_url", generator.DefaultPollinationsBaseURL)
	v.SetDefault("pollinations.allow_private_network", false)
	v.SetDefault("pollinations.model", generator.DefaultPollinationsModel)
	v.SetDefault("pollinations.size", generator.DefaultPollinationsSize)
	v.SetDefault("pollinations.max_images", generator.DefaultPollinationsMaxImages)
	v.SetDefault("pollinations.workers", generator.DefaultPollinationsWorkers)
	v.SetDefault("pollinations.timeout", generator.DefaultRequestTimeout)

	v.SetDefault("cache.size", 64)
	v.SetDefault("cache.ttl", time.Hour)
}

// Validate は範囲外の値を検出します。APIキーの欠落はエラーにせず、そのプロバイダーを無効にします。
func (c *Config) Validate() error {
	if c.Imagen.MaxImages < 1 || c.Pollinations.MaxImages < 1 {
		return &domain.ConfigurationError{Reason: "max_images must be at least 1"}
	}
	if c.Pollinations.Workers < 1 {
		return &domain.ConfigurationError{Reason: "pollinations.workers must be at least 1"}
	}
	if c.Pollinations.Size < 64 {
		return &domain.ConfigurationError{Reason: "pollinations.size must be at least 64"}
	}
	if _, err := domain.ParseSafetyLevel(c.Imagen.SafetyLevel); err != nil {
		return &domain.ConfigurationError{Reason: err.Error()}
	}
	if !c.ImagenEnabled() && !c.Pollinations.Enabled {
		return &domain.ConfigurationError{Reason: "no provider is available: set GEMINI_API_KEY or enable pollinations"}
	}
	return nil
}

// ImagenEnabled はホスト型プロバイダーを構成できるかを返します。
func (c *Config) ImagenEnabled() bool {
	return c.Imagen.APIKey != ""
}
