package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 設定の優先順位: 既定値 → YAML ファイル → 環境変数
const envPrefix = "STUDIO_"

// Config はサービス全体の設定です。
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Log         LogConfig         `yaml:"log"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Assets      AssetsConfig      `yaml:"assets"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GeminiConfig struct {
	// APIKey はファイルに書かず、環境変数 GEMINI_API_KEY からのみ読み込みます。
	APIKey     string        `yaml:"-"`
	TextModel  string        `yaml:"text_model"`
	ImageModel string        `yaml:"image_model"`
	EditModel  string        `yaml:"edit_model"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

type CredentialsConfig struct {
	// Path が空の場合はユーザー設定ディレクトリ配下を使います。
	Path string `yaml:"path"`
}

type AssetsConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// Default は既定の設定を返します。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Gemini: GeminiConfig{
			TextModel:  "gemini-2.5-flash",
			ImageModel: "imagen-4.0-generate-001",
			EditModel:  "gemini-2.5-flash-image",
			Timeout:    120 * time.Second,
			CacheTTL:   30 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Assets: AssetsConfig{
			FetchTimeout: 20 * time.Second,
		},
	}
}

// Load は .env を読み込んだうえで、既定値に YAML と環境変数を順に重ねます。
// path が空、またはファイルが存在しない場合は YAML を読み飛ばします。
func Load(path string) (*Config, error) {
	// .env がなくてもエラーにしない
	_ = godotenv.Load(".env", ".env.local")

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Server.Addr, envPrefix+"ADDR")
	setString(&c.Gemini.TextModel, envPrefix+"TEXT_MODEL")
	setString(&c.Gemini.ImageModel, envPrefix+"IMAGE_MODEL")
	setString(&c.Gemini.EditModel, envPrefix+"EDIT_MODEL")
	setString(&c.Gemini.BaseURL, envPrefix+"GEMINI_BASE_URL")
	setString(&c.Log.Level, envPrefix+"LOG_LEVEL")
	setString(&c.Log.Format, envPrefix+"LOG_FORMAT")
	setString(&c.Credentials.Path, envPrefix+"CREDENTIALS_PATH")

	durations := map[string]*time.Duration{
		envPrefix + "READ_TIMEOUT":     &c.Server.ReadTimeout,
		envPrefix + "WRITE_TIMEOUT":    &c.Server.WriteTimeout,
		envPrefix + "SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
		envPrefix + "GEMINI_TIMEOUT":   &c.Gemini.Timeout,
		envPrefix + "CACHE_TTL":        &c.Gemini.CacheTTL,
		envPrefix + "FETCH_TIMEOUT":    &c.Assets.FetchTimeout,
	}
	for key, dst := range durations {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate は設定値の整合性を確認します。
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json: %q", c.Log.Format)
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini.timeout must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return nil
	}
	// 単位なしは秒として扱う
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid duration %s=%q", key, v)
	}
	*dst = time.Duration(secs) * time.Second
	return nil
}
