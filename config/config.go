package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	DefaultLocale string `json:"default_locale"`
	Session       struct {
		CookieName string `json:"cookie_name"`
		/* Время жизни сессии в секундах */
		MaxAge int64 `json:"max_age"`
	} `json:"session"`
	AccessTokens struct {
		RequireExpiry bool `json:"require_expiry"`
	} `json:"access_tokens"`

	Env            string `json:"-" env:"GO_ENV"`
	DatabaseDriver string `json:"-" env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseUrl    string `json:"-" env:"DATABASE_URL"`
	SecretKey      string `json:"-" env:"SECRET"`
	Secret         []byte `json:"-"`
	OtelEndpoint   string `json:"-" env:"OTEL_ENDPOINT"`
}

const (
	defaultCookieName = "lapcounter_session"
	defaultMaxAge     = 12 * 60 * 60
	defaultLocale     = "de"
)

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}

func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config at %q not found", filePath)
	} else if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config parsing failed: %w", err)
	}
	if err = env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	cfg.Secret = []byte(cfg.SecretKey)
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("SECRET environment variable is not set")
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = defaultCookieName
	}
	if cfg.Session.MaxAge <= 0 {
		cfg.Session.MaxAge = defaultMaxAge
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = defaultLocale
	}
}

func (cfg *Config) SessionMaxAge() time.Duration {
	return time.Duration(cfg.Session.MaxAge) * time.Second
}

func (cfg *Config) IsDev() bool {
	return cfg.Env == "DEV"
}

// String masks secrets.
func (cfg *Config) String() string {
	return fmt.Sprintf("Config{Addr: %s:%d, Env: %s, DB: %s, Secret: *** (masked) ***}",
		cfg.Host, cfg.Port, cfg.Env, cfg.DatabaseDriver)
}

func WriteTemplate(filePath string) {
	tmpl := &Config{}
	tmpl.applyDefaults()
	data, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		log.Fatal("Config parsing failed with error - " + err.Error())
	}
	err = os.WriteFile(filePath, data, 0666)
	if err != nil {
		log.Fatal("Failed to save config tempate with error - " + err.Error())
	}
}
