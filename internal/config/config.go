package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/weavebridge/internal/ir"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "WEAVEBRIDGE"

// HeaderName carries the per-request configuration JSON.
const HeaderName = "X-Hasura-DataConnector-Config"

// DefaultScheme is used when no scheme is configured.
const DefaultScheme = "http"

// Config is the store connection configuration.
//
// A Config is passed explicitly into every executing call; nothing in the
// module reads configuration from globals after Load returns.
type Config struct {
	Scheme    string `json:"scheme" yaml:"scheme"`
	Host      string `json:"host" yaml:"host"`
	APIKey    string `json:"apiKey" yaml:"apiKey"`
	OpenAIKey string `json:"openApiKey" yaml:"openApiKey"`

	// Env names the deployment environment. It only tags log output.
	Env string `json:"digsEnv,omitempty" yaml:"digsEnv,omitempty"`
}

// LoadOptions controls Load.
type LoadOptions struct {
	// EnvFiles are loaded with godotenv before the environment is read.
	// Variables already set in the process environment win.
	EnvFiles []string
}

// Load reads the base configuration from .env files and WEAVEBRIDGE_*
// environment variables:
//
//	WEAVEBRIDGE_SCHEME, WEAVEBRIDGE_HOST, WEAVEBRIDGE_API_KEY,
//	WEAVEBRIDGE_OPENAI_KEY, WEAVEBRIDGE_ENV
//
// Load does not validate; call Validate once request overlays are applied.
func Load(opts LoadOptions) (Config, error) {
	if len(opts.EnvFiles) > 0 {
		if err := godotenv.Load(opts.EnvFiles...); err != nil {
			return Config{}, ir.WrapError(ir.ErrCodeConfiguration, err, "load env files %v", opts.EnvFiles)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetDefault("scheme", DefaultScheme)
	for _, key := range []string{"scheme", "host", "api_key", "openai_key", "env"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, ir.WrapError(ir.ErrCodeConfiguration, err, "bind %s", key)
		}
	}

	cfg := Config{
		Scheme:    v.GetString("scheme"),
		Host:      v.GetString("host"),
		APIKey:    v.GetString("api_key"),
		OpenAIKey: v.GetString("openai_key"),
		Env:       v.GetString("env"),
	}
	return cfg.withDefaults(), nil
}

// overlay is the header payload. Absent keys leave the base value alone.
type overlay struct {
	Scheme    *string `json:"scheme"`
	Host      *string `json:"host"`
	APIKey    *string `json:"apiKey"`
	OpenAIKey *string `json:"openApiKey"`
	Env       *string `json:"digsEnv"`
}

// FromHeader overlays the JSON object in header onto base.
//
// An empty header returns base unchanged. A null scheme falls back to
// DefaultScheme.
func FromHeader(base Config, header string) (Config, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return base.withDefaults(), nil
	}

	var o overlay
	if err := json.Unmarshal([]byte(header), &o); err != nil {
		return Config{}, ir.WrapError(ir.ErrCodeConfiguration, err, "decode %s header", HeaderName)
	}

	cfg := base
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cfg.Scheme, o.Scheme)
	set(&cfg.Host, o.Host)
	set(&cfg.APIKey, o.APIKey)
	set(&cfg.OpenAIKey, o.OpenAIKey)
	set(&cfg.Env, o.Env)

	return cfg.withDefaults(), nil
}

// Offline returns a placeholder configuration for stores that never
// contact a remote service.
func Offline() Config {
	return Config{
		Scheme:    DefaultScheme,
		Host:      "localhost",
		APIKey:    "offline",
		OpenAIKey: "offline",
		Env:       "local",
	}
}

// URL returns scheme://host.
func (c Config) URL() string {
	return fmt.Sprintf("%s://%s", c.Scheme, c.Host)
}

// Masked returns a copy with secrets replaced, for display.
func (c Config) Masked() Config {
	c.APIKey = mask(c.APIKey)
	c.OpenAIKey = mask(c.OpenAIKey)
	return c
}

func (c Config) withDefaults() Config {
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
