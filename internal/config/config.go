package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Whop     WhopConfig     `koanf:"whop"`
	Mapbox   MapboxConfig   `koanf:"mapbox"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	OpenAI   OpenAIConfig   `koanf:"openai"`
	Webhook  WebhookConfig  `koanf:"webhook"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigin      string        `koanf:"cors_origin"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DatabaseConfig struct {
	URL         string `koanf:"url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type WhopConfig struct {
	APIKey     string `koanf:"api_key"`
	AppID      string `koanf:"app_id"`
	GraphQLURL string `koanf:"graphql_url"`
	// PublicKey is the PEM encoded ES256 key Whop signs user tokens with.
	PublicKey  string        `koanf:"public_key"`
	Timeout    time.Duration `koanf:"timeout"`
	PublicHost string        `koanf:"public_host"`
}

type MapboxConfig struct {
	Token       string        `koanf:"token"`
	Style       string        `koanf:"style"`
	PinColor    string        `koanf:"pin_color"`
	Zoom        int           `koanf:"zoom"`
	Width       int           `koanf:"width"`
	Height      int           `koanf:"height"`
	GeocodeTTL  time.Duration `koanf:"geocode_ttl"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`
}

// PipelineConfig holds the budgets of the background announcement pipeline.
type PipelineConfig struct {
	FetchTimeout   time.Duration `koanf:"fetch_timeout"`
	UploadTimeout  time.Duration `koanf:"upload_timeout"`
	ForumTimeout   time.Duration `koanf:"forum_timeout"`
	PostTimeout    time.Duration `koanf:"post_timeout"`
	MaxImageBytes  int64         `koanf:"max_image_bytes"`
	InlineImageURL bool          `koanf:"inline_image_url"`
	BufferSize     int64         `koanf:"buffer_size"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
	Size   string `koanf:"size"`
}

type WebhookConfig struct {
	DefaultURL string        `koanf:"default_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigin:      "*",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Whop: WhopConfig{
			GraphQLURL: "https://api.whop.com/public-graphql",
			Timeout:    15 * time.Second,
			PublicHost: "whop.com",
		},
		Mapbox: MapboxConfig{
			Style:       "streets-v12",
			PinColor:    "dc2626",
			Zoom:        12,
			Width:       300,
			Height:      200,
			GeocodeTTL:  24 * time.Hour,
			HTTPTimeout: 10 * time.Second,
		},
		Pipeline: PipelineConfig{
			FetchTimeout:  10 * time.Second,
			UploadTimeout: 8 * time.Second,
			ForumTimeout:  5 * time.Second,
			PostTimeout:   10 * time.Second,
			MaxImageBytes: 2 << 20,
			BufferSize:    64,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-image-1",
			Size:  "1024x1024",
		},
		Webhook: WebhookConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// envKeys maps the environment variables the service understands to config paths.
var envKeys = map[string]string{
	"PORT":                      "server.port",
	"SHUTDOWN_TIMEOUT":          "server.shutdown_timeout",
	"CORS_ORIGIN":               "server.cors_origin",
	"LOG_LEVEL":                 "log.level",
	"LOG_FORMAT":                "log.format",
	"POSTGRES_URL":              "database.url",
	"DATABASE_AUTO_MIGRATE":     "database.auto_migrate",
	"WHOP_API_KEY":              "whop.api_key",
	"WHOP_APP_ID":               "whop.app_id",
	"WHOP_GRAPHQL_URL":          "whop.graphql_url",
	"WHOP_PUBLIC_KEY":           "whop.public_key",
	"WHOP_TIMEOUT":              "whop.timeout",
	"WHOP_PUBLIC_HOST":          "whop.public_host",
	"MAPBOX_ACCESS_TOKEN":       "mapbox.token",
	"MAPBOX_STYLE":              "mapbox.style",
	"MAPBOX_PIN_COLOR":          "mapbox.pin_color",
	"MAPBOX_ZOOM":               "mapbox.zoom",
	"MAPBOX_WIDTH":              "mapbox.width",
	"MAPBOX_HEIGHT":             "mapbox.height",
	"MAPBOX_GEOCODE_TTL":        "mapbox.geocode_ttl",
	"MAPBOX_HTTP_TIMEOUT":       "mapbox.http_timeout",
	"PIPELINE_FETCH_TIMEOUT":    "pipeline.fetch_timeout",
	"PIPELINE_UPLOAD_TIMEOUT":   "pipeline.upload_timeout",
	"PIPELINE_FORUM_TIMEOUT":    "pipeline.forum_timeout",
	"PIPELINE_POST_TIMEOUT":     "pipeline.post_timeout",
	"PIPELINE_MAX_IMAGE_BYTES":  "pipeline.max_image_bytes",
	"PIPELINE_INLINE_IMAGE_URL": "pipeline.inline_image_url",
	"PIPELINE_BUFFER_SIZE":      "pipeline.buffer_size",
	"OPENAI_API_KEY":            "openai.api_key",
	"OPENAI_IMAGE_MODEL":        "openai.model",
	"OPENAI_IMAGE_SIZE":         "openai.size",
	"DEFAULT_WEBHOOK_URL":       "webhook.default_url",
	"WEBHOOK_TIMEOUT":           "webhook.timeout",
}

func envTransform(key string) string {
	return envKeys[strings.ToUpper(key)]
}

// Load reads defaults, then an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Pipeline.MaxImageBytes <= 0 {
		return errors.New("pipeline max image bytes must be positive")
	}
	for name, d := range map[string]time.Duration{
		"fetch":  c.Pipeline.FetchTimeout,
		"upload": c.Pipeline.UploadTimeout,
		"forum":  c.Pipeline.ForumTimeout,
		"post":   c.Pipeline.PostTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("pipeline %s timeout must be positive", name)
		}
	}
	if c.Whop.GraphQLURL == "" {
		return errors.New("whop graphql url is required")
	}
	return nil
}
