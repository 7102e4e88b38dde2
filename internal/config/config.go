package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"inventory-crud/internal/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort                string `envconfig:"APP_PORT" required:"true"`
	AppName                string `envconfig:"APP_NAME" default:"inventory-crud"`
	MongoURI               string `envconfig:"MONGO_URI" required:"true"`
	MongoDBName            string `envconfig:"MONGO_DB_NAME" default:"inventory"`
	PageSize               int    `envconfig:"PAGE_SIZE" default:"10"`
	ShutdownTimeoutMs      int64  `envconfig:"SHUTDOWN_TIMEOUT_MS" default:"10000"`
	HealthIntervalMs       int64  `envconfig:"HEALTH_INTERVAL_MS" default:"5000"`
	APIBaseURL             string `envconfig:"API_BASE_URL" default:"http://localhost:3000"`
	RemoteLogHttpURI       string `envconfig:"REMOTE_LOG_HTTP_URI"`
	RemoteTraceRpcURI      string `envconfig:"REMOTE_TRACE_RPC_URI"`
	RemoteProfilingHttpURI string `envconfig:"REMOTE_PROFILING_HTTP_URI"`
}

// SafeConfig is what gets logged; the Mongo URI may carry credentials.
type SafeConfig struct {
	AppPort                string `json:"app_port"`
	AppName                string `json:"app_name"`
	MongoDBName            string `json:"mongo_db_name"`
	PageSize               int    `json:"page_size"`
	ShutdownTimeoutMs      int64  `json:"shutdown_timeout_ms"`
	HealthIntervalMs       int64  `json:"health_interval_ms"`
	APIBaseURL             string `json:"api_base_url"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppPort:                c.AppPort,
		AppName:                c.AppName,
		MongoDBName:            c.MongoDBName,
		PageSize:               c.PageSize,
		ShutdownTimeoutMs:      c.ShutdownTimeoutMs,
		HealthIntervalMs:       c.HealthIntervalMs,
		APIBaseURL:             c.APIBaseURL,
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
	}
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalMs) * time.Millisecond
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) ➜ []slog.Attr{ slog.String("data.app_port", "3000"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key := prefix + "." + jsonKey(t.Field(i))

		switch v.Field(i).Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, v.Field(i).String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, v.Field(i).Int()))
		default:
			attrs = append(attrs, slog.Any(key, v.Field(i).Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logger.Warn(ctx, "No .env file found, using system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// envconfig accepts a variable that is set but empty.
	var missing []string
	if cfg.AppPort == "" {
		missing = append(missing, "APP_PORT")
	}
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("load config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("load config: PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}

	if cfg.RemoteLogHttpURI == "" {
		logger.Warn(ctx, "Missing REMOTE_LOG_HTTP_URI will skip sending log")
	}
	if cfg.RemoteTraceRpcURI == "" {
		logger.Warn(ctx, "Missing REMOTE_TRACE_RPC_URI will export traces to stdout")
	}
	if cfg.RemoteProfilingHttpURI == "" {
		logger.Warn(ctx, "Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
	}

	return &cfg, nil
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads the configuration once and exits the process when a
// required variable is missing.
func Instance() *Config {
	configOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			logger.Error(context.Background(), "Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		configInstance = cfg

		attrs := StructAttrs("data", cfg.ToSafeConfig())
		logger.Instance().Info("Configuration loaded successfully", logger.AttrsToArgs(attrs)...)
	})

	return configInstance
}
