package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config reúne as configurações do servidor lidas do ambiente
type Config struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	GoogleAPIKey string
	ModelName    string
	AppName      string
	UserID       string

	McpEndpoint   string
	McpAuthHeader string
	McpAuthToken  string

	WorkerPoolSize int

	LogLevel  string
	LogFormat string

	CorsAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// Default retorna a configuração padrão
func Default() Config {
	return Config{
		HTTPAddr:           ":8080",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       120 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		ModelName:          "gemini-2.5-flash",
		AppName:            "anyflix-support",
		UserID:             "default-user",
		McpAuthHeader:      "X-Tiger-Token",
		WorkerPoolSize:     16,
		LogLevel:           "info",
		LogFormat:          "console",
		CorsAllowedOrigins: []string{"*"},
		RateLimitRequests:  60,
		RateLimitWindow:    time.Minute,
	}
}

// FromEnv lê a configuração das variáveis de ambiente, usando os valores
// padrão quando a variável não está definida.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load monta a configuração a partir de uma função de lookup
func Load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	duration("READ_TIMEOUT", &cfg.ReadTimeout)
	duration("WRITE_TIMEOUT", &cfg.WriteTimeout)
	duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	str("GOOGLE_API_KEY", &cfg.GoogleAPIKey)
	str("MODEL_NAME", &cfg.ModelName)
	str("APP_NAME", &cfg.AppName)
	str("USER_ID", &cfg.UserID)

	str("MCP_ENDPOINT", &cfg.McpEndpoint)
	str("MCP_AUTH_HEADER", &cfg.McpAuthHeader)
	str("MCP_AUTH_TOKEN", &cfg.McpAuthToken)
	// nome antigo do token
	if cfg.McpAuthToken == "" {
		str("X_TIGER_TOKEN", &cfg.McpAuthToken)
	}

	integer("WORKER_POOL_SIZE", &cfg.WorkerPoolSize)

	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.CorsAllowedOrigins = splitList(v)
	}
	integer("RATE_LIMIT_REQUESTS", &cfg.RateLimitRequests)
	duration("RATE_LIMIT_WINDOW", &cfg.RateLimitWindow)

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate verifica os valores obrigatórios para o modo servidor
func (c Config) Validate() error {
	var errs []error
	if c.McpEndpoint == "" {
		errs = append(errs, errors.New("MCP_ENDPOINT is not set"))
	}
	if c.ModelName == "" {
		errs = append(errs, errors.New("MODEL_NAME is empty"))
	}
	if c.WorkerPoolSize <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", c.WorkerPoolSize))
	}
	if c.RateLimitRequests < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.RateLimitRequests))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
