package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"mlmdview/pkg/utils"
)

// Store backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `validate:"required"`
	Environment   string `validate:"oneof=development staging production test"`

	// Metadata store
	StoreBackend string `validate:"oneof=sqlite dynamodb memory"`
	MLMDDatabase string `validate:"required_if=StoreBackend sqlite"`
	FixturePath  string

	// AWS configuration
	AWSRegion     string `validate:"required_if=StoreBackend dynamodb"`
	DynamoDBTable string `validate:"required_if=StoreBackend dynamodb"`

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Graph rendering
	GraphvizDotPath string        `validate:"required"`
	RenderFormat    string        `validate:"oneof=png svg"`
	RenderTimeout   time.Duration `validate:"gt=0"`
	LinkBaseURL     string        `validate:"omitempty,url"`

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`

	// Rate limiting
	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
	// RateLimitTable switches Lambda deployments to DynamoDB-backed counters
	RateLimitTable string

	// Feature flags
	EnableMetrics    bool
	EnableCloudWatch bool
	EnableTracing    bool
	EnableCORS       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StoreBackend: getEnv("STORE_BACKEND", BackendSQLite),
		MLMDDatabase: getEnv("MLMD_DB", "mlmd.sqlite"),
		FixturePath:  getEnv("FIXTURE_PATH", ""),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "mlmd")),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		GraphvizDotPath: getEnv("GRAPHVIZ_DOT_PATH", "dot"),
		RenderFormat:    getEnv("RENDER_FORMAT", "png"),
		RenderTimeout:   getEnvDuration("RENDER_TIMEOUT", 10*time.Second),
		LinkBaseURL:     getEnv("LINK_BASE_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitTable: getEnv("RATE_LIMIT_TABLE", ""),

		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
		EnableCloudWatch: getEnvBool("ENABLE_CLOUDWATCH", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RateLimitEnabled reports whether requests are rate limited
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("10s") or plain seconds ("10")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
