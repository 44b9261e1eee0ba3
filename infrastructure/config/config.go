package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

const developmentSessionSecret = "development-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string        `yaml:"server_address"`
	Environment   string        `yaml:"environment"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`

	// Storage
	StorageDriver    string `yaml:"storage_driver"`
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"dynamodb_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	SeedData         bool   `yaml:"seed_data"`

	// Events; an empty bus name logs events instead of publishing them
	EventBusName string `yaml:"event_bus_name"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Sessions
	SessionSecret       string        `yaml:"session_secret"`
	SessionIssuer       string        `yaml:"session_issuer"`
	SessionTTL          time.Duration `yaml:"session_ttl"`
	SessionCookieSecure bool          `yaml:"session_cookie_secure"`

	// WebSocket
	WSRequireSession        bool     `yaml:"ws_require_session"`
	WSMaxConnectionsPerUser int      `yaml:"ws_max_connections_per_user"`
	WSAllowedOrigins        []string `yaml:"ws_allowed_origins"`

	// WebSocketAPIEndpoint is the management endpoint of an API Gateway websocket
	// API (https://<id>.execute-api.<region>.amazonaws.com/<stage>). When set,
	// live delivery goes through API Gateway instead of the in-process hub.
	WebSocketAPIEndpoint string `yaml:"websocket_api_endpoint"`

	// Messaging policy
	MessagingRequireAcceptedRequest bool `yaml:"messaging_require_accepted_request"`

	// Feature flags
	EnableMetrics      bool     `yaml:"enable_metrics"`
	EnableTracing      bool     `yaml:"enable_tracing"`
	OTLPEndpoint       string   `yaml:"otlp_endpoint"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// ConfigFile is the YAML overlay this configuration was read from, if any
	ConfigFile string `yaml:"-"`
}

// LoadConfig loads configuration from defaults, the optional CONFIG_FILE YAML
// overlay and environment variables, in increasing order of priority.
func LoadConfig() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is LoadConfig with an explicit overlay path. An empty path skips the overlay.
func LoadFrom(path string) (*Config, error) {
	cfg := defaultConfig(getEnv("ENVIRONMENT", "development"))

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	applyEnvironment(cfg)

	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = developmentSessionSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig(environment string) *Config {
	return &Config{
		ServerAddress:           ":8080",
		Environment:             environment,
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            15 * time.Second,
		IdleTimeout:             60 * time.Second,
		StorageDriver:           StorageMemory,
		AWSRegion:               "us-west-2",
		DynamoDBTable:           "venturelink",
		SeedData:                environment == "development",
		LogLevel:                "info",
		SessionIssuer:           "venturelink",
		SessionTTL:              24 * time.Hour,
		WSRequireSession:        true,
		WSMaxConnectionsPerUser: 10,
		EnableMetrics:           true,
		OTLPEndpoint:            "localhost:4317",
		CORSAllowedOrigins:      []string{"*"},
	}
}

func applyEnvironment(cfg *Config) {
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.ReadTimeout = getEnvDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", cfg.IdleTimeout)

	cfg.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoDBTable = getEnv("DYNAMODB_TABLE", cfg.DynamoDBTable)
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", cfg.DynamoDBEndpoint)
	cfg.SeedData = getEnvBool("SEED_DATA", cfg.SeedData)
	cfg.EventBusName = getEnv("EVENT_BUS_NAME", cfg.EventBusName)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionIssuer = getEnv("SESSION_ISSUER", cfg.SessionIssuer)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.SessionCookieSecure = getEnvBool("SESSION_COOKIE_SECURE", cfg.SessionCookieSecure)

	cfg.WSRequireSession = getEnvBool("WS_REQUIRE_SESSION", cfg.WSRequireSession)
	cfg.WSMaxConnectionsPerUser = getEnvInt("WS_MAX_CONNECTIONS_PER_USER", cfg.WSMaxConnectionsPerUser)
	cfg.WSAllowedOrigins = getEnvList("WS_ALLOWED_ORIGINS", cfg.WSAllowedOrigins)
	cfg.WebSocketAPIEndpoint = getEnv("WEBSOCKET_API_ENDPOINT", cfg.WebSocketAPIEndpoint)

	cfg.MessagingRequireAcceptedRequest = getEnvBool("MESSAGING_REQUIRE_ACCEPTED_REQUEST", cfg.MessagingRequireAcceptedRequest)

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q: must be one of memory, dynamodb", c.StorageDriver)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.WSMaxConnectionsPerUser < 1 {
		return fmt.Errorf("WS_MAX_CONNECTIONS_PER_USER must be at least 1")
	}
	if c.WebSocketAPIEndpoint != "" && c.StorageDriver != StorageDynamoDB {
		return fmt.Errorf("WEBSOCKET_API_ENDPOINT requires the dynamodb storage driver")
	}

	if c.IsProduction() {
		if c.SessionSecret == "" || c.SessionSecret == developmentSessionSecret {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
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

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList reads a comma separated list
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
