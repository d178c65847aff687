// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type Config struct {
	Port                      string
	Environment               string
	InngestEventKey           string
	InngestSigningKey         string
	OpenAIAPIKey              string
	AzureOpenAIEndpoint       string
	AzureOpenAIKey            string
	AzureOpenAIDeploymentName string
	AnthropicAPIKey           string
	DatabaseURL               string
	SlackWebhookURL           string
	Database                  DatabaseConfig
	Log                       LogConfig
	Detection                 DetectionConfig
	Discovery                 DiscoveryConfig
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// LogConfig controls the global zap logger
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// DetectionConfig tunes the brand/competitor pipeline
type DetectionConfig struct {
	Strategy              models.Strategy
	ConsensusLookbackDays int
	GlobalGazetteerPath   string // empty uses the embedded gazetteer
	ReanalyzeConcurrency  int
}

// DiscoveryConfig controls the optional model-assisted discovery call
type DiscoveryConfig struct {
	Enabled         bool
	Provider        string // openai or anthropic
	Model           string
	Timeout         time.Duration
	MinConfidence   float64
	MaxTerms        int
	RatePerSecond   float64
	BreakerFailures int
	BreakerCooldown time.Duration
}

// ConsensusLookback is the window in which another provider's competitor counts toward the boost
func (d DetectionConfig) ConsensusLookback() time.Duration {
	return time.Duration(d.ConsensusLookbackDays) * 24 * time.Hour
}

func Load() *Config {
	config := &Config{
		Port:                      getEnv("PORT", "8000"),
		Environment:               getEnv("ENVIRONMENT", "development"),
		InngestEventKey:           os.Getenv("INNGEST_EVENT_KEY"),
		InngestSigningKey:         os.Getenv("INNGEST_SIGNING_KEY"),
		OpenAIAPIKey:              os.Getenv("OPENAI_API_KEY"),
		AzureOpenAIEndpoint:       os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIKey:            os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIDeploymentName: os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
		AnthropicAPIKey:           os.Getenv("ANTHROPIC_API_KEY"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		SlackWebhookURL:           os.Getenv("SLACK_WEBHOOK_URL"),
	}

	// Parse database configuration
	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// If DATABASE_URL parsing fails, try individual env vars as fallback
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "senso2"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Log = LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	strategy, ok := models.ParseStrategy(getEnv("DETECTION_STRATEGY", string(models.StrategyFallback)))
	if !ok {
		strategy = models.Strategy(os.Getenv("DETECTION_STRATEGY"))
	}
	config.Detection = DetectionConfig{
		Strategy:              strategy,
		ConsensusLookbackDays: getEnvInt("CONSENSUS_LOOKBACK_DAYS", 7),
		GlobalGazetteerPath:   os.Getenv("GLOBAL_GAZETTEER_PATH"),
		ReanalyzeConcurrency:  getEnvInt("REANALYZE_CONCURRENCY", 4),
	}

	config.Discovery = DiscoveryConfig{
		Enabled:         getEnvBool("DISCOVERY_ENABLED", false),
		Provider:        strings.ToLower(getEnv("DISCOVERY_PROVIDER", "openai")),
		Model:           getEnv("DISCOVERY_MODEL", "gpt-4.1-mini"),
		Timeout:         getEnvDuration("DISCOVERY_TIMEOUT", 8*time.Second),
		MinConfidence:   getEnvFloat("DISCOVERY_MIN_CONFIDENCE", 0.75),
		MaxTerms:        getEnvInt("DISCOVERY_MAX_TERMS", 20),
		RatePerSecond:   getEnvFloat("DISCOVERY_RATE_PER_SECOND", 5),
		BreakerFailures: getEnvInt("DISCOVERY_BREAKER_FAILURES", 5),
		BreakerCooldown: getEnvDuration("DISCOVERY_BREAKER_COOLDOWN", 30*time.Second),
	}

	return config
}

// Validate reports settings that would make the pipeline misbehave
func (c *Config) Validate() error {
	if _, ok := models.ParseStrategy(string(c.Detection.Strategy)); !ok {
		return eris.Errorf("config: unknown detection strategy %q", c.Detection.Strategy)
	}
	if c.Detection.ConsensusLookbackDays < 0 {
		return eris.New("config: consensus lookback must not be negative")
	}
	if !c.Discovery.Enabled {
		return nil
	}
	switch c.Discovery.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" && c.AzureOpenAIKey == "" {
			return eris.New("config: discovery provider openai needs OPENAI_API_KEY or AZURE_OPENAI_KEY")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return eris.New("config: discovery provider anthropic needs ANTHROPIC_API_KEY")
		}
	default:
		return eris.Errorf("config: unknown discovery provider %q", c.Discovery.Provider)
	}
	if c.Discovery.MinConfidence < 0 || c.Discovery.MinConfidence > 1 {
		return eris.Errorf("config: discovery min confidence %.2f out of range", c.Discovery.MinConfidence)
	}
	return nil
}

// InitLogger builds the global zap logger
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// ConnectionString renders the lib/pq keyword/value DSN
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432, // default
		User:            parsedURL.User.Username(),
		Name:            strings.TrimPrefix(parsedURL.Path, "/"),
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
