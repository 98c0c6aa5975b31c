package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort    string
	ServerHost    string
	PublicBaseURL string

	// Khalti e-payment gateway
	KhaltiSecretKey string
	KhaltiBaseURL   string

	// Related-events engine
	Similarity SimilarityConfig

	// Rebuild triggering
	RebuildSchedule      string
	RebuildQueueSize     int
	RebuildNotifyChannel string

	// Cache of ranked similar-event IDs; empty URL disables it
	RedisURL        string
	SimilarCacheTTL time.Duration

	// Observability
	JaegerEndpoint   string
	TraceSampleRatio float64
	LogLevel         string
}

type SimilarityConfig struct {
	TitleWeight       int
	DescriptionWeight int
	LocationWeight    int
	CategoryWeight    int
	MinScore          float64
	CategoryFilter    bool
	StopWordsFile     string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "event_booking"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ServerPort:    getEnv("SERVER_PORT", "8080"),
		ServerHost:    getEnv("SERVER_HOST", "localhost"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		KhaltiSecretKey: getEnv("KHALTI_SECRET_KEY", ""),
		KhaltiBaseURL:   getEnv("KHALTI_BASE_URL", "https://dev.khalti.com/api/v2/"),

		Similarity: SimilarityConfig{
			TitleWeight:       getEnvInt("SIMILARITY_TITLE_WEIGHT", 2),
			DescriptionWeight: getEnvInt("SIMILARITY_DESCRIPTION_WEIGHT", 1),
			LocationWeight:    getEnvInt("SIMILARITY_LOCATION_WEIGHT", 1),
			CategoryWeight:    getEnvInt("SIMILARITY_CATEGORY_WEIGHT", 2),
			MinScore:          getEnvFloat("SIMILARITY_MIN_SCORE", 0),
			CategoryFilter:    getEnvBool("SIMILARITY_CATEGORY_FILTER", true),
			StopWordsFile:     getEnv("STOPWORDS_FILE", ""),
		},

		RebuildSchedule:      getEnv("REBUILD_SCHEDULE", "@daily"),
		RebuildQueueSize:     getEnvInt("REBUILD_QUEUE_SIZE", 1),
		RebuildNotifyChannel: getEnv("REBUILD_NOTIFY_CHANNEL", "embeddings_rebuild"),

		RedisURL:        getEnv("REDIS_URL", ""),
		SimilarCacheTTL: getEnvDuration("SIMILAR_CACHE_TTL", 10*time.Minute),

		JaegerEndpoint:   getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		TraceSampleRatio: getEnvFloat("TRACE_SAMPLE_RATIO", 1),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if !strings.HasSuffix(cfg.KhaltiBaseURL, "/") {
		cfg.KhaltiBaseURL += "/"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	s := c.Similarity
	if s.TitleWeight < 0 || s.DescriptionWeight < 0 || s.LocationWeight < 0 || s.CategoryWeight < 0 {
		return fmt.Errorf("similarity field weights must not be negative")
	}
	if s.TitleWeight+s.DescriptionWeight+s.LocationWeight+s.CategoryWeight == 0 {
		return fmt.Errorf("at least one similarity field weight must be positive")
	}
	if c.RebuildQueueSize < 1 {
		return fmt.Errorf("REBUILD_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// PaymentConfigured reports whether a gateway secret is present.
func (c *Config) PaymentConfigured() bool {
	return c.KhaltiSecretKey != ""
}

// NewLogger builds the root logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

type stopWordsFile struct {
	StopWords []string `yaml:"stop_words"`
}

// LoadStopWords reads extra stop words from a YAML file with a top-level
// stop_words list. An empty path yields no words.
func LoadStopWords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stop words file: %w", err)
	}
	var f stopWordsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse stop words file: %w", err)
	}
	return f.StopWords, nil
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
