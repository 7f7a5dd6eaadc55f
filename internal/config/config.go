package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the server needs. Secrets come from the
// environment as well; nothing is read lazily at request time.
type Config struct {
	// HTTP server
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	RequestDeadline time.Duration `envconfig:"REQUEST_DEADLINE" default:"5m"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Text generation. All backends speak the OpenAI-compatible chat API;
	// they differ only in base URL, key and model name.
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	GeminiAPIKey   string        `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiBaseURL  string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	GeminiModel    string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GrokAPIKey     string        `envconfig:"GROK_API_KEY" required:"true"`
	GrokBaseURL    string        `envconfig:"GROK_BASE_URL" default:"https://api.x.ai/v1"`
	GrokModel      string        `envconfig:"GROK_MODEL" default:"grok-beta"`
	TextTimeout    time.Duration `envconfig:"TEXT_TIMEOUT" default:"120s"`
	TextMaxTokens  int           `envconfig:"TEXT_MAX_TOKENS" default:"1500"`
	TextMaxRetries int           `envconfig:"TEXT_MAX_RETRIES" default:"3"`

	// Image generation
	ImageAPIBaseURL  string        `envconfig:"IMAGE_API_BASE_URL" required:"true"`
	ImageAPIToken    string        `envconfig:"IMAGE_API_TOKEN" required:"true"`
	ImagenBaseURL    string        `envconfig:"IMAGEN_BASE_URL" default:""`
	ImageTimeout     time.Duration `envconfig:"IMAGE_TIMEOUT" default:"90s"`
	ImageMaxRetries  int           `envconfig:"IMAGE_MAX_RETRIES" default:"2"`
	ImageConcurrency int           `envconfig:"IMAGE_CONCURRENCY" default:"0"` // 0 = unbounded
	ImageFallbacks   []string      `envconfig:"IMAGE_FALLBACKS" default:"flux_schnell,flux_pro"`

	// Content safety classifier
	SafetyEndpoint  string        `envconfig:"SAFETY_ENDPOINT" required:"true"`
	SafetyAPIKey    string        `envconfig:"SAFETY_API_KEY" required:"true"`
	SafetyTimeout   time.Duration `envconfig:"SAFETY_TIMEOUT" default:"15s"`
	SafetyThreshold int           `envconfig:"SAFETY_THRESHOLD" default:"2"`

	// Blob storage (S3-compatible)
	S3Endpoint        string        `envconfig:"S3_ENDPOINT" default:""`
	S3Region          string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket          string        `envconfig:"S3_BUCKET" required:"true"`
	S3AccessKeyID     string        `envconfig:"S3_ACCESS_KEY_ID" required:"true"`
	S3SecretAccessKey string        `envconfig:"S3_SECRET_ACCESS_KEY" required:"true"`
	SignedURLTTL      time.Duration `envconfig:"SIGNED_URL_TTL" default:"5m"`

	// Document store (MongoDB)
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"storyfairy"`

	// Credit ledger (PostgreSQL)
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"storyfairy"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNECTIONS" default:"10"`

	// Redis (per-user generation lock)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL       time.Duration `envconfig:"GENERATION_LOCK_TTL" default:"10m"`
}

// GetDSN returns the PostgreSQL connection string for the ledger pool.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}
