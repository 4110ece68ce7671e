package config

import "github.com/caarlos0/env/v10"

// Config centralizes environment-driven configuration for every pipeline
// stage and the local query API. See spec.md §6 "Environment configuration".
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	// Policy Shield.
	PolicyThreshold          float64 `env:"POLICY_THRESHOLD" envDefault:"0.995"`
	PolicyStrictMode         bool    `env:"POLICY_STRICT_MODE" envDefault:"false"`
	PolicyBlockHardFail      bool    `env:"POLICY_BLOCK_HARD_FAIL" envDefault:"true"`
	PolicyPseudonymize       bool    `env:"POLICY_PSEUDONYMIZE" envDefault:"true"`
	PolicyDetectNames        bool    `env:"POLICY_DETECT_NAMES" envDefault:"true"`
	PolicyOpaqueTokens       bool    `env:"POLICY_OPAQUE_TOKENS" envDefault:"true"`
	PolicyEnableDP           bool    `env:"POLICY_ENABLE_DIFFERENTIAL_PRIVACY" envDefault:"true"`
	PolicyDPEpsilon          float64 `env:"POLICY_DP_EPSILON" envDefault:"1.0"`
	PolicyDPDelta            float64 `env:"POLICY_DP_DELTA" envDefault:"0.00001"`

	// Model client.
	ModelName          string  `env:"MODEL_NAME" envDefault:"llama3"`
	ModelTemperature   float64 `env:"MODEL_TEMPERATURE" envDefault:"0.1"`
	ModelSeed          int64   `env:"MODEL_SEED" envDefault:"42"`
	ModelNumPredict    int     `env:"MODEL_NUM_PREDICT" envDefault:"512"`
	ModelContextWindow int     `env:"MODEL_CONTEXT_WINDOW" envDefault:"8192"`
	ModelTopK          int     `env:"MODEL_TOP_K" envDefault:"40"`
	ModelTopP          float64 `env:"MODEL_TOP_P" envDefault:"0.9"`
	ModelRepeatPenalty float64 `env:"MODEL_REPEAT_PENALTY" envDefault:"1.1"`
	ModelBaseURL       string  `env:"MODEL_BASE_URL" envDefault:"http://localhost:11434"`

	// Concurrency.
	MaxConcurrentRequests int     `env:"MAX_CONCURRENT_REQUESTS" envDefault:"4"`
	RequestTimeoutS       int     `env:"REQUEST_TIMEOUT_S" envDefault:"30"`
	RetryAttempts         int     `env:"RETRY_ATTEMPTS" envDefault:"3"`
	BackoffInitialS       float64 `env:"BACKOFF_INITIAL_S" envDefault:"2"`

	// Storage / graph.
	GraphURI                 string `env:"GRAPH_URI"`
	GraphAuth                string `env:"GRAPH_AUTH"`
	PoolSize                 int    `env:"POOL_SIZE" envDefault:"100"`
	PoolLifetimeS            int    `env:"POOL_LIFETIME_S" envDefault:"300"`
	PoolAcquisitionTimeoutS  int    `env:"POOL_ACQUISITION_TIMEOUT_S" envDefault:"60"`

	// Operator auth gate for the local query API.
	OperatorPasswordHash string `env:"OPERATOR_PASSWORD_HASH"`
	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	// Redis (DP ledger mirror, operator login rate limiter).
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Optional SMTP run-completion notifier.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	NotifyTo     string `env:"NOTIFY_TO"`
}

// LoadConfig loads configuration from environment variables (and a loaded
// .env file, see cmd/*/main.go).
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
